package compute

import (
	"fmt"
	"sort"

	"corral"
)

// modelMountPath is where the runtime keeps model blobs inside every
// instance. All instances share one volume mounted here so a model pulled
// by one is visible to the rest.
const modelMountPath = "/root/.ollama"

// BuildTemplates lays out the instance set for a config: one CPU instance
// plus one instance per configured GPU device, CPU first and GPUs ordered
// by (length, value) of their instance id so gpu2 sorts before gpu10.
// network and backend are the resolved runtime facts the config left to
// autodetection.
func BuildTemplates(cfg Config, network string, backend corral.GPUBackend) []corral.InstanceTemplate {
	templates := make([]corral.InstanceTemplate, 0, 1+len(cfg.GPUDevices))
	templates = append(templates, corral.InstanceTemplate{
		InstanceID:    corral.TargetCPU,
		Target:        corral.TargetCPU,
		ContainerName: cfg.InstancePrefix + corral.TargetCPU,
		Image:         cfg.Image,
		Network:       network,
		ModelVolume:   cfg.ModelVolume,
		HostPort:      hostPortFor(cfg, 0),
	})

	for i, dev := range sortedDevices(cfg) {
		id := "gpu" + dev
		templates = append(templates, corral.InstanceTemplate{
			InstanceID:    id,
			Target:        corral.TargetGPU,
			ContainerName: cfg.InstancePrefix + id,
			Image:         cfg.Image,
			Network:       network,
			ModelVolume:   cfg.ModelVolume,
			GPUDeviceID:   dev,
			GPUBackend:    backend,
			HostPort:      hostPortFor(cfg, 1+i),
		})
	}

	for i := range templates {
		templates[i].Endpoint = endpointFor(cfg, templates[i])
	}
	return templates
}

// AllowedTargets returns the routing targets a config admits: "auto",
// "cpu", then the GPU instance ids ordered by (length, value). The
// ordering keeps gpu0..gpu9 ahead of gpu10 and is relied on by the
// resolver's GPU preference scan.
func AllowedTargets(cfg Config) []string {
	targets := make([]string, 0, 2+len(cfg.GPUDevices))
	targets = append(targets, corral.TargetAuto, corral.TargetCPU)
	for _, dev := range sortedDevices(cfg) {
		targets = append(targets, "gpu"+dev)
	}
	return targets
}

// FindTemplate looks an instance up by id.
func FindTemplate(templates []corral.InstanceTemplate, id string) (corral.InstanceTemplate, bool) {
	for _, t := range templates {
		if t.InstanceID == id {
			return t, true
		}
	}
	return corral.InstanceTemplate{}, false
}

func sortedDevices(cfg Config) []string {
	devices := append([]string(nil), cfg.GPUDevices...)
	sort.Slice(devices, func(i, j int) bool {
		return targetLess("gpu"+devices[i], "gpu"+devices[j])
	})
	return devices
}

// targetLess orders instance ids by length first, then lexicographically.
// Numeric suffixes of equal-length ids compare naturally, so gpu0..gpu9
// precede gpu10.
func targetLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func hostPortFor(cfg Config, slot int) int {
	if cfg.HostPortBase == 0 {
		return 0
	}
	return cfg.HostPortBase + slot
}

// endpointFor picks the base URL callers should dial for an instance.
// Published instances advertise loopback for host-resident callers;
// otherwise siblings on the container network reach the instance by
// container name.
func endpointFor(cfg Config, t corral.InstanceTemplate) string {
	if t.HostPort > 0 {
		return fmt.Sprintf("http://127.0.0.1:%d", t.HostPort)
	}
	return fmt.Sprintf("http://%s:%d", t.ContainerName, cfg.ServicePort)
}

package compute

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"corral"
)

// Environment variables understood by FromEnv. Everything has a usable
// default; a fresh host with a running engine needs none of them.
const (
	EnvGPUDevices         = "CORRAL_GPU_DEVICES"
	EnvNetwork            = "CORRAL_DOCKER_NETWORK"
	EnvImage              = "CORRAL_IMAGE"
	EnvModelVolume        = "CORRAL_MODEL_VOLUME"
	EnvInstancePrefix     = "CORRAL_INSTANCE_PREFIX"
	EnvGPUBackend         = "CORRAL_GPU_BACKEND"
	EnvHostPortBase       = "CORRAL_HOST_PORT_BASE"
	EnvEndpointAutodetect = "CORRAL_ENDPOINT_AUTODETECT"
	EnvEndpointCandidates = "CORRAL_ENDPOINT_CANDIDATES"
	EnvSettingsDB         = "CORRAL_SETTINGS_DB"
)

// Defaults applied by Normalize.
const (
	DefaultImage       = "ollama/ollama:latest"
	DefaultModelVolume = "corral-models"
	DefaultPrefix      = "corral-"
	DefaultServicePort = 11434
	DefaultSettingsDB  = "corral.db"

	defaultHealthProbeTimeout = 1500 * time.Millisecond
	defaultHealthTTL          = 5 * time.Second
	defaultGPUNameTTL         = 30 * time.Second
	defaultDiscoveryTimeout   = 350 * time.Millisecond
	defaultDiscoveryTTL       = 15 * time.Second
	defaultSnapshotTTL        = 3 * time.Second
	defaultStopTimeout        = 20 * time.Second
)

// Config carries everything the compute engine needs to lay out and drive
// its instances. Zero value plus Normalize yields a working CPU-only setup.
type Config struct {
	// GPUDevices lists the GPU device indices to manage, in the order
	// they were configured. Empty means CPU-only.
	GPUDevices []string

	// Network is the container network instances join. Empty means
	// autodetect from the calling process's own container, falling back
	// to the engine default.
	Network string

	// Image is the runtime image every instance runs.
	Image string

	// ModelVolume names the shared volume mounted into every instance so
	// model blobs are downloaded once.
	ModelVolume string

	// InstancePrefix prefixes container names, e.g. "corral-" yields
	// corral-cpu and corral-gpu0.
	InstancePrefix string

	// GPUBackend pins the GPU vendor stack. Empty means autodetect.
	GPUBackend corral.GPUBackend

	// ServicePort is the port the runtime serves on inside the container.
	ServicePort int

	// HostPortBase, when non-zero, publishes each instance on a host port
	// (cpu at base, gpuN at base+1+N) and advertises loopback endpoints
	// for host-resident callers. Zero keeps traffic on the container
	// network.
	HostPortBase int

	// EndpointAutodetect enables probing for an already-running service
	// before falling back to managed instances.
	EndpointAutodetect bool

	// EndpointCandidates are extra base URLs discovery probes first.
	EndpointCandidates []string

	// Probe timeouts and cache lifetimes. Zero values pick the defaults.
	HealthProbeTimeout time.Duration
	HealthTTL          time.Duration
	GPUNameTTL         time.Duration
	DiscoveryTimeout   time.Duration
	DiscoveryTTL       time.Duration
	SnapshotTTL        time.Duration
	StopTimeout        time.Duration
}

// FromEnv builds a Config from the process environment. The result is not
// yet normalized.
func FromEnv() Config {
	cfg := Config{
		GPUDevices:         splitList(os.Getenv(EnvGPUDevices)),
		Network:            os.Getenv(EnvNetwork),
		Image:              os.Getenv(EnvImage),
		ModelVolume:        os.Getenv(EnvModelVolume),
		InstancePrefix:     os.Getenv(EnvInstancePrefix),
		GPUBackend:         corral.GPUBackend(strings.ToLower(os.Getenv(EnvGPUBackend))),
		EndpointAutodetect: true,
		EndpointCandidates: splitList(os.Getenv(EnvEndpointCandidates)),
	}
	if raw := os.Getenv(EnvEndpointAutodetect); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.EndpointAutodetect = v
		}
	}
	if raw := os.Getenv(EnvHostPortBase); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.HostPortBase = v
		}
	}
	return cfg
}

// Normalize fills defaults and validates a Config. It is idempotent:
// normalizing a normalized config is a no-op.
func Normalize(cfg Config) (Config, error) {
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.ModelVolume == "" {
		cfg.ModelVolume = DefaultModelVolume
	}
	if cfg.InstancePrefix == "" {
		cfg.InstancePrefix = DefaultPrefix
	}
	if cfg.ServicePort == 0 {
		cfg.ServicePort = DefaultServicePort
	}
	if cfg.ServicePort < 0 || cfg.ServicePort > 65535 {
		return Config{}, &ValidationError{Field: "service_port", Message: fmt.Sprintf("out of range: %d", cfg.ServicePort)}
	}
	if cfg.HostPortBase < 0 || cfg.HostPortBase > 65535 {
		return Config{}, &ValidationError{Field: "host_port_base", Message: fmt.Sprintf("out of range: %d", cfg.HostPortBase)}
	}

	switch cfg.GPUBackend {
	case "", corral.GPUBackendNvidia, corral.GPUBackendAMD:
	default:
		return Config{}, &ValidationError{Field: "gpu_backend", Message: fmt.Sprintf("unknown backend %q", cfg.GPUBackend)}
	}

	devices := make([]string, 0, len(cfg.GPUDevices))
	seen := make(map[string]struct{}, len(cfg.GPUDevices))
	for _, raw := range cfg.GPUDevices {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 32); err != nil {
			return Config{}, &ValidationError{Field: "gpu_devices", Message: fmt.Sprintf("device id %q is not an index", raw)}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		devices = append(devices, id)
	}
	cfg.GPUDevices = devices

	candidates := make([]string, 0, len(cfg.EndpointCandidates))
	for _, raw := range cfg.EndpointCandidates {
		c := strings.TrimRight(strings.TrimSpace(raw), "/")
		if c != "" {
			candidates = append(candidates, c)
		}
	}
	cfg.EndpointCandidates = candidates

	if cfg.HealthProbeTimeout <= 0 {
		cfg.HealthProbeTimeout = defaultHealthProbeTimeout
	}
	if cfg.HealthTTL <= 0 {
		cfg.HealthTTL = defaultHealthTTL
	}
	if cfg.GPUNameTTL <= 0 {
		cfg.GPUNameTTL = defaultGPUNameTTL
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = defaultDiscoveryTimeout
	}
	if cfg.DiscoveryTTL <= 0 {
		cfg.DiscoveryTTL = defaultDiscoveryTTL
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = defaultSnapshotTTL
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}
	return cfg, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

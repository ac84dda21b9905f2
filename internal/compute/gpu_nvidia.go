package compute

import (
	"context"
	"errors"
	"strings"

	"corral"
)

// nvidiaStrategy detects NVIDIA devices through nvidia-smi's CSV query,
// falling back to the per-GPU information files the kernel driver exposes
// under /proc.
type nvidiaStrategy struct{}

var errDeviceNameNotFound = errors.New("device name not found")

var nvidiaSMIQuery = []string{"nvidia-smi", "--query-gpu=index,name", "--format=csv,noheader"}

const nvidiaDriverInfoGlob = "/proc/driver/nvidia/gpus/*/information"

func (nvidiaStrategy) backend() corral.GPUBackend { return corral.GPUBackendNvidia }

func (nvidiaStrategy) present(host HostSystem) bool {
	return host.PathExists("/dev/nvidiactl") ||
		host.PathExists("/dev/nvidia0") ||
		host.LookPath("nvidia-smi")
}

func (nvidiaStrategy) nameInContainer(ctx context.Context, runtime ContainerRuntime, containerName, deviceID string) (string, error) {
	out, err := runtime.ContainerExec(ctx, containerName, nvidiaSMIQuery)
	if err == nil {
		if name, ok := parseNvidiaSMI(out, deviceID); ok {
			return name, nil
		}
	}

	out, err = runtime.ContainerExec(ctx, containerName, []string{"sh", "-c", "cat " + nvidiaDriverInfoGlob})
	if err != nil {
		return "", err
	}
	if name, ok := parseNvidiaDriverInfo(out, deviceID); ok {
		return name, nil
	}
	return "", errDeviceNameNotFound
}

func (nvidiaStrategy) nameOnHost(ctx context.Context, host HostSystem, deviceID string) (string, error) {
	if host.LookPath("nvidia-smi") {
		if out, err := host.Run(ctx, nvidiaSMIQuery[0], nvidiaSMIQuery[1:]...); err == nil {
			if name, ok := parseNvidiaSMI(out, deviceID); ok {
				return name, nil
			}
		}
	}

	paths, err := host.Glob(nvidiaDriverInfoGlob)
	if err != nil {
		return "", err
	}
	var combined strings.Builder
	for _, p := range paths {
		data, err := host.ReadFile(p)
		if err != nil {
			continue
		}
		combined.Write(data)
		combined.WriteByte('\n')
	}
	if name, ok := parseNvidiaDriverInfo(combined.String(), deviceID); ok {
		return name, nil
	}
	return "", errDeviceNameNotFound
}

// parseNvidiaSMI picks the device name out of nvidia-smi CSV output:
//
//	0, NVIDIA GeForce RTX 4090
//	1, NVIDIA GeForce RTX 3090
//
// The row whose index matches deviceID wins.
func parseNvidiaSMI(out, deviceID string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		index, name, ok := strings.Cut(line, ",")
		if !ok || strings.TrimSpace(index) != deviceID {
			continue
		}
		if n := strings.TrimSpace(name); n != "" {
			return n, true
		}
	}
	return "", false
}

// parseNvidiaDriverInfo scans concatenated driver information files:
//
//	Model:           NVIDIA GeForce RTX 4090
//	...
//	Device Minor:    0
//
// Each file describes one GPU; the block whose minor number matches
// deviceID wins. When no minor matches, the first model seen is the answer
// (single-GPU hosts predate the minor line).
func parseNvidiaDriverInfo(out, deviceID string) (string, bool) {
	var firstModel, blockModel string
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Model":
			blockModel = value
			if firstModel == "" {
				firstModel = value
			}
		case "Device Minor":
			if value == deviceID && blockModel != "" {
				return blockModel, true
			}
		}
	}
	if firstModel != "" {
		return firstModel, true
	}
	return "", false
}

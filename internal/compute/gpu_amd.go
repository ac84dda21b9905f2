package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"corral"
)

// amdStrategy detects AMD devices through rocm-smi, preferring its JSON
// output, then the plain text rendering, then the per-card sysfs product
// file.
type amdStrategy struct{}

func (amdStrategy) backend() corral.GPUBackend { return corral.GPUBackendAMD }

func (amdStrategy) present(host HostSystem) bool {
	return host.PathExists("/dev/kfd") || host.LookPath("rocm-smi")
}

func amdSysfsProductPath(deviceID string) string {
	return fmt.Sprintf("/sys/class/drm/card%s/device/product_name", deviceID)
}

func (amdStrategy) nameInContainer(ctx context.Context, runtime ContainerRuntime, containerName, deviceID string) (string, error) {
	out, err := runtime.ContainerExec(ctx, containerName, []string{"rocm-smi", "--showproductname", "--json"})
	if err == nil {
		if name, ok := parseROCmJSON(out, deviceID); ok {
			return name, nil
		}
	}

	out, err = runtime.ContainerExec(ctx, containerName, []string{"rocm-smi", "--showproductname"})
	if err == nil {
		if name, ok := parseROCmText(out, deviceID); ok {
			return name, nil
		}
	}

	out, err = runtime.ContainerExec(ctx, containerName, []string{"sh", "-c", "cat " + amdSysfsProductPath(deviceID)})
	if err != nil {
		return "", err
	}
	if name := strings.TrimSpace(out); name != "" {
		return name, nil
	}
	return "", errDeviceNameNotFound
}

func (amdStrategy) nameOnHost(ctx context.Context, host HostSystem, deviceID string) (string, error) {
	if host.LookPath("rocm-smi") {
		if out, err := host.Run(ctx, "rocm-smi", "--showproductname", "--json"); err == nil {
			if name, ok := parseROCmJSON(out, deviceID); ok {
				return name, nil
			}
		}
		if out, err := host.Run(ctx, "rocm-smi", "--showproductname"); err == nil {
			if name, ok := parseROCmText(out, deviceID); ok {
				return name, nil
			}
		}
	}

	data, err := host.ReadFile(amdSysfsProductPath(deviceID))
	if err != nil {
		return "", err
	}
	if name := strings.TrimSpace(string(data)); name != "" {
		return name, nil
	}
	return "", errDeviceNameNotFound
}

// parseROCmJSON reads rocm-smi's JSON shape:
//
//	{"card0": {"Card series": "Radeon RX 7900 XTX", "Card model": "0x744c"}}
//
// Field names vary across rocm-smi versions, so match by substring. Hex
// ids such as "0x744c" are skipped; they are device ids, not names.
func parseROCmJSON(out, deviceID string) (string, bool) {
	var doc map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return "", false
	}
	card, ok := doc["card"+deviceID]
	if !ok {
		return "", false
	}
	for _, want := range []string{"series", "product", "model"} {
		for key, raw := range card {
			value, ok := raw.(string)
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" || strings.HasPrefix(value, "0x") {
				continue
			}
			if strings.Contains(strings.ToLower(key), want) {
				return value, true
			}
		}
	}
	return "", false
}

// parseROCmText reads rocm-smi's plain rendering:
//
//	GPU[0]          : Card series:          Radeon RX 7900 XTX
//
// The line for the matching GPU index wins; the name is everything after
// the last colon.
func parseROCmText(out, deviceID string) (string, bool) {
	prefix := "GPU[" + deviceID + "]"
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "series") && !strings.Contains(lower, "product") {
			continue
		}
		if i := strings.LastIndex(line, ":"); i >= 0 {
			if name := strings.TrimSpace(line[i+1:]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

package fake

import (
	"context"
	"errors"
	"testing"
)

func TestHostSystem_Probes(t *testing.T) {
	h := NewHostSystem()

	h.AddPath("/dev/kfd")
	h.AddBinary("nvidia-smi")
	h.AddFile("/sys/class/drm/card0/device/product_name", []byte("Radeon RX 7900 XTX\n"))
	h.AddGlob("/proc/driver/nvidia/gpus/*/information", "/proc/driver/nvidia/gpus/0000:01:00.0/information")

	if !h.PathExists("/dev/kfd") || h.PathExists("/dev/nvidiactl") {
		t.Error("path probe wrong")
	}
	if !h.LookPath("nvidia-smi") || h.LookPath("rocm-smi") {
		t.Error("binary probe wrong")
	}

	data, err := h.ReadFile("/sys/class/drm/card0/device/product_name")
	if err != nil || string(data) != "Radeon RX 7900 XTX\n" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if _, err := h.ReadFile("/absent"); err == nil {
		t.Error("expected missing file to error")
	}

	matches, err := h.Glob("/proc/driver/nvidia/gpus/*/information")
	if err != nil || len(matches) != 1 {
		t.Errorf("Glob = %v, %v", matches, err)
	}
}

func TestHostSystem_Run(t *testing.T) {
	h := NewHostSystem()
	ctx := context.Background()

	h.SetRunResponse("0, NVIDIA RTX A6000", "nvidia-smi", "--query-gpu=index,name", "--format=csv,noheader")

	out, err := h.Run(ctx, "nvidia-smi", "--query-gpu=index,name", "--format=csv,noheader")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "0, NVIDIA RTX A6000" {
		t.Errorf("Run = %q", out)
	}

	if _, err := h.Run(ctx, "rocm-smi"); err == nil {
		t.Error("expected unconfigured command to fail")
	}

	boom := errors.New("exit status 1")
	h.SetRunError(boom, "nvidia-smi")
	if _, err := h.Run(ctx, "nvidia-smi"); !errors.Is(err, boom) {
		t.Errorf("Run err = %v, want boom", err)
	}
}

package compute_test

import (
	"context"
	"testing"
	"time"

	"corral"
	"corral/internal/adapter/fake"
	"corral/internal/compute"
)

var nvidiaSMIArgs = []string{"--query-gpu=index,name", "--format=csv,noheader"}

func detectorConfig(t *testing.T) compute.Config {
	t.Helper()
	cfg, err := compute.Normalize(compute.Config{GPUNameTTL: 30 * time.Second})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return cfg
}

func newDetector(t *testing.T) (*compute.GPUDetector, *fake.ContainerRuntime, *fake.HostSystem, *fake.Clock) {
	t.Helper()
	runtime := fake.NewContainerRuntime()
	host := fake.NewHostSystem()
	clock := fake.NewClock(time.Now())
	d := compute.NewGPUDetector(detectorConfig(t), runtime, host, compute.WithDetectorClock(clock))
	return d, runtime, host, clock
}

func TestResolveBackend(t *testing.T) {
	t.Run("explicit config wins over detection", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddPath("/dev/nvidiactl")

		cfg := detectorConfig(t)
		cfg.GPUBackend = corral.GPUBackendAMD
		if got := d.ResolveBackend(cfg); got != corral.GPUBackendAMD {
			t.Errorf("ResolveBackend = %q, want amd", got)
		}
	})

	t.Run("nvidia device node detected", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddPath("/dev/nvidiactl")

		if got := d.ResolveBackend(detectorConfig(t)); got != corral.GPUBackendNvidia {
			t.Errorf("ResolveBackend = %q, want nvidia", got)
		}
	})

	t.Run("amd device node detected", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddPath("/dev/kfd")

		if got := d.ResolveBackend(detectorConfig(t)); got != corral.GPUBackendAMD {
			t.Errorf("ResolveBackend = %q, want amd", got)
		}
	})

	t.Run("nvidia wins when both are present", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddPath("/dev/nvidiactl")
		host.AddPath("/dev/kfd")

		if got := d.ResolveBackend(detectorConfig(t)); got != corral.GPUBackendNvidia {
			t.Errorf("ResolveBackend = %q, want nvidia", got)
		}
	})

	t.Run("bare host defaults to nvidia", func(t *testing.T) {
		d, _, _, _ := newDetector(t)

		if got := d.ResolveBackend(detectorConfig(t)); got != corral.GPUBackendNvidia {
			t.Errorf("ResolveBackend = %q, want nvidia", got)
		}
	})
}

func TestBackendPresent(t *testing.T) {
	d, _, host, _ := newDetector(t)
	host.AddBinary("nvidia-smi")

	if !d.BackendPresent(corral.GPUBackendNvidia) {
		t.Error("nvidia not present despite nvidia-smi on PATH")
	}
	if d.BackendPresent(corral.GPUBackendAMD) {
		t.Error("amd present on a host without rocm")
	}

	host.AddBinary("rocm-smi")
	if !d.BackendPresent(corral.GPUBackendAMD) {
		t.Error("amd not present despite rocm-smi on PATH")
	}
}

func TestContainerDeviceName(t *testing.T) {
	t.Run("nvidia-smi output wins", func(t *testing.T) {
		d, runtime, _, _ := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, true)
		runtime.SetExecResponse("corral-gpu0", append([]string{"nvidia-smi"}, nvidiaSMIArgs...),
			"0, NVIDIA GeForce RTX 4090\n")

		got := d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got != "NVIDIA GeForce RTX 4090" {
			t.Errorf("ContainerDeviceName = %q", got)
		}
	})

	t.Run("driver information fallback", func(t *testing.T) {
		d, runtime, _, _ := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, true)
		runtime.SetExecResponse("corral-gpu0",
			[]string{"sh", "-c", "cat /proc/driver/nvidia/gpus/*/information"},
			"Model: NVIDIA GeForce RTX 3090\nDevice Minor: 0\n")

		got := d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got != "NVIDIA GeForce RTX 3090" {
			t.Errorf("ContainerDeviceName = %q", got)
		}
	})

	t.Run("amd rocm json", func(t *testing.T) {
		d, runtime, _, _ := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, true)
		runtime.SetExecResponse("corral-gpu0", []string{"rocm-smi", "--showproductname", "--json"},
			`{"card0": {"Card series": "Radeon RX 7900 XTX"}}`)

		got := d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendAMD, "0")
		if got != "Radeon RX 7900 XTX" {
			t.Errorf("ContainerDeviceName = %q", got)
		}
	})

	t.Run("undetectable name is empty, not an error", func(t *testing.T) {
		d, runtime, _, _ := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, false)

		got := d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got != "" {
			t.Errorf("ContainerDeviceName = %q, want empty", got)
		}
	})
}

func TestContainerDeviceNameCaching(t *testing.T) {
	t.Run("detected name is cached per instance", func(t *testing.T) {
		d, runtime, _, clock := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, true)
		runtime.SetExecResponse("corral-gpu0", append([]string{"nvidia-smi"}, nvidiaSMIArgs...),
			"0, NVIDIA GeForce RTX 4090\n")

		d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got := runtime.Count("ContainerExec"); got != 1 {
			t.Fatalf("ContainerExec ran %d times, want 1", got)
		}

		clock.Advance(31 * time.Second)
		d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got := runtime.Count("ContainerExec"); got != 2 {
			t.Errorf("ContainerExec ran %d times after expiry, want 2", got)
		}
	})

	t.Run("failed detection is cached too", func(t *testing.T) {
		d, runtime, _, _ := newDetector(t)
		runtime.SeedContainer("corral-gpu0", nil, false)

		d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		execsAfterFirst := runtime.Count("ContainerExec")
		if execsAfterFirst == 0 {
			t.Fatal("expected at least one exec attempt")
		}

		d.ContainerDeviceName(context.Background(), "gpu0", "corral-gpu0", corral.GPUBackendNvidia, "0")
		if got := runtime.Count("ContainerExec"); got != execsAfterFirst {
			t.Errorf("second lookup ran %d more execs, want cached failure", got-execsAfterFirst)
		}
	})
}

func TestHostDeviceName(t *testing.T) {
	t.Run("nvidia-smi on host", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddBinary("nvidia-smi")
		host.SetRunResponse("0, NVIDIA H100\n", "nvidia-smi", nvidiaSMIArgs...)

		got := d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")
		if got != "NVIDIA H100" {
			t.Errorf("HostDeviceName = %q", got)
		}
	})

	t.Run("driver information files without nvidia-smi", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddGlob("/proc/driver/nvidia/gpus/*/information",
			"/proc/driver/nvidia/gpus/0000:01:00.0/information")
		host.AddFile("/proc/driver/nvidia/gpus/0000:01:00.0/information",
			[]byte("Model: NVIDIA T4\nDevice Minor: 0\n"))

		got := d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")
		if got != "NVIDIA T4" {
			t.Errorf("HostDeviceName = %q", got)
		}
	})

	t.Run("amd sysfs product file", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddFile("/sys/class/drm/card1/device/product_name", []byte("Radeon Pro W7900\n"))

		got := d.HostDeviceName(context.Background(), corral.GPUBackendAMD, "1")
		if got != "Radeon Pro W7900" {
			t.Errorf("HostDeviceName = %q", got)
		}
	})

	t.Run("amd rocm-smi json on host", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddBinary("rocm-smi")
		host.SetRunResponse(`{"card0": {"Card series": "AMD Instinct MI300X"}}`,
			"rocm-smi", "--showproductname", "--json")

		got := d.HostDeviceName(context.Background(), corral.GPUBackendAMD, "0")
		if got != "AMD Instinct MI300X" {
			t.Errorf("HostDeviceName = %q", got)
		}
	})

	t.Run("cached per backend and device", func(t *testing.T) {
		d, _, host, _ := newDetector(t)
		host.AddBinary("nvidia-smi")
		host.SetRunResponse("0, NVIDIA H100\n1, NVIDIA A100\n", "nvidia-smi", nvidiaSMIArgs...)

		d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")
		d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")
		if got := host.Count("Run"); got != 1 {
			t.Fatalf("Run invoked %d times, want 1", got)
		}

		// A different device id is its own cache entry.
		if got := d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "1"); got != "NVIDIA A100" {
			t.Errorf("HostDeviceName(1) = %q", got)
		}
		if got := host.Count("Run"); got != 2 {
			t.Errorf("Run invoked %d times, want 2", got)
		}
	})
}

func TestDetectorInvalidate(t *testing.T) {
	d, _, host, _ := newDetector(t)
	host.AddBinary("nvidia-smi")
	host.SetRunResponse("0, NVIDIA H100\n", "nvidia-smi", nvidiaSMIArgs...)

	d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")
	d.Invalidate()
	d.HostDeviceName(context.Background(), corral.GPUBackendNvidia, "0")

	if got := host.Count("Run"); got != 2 {
		t.Errorf("Run invoked %d times, want 2 after invalidation", got)
	}
}

package compute

import (
	"errors"
	"testing"
	"time"

	"corral"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg, err := Normalize(Config{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if cfg.Image != DefaultImage {
		t.Errorf("Image = %q, want %q", cfg.Image, DefaultImage)
	}
	if cfg.ModelVolume != DefaultModelVolume {
		t.Errorf("ModelVolume = %q, want %q", cfg.ModelVolume, DefaultModelVolume)
	}
	if cfg.InstancePrefix != DefaultPrefix {
		t.Errorf("InstancePrefix = %q, want %q", cfg.InstancePrefix, DefaultPrefix)
	}
	if cfg.ServicePort != DefaultServicePort {
		t.Errorf("ServicePort = %d, want %d", cfg.ServicePort, DefaultServicePort)
	}
	if cfg.HostPortBase != 0 {
		t.Errorf("HostPortBase = %d, want 0", cfg.HostPortBase)
	}
	if cfg.HealthTTL != 5*time.Second {
		t.Errorf("HealthTTL = %v, want 5s", cfg.HealthTTL)
	}
	if cfg.SnapshotTTL != 3*time.Second {
		t.Errorf("SnapshotTTL = %v, want 3s", cfg.SnapshotTTL)
	}
	if cfg.StopTimeout != 20*time.Second {
		t.Errorf("StopTimeout = %v, want 20s", cfg.StopTimeout)
	}
	if len(cfg.GPUDevices) != 0 {
		t.Errorf("GPUDevices = %v, want empty", cfg.GPUDevices)
	}
}

func TestNormalizeGPUDevices(t *testing.T) {
	t.Run("trims and de-duplicates", func(t *testing.T) {
		cfg, err := Normalize(Config{GPUDevices: []string{" 0 ", "1", "", "0", "  "}})
		if err != nil {
			t.Fatalf("Normalize() error = %v", err)
		}
		want := []string{"0", "1"}
		if len(cfg.GPUDevices) != len(want) {
			t.Fatalf("GPUDevices = %v, want %v", cfg.GPUDevices, want)
		}
		for i := range want {
			if cfg.GPUDevices[i] != want[i] {
				t.Errorf("GPUDevices[%d] = %q, want %q", i, cfg.GPUDevices[i], want[i])
			}
		}
	})

	t.Run("rejects non-numeric ids", func(t *testing.T) {
		_, err := Normalize(Config{GPUDevices: []string{"zero"}})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Normalize() error = %v, want ValidationError", err)
		}
		if verr.Field != "gpu_devices" {
			t.Errorf("Field = %q, want gpu_devices", verr.Field)
		}
	})
}

func TestNormalizeValidation(t *testing.T) {
	cases := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"service port too high", Config{ServicePort: 70000}, "service_port"},
		{"service port negative", Config{ServicePort: -1}, "service_port"},
		{"host port base too high", Config{HostPortBase: 70000}, "host_port_base"},
		{"unknown gpu backend", Config{GPUBackend: "intel"}, "gpu_backend"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.cfg)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Normalize() error = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("Field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestNormalizeAcceptsKnownBackends(t *testing.T) {
	for _, backend := range []corral.GPUBackend{"", corral.GPUBackendNvidia, corral.GPUBackendAMD} {
		if _, err := Normalize(Config{GPUBackend: backend}); err != nil {
			t.Errorf("Normalize(backend=%q) error = %v", backend, err)
		}
	}
}

func TestNormalizeEndpointCandidates(t *testing.T) {
	cfg, err := Normalize(Config{EndpointCandidates: []string{" http://10.0.0.5:11434/ ", "", "http://other:11434"}})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []string{"http://10.0.0.5:11434", "http://other:11434"}
	if len(cfg.EndpointCandidates) != len(want) {
		t.Fatalf("EndpointCandidates = %v, want %v", cfg.EndpointCandidates, want)
	}
	for i := range want {
		if cfg.EndpointCandidates[i] != want[i] {
			t.Errorf("EndpointCandidates[%d] = %q, want %q", i, cfg.EndpointCandidates[i], want[i])
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvGPUDevices, "0, 1,")
	t.Setenv(EnvNetwork, "appnet")
	t.Setenv(EnvGPUBackend, "AMD")
	t.Setenv(EnvHostPortBase, "20000")
	t.Setenv(EnvEndpointAutodetect, "false")
	t.Setenv(EnvEndpointCandidates, "http://10.0.0.5:11434")

	cfg := FromEnv()

	if len(cfg.GPUDevices) != 2 || cfg.GPUDevices[0] != "0" || cfg.GPUDevices[1] != "1" {
		t.Errorf("GPUDevices = %v", cfg.GPUDevices)
	}
	if cfg.Network != "appnet" {
		t.Errorf("Network = %q", cfg.Network)
	}
	if cfg.GPUBackend != corral.GPUBackendAMD {
		t.Errorf("GPUBackend = %q", cfg.GPUBackend)
	}
	if cfg.HostPortBase != 20000 {
		t.Errorf("HostPortBase = %d", cfg.HostPortBase)
	}
	if cfg.EndpointAutodetect {
		t.Error("EndpointAutodetect should be false")
	}
	if len(cfg.EndpointCandidates) != 1 {
		t.Errorf("EndpointCandidates = %v", cfg.EndpointCandidates)
	}
}

func TestFromEnvAutodetectDefaultsOn(t *testing.T) {
	t.Setenv(EnvEndpointAutodetect, "")

	if cfg := FromEnv(); !cfg.EndpointAutodetect {
		t.Error("EndpointAutodetect should default to true")
	}
}

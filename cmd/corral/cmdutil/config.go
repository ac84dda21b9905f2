package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"corral"
	"corral/internal/compute"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "CORRAL_CONFIG"

// FileConfig mirrors the engine's environment knobs in an optional yaml
// file. Environment variables always win over file values; the file only
// fills knobs the environment leaves unset.
type FileConfig struct {
	GPUDevices         []string `yaml:"gpu_devices,omitempty"`
	Network            string   `yaml:"network,omitempty"`
	Image              string   `yaml:"image,omitempty"`
	ModelVolume        string   `yaml:"model_volume,omitempty"`
	InstancePrefix     string   `yaml:"instance_prefix,omitempty"`
	GPUBackend         string   `yaml:"gpu_backend,omitempty"`
	HostPortBase       int      `yaml:"host_port_base,omitempty"`
	EndpointAutodetect *bool    `yaml:"endpoint_autodetect,omitempty"`
	EndpointCandidates []string `yaml:"endpoint_candidates,omitempty"`
	SettingsDB         string   `yaml:"settings_db,omitempty"`
}

// DefaultConfigPath returns the config file location: the CORRAL_CONFIG
// override, else <user config dir>/corral/config.yaml.
func DefaultConfigPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(EnvConfigPath)); fromEnv != "" {
		return fromEnv
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return filepath.Join(".config", "corral", "config.yaml")
		}
		return filepath.Join(home, ".config", "corral", "config.yaml")
	}
	return filepath.Join(dir, "corral", "config.yaml")
}

// LoadFileConfig reads the yaml config from path. A missing or empty file
// yields the zero value.
func LoadFileConfig(path string) (FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath()
	}

	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config file %q: %w", path, err)
	}
	if len(data) == 0 {
		return fc, nil
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return fc, nil
}

// LoadConfig builds the normalized engine config: environment first, then
// the yaml file for anything the environment leaves unset.
func LoadConfig() (compute.Config, error) {
	fc, err := LoadFileConfig("")
	if err != nil {
		return compute.Config{}, err
	}
	return mergeConfig(compute.FromEnv(), fc)
}

// mergeConfig overlays file values onto the env-derived config wherever the
// corresponding environment variable is not set, then normalizes.
func mergeConfig(cfg compute.Config, fc FileConfig) (compute.Config, error) {
	if !envSet(compute.EnvGPUDevices) && len(fc.GPUDevices) > 0 {
		cfg.GPUDevices = fc.GPUDevices
	}
	if !envSet(compute.EnvNetwork) && fc.Network != "" {
		cfg.Network = fc.Network
	}
	if !envSet(compute.EnvImage) && fc.Image != "" {
		cfg.Image = fc.Image
	}
	if !envSet(compute.EnvModelVolume) && fc.ModelVolume != "" {
		cfg.ModelVolume = fc.ModelVolume
	}
	if !envSet(compute.EnvInstancePrefix) && fc.InstancePrefix != "" {
		cfg.InstancePrefix = fc.InstancePrefix
	}
	if !envSet(compute.EnvGPUBackend) && fc.GPUBackend != "" {
		cfg.GPUBackend = corral.GPUBackend(strings.ToLower(fc.GPUBackend))
	}
	if !envSet(compute.EnvHostPortBase) && fc.HostPortBase != 0 {
		cfg.HostPortBase = fc.HostPortBase
	}
	if !envSet(compute.EnvEndpointAutodetect) && fc.EndpointAutodetect != nil {
		cfg.EndpointAutodetect = *fc.EndpointAutodetect
	}
	if !envSet(compute.EnvEndpointCandidates) && len(fc.EndpointCandidates) > 0 {
		cfg.EndpointCandidates = fc.EndpointCandidates
	}
	return compute.Normalize(cfg)
}

// SettingsPath resolves the sqlite settings database location: the
// CORRAL_SETTINGS_DB override, then the config file, then corral.db next to
// the config file.
func SettingsPath(fc FileConfig) string {
	if fromEnv := strings.TrimSpace(os.Getenv(compute.EnvSettingsDB)); fromEnv != "" {
		return fromEnv
	}
	if p := strings.TrimSpace(fc.SettingsDB); p != "" {
		return p
	}
	return filepath.Join(filepath.Dir(DefaultConfigPath()), compute.DefaultSettingsDB)
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// Package cmdutil wires the compute engine behind the CLI commands: config
// loading with file/env precedence and adapter construction with cleanup.
package cmdutil

import (
	"fmt"

	"corral/internal/adapter/docker"
	"corral/internal/adapter/host"
	"corral/internal/adapter/sqlite"
	"corral/internal/compute"
)

// Engine bundles the wired compute collaborators for one command
// invocation. Close releases the engine client and settings store.
type Engine struct {
	Config    compute.Config
	Manager   *compute.Manager
	Routing   *compute.RoutingStore
	Router    *compute.Router
	Discovery *compute.Discovery

	runtime  *docker.Runtime
	settings *sqlite.SettingsStore
}

// OpenEngine loads configuration and connects the real adapters.
func OpenEngine() (*Engine, error) {
	fc, err := LoadFileConfig("")
	if err != nil {
		return nil, err
	}
	cfg, err := mergeConfig(compute.FromEnv(), fc)
	if err != nil {
		return nil, err
	}

	runtime, err := docker.NewRuntime()
	if err != nil {
		return nil, fmt.Errorf("connect container engine: %w", err)
	}
	settings, err := sqlite.Open(SettingsPath(fc))
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("open settings store: %w", err)
	}

	prober := compute.NewHealthProber(cfg)
	detector := compute.NewGPUDetector(cfg, runtime, host.NewSystem())
	manager := compute.NewManager(cfg, runtime, prober, detector)
	store := compute.NewRoutingStore(cfg, settings)

	return &Engine{
		Config:    cfg,
		Manager:   manager,
		Routing:   store,
		Router:    compute.NewRouter(cfg, manager, store),
		Discovery: compute.NewDiscovery(cfg),
		runtime:   runtime,
		settings:  settings,
	}, nil
}

// Close releases the engine's connections. Safe to call once.
func (e *Engine) Close() error {
	var first error
	if err := e.settings.Close(); err != nil {
		first = err
	}
	if err := e.runtime.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// DefaultEndpoint is the conventional local runtime address, used as the
// resolution fallback when nothing better is known.
func DefaultEndpoint(cfg compute.Config) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.ServicePort)
}

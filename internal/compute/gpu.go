package compute

import (
	"context"
	"log/slog"

	"corral"
	"corral/internal/logging"
	"corral/internal/metrics"
	"corral/internal/ttlcache"
)

// vendorStrategy is one GPU vendor's detection recipe: presence probing on
// the host plus device-name lookup in both tiers. Strategies are stateless;
// one is chosen per template build from the resolved backend.
type vendorStrategy interface {
	backend() corral.GPUBackend

	// present reports whether the vendor's device nodes or tooling exist
	// on the host.
	present(host HostSystem) bool

	// nameInContainer resolves the device's marketing name by executing
	// vendor tooling inside a running instance container.
	nameInContainer(ctx context.Context, runtime ContainerRuntime, containerName, deviceID string) (string, error)

	// nameOnHost resolves the device name from the host, for instances
	// whose container is not running yet.
	nameOnHost(ctx context.Context, host HostSystem, deviceID string) (string, error)
}

func strategyFor(backend corral.GPUBackend) vendorStrategy {
	if backend == corral.GPUBackendAMD {
		return amdStrategy{}
	}
	return nvidiaStrategy{}
}

// GPUDetector resolves the vendor backend and detects device names. Name
// detection is two-tiered: exec inside the running container when there is
// one, host-level reads otherwise, so the catalog can report expected
// hardware before first start. Each tier keeps its own short TTL cache.
type GPUDetector struct {
	runtime ContainerRuntime
	host    HostSystem
	log     *slog.Logger

	containerNames *ttlcache.Cache[string, string] // key: instance id
	hostNames      *ttlcache.Cache[string, string] // key: backend + device id
}

// DetectorOption adjusts a GPUDetector.
type DetectorOption func(*detectorOptions)

type detectorOptions struct {
	clock ttlcache.Clock
}

// WithDetectorClock substitutes the cache time source, for tests.
func WithDetectorClock(clock ttlcache.Clock) DetectorOption {
	return func(o *detectorOptions) { o.clock = clock }
}

// NewGPUDetector builds a detector from a normalized config.
func NewGPUDetector(cfg Config, runtime ContainerRuntime, host HostSystem, opts ...DetectorOption) *GPUDetector {
	o := detectorOptions{clock: ttlcache.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &GPUDetector{
		runtime:        runtime,
		host:           host,
		log:            logging.Component("gpu"),
		containerNames: ttlcache.New[string, string](cfg.GPUNameTTL, ttlcache.WithClock(o.clock)),
		hostNames:      ttlcache.New[string, string](cfg.GPUNameTTL, ttlcache.WithClock(o.clock)),
	}
}

// ResolveBackend picks the vendor stack: explicit config wins, else
// whichever vendor's runtime is present on the host, else nvidia, the
// behavior predating backend detection.
func (d *GPUDetector) ResolveBackend(cfg Config) corral.GPUBackend {
	if cfg.GPUBackend != "" {
		return cfg.GPUBackend
	}
	if (nvidiaStrategy{}).present(d.host) {
		return corral.GPUBackendNvidia
	}
	if (amdStrategy{}).present(d.host) {
		return corral.GPUBackendAMD
	}
	return corral.GPUBackendNvidia
}

// BackendPresent reports whether the backend's runtime exists on the host.
func (d *GPUDetector) BackendPresent(backend corral.GPUBackend) bool {
	return strategyFor(backend).present(d.host)
}

// ContainerDeviceName detects a device's name from inside its running
// container. Results, including failed lookups, are cached per instance id
// so a burst of listings execs at most once per TTL window. Returns ""
// when the name cannot be detected; detection failures are not errors.
func (d *GPUDetector) ContainerDeviceName(ctx context.Context, instanceID, containerName string, backend corral.GPUBackend, deviceID string) string {
	if cached, ok := d.containerNames.Get(instanceID); ok {
		metrics.CacheHit("gpu_container")
		return cached
	}
	metrics.CacheMiss("gpu_container")

	name, err := strategyFor(backend).nameInContainer(ctx, d.runtime, containerName, deviceID)
	if err != nil {
		d.log.Debug("in-container device name detection failed",
			"instance", instanceID, "backend", backend, "device", deviceID, "error", err)
		name = ""
	}
	d.containerNames.Set(instanceID, name)
	return name
}

// HostDeviceName detects a device's name from the host, cached per
// backend and device id. Returns "" when the name cannot be detected.
func (d *GPUDetector) HostDeviceName(ctx context.Context, backend corral.GPUBackend, deviceID string) string {
	key := string(backend) + ":" + deviceID
	if cached, ok := d.hostNames.Get(key); ok {
		metrics.CacheHit("gpu_host")
		return cached
	}
	metrics.CacheMiss("gpu_host")

	name, err := strategyFor(backend).nameOnHost(ctx, d.host, deviceID)
	if err != nil {
		d.log.Debug("host device name detection failed",
			"backend", backend, "device", deviceID, "error", err)
		name = ""
	}
	d.hostNames.Set(key, name)
	return name
}

// Invalidate clears both name caches so the next lookup re-detects.
func (d *GPUDetector) Invalidate() {
	d.containerNames.Clear()
	d.hostNames.Clear()
}

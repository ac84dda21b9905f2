package compute

import (
	"context"
	"time"

	"corral"
)

// ContainerDetail is the engine-neutral view of a container the manager
// cares about. Exists=false means no container holds the inspected name.
type ContainerDetail struct {
	Exists  bool
	ID      string
	Running bool
	Labels  map[string]string
}

// GPUAttachment asks the runtime to expose one GPU device to a container.
// The adapter translates it into engine-specific wiring.
type GPUAttachment struct {
	Backend  corral.GPUBackend
	DeviceID string
}

// ContainerSpec describes a container the manager wants created. The
// runtime adapter owns the translation to engine configuration.
type ContainerSpec struct {
	Name          string
	Image         string
	Env           []string
	Labels        map[string]string
	Network       string
	VolumeName    string
	VolumeTarget  string
	ContainerPort int
	HostPort      int
	GPU           *GPUAttachment
}

// ContainerRuntime is the manager's view of the container engine.
type ContainerRuntime interface {
	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error

	// ContainerInspect looks up a container by name. A missing container
	// is not an error; it returns Exists=false.
	ContainerInspect(ctx context.Context, name string) (ContainerDetail, error)

	// ContainerCreate creates a stopped container and returns its id. The
	// referenced volume must already exist.
	ContainerCreate(ctx context.Context, spec ContainerSpec) (string, error)

	// ContainerStart starts a created container.
	ContainerStart(ctx context.Context, name string) error

	// ContainerStop stops a running container, waiting up to timeout for
	// the entrypoint to exit before the engine kills it.
	ContainerStop(ctx context.Context, name string, timeout time.Duration) error

	// ContainerExec runs a command inside a running container and returns
	// its combined output.
	ContainerExec(ctx context.Context, name string, cmd []string) (string, error)

	// EnsureVolume creates a named volume if it does not already exist.
	EnsureVolume(ctx context.Context, name string) error

	// CurrentContainerNetwork reports the first network the calling
	// process's own container is attached to, or "" when the process is
	// not containerized.
	CurrentContainerNetwork(ctx context.Context) (string, error)

	// Close releases the engine connection.
	Close() error
}

// HealthChecker reports endpoint liveness.
// Production: *HealthProber
// Testing: fake with canned verdicts per endpoint
type HealthChecker interface {
	Check(ctx context.Context, endpoint string) corral.Health
	Invalidate()
}

// SettingsStore persists small configuration documents by key.
type SettingsStore interface {
	// Get returns the value stored under key, or def when the key is
	// absent.
	Get(ctx context.Context, key, def string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// HostSystem exposes the host-side probes GPU detection needs. All methods
// degrade softly: a missing binary or path is a negative answer, not an
// error worth surfacing.
type HostSystem interface {
	// PathExists reports whether a filesystem path exists.
	PathExists(path string) bool

	// LookPath reports whether a binary is resolvable on PATH.
	LookPath(bin string) bool

	// ReadFile reads a small host file such as a procfs entry.
	ReadFile(path string) ([]byte, error)

	// Glob expands a filesystem pattern.
	Glob(pattern string) ([]string, error)

	// Run executes a host binary and returns its combined output.
	Run(ctx context.Context, bin string, args ...string) (string, error)
}

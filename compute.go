// Package corral holds the shared domain types for the compute backend
// manager: instance descriptors, routing decisions, and the role/target
// vocabulary exchanged between the engine and its consumers.
package corral

import "time"

// Target names the requested compute affinity for a role: "auto", "cpu",
// or a specific GPU instance id such as "gpu0". Instance templates use the
// bare class names "cpu" and "gpu".
const (
	TargetAuto = "auto"
	TargetCPU  = "cpu"
	TargetGPU  = "gpu"
)

// GPUBackend identifies the vendor stack driving a GPU instance.
type GPUBackend string

const (
	GPUBackendNvidia GPUBackend = "nvidia"
	GPUBackendAMD    GPUBackend = "amd"
)

// InstanceStatus is the lifecycle state of a managed container, derived
// from the container engine on every query. The engine is the source of
// truth; this value is never persisted.
type InstanceStatus uint8

const (
	// StatusNotCreated means no container occupies the instance's name.
	StatusNotCreated InstanceStatus = iota
	// StatusForeign means a container occupies the name but does not carry
	// the manager's ownership label. The manager refuses to touch it.
	StatusForeign
	StatusStopped
	StatusRunning
)

func (s InstanceStatus) String() string {
	switch s {
	case StatusNotCreated:
		return "not_created"
	case StatusForeign:
		return "foreign"
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalText makes the status serialize as its string form.
func (s InstanceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InstanceTemplate is the desired shape of one compute instance. Templates
// are rebuilt fresh from configuration on every call and never persisted.
type InstanceTemplate struct {
	InstanceID    string     `json:"instance_id"`
	Target        string     `json:"target"` // "cpu" or "gpu"
	ContainerName string     `json:"container_name"`
	Endpoint      string     `json:"endpoint"`
	Image         string     `json:"image"`
	Network       string     `json:"network"`
	ModelVolume   string     `json:"model_volume"`
	GPUDeviceID   string     `json:"gpu_device_id,omitempty"`
	GPUBackend    GPUBackend `json:"gpu_backend,omitempty"`
	HostPort      int        `json:"host_port,omitempty"` // 0 = not published
}

// Health is the most recent probe result for an instance endpoint.
type Health struct {
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at,omitempty"`
}

// Capability describes the hardware behind an instance.
type Capability struct {
	GPU         bool       `json:"gpu"`
	GPUDeviceID string     `json:"gpu_device_id,omitempty"`
	GPUBackend  GPUBackend `json:"gpu_backend,omitempty"`
	GPUName     string     `json:"gpu_name,omitempty"`
}

// InstanceDescriptor is the live view of one instance: template identity
// plus engine state, health, and detected capability.
type InstanceDescriptor struct {
	ID            string         `json:"id"`
	Target        string         `json:"target"`
	Endpoint      string         `json:"endpoint"`
	ContainerName string         `json:"container_name"`
	ContainerID   string         `json:"container_id,omitempty"`
	Status        InstanceStatus `json:"status"`
	Exists        bool           `json:"exists"`
	Managed       bool           `json:"managed"`
	Running       bool           `json:"running"`
	Health        Health         `json:"health"`
	Capability    Capability     `json:"capability"`
}

// IsGPU reports whether the instance serves a GPU target.
func (d InstanceDescriptor) IsGPU() bool { return d.Target == TargetGPU }

// Available reports whether the instance can serve requests right now.
func (d InstanceDescriptor) Available() bool { return d.Running && d.Health.OK }

// StartResult is the outcome of a start operation.
type StartResult struct {
	Started    bool               `json:"started"`
	Idempotent bool               `json:"idempotent"`
	Instance   InstanceDescriptor `json:"instance"`
}

// StopResult is the outcome of a stop operation.
type StopResult struct {
	Stopped    bool               `json:"stopped"`
	Idempotent bool               `json:"idempotent"`
	Instance   InstanceDescriptor `json:"instance"`
}

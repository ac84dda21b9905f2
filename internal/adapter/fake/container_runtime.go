package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"corral/internal/compute"
)

var _ compute.ContainerRuntime = (*ContainerRuntime)(nil)

type containerState struct {
	Spec    compute.ContainerSpec
	Labels  map[string]string
	Running bool
	ID      string
}

// ContainerRuntime is an in-memory implementation of
// compute.ContainerRuntime. Containers created through it carry the labels
// from their spec; SeedContainer plants arbitrary containers, including
// unlabeled ones that should read as foreign.
type ContainerRuntime struct {
	CallRecorder
	mu         sync.Mutex
	containers map[string]*containerState
	volumes    map[string]bool
	execs      map[string]string
	nextID     int

	// CurrentNetwork is what CurrentContainerNetwork reports.
	CurrentNetwork string

	PingErr             func(ctx context.Context) error
	ContainerInspectErr func(ctx context.Context, name string) error
	ContainerCreateErr  func(ctx context.Context, spec compute.ContainerSpec) error
	ContainerStartErr   func(ctx context.Context, name string) error
	ContainerStopErr    func(ctx context.Context, name string) error
	ContainerExecErr    func(ctx context.Context, name string, cmd []string) error
	EnsureVolumeErr     func(ctx context.Context, name string) error
}

// NewContainerRuntime creates an empty, reachable ContainerRuntime.
func NewContainerRuntime() *ContainerRuntime {
	return &ContainerRuntime{
		containers: make(map[string]*containerState),
		volumes:    make(map[string]bool),
		execs:      make(map[string]string),
	}
}

func (r *ContainerRuntime) Ping(ctx context.Context) error {
	r.record("Ping")
	if r.PingErr != nil {
		if err := r.PingErr(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContainerRuntime) ContainerInspect(ctx context.Context, name string) (compute.ContainerDetail, error) {
	r.record("ContainerInspect", name)
	if r.ContainerInspectErr != nil {
		if err := r.ContainerInspectErr(ctx, name); err != nil {
			return compute.ContainerDetail{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.containers[name]
	if !ok {
		return compute.ContainerDetail{Exists: false}, nil
	}
	return compute.ContainerDetail{Exists: true, ID: cs.ID, Running: cs.Running, Labels: cs.Labels}, nil
}

func (r *ContainerRuntime) ContainerCreate(ctx context.Context, spec compute.ContainerSpec) (string, error) {
	r.record("ContainerCreate", spec)
	if r.ContainerCreateErr != nil {
		if err := r.ContainerCreateErr(ctx, spec); err != nil {
			return "", err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.containers[spec.Name]; exists {
		return "", fmt.Errorf("container name %q already in use", spec.Name)
	}
	r.nextID++
	id := fmt.Sprintf("ctr-%d", r.nextID)
	r.containers[spec.Name] = &containerState{Spec: spec, Labels: spec.Labels, ID: id}
	return id, nil
}

func (r *ContainerRuntime) ContainerStart(ctx context.Context, name string) error {
	r.record("ContainerStart", name)
	if r.ContainerStartErr != nil {
		if err := r.ContainerStartErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.containers[name]
	if !ok {
		return fmt.Errorf("container %q not found", name)
	}
	cs.Running = true
	return nil
}

func (r *ContainerRuntime) ContainerStop(ctx context.Context, name string, _ time.Duration) error {
	r.record("ContainerStop", name)
	if r.ContainerStopErr != nil {
		if err := r.ContainerStopErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.containers[name]
	if !ok {
		return fmt.Errorf("container %q not found", name)
	}
	cs.Running = false
	return nil
}

func (r *ContainerRuntime) ContainerExec(ctx context.Context, name string, cmd []string) (string, error) {
	r.record("ContainerExec", name, cmd)
	if r.ContainerExecErr != nil {
		if err := r.ContainerExecErr(ctx, name, cmd); err != nil {
			return "", err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.containers[name]
	if !ok || !cs.Running {
		return "", fmt.Errorf("container %q is not running", name)
	}
	out, ok := r.execs[execKey(name, cmd)]
	if !ok {
		return "", fmt.Errorf("no exec response configured for %q: %v", name, cmd)
	}
	return out, nil
}

func (r *ContainerRuntime) EnsureVolume(ctx context.Context, name string) error {
	r.record("EnsureVolume", name)
	if r.EnsureVolumeErr != nil {
		if err := r.EnsureVolumeErr(ctx, name); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.volumes[name] = true
	r.mu.Unlock()
	return nil
}

func (r *ContainerRuntime) CurrentContainerNetwork(ctx context.Context) (string, error) {
	r.record("CurrentContainerNetwork")
	return r.CurrentNetwork, nil
}

func (r *ContainerRuntime) Close() error {
	r.record("Close")
	return nil
}

// SeedContainer plants a container without going through create. Tests use
// it for pre-existing managed containers and for foreign name squatters.
func (r *ContainerRuntime) SeedContainer(name string, labels map[string]string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.containers[name] = &containerState{
		Labels:  labels,
		Running: running,
		ID:      fmt.Sprintf("ctr-%d", r.nextID),
	}
}

// SetExecResponse configures the output of one exec command in one
// container.
func (r *ContainerRuntime) SetExecResponse(name string, cmd []string, out string) {
	r.mu.Lock()
	r.execs[execKey(name, cmd)] = out
	r.mu.Unlock()
}

// Container reports the current state of a container by name.
func (r *ContainerRuntime) Container(name string) (compute.ContainerSpec, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.containers[name]
	if !ok {
		return compute.ContainerSpec{}, false, false
	}
	return cs.Spec, cs.Running, true
}

// HasVolume reports whether EnsureVolume has seen name.
func (r *ContainerRuntime) HasVolume(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volumes[name]
}

func execKey(name string, cmd []string) string {
	return name + "|" + strings.Join(cmd, " ")
}

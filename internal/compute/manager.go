package compute

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"corral"
	"corral/internal/logging"
	"corral/internal/metrics"
)

// defaultNetwork is the engine's stock bridge, used when no network is
// configured and the process is not itself containerized.
const defaultNetwork = "bridge"

// Manager drives the fixed instance catalog against the container engine:
// idempotent start/stop guarded by ownership labels, model volume
// provisioning, and the live instance snapshot everything else consumes.
//
// Start/stop are serialized per instance id in-process. Two processes
// racing on the same id still fall through to the engine's own name
// uniqueness; the idempotent semantics make a lost race harmless.
type Manager struct {
	cfg      Config
	runtime  ContainerRuntime
	health   HealthChecker
	detector *GPUDetector
	log      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager wires a Manager from its collaborators. cfg must be
// normalized.
func NewManager(cfg Config, runtime ContainerRuntime, health HealthChecker, detector *GPUDetector) *Manager {
	return &Manager{
		cfg:      cfg,
		runtime:  runtime,
		health:   health,
		detector: detector,
		log:      logging.Component("compute"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Templates enumerates the instance set: configuration plus the two live
// facts left to autodetection, the container network and the GPU backend.
// Templates are rebuilt on every call and never persisted.
func (m *Manager) Templates(ctx context.Context) ([]corral.InstanceTemplate, error) {
	if err := m.runtime.Ping(ctx); err != nil {
		return nil, &DependencyError{Subsystem: "container engine", Err: err}
	}

	network := m.cfg.Network
	if network == "" {
		detected, err := m.runtime.CurrentContainerNetwork(ctx)
		if err != nil {
			m.log.Debug("own-container network detection failed", "error", err)
		}
		network = detected
	}
	if network == "" {
		network = defaultNetwork
	}

	return BuildTemplates(m.cfg, network, m.detector.ResolveBackend(m.cfg)), nil
}

// AllowedTargets returns the routing vocabulary for this config.
func (m *Manager) AllowedTargets() []string {
	return AllowedTargets(m.cfg)
}

// ListInstances returns the full live snapshot: engine state, health, and
// detected capability per instance.
func (m *Manager) ListInstances(ctx context.Context) ([]corral.InstanceDescriptor, error) {
	templates, err := m.Templates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]corral.InstanceDescriptor, 0, len(templates))
	for _, tpl := range templates {
		detail, err := m.inspect(ctx, tpl.ContainerName)
		if err != nil {
			return nil, err
		}
		out = append(out, m.describe(ctx, tpl, detail))
	}
	return out, nil
}

// StartInstance brings an instance to the running state. Starting a
// running instance is an idempotent success; a name collision with a
// container that lacks the ownership labels is a conflict and mutates
// nothing.
func (m *Manager) StartInstance(ctx context.Context, id string) (corral.StartResult, error) {
	tpl, err := m.template(ctx, id)
	if err != nil {
		metrics.InstanceOp("start", "error")
		return corral.StartResult{}, err
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	detail, err := m.inspect(ctx, tpl.ContainerName)
	if err != nil {
		metrics.InstanceOp("start", "error")
		return corral.StartResult{}, err
	}

	switch deriveStatus(detail, id) {
	case corral.StatusForeign:
		metrics.InstanceOp("start", "conflict")
		return corral.StartResult{}, fmt.Errorf("start %s: container %q is not managed by corral: %w", id, tpl.ContainerName, ErrConflict)

	case corral.StatusRunning:
		m.log.Debug("instance already running", "instance", id)
		metrics.InstanceOp("start", "idempotent")
		return corral.StartResult{Started: true, Idempotent: true, Instance: m.describe(ctx, tpl, detail)}, nil

	case corral.StatusStopped:
		if err := m.runtime.ContainerStart(ctx, tpl.ContainerName); err != nil {
			metrics.InstanceOp("start", "error")
			return corral.StartResult{}, fmt.Errorf("start container %q: %w", tpl.ContainerName, err)
		}
		m.log.Info("instance started", "instance", id)
	default:
		if err := m.provision(ctx, tpl); err != nil {
			metrics.InstanceOp("start", "error")
			return corral.StartResult{}, err
		}
	}

	detail, err = m.inspect(ctx, tpl.ContainerName)
	if err != nil {
		return corral.StartResult{}, err
	}
	metrics.InstanceOp("start", "ok")
	return corral.StartResult{Started: true, Instance: m.describe(ctx, tpl, detail)}, nil
}

// provision creates the container for an instance that has never run:
// model volume first, then the labeled container, then start.
func (m *Manager) provision(ctx context.Context, tpl corral.InstanceTemplate) error {
	if tpl.GPUDeviceID != "" && !m.detector.BackendPresent(tpl.GPUBackend) {
		return &DependencyError{Subsystem: string(tpl.GPUBackend) + " runtime"}
	}

	if err := m.runtime.EnsureVolume(ctx, tpl.ModelVolume); err != nil {
		return fmt.Errorf("ensure volume %q: %w", tpl.ModelVolume, err)
	}
	if _, err := m.runtime.ContainerCreate(ctx, specForTemplate(m.cfg, tpl)); err != nil {
		return fmt.Errorf("create container %q: %w", tpl.ContainerName, err)
	}
	if err := m.runtime.ContainerStart(ctx, tpl.ContainerName); err != nil {
		return fmt.Errorf("start container %q: %w", tpl.ContainerName, err)
	}
	m.log.Info("instance created and started",
		"instance", tpl.InstanceID, "container", tpl.ContainerName, "network", tpl.Network)
	return nil
}

// StopInstance mirrors StartInstance: stopping a missing or already
// stopped instance is an idempotent success, a foreign container is a
// conflict, a running managed container gets a graceful bounded stop.
func (m *Manager) StopInstance(ctx context.Context, id string) (corral.StopResult, error) {
	tpl, err := m.template(ctx, id)
	if err != nil {
		metrics.InstanceOp("stop", "error")
		return corral.StopResult{}, err
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	detail, err := m.inspect(ctx, tpl.ContainerName)
	if err != nil {
		metrics.InstanceOp("stop", "error")
		return corral.StopResult{}, err
	}

	switch deriveStatus(detail, id) {
	case corral.StatusForeign:
		metrics.InstanceOp("stop", "conflict")
		return corral.StopResult{}, fmt.Errorf("stop %s: container %q is not managed by corral: %w", id, tpl.ContainerName, ErrConflict)

	case corral.StatusNotCreated, corral.StatusStopped:
		metrics.InstanceOp("stop", "idempotent")
		return corral.StopResult{Stopped: true, Idempotent: true, Instance: m.describe(ctx, tpl, detail)}, nil
	}

	if err := m.runtime.ContainerStop(ctx, tpl.ContainerName, m.cfg.StopTimeout); err != nil {
		metrics.InstanceOp("stop", "error")
		return corral.StopResult{}, fmt.Errorf("stop container %q: %w", tpl.ContainerName, err)
	}
	m.log.Info("instance stopped", "instance", id)

	detail, err = m.inspect(ctx, tpl.ContainerName)
	if err != nil {
		return corral.StopResult{}, err
	}
	metrics.InstanceOp("stop", "ok")
	return corral.StopResult{Stopped: true, Instance: m.describe(ctx, tpl, detail)}, nil
}

// InvalidateProbes drops the health and GPU name caches so the next
// listing re-probes everything.
func (m *Manager) InvalidateProbes() {
	m.health.Invalidate()
	m.detector.Invalidate()
}

// template validates an instance id against the catalog.
func (m *Manager) template(ctx context.Context, id string) (corral.InstanceTemplate, error) {
	templates, err := m.Templates(ctx)
	if err != nil {
		return corral.InstanceTemplate{}, err
	}
	tpl, ok := FindTemplate(templates, id)
	if !ok {
		ids := make([]string, 0, len(templates))
		for _, t := range templates {
			ids = append(ids, t.InstanceID)
		}
		return corral.InstanceTemplate{}, &ValidationError{
			Field:   "instance",
			Message: fmt.Sprintf("unknown instance %q, expected one of: %s", id, strings.Join(ids, ", ")),
		}
	}
	return tpl, nil
}

func (m *Manager) inspect(ctx context.Context, name string) (ContainerDetail, error) {
	detail, err := m.runtime.ContainerInspect(ctx, name)
	if err != nil {
		return ContainerDetail{}, &DependencyError{Subsystem: "container engine", Err: err}
	}
	return detail, nil
}

// describe assembles the live descriptor for one instance. Health is
// probed only while running; capability falls back to host-level detection
// whenever the container tier cannot answer.
func (m *Manager) describe(ctx context.Context, tpl corral.InstanceTemplate, detail ContainerDetail) corral.InstanceDescriptor {
	status := deriveStatus(detail, tpl.InstanceID)
	desc := corral.InstanceDescriptor{
		ID:            tpl.InstanceID,
		Target:        tpl.Target,
		Endpoint:      tpl.Endpoint,
		ContainerName: tpl.ContainerName,
		ContainerID:   detail.ID,
		Status:        status,
		Exists:        detail.Exists,
		Managed:       detail.Exists && status != corral.StatusForeign,
		Running:       status == corral.StatusRunning,
	}
	if desc.Running {
		desc.Health = m.health.Check(ctx, tpl.Endpoint)
	}
	if tpl.GPUDeviceID != "" {
		cap := corral.Capability{GPU: true, GPUDeviceID: tpl.GPUDeviceID, GPUBackend: tpl.GPUBackend}
		if desc.Running {
			cap.GPUName = m.detector.ContainerDeviceName(ctx, tpl.InstanceID, tpl.ContainerName, tpl.GPUBackend, tpl.GPUDeviceID)
		}
		if cap.GPUName == "" {
			cap.GPUName = m.detector.HostDeviceName(ctx, tpl.GPUBackend, tpl.GPUDeviceID)
		}
		desc.Capability = cap
	}
	return desc
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// specForTemplate translates an instance template into the engine-neutral
// container spec. GPU wiring details live in the runtime adapter.
func specForTemplate(cfg Config, t corral.InstanceTemplate) ContainerSpec {
	spec := ContainerSpec{
		Name:          t.ContainerName,
		Image:         t.Image,
		Env:           []string{fmt.Sprintf("OLLAMA_HOST=0.0.0.0:%d", cfg.ServicePort)},
		Labels:        ownershipLabels(t),
		Network:       t.Network,
		VolumeName:    t.ModelVolume,
		VolumeTarget:  modelMountPath,
		ContainerPort: cfg.ServicePort,
		HostPort:      t.HostPort,
	}
	if t.GPUDeviceID != "" {
		spec.GPU = &GPUAttachment{Backend: t.GPUBackend, DeviceID: t.GPUDeviceID}
	}
	return spec
}

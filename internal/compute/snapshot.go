package compute

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"corral"
	"corral/internal/logging"
	"corral/internal/metrics"
	"corral/internal/ttlcache"
)

// Snapshot is a cached point-in-time view of the fleet plus its resolved
// per-role routing.
type Snapshot struct {
	Instances []corral.InstanceDescriptor
	Routing   map[string]string
	Effective map[string]corral.RoutingDecision
	TakenAt   time.Time
}

const snapshotKey = "current"

// Router is the request-facing entry point every pipeline stage calls. It
// wraps the pure resolver with a short-TTL snapshot cache, keeps the last
// good snapshot for stale fallback when a rebuild fails, and runs a
// recovery scan before giving up on a role.
type Router struct {
	mgr   *Manager
	store *RoutingStore
	cache *ttlcache.Cache[string, *Snapshot]
	clock ttlcache.Clock
	log   *slog.Logger

	mu       sync.Mutex
	lastGood *Snapshot
}

// RouterOption adjusts a Router.
type RouterOption func(*routerOptions)

type routerOptions struct {
	clock ttlcache.Clock
}

// WithRouterClock substitutes the time source, for tests.
func WithRouterClock(clock ttlcache.Clock) RouterOption {
	return func(o *routerOptions) { o.clock = clock }
}

// NewRouter wires the façade. cfg must be normalized.
func NewRouter(cfg Config, mgr *Manager, store *RoutingStore, opts ...RouterOption) *Router {
	o := routerOptions{clock: ttlcache.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Router{
		mgr:   mgr,
		store: store,
		cache: ttlcache.New[string, *Snapshot](cfg.SnapshotTTL, ttlcache.WithClock(o.clock)),
		clock: o.clock,
		log:   logging.Component("router"),
	}
}

// ResolveRoleEndpoint resolves one role to a concrete endpoint, degrading
// in order: cached snapshot decision, recovery scan, then the caller's
// default. Only an explicitly pinned role that cannot be recovered fails
// hard; "auto" never fails the caller.
func (r *Router) ResolveRoleEndpoint(ctx context.Context, role, def string) corral.RoleEndpoint {
	if !corral.KnownRole(role) {
		return corral.RoleEndpoint{
			Role:           role,
			Endpoint:       def,
			Source:         corral.SourceDefault,
			FallbackReason: corral.FallbackUnknownRole,
		}
	}

	snap, err := r.Snapshot(ctx)
	if err != nil {
		r.log.Warn("compute snapshot unavailable, serving default", "role", role, "error", err)
		metrics.RoutingFallback(role, corral.FallbackSnapshotUnavailable)
		return corral.RoleEndpoint{
			Role:           role,
			Endpoint:       def,
			Source:         corral.SourceDefault,
			FallbackReason: corral.FallbackSnapshotUnavailable,
		}
	}

	requested := snap.Routing[role]
	dec := snap.Effective[role]

	if dec.Resolved() {
		metrics.RoutingFallback(role, dec.FallbackReason)
		return corral.RoleEndpoint{
			Role:            role,
			RequestedTarget: requested,
			EffectiveTarget: dec.EffectiveTarget,
			Endpoint:        dec.EffectiveEndpoint,
			Source:          corral.SourceComputeManager,
			FallbackReason:  dec.FallbackReason,
		}
	}

	if inst, ok := recoverInstance(snap.Instances, requested, dec.EffectiveTarget); ok {
		r.log.Warn("recovered role endpoint from raw inventory",
			"role", role, "instance", inst.ID, "reason", dec.FallbackReason)
		metrics.RoutingFallback(role, dec.FallbackReason)
		return corral.RoleEndpoint{
			Role:            role,
			RequestedTarget: requested,
			EffectiveTarget: inst.ID,
			Endpoint:        inst.Endpoint,
			Source:          corral.SourceRecovery,
			FallbackReason:  dec.FallbackReason,
		}
	}

	if requested != corral.TargetAuto {
		// An operator's explicit pin is never silently substituted.
		r.log.Error("pinned role has no usable endpoint", "role", role, "target", requested)
		metrics.RoutingFallback(role, dec.FallbackReason)
		return corral.RoleEndpoint{
			Role:            role,
			RequestedTarget: requested,
			FallbackReason:  dec.FallbackReason,
			HardError:       true,
			ErrorCode:       http.StatusServiceUnavailable,
		}
	}

	metrics.RoutingFallback(role, dec.FallbackReason)
	return corral.RoleEndpoint{
		Role:            role,
		RequestedTarget: requested,
		Endpoint:        def,
		Source:          corral.SourceDefault,
		FallbackReason:  dec.FallbackReason,
	}
}

// Snapshot returns the cached view, rebuilding on expiry. When a rebuild
// fails but an older snapshot exists, the stale one is served: a slightly
// outdated routing decision beats failing the request.
func (r *Router) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap, ok := r.cache.Get(snapshotKey); ok {
		metrics.CacheHit("snapshot")
		return snap, nil
	}
	metrics.CacheMiss("snapshot")

	snap, err := r.rebuild(ctx)
	if err != nil {
		metrics.SnapshotRebuild("error")
		r.mu.Lock()
		stale := r.lastGood
		r.mu.Unlock()
		if stale != nil {
			metrics.SnapshotStaleServed()
			r.log.Warn("serving stale compute snapshot",
				"age", r.clock.Now().Sub(stale.TakenAt), "error", err)
			return stale, nil
		}
		return nil, err
	}
	metrics.SnapshotRebuild("ok")

	r.cache.Set(snapshotKey, snap)
	r.mu.Lock()
	r.lastGood = snap
	r.mu.Unlock()
	return snap, nil
}

func (r *Router) rebuild(ctx context.Context) (*Snapshot, error) {
	instances, err := r.mgr.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	routing, err := r.store.LayerRouting(ctx)
	if err != nil {
		return nil, fmt.Errorf("layer routing: %w", err)
	}
	return &Snapshot{
		Instances: instances,
		Routing:   routing,
		Effective: ResolveLayerRouting(routing, instances),
		TakenAt:   r.clock.Now(),
	}, nil
}

// InvalidateSnapshot drops both the TTL entry and the stale fallback so
// the next resolution rebuilds from scratch. Used for forced re-probes
// and test isolation.
func (r *Router) InvalidateSnapshot() {
	r.cache.Clear()
	r.mu.Lock()
	r.lastGood = nil
	r.mu.Unlock()
}

// recoverInstance scans the raw inventory, bypassing the per-role
// algorithm: first a direct match on the effective or requested target id,
// then the best available instance overall. Only running and healthy
// instances qualify.
func recoverInstance(instances []corral.InstanceDescriptor, requested, effective string) (corral.InstanceDescriptor, bool) {
	for _, id := range []string{effective, requested} {
		if id == "" || id == corral.TargetAuto {
			continue
		}
		if inst, ok := findInstance(instances, id); ok && inst.Available() {
			return inst, true
		}
	}

	var best corral.InstanceDescriptor
	found := false
	for _, inst := range instances {
		if !inst.Available() {
			continue
		}
		if !found || recoveryLess(inst, best) {
			best, found = inst, true
		}
	}
	return best, found
}

// recoveryLess ranks available instances: GPU before CPU, then id order.
func recoveryLess(a, b corral.InstanceDescriptor) bool {
	if a.IsGPU() != b.IsGPU() {
		return a.IsGPU()
	}
	return targetLess(a.ID, b.ID)
}

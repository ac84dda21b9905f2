package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"corral"
	"corral/internal/logging"
)

// settingsKeyLayerRouting is the settings document holding the persisted
// role→target map.
const settingsKeyLayerRouting = "compute.layer_routing"

// RoutingStore reads and writes the per-role routing configuration through
// the settings collaborator. Reads always yield exactly the five fixed
// roles; writes merge, never replace.
type RoutingStore struct {
	cfg      Config
	settings SettingsStore
	log      *slog.Logger
}

// NewRoutingStore wires a store. cfg must be normalized.
func NewRoutingStore(cfg Config, settings SettingsStore) *RoutingStore {
	return &RoutingStore{cfg: cfg, settings: settings, log: logging.Component("routing")}
}

// LayerRouting returns the persisted map coerced onto the fixed role set.
// Missing roles and targets outside the allowed set read as "auto", so a
// stale pin to a GPU that left the config degrades instead of sticking.
func (s *RoutingStore) LayerRouting(ctx context.Context) (map[string]string, error) {
	raw, err := s.settings.Get(ctx, settingsKeyLayerRouting, "{}")
	if err != nil {
		return nil, fmt.Errorf("read layer routing: %w", err)
	}

	persisted := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		s.log.Warn("stored layer routing is malformed, using defaults", "error", err)
		persisted = map[string]string{}
	}

	allowed := AllowedTargets(s.cfg)
	out := make(map[string]string, len(corral.Roles()))
	for _, role := range corral.Roles() {
		target := persisted[role]
		if !slices.Contains(allowed, target) {
			target = corral.TargetAuto
		}
		out[role] = target
	}
	return out, nil
}

// UpdateLayerRouting merges partial onto the current map, validates every
// updated value against the allowed targets, persists, and returns the
// merged result. Roles absent from partial keep their targets.
func (s *RoutingStore) UpdateLayerRouting(ctx context.Context, partial map[string]string) (map[string]string, error) {
	current, err := s.LayerRouting(ctx)
	if err != nil {
		return nil, err
	}

	allowed := AllowedTargets(s.cfg)
	merged := make(map[string]string, len(current))
	for role, target := range current {
		merged[role] = target
	}
	for role, target := range partial {
		if !corral.KnownRole(role) {
			return nil, &ValidationError{
				Field:   "role",
				Message: fmt.Sprintf("unknown role %q, expected one of: %s", role, strings.Join(corral.Roles(), ", ")),
			}
		}
		if !slices.Contains(allowed, target) {
			return nil, &ValidationError{
				Field:   role,
				Message: fmt.Sprintf("invalid target %q, allowed: %s", target, strings.Join(allowed, ", ")),
			}
		}
		merged[role] = target
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode layer routing: %w", err)
	}
	if err := s.settings.Set(ctx, settingsKeyLayerRouting, string(payload)); err != nil {
		return nil, fmt.Errorf("persist layer routing: %w", err)
	}
	s.log.Info("layer routing updated", "changed", len(partial))
	return merged, nil
}

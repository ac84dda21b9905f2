package fake

import (
	"context"
	"sync"

	"corral"
	"corral/internal/compute"
)

var _ compute.HealthChecker = (*HealthChecker)(nil)

// HealthChecker is an in-memory implementation of compute.HealthChecker.
// Endpoints without a configured verdict read as unhealthy, which mirrors
// the prober's behavior for unreachable instances.
type HealthChecker struct {
	CallRecorder
	mu      sync.Mutex
	results map[string]corral.Health
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{results: make(map[string]corral.Health)}
}

// SetHealthy configures endpoint as healthy.
func (h *HealthChecker) SetHealthy(endpoint string) {
	h.mu.Lock()
	h.results[endpoint] = corral.Health{OK: true, StatusCode: 200}
	h.mu.Unlock()
}

// SetUnhealthy configures endpoint as unhealthy with the given reason.
func (h *HealthChecker) SetUnhealthy(endpoint, reason string) {
	h.mu.Lock()
	h.results[endpoint] = corral.Health{OK: false, Error: reason}
	h.mu.Unlock()
}

// SetHealth configures an exact health result for endpoint.
func (h *HealthChecker) SetHealth(endpoint string, health corral.Health) {
	h.mu.Lock()
	h.results[endpoint] = health
	h.mu.Unlock()
}

func (h *HealthChecker) Check(_ context.Context, endpoint string) corral.Health {
	h.record("Check", endpoint)
	h.mu.Lock()
	defer h.mu.Unlock()

	if result, ok := h.results[endpoint]; ok {
		return result
	}
	return corral.Health{OK: false, Error: "no health result configured"}
}

func (h *HealthChecker) Invalidate() {
	h.record("Invalidate")
}

package compute

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"corral"
	"corral/internal/logging"
	"corral/internal/metrics"
	"corral/internal/ttlcache"
)

// healthPath is the cheap diagnostic route probed on every instance. It
// answers on any live runtime regardless of loaded models.
const healthPath = "/api/version"

// HealthProber answers "is this endpoint serving" with a bounded probe and
// a short-lived cache so status listings never hang on a dead instance and
// a burst of role resolutions against one endpoint probes it once.
type HealthProber struct {
	client  *http.Client
	timeout time.Duration
	cache   *ttlcache.Cache[string, corral.Health]
	clock   ttlcache.Clock
	log     *slog.Logger
}

var _ HealthChecker = (*HealthProber)(nil)

// ProberOption adjusts a HealthProber.
type ProberOption func(*HealthProber)

// WithProberClock substitutes the time source, for tests.
func WithProberClock(clock ttlcache.Clock) ProberOption {
	return func(p *HealthProber) { p.clock = clock }
}

// WithProberClient substitutes the HTTP client, for tests.
func WithProberClient(client *http.Client) ProberOption {
	return func(p *HealthProber) { p.client = client }
}

// NewHealthProber builds a prober from a normalized config.
func NewHealthProber(cfg Config, opts ...ProberOption) *HealthProber {
	p := &HealthProber{
		client:  &http.Client{},
		timeout: cfg.HealthProbeTimeout,
		clock:   ttlcache.RealClock{},
		log:     logging.Component("health"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = ttlcache.New[string, corral.Health](cfg.HealthTTL, ttlcache.WithClock(p.clock))
	return p
}

// Check probes an endpoint's diagnostic route. Results are cached per
// endpoint; a cached verdict, healthy or not, is returned as-is until it
// expires. Check never returns an error: failures are data.
func (p *HealthProber) Check(ctx context.Context, endpoint string) corral.Health {
	if cached, ok := p.cache.Get(endpoint); ok {
		metrics.CacheHit("health")
		return cached
	}
	metrics.CacheMiss("health")

	health := p.probe(ctx, endpoint)
	p.cache.Set(endpoint, health)
	return health
}

// Invalidate drops all cached verdicts so the next Check re-probes.
func (p *HealthProber) Invalidate() {
	p.cache.Clear()
}

// probe issues the bounded GET. Anything the server answers below 500 is
// healthy; a 5xx or any transport failure is not.
func (p *HealthProber) probe(ctx context.Context, endpoint string) corral.Health {
	health := corral.Health{CheckedAt: p.clock.Now()}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := strings.TrimRight(endpoint, "/") + healthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		health.Error = err.Error()
		metrics.Probe(false)
		return health
	}

	resp, err := p.client.Do(req)
	if err != nil {
		health.Error = err.Error()
		metrics.Probe(false)
		p.log.Debug("probe failed", "endpoint", endpoint, "error", err)
		return health
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	health.StatusCode = resp.StatusCode
	health.OK = resp.StatusCode < http.StatusInternalServerError
	if !health.OK {
		health.Error = resp.Status
	}
	metrics.Probe(health.OK)
	return health
}

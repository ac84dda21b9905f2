package compute

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"corral/internal/logging"
	"corral/internal/metrics"
	"corral/internal/ttlcache"
)

// wellKnownEndpoints are the addresses an already-running runtime is
// commonly reachable at from inside a container: loopback, the Docker
// Desktop host alias, and the default bridge gateway.
var wellKnownEndpoints = []string{
	"http://127.0.0.1:11434",
	"http://localhost:11434",
	"http://host.docker.internal:11434",
	"http://172.17.0.1:11434",
}

// Discovery probes for a pre-existing runtime endpoint so deployments that
// bring their own runtime keep working without configuration. The probe
// timeout is very short; this runs before the managed-instance path and
// must not stall it.
type Discovery struct {
	cfg    Config
	client *http.Client
	cache  *ttlcache.Cache[string, string]
	log    *slog.Logger
}

// DiscoveryOption adjusts a Discovery.
type DiscoveryOption func(*Discovery)

// WithDiscoveryClient substitutes the HTTP client, for tests.
func WithDiscoveryClient(client *http.Client) DiscoveryOption {
	return func(d *Discovery) { d.client = client }
}

// WithDiscoveryClock substitutes the cache time source, for tests.
func WithDiscoveryClock(clock ttlcache.Clock) DiscoveryOption {
	return func(d *Discovery) {
		d.cache = ttlcache.New[string, string](d.cfg.DiscoveryTTL, ttlcache.WithClock(clock))
	}
}

// NewDiscovery builds a Discovery from a normalized config.
func NewDiscovery(cfg Config, opts ...DiscoveryOption) *Discovery {
	d := &Discovery{
		cfg:    cfg,
		client: &http.Client{},
		cache:  ttlcache.New[string, string](cfg.DiscoveryTTL),
		log:    logging.Component("discovery"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve returns the first reachable candidate endpoint: explicit
// overrides first, then the preferred default, then the well-known
// addresses. The winner is cached per preferred default. With
// autodetection disabled, the normalized default is returned untouched;
// when nothing answers, the default is returned uncached so the next call
// probes again.
func (d *Discovery) Resolve(ctx context.Context, def string) string {
	def = normalizeEndpoint(def)
	if !d.cfg.EndpointAutodetect {
		return def
	}

	if cached, ok := d.cache.Get(def); ok {
		metrics.CacheHit("discovery")
		return cached
	}
	metrics.CacheMiss("discovery")

	for _, candidate := range d.candidates(def) {
		if !d.reachable(ctx, candidate) {
			continue
		}
		if candidate != def {
			d.log.Info("discovered runtime endpoint", "endpoint", candidate, "default", def)
		}
		d.cache.Set(def, candidate)
		return candidate
	}

	d.log.Debug("no runtime endpoint reachable", "default", def)
	return def
}

// Invalidate drops the cached winners so the next Resolve re-probes.
func (d *Discovery) Invalidate() {
	d.cache.Clear()
}

// candidates builds the ordered, de-duplicated probe list.
func (d *Discovery) candidates(def string) []string {
	raw := make([]string, 0, len(d.cfg.EndpointCandidates)+1+len(wellKnownEndpoints))
	raw = append(raw, d.cfg.EndpointCandidates...)
	raw = append(raw, def)
	raw = append(raw, wellKnownEndpoints...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = normalizeEndpoint(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (d *Discovery) reachable(ctx context.Context, endpoint string) bool {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.DiscoveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode < http.StatusInternalServerError
}

func normalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

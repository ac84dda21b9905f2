// Package metrics instruments the compute engine with Prometheus
// collectors. Exposure over HTTP belongs to the serving layer; this package
// only registers and increments.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	probeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "probe_total",
			Help:      "Endpoint health probes by outcome",
		},
		[]string{"outcome"},
	)

	cacheEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "cache_events_total",
			Help:      "TTL cache hits and misses by cache name",
		},
		[]string{"cache", "event"},
	)

	snapshotRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "snapshot_rebuilds_total",
			Help:      "Routing snapshot rebuilds by outcome",
		},
		[]string{"outcome"},
	)

	snapshotStaleServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "snapshot_stale_served_total",
			Help:      "Requests served from a stale routing snapshot",
		},
	)

	routingFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "routing_fallback_total",
			Help:      "Role resolutions that degraded, by reason",
		},
		[]string{"role", "reason"},
	)

	instanceOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "corral",
			Subsystem: "compute",
			Name:      "instance_ops_total",
			Help:      "Instance lifecycle operations by outcome",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		probeTotal,
		cacheEventsTotal,
		snapshotRebuildsTotal,
		snapshotStaleServedTotal,
		routingFallbackTotal,
		instanceOpsTotal,
	)
}

// Probe records one health probe outcome.
func Probe(healthy bool) {
	outcome := "unhealthy"
	if healthy {
		outcome = "healthy"
	}
	probeTotal.WithLabelValues(outcome).Inc()
}

// CacheHit records a cache hit for the named cache.
func CacheHit(cache string) {
	cacheEventsTotal.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss records a cache miss for the named cache.
func CacheMiss(cache string) {
	cacheEventsTotal.WithLabelValues(cache, "miss").Inc()
}

// SnapshotRebuild records a snapshot rebuild ("ok" or "error").
func SnapshotRebuild(outcome string) {
	snapshotRebuildsTotal.WithLabelValues(outcome).Inc()
}

// SnapshotStaleServed records one request answered from a stale snapshot.
func SnapshotStaleServed() {
	snapshotStaleServedTotal.Inc()
}

// RoutingFallback records a degraded resolution for a role.
func RoutingFallback(role, reason string) {
	if reason == "" {
		return
	}
	routingFallbackTotal.WithLabelValues(role, reason).Inc()
}

// InstanceOp records a lifecycle operation outcome.
func InstanceOp(op, outcome string) {
	instanceOpsTotal.WithLabelValues(op, outcome).Inc()
}

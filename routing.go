package corral

// The five compute roles routed independently. Every routing map carries
// exactly these keys.
const (
	RoleThinking     = "thinking"
	RoleControl      = "control"
	RoleOutput       = "output"
	RoleToolSelector = "tool_selector"
	RoleEmbedding    = "embedding"
)

// Roles returns the fixed role set in presentation order.
func Roles() []string {
	return []string{RoleThinking, RoleControl, RoleOutput, RoleToolSelector, RoleEmbedding}
}

// KnownRole reports whether name is one of the five fixed roles.
func KnownRole(name string) bool {
	switch name {
	case RoleThinking, RoleControl, RoleOutput, RoleToolSelector, RoleEmbedding:
		return true
	}
	return false
}

// Fallback reasons shared by the resolvers. Empty means no fallback.
const (
	FallbackNoTarget             = "no_target_available"
	FallbackUnknownTarget        = "unknown_target"
	FallbackRequestedUnavailable = "requested_unavailable"
	FallbackUnknownRole          = "unknown_role"
	FallbackSnapshotUnavailable  = "compute_snapshot_unavailable"
	FallbackGPUUnavailable       = "gpu_unavailable"
	FallbackCPUUnavailable       = "cpu_unavailable"
	FallbackAllUnavailable       = "all_unavailable"
)

// Endpoint sources reported by the role endpoint façade.
const (
	SourceComputeManager = "compute_manager"
	SourceRecovery       = "compute_manager_recovery"
	SourceDefault        = "default"
)

// RoutingDecision is the per-role outcome of the pure routing resolver.
// Empty EffectiveTarget/EffectiveEndpoint mean no target could be resolved.
type RoutingDecision struct {
	RequestedTarget   string `json:"requested_target"`
	EffectiveTarget   string `json:"effective_target,omitempty"`
	EffectiveEndpoint string `json:"effective_endpoint,omitempty"`
	EffectiveHealth   Health `json:"effective_health"`
	FallbackReason    string `json:"fallback_reason,omitempty"`
}

// Resolved reports whether the decision carries a usable endpoint.
func (d RoutingDecision) Resolved() bool { return d.EffectiveEndpoint != "" }

// RoleEndpoint is the request-facing result of resolving one role to a
// concrete endpoint, including the degradation trail.
type RoleEndpoint struct {
	Role            string `json:"role"`
	RequestedTarget string `json:"requested_target,omitempty"`
	EffectiveTarget string `json:"effective_target,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	Source          string `json:"endpoint_source,omitempty"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
	HardError       bool   `json:"hard_error"`
	ErrorCode       int    `json:"error_code,omitempty"`
}

// Embedding routing vocabulary. The embedding resolver has its own policy
// family and stricter fail-closed semantics than the role resolver.
const (
	EmbeddingPolicyAuto      = "auto"
	EmbeddingPolicyPreferGPU = "prefer_gpu"
	EmbeddingPolicyCPUOnly   = "cpu_only"

	EndpointModeSingle = "single"
	EndpointModeDual   = "dual"

	FallbackBestEffort = "best_effort"
	FallbackStrict     = "strict"
)

// EmbeddingDecision is the embedding resolver's outcome. It carries both the
// structured fields and the legacy-compatible ones (Endpoint, Options,
// FallbackEndpoint, FallbackPolicy, Reason, Target) older consumers read.
type EmbeddingDecision struct {
	RequestedPolicy string `json:"requested_policy"`
	RequestedTarget string `json:"requested_target"`
	EffectiveTarget string `json:"effective_target,omitempty"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
	HardError       bool   `json:"hard_error"`
	ErrorCode       int    `json:"error_code,omitempty"`

	Endpoint         string         `json:"endpoint,omitempty"`
	Options          map[string]any `json:"options"`
	FallbackEndpoint string         `json:"fallback_endpoint,omitempty"`
	FallbackPolicy   string         `json:"fallback_policy"`
	Reason           string         `json:"reason"`
	// Target mirrors EffectiveTarget for legacy consumers.
	Target string `json:"target,omitempty"`
}

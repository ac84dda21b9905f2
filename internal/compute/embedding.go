package compute

import (
	"net/http"
	"strings"

	"corral"
)

// EmbeddingAvailability reports which embedding backends can serve right
// now.
type EmbeddingAvailability struct {
	GPU bool
	CPU bool
}

// EmbeddingRequest carries the embedding routing inputs. Invalid or empty
// enums reset to their defaults (policy auto, single endpoint mode,
// best-effort fallback); a nil Availability means everything is available,
// which keeps callers predating availability probing working unchanged.
type EmbeddingRequest struct {
	Policy         string
	EndpointMode   string
	BaseEndpoint   string
	GPUEndpoint    string
	CPUEndpoint    string
	FallbackPolicy string
	Availability   *EmbeddingAvailability
}

// ResolveEmbeddingTarget decides where embeddings run. Unlike the role
// resolver it is policy-strict: cpu_only never selects the GPU, and
// unsatisfiable intent is a hard 503 carried in the decision rather than
// an error return, because this runs on every embedding request. It is a
// pure function and never fails.
func ResolveEmbeddingTarget(req EmbeddingRequest) corral.EmbeddingDecision {
	policy := normalizeEmbeddingPolicy(req.Policy)
	mode := normalizeEndpointMode(req.EndpointMode)
	fallback := normalizeFallbackPolicy(req.FallbackPolicy)
	avail := EmbeddingAvailability{GPU: true, CPU: true}
	if req.Availability != nil {
		avail = *req.Availability
	}

	dec := corral.EmbeddingDecision{
		RequestedPolicy: policy,
		RequestedTarget: requestedTargetFor(policy),
		Options:         map[string]any{},
		FallbackPolicy:  fallback,
	}

	if policy == corral.EmbeddingPolicyCPUOnly {
		if !avail.CPU {
			// The GPU may be idle and healthy; the policy still forbids it.
			dec.HardError = true
			dec.ErrorCode = http.StatusServiceUnavailable
			dec.FallbackReason = corral.FallbackCPUUnavailable
			dec.Reason = "cpu backend unavailable and policy forbids gpu"
			return dec
		}
		dec.EffectiveTarget = corral.TargetCPU
		dec.Target = corral.TargetCPU
		dec.Reason = "cpu forced by policy"
		if mode == corral.EndpointModeDual {
			dec.Endpoint = req.CPUEndpoint
		} else {
			dec.Endpoint = req.BaseEndpoint
			dec.Options = cpuExecutionOptions()
		}
		return dec
	}

	// auto and prefer_gpu select identically; they differ only in the
	// requested labels carried for downstream logging.
	if avail.GPU {
		dec.EffectiveTarget = corral.TargetGPU
		dec.Target = corral.TargetGPU
		dec.Reason = "gpu available"
		if mode == corral.EndpointModeDual {
			dec.Endpoint = req.GPUEndpoint
			if fallback == corral.FallbackBestEffort {
				dec.FallbackEndpoint = req.CPUEndpoint
			}
		} else {
			dec.Endpoint = req.BaseEndpoint
		}
		return dec
	}

	if avail.CPU {
		dec.EffectiveTarget = corral.TargetCPU
		dec.Target = corral.TargetCPU
		dec.FallbackReason = corral.FallbackGPUUnavailable
		dec.Reason = "gpu unavailable, using cpu"
		if mode == corral.EndpointModeDual {
			dec.Endpoint = req.CPUEndpoint
		} else {
			dec.Endpoint = req.BaseEndpoint
			dec.Options = cpuExecutionOptions()
		}
		return dec
	}

	dec.HardError = true
	dec.ErrorCode = http.StatusServiceUnavailable
	dec.FallbackReason = corral.FallbackAllUnavailable
	dec.Reason = "no embedding backend available"
	return dec
}

// cpuExecutionOptions forces CPU execution on a shared single-mode
// endpoint whose runtime would otherwise grab the GPU.
func cpuExecutionOptions() map[string]any {
	return map[string]any{"num_gpu": 0}
}

func normalizeEmbeddingPolicy(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case corral.EmbeddingPolicyPreferGPU:
		return corral.EmbeddingPolicyPreferGPU
	case corral.EmbeddingPolicyCPUOnly:
		return corral.EmbeddingPolicyCPUOnly
	default:
		return corral.EmbeddingPolicyAuto
	}
}

func normalizeEndpointMode(mode string) string {
	if strings.ToLower(strings.TrimSpace(mode)) == corral.EndpointModeDual {
		return corral.EndpointModeDual
	}
	return corral.EndpointModeSingle
}

func normalizeFallbackPolicy(policy string) string {
	if strings.ToLower(strings.TrimSpace(policy)) == corral.FallbackStrict {
		return corral.FallbackStrict
	}
	return corral.FallbackBestEffort
}

func requestedTargetFor(policy string) string {
	switch policy {
	case corral.EmbeddingPolicyCPUOnly:
		return corral.TargetCPU
	case corral.EmbeddingPolicyPreferGPU:
		return corral.TargetGPU
	default:
		return corral.TargetAuto
	}
}

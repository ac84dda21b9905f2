package compute

import (
	"net/http"
	"testing"

	"corral"
)

func embeddingRequest() EmbeddingRequest {
	return EmbeddingRequest{
		BaseEndpoint: "http://127.0.0.1:11434",
		GPUEndpoint:  "http://corral-gpu0:11434",
		CPUEndpoint:  "http://corral-cpu:11434",
	}
}

func TestResolveEmbeddingTargetCPUOnly(t *testing.T) {
	t.Run("single mode forces cpu options on the shared endpoint", func(t *testing.T) {
		req := embeddingRequest()
		req.Policy = corral.EmbeddingPolicyCPUOnly

		dec := ResolveEmbeddingTarget(req)

		if dec.HardError {
			t.Fatalf("unexpected hard error: %+v", dec)
		}
		if dec.EffectiveTarget != corral.TargetCPU {
			t.Errorf("EffectiveTarget = %q, want cpu", dec.EffectiveTarget)
		}
		if dec.Endpoint != req.BaseEndpoint {
			t.Errorf("Endpoint = %q, want base endpoint", dec.Endpoint)
		}
		if got := dec.Options["num_gpu"]; got != 0 {
			t.Errorf("Options[num_gpu] = %v, want 0", got)
		}
	})

	t.Run("dual mode uses the dedicated cpu endpoint", func(t *testing.T) {
		req := embeddingRequest()
		req.Policy = corral.EmbeddingPolicyCPUOnly
		req.EndpointMode = corral.EndpointModeDual

		dec := ResolveEmbeddingTarget(req)

		if dec.Endpoint != req.CPUEndpoint {
			t.Errorf("Endpoint = %q, want cpu endpoint", dec.Endpoint)
		}
		if len(dec.Options) != 0 {
			t.Errorf("Options = %v, want none", dec.Options)
		}
	})

	t.Run("never selects gpu even when cpu is down", func(t *testing.T) {
		req := embeddingRequest()
		req.Policy = corral.EmbeddingPolicyCPUOnly
		req.Availability = &EmbeddingAvailability{GPU: true, CPU: false}

		dec := ResolveEmbeddingTarget(req)

		if !dec.HardError || dec.ErrorCode != http.StatusServiceUnavailable {
			t.Fatalf("want hard 503, got %+v", dec)
		}
		if dec.EffectiveTarget != "" || dec.Endpoint != "" {
			t.Errorf("hard error must not carry a target: %+v", dec)
		}
		if dec.FallbackReason != corral.FallbackCPUUnavailable {
			t.Errorf("FallbackReason = %q", dec.FallbackReason)
		}
	})
}

func TestResolveEmbeddingTargetGPUSelection(t *testing.T) {
	t.Run("gpu available in single mode", func(t *testing.T) {
		req := embeddingRequest()

		dec := ResolveEmbeddingTarget(req)

		if dec.EffectiveTarget != corral.TargetGPU {
			t.Errorf("EffectiveTarget = %q, want gpu", dec.EffectiveTarget)
		}
		if dec.Endpoint != req.BaseEndpoint {
			t.Errorf("Endpoint = %q, want base endpoint", dec.Endpoint)
		}
		if len(dec.Options) != 0 {
			t.Errorf("Options = %v, want none", dec.Options)
		}
	})

	t.Run("dual mode best effort carries a cpu fallback endpoint", func(t *testing.T) {
		req := embeddingRequest()
		req.EndpointMode = corral.EndpointModeDual

		dec := ResolveEmbeddingTarget(req)

		if dec.Endpoint != req.GPUEndpoint {
			t.Errorf("Endpoint = %q, want gpu endpoint", dec.Endpoint)
		}
		if dec.FallbackEndpoint != req.CPUEndpoint {
			t.Errorf("FallbackEndpoint = %q, want cpu endpoint", dec.FallbackEndpoint)
		}
	})

	t.Run("dual mode strict omits the fallback endpoint", func(t *testing.T) {
		req := embeddingRequest()
		req.EndpointMode = corral.EndpointModeDual
		req.FallbackPolicy = corral.FallbackStrict

		dec := ResolveEmbeddingTarget(req)

		if dec.FallbackEndpoint != "" {
			t.Errorf("FallbackEndpoint = %q, want empty under strict", dec.FallbackEndpoint)
		}
	})
}

func TestResolveEmbeddingTargetDegradation(t *testing.T) {
	t.Run("prefer_gpu downgrades to cpu", func(t *testing.T) {
		req := embeddingRequest()
		req.Policy = corral.EmbeddingPolicyPreferGPU
		req.EndpointMode = corral.EndpointModeDual
		req.Availability = &EmbeddingAvailability{GPU: false, CPU: true}

		dec := ResolveEmbeddingTarget(req)

		if dec.HardError {
			t.Fatalf("unexpected hard error: %+v", dec)
		}
		if dec.EffectiveTarget != corral.TargetCPU {
			t.Errorf("EffectiveTarget = %q, want cpu", dec.EffectiveTarget)
		}
		if dec.FallbackReason != corral.FallbackGPUUnavailable {
			t.Errorf("FallbackReason = %q", dec.FallbackReason)
		}
		if dec.Endpoint != req.CPUEndpoint {
			t.Errorf("Endpoint = %q, want cpu endpoint", dec.Endpoint)
		}
	})

	t.Run("single mode downgrade forces cpu options", func(t *testing.T) {
		req := embeddingRequest()
		req.Availability = &EmbeddingAvailability{GPU: false, CPU: true}

		dec := ResolveEmbeddingTarget(req)

		if dec.Endpoint != req.BaseEndpoint {
			t.Errorf("Endpoint = %q, want base endpoint", dec.Endpoint)
		}
		if got := dec.Options["num_gpu"]; got != 0 {
			t.Errorf("Options[num_gpu] = %v, want 0", got)
		}
	})

	t.Run("nothing available is a hard 503", func(t *testing.T) {
		req := embeddingRequest()
		req.Availability = &EmbeddingAvailability{}

		dec := ResolveEmbeddingTarget(req)

		if !dec.HardError || dec.ErrorCode != http.StatusServiceUnavailable {
			t.Fatalf("want hard 503, got %+v", dec)
		}
		if dec.FallbackReason != corral.FallbackAllUnavailable {
			t.Errorf("FallbackReason = %q", dec.FallbackReason)
		}
	})

	t.Run("nil availability assumes everything available", func(t *testing.T) {
		dec := ResolveEmbeddingTarget(embeddingRequest())

		if dec.HardError || dec.EffectiveTarget != corral.TargetGPU {
			t.Errorf("want optimistic gpu selection, got %+v", dec)
		}
	})
}

func TestResolveEmbeddingTargetNormalizesInputs(t *testing.T) {
	req := embeddingRequest()
	req.Policy = "  TURBO  "
	req.EndpointMode = "triple"
	req.FallbackPolicy = "whatever"

	dec := ResolveEmbeddingTarget(req)

	if dec.RequestedPolicy != corral.EmbeddingPolicyAuto {
		t.Errorf("RequestedPolicy = %q, want auto", dec.RequestedPolicy)
	}
	if dec.FallbackPolicy != corral.FallbackBestEffort {
		t.Errorf("FallbackPolicy = %q, want best_effort", dec.FallbackPolicy)
	}
	// Single-mode selection shows the endpoint mode fell back to single.
	if dec.Endpoint != req.BaseEndpoint {
		t.Errorf("Endpoint = %q, want base endpoint", dec.Endpoint)
	}

	req.Policy = " Cpu_Only "
	dec = ResolveEmbeddingTarget(req)
	if dec.RequestedPolicy != corral.EmbeddingPolicyCPUOnly {
		t.Errorf("RequestedPolicy = %q, want cpu_only", dec.RequestedPolicy)
	}
}

func TestResolveEmbeddingTargetRequestedTarget(t *testing.T) {
	cases := map[string]string{
		corral.EmbeddingPolicyAuto:      corral.TargetAuto,
		corral.EmbeddingPolicyPreferGPU: corral.TargetGPU,
		corral.EmbeddingPolicyCPUOnly:   corral.TargetCPU,
	}
	for policy, want := range cases {
		req := embeddingRequest()
		req.Policy = policy
		if got := ResolveEmbeddingTarget(req).RequestedTarget; got != want {
			t.Errorf("policy %q: RequestedTarget = %q, want %q", policy, got, want)
		}
	}
}

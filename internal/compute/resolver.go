package compute

import "corral"

// ResolveLayerRouting computes the per-role routing decision. It is a pure
// function of its two inputs: no I/O, no clock, no caches, which keeps
// every branch exhaustively testable.
//
// "auto" degrades through four tiers: available GPU, available CPU, any
// running GPU ignoring health, running CPU ignoring health. An explicit
// pin resolves only to itself, except that an unavailable GPU pin
// downgrades to an available CPU; it never silently lands on a sibling
// GPU.
func ResolveLayerRouting(routing map[string]string, instances []corral.InstanceDescriptor) map[string]corral.RoutingDecision {
	decisions := make(map[string]corral.RoutingDecision, len(routing))
	for role, target := range routing {
		decisions[role] = resolveRole(target, instances)
	}
	return decisions
}

func resolveRole(requested string, instances []corral.InstanceDescriptor) corral.RoutingDecision {
	dec := corral.RoutingDecision{RequestedTarget: requested}

	if requested == corral.TargetAuto {
		if pick, ok := autoPick(instances); ok {
			return decide(dec, pick, "")
		}
		dec.FallbackReason = corral.FallbackNoTarget
		return dec
	}

	inst, ok := findInstance(instances, requested)
	if !ok {
		dec.FallbackReason = corral.FallbackUnknownTarget
		return dec
	}
	if inst.Available() {
		return decide(dec, inst, "")
	}
	if inst.IsGPU() {
		if cpu, ok := findInstance(instances, corral.TargetCPU); ok && cpu.Available() {
			return decide(dec, cpu, corral.FallbackRequestedUnavailable)
		}
	}
	dec.FallbackReason = corral.FallbackRequestedUnavailable
	return dec
}

// autoPick walks the degradation tiers for an "auto" request.
func autoPick(instances []corral.InstanceDescriptor) (corral.InstanceDescriptor, bool) {
	if gpu, ok := bestGPU(instances, true); ok {
		return gpu, true
	}
	if cpu, ok := findInstance(instances, corral.TargetCPU); ok && cpu.Available() {
		return cpu, true
	}
	if gpu, ok := bestGPU(instances, false); ok {
		return gpu, true
	}
	if cpu, ok := findInstance(instances, corral.TargetCPU); ok && cpu.Running {
		return cpu, true
	}
	return corral.InstanceDescriptor{}, false
}

// bestGPU picks the lowest-sorted running GPU instance, optionally
// requiring health. The (length, value) id order keeps gpu0..gpu9 ahead
// of gpu10.
func bestGPU(instances []corral.InstanceDescriptor, needHealthy bool) (corral.InstanceDescriptor, bool) {
	var best corral.InstanceDescriptor
	found := false
	for _, inst := range instances {
		if !inst.IsGPU() || !inst.Running {
			continue
		}
		if needHealthy && !inst.Health.OK {
			continue
		}
		if !found || targetLess(inst.ID, best.ID) {
			best, found = inst, true
		}
	}
	return best, found
}

func findInstance(instances []corral.InstanceDescriptor, id string) (corral.InstanceDescriptor, bool) {
	for _, inst := range instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return corral.InstanceDescriptor{}, false
}

func decide(dec corral.RoutingDecision, inst corral.InstanceDescriptor, reason string) corral.RoutingDecision {
	dec.EffectiveTarget = inst.ID
	dec.EffectiveEndpoint = inst.Endpoint
	dec.EffectiveHealth = inst.Health
	dec.FallbackReason = reason
	return dec
}

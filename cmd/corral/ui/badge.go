package ui

import (
	"corral"
)

// Status renders an instance lifecycle state in the palette: running green,
// stopped dim, foreign yellow (the manager refuses to touch it), not created
// faint.
func Status(s corral.InstanceStatus) string {
	switch s {
	case corral.StatusRunning:
		return SuccessStyle.Render(s.String())
	case corral.StatusStopped:
		return MutedStyle.Render(s.String())
	case corral.StatusForeign:
		return WarnStyle.Render(s.String())
	default:
		return MutedStyle.Render(s.String())
	}
}

// HealthBadge renders a probe verdict. Instances that were never probed
// (not running) show a dash.
func HealthBadge(h corral.Health) string {
	if h.CheckedAt.IsZero() {
		return MutedStyle.Render("-")
	}
	if h.OK {
		return SuccessStyle.Render("healthy")
	}
	return ErrorStyle.Render("unhealthy")
}

// Target renders a compute target: GPU targets accented, everything else
// plain.
func Target(t string) string {
	if t == "" {
		return MutedStyle.Render("-")
	}
	if t != corral.TargetAuto && t != corral.TargetCPU {
		return AccentStyle.Render(t)
	}
	return t
}

// Fallback renders a degradation reason, or a dash for a clean resolution.
func Fallback(reason string) string {
	if reason == "" {
		return MutedStyle.Render("-")
	}
	return WarnStyle.Render(reason)
}

package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"corral"
)

// Force plain rendering so assertions see raw text.
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestStatusRendersLifecycleNames(t *testing.T) {
	testCases := []struct {
		status corral.InstanceStatus
		want   string
	}{
		{corral.StatusRunning, "running"},
		{corral.StatusStopped, "stopped"},
		{corral.StatusForeign, "foreign"},
		{corral.StatusNotCreated, "not_created"},
	}
	for _, tc := range testCases {
		if got := Status(tc.status); got != tc.want {
			t.Fatalf("Status(%v) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestHealthBadge(t *testing.T) {
	if got := HealthBadge(corral.Health{}); got != "-" {
		t.Fatalf("unprobed health should render a dash, got %q", got)
	}
	probed := corral.Health{OK: true, StatusCode: 200, CheckedAt: time.Now()}
	if got := HealthBadge(probed); got != "healthy" {
		t.Fatalf("healthy badge = %q", got)
	}
	probed.OK = false
	probed.Error = "connection refused"
	if got := HealthBadge(probed); got != "unhealthy" {
		t.Fatalf("unhealthy badge = %q", got)
	}
}

func TestTargetAccentsOnlyGPUs(t *testing.T) {
	if got := Target(""); got != "-" {
		t.Fatalf("empty target = %q", got)
	}
	if got := Target("auto"); got != "auto" {
		t.Fatalf("auto target = %q", got)
	}
	if got := Target("gpu0"); got != "gpu0" {
		t.Fatalf("gpu target = %q", got)
	}
}

func TestFallback(t *testing.T) {
	if got := Fallback(""); got != "-" {
		t.Fatalf("clean resolution = %q", got)
	}
	if got := Fallback("requested_unavailable"); got != "requested_unavailable" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestKeyValuesAligns(t *testing.T) {
	out := KeyValues("", KV("role", "thinking"), KV("endpoint", "http://x"))
	want := "role:     thinking\nendpoint: http://x\n"
	if out != want {
		t.Fatalf("KeyValues output:\n%q\nwant:\n%q", out, want)
	}
}

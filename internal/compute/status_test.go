package compute

import (
	"testing"

	"corral"
)

func TestOwnershipLabels(t *testing.T) {
	tpl := corral.InstanceTemplate{InstanceID: "gpu0", Target: corral.TargetGPU}

	labels := ownershipLabels(tpl)

	if labels["corral.managed"] != "true" {
		t.Errorf("corral.managed = %q", labels["corral.managed"])
	}
	if labels["corral.instance"] != "gpu0" {
		t.Errorf("corral.instance = %q", labels["corral.instance"])
	}
	if labels["corral.target"] != "gpu" {
		t.Errorf("corral.target = %q", labels["corral.target"])
	}
}

func TestDeriveStatus(t *testing.T) {
	owned := map[string]string{
		"corral.managed":  "true",
		"corral.instance": "cpu",
		"corral.target":   "cpu",
	}

	cases := []struct {
		name   string
		detail ContainerDetail
		want   corral.InstanceStatus
	}{
		{
			"absent container",
			ContainerDetail{Exists: false},
			corral.StatusNotCreated,
		},
		{
			"unlabeled container",
			ContainerDetail{Exists: true, Running: true},
			corral.StatusForeign,
		},
		{
			"label for another instance",
			ContainerDetail{Exists: true, Labels: map[string]string{
				"corral.managed":  "true",
				"corral.instance": "gpu0",
			}},
			corral.StatusForeign,
		},
		{
			"managed flag not true",
			ContainerDetail{Exists: true, Labels: map[string]string{
				"corral.managed":  "false",
				"corral.instance": "cpu",
			}},
			corral.StatusForeign,
		},
		{
			"owned and running",
			ContainerDetail{Exists: true, Running: true, Labels: owned},
			corral.StatusRunning,
		},
		{
			"owned and stopped",
			ContainerDetail{Exists: true, Running: false, Labels: owned},
			corral.StatusStopped,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveStatus(tc.detail, "cpu"); got != tc.want {
				t.Errorf("deriveStatus() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	cases := map[corral.InstanceStatus]string{
		corral.StatusNotCreated: "not_created",
		corral.StatusForeign:    "foreign",
		corral.StatusStopped:    "stopped",
		corral.StatusRunning:    "running",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", status, got, want)
		}
	}
}

package compute

import "testing"

func TestParseROCmJSON(t *testing.T) {
	cases := []struct {
		name     string
		out      string
		deviceID string
		want     string
		found    bool
	}{
		{
			"card series",
			`{"card0": {"Card series": "Radeon RX 7900 XTX", "Card model": "0x744c"}}`,
			"0", "Radeon RX 7900 XTX", true,
		},
		{
			"versioned field name still matches by substring",
			`{"card1": {"Card Series": "AMD Instinct MI300X"}}`,
			"1", "AMD Instinct MI300X", true,
		},
		{
			"hex model id is not a name",
			`{"card0": {"Card model": "0x744c"}}`,
			"0", "", false,
		},
		{
			"model accepted when nothing better exists",
			`{"card0": {"Card model": "Radeon Pro W7900"}}`,
			"0", "Radeon Pro W7900", true,
		},
		{
			"missing card",
			`{"card0": {"Card series": "Radeon RX 7900 XTX"}}`,
			"3", "", false,
		},
		{"not json", "rocm-smi: command error", "0", "", false},
		{
			"non-string values skipped",
			`{"card0": {"Card series": 42}}`,
			"0", "", false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseROCmJSON(tc.out, tc.deviceID)
			if ok != tc.found || got != tc.want {
				t.Errorf("parseROCmJSON(%q) = (%q, %v), want (%q, %v)", tc.deviceID, got, ok, tc.want, tc.found)
			}
		})
	}
}

func TestParseROCmJSONPrefersSeriesOverModel(t *testing.T) {
	out := `{"card0": {"Card model": "Navi 31", "Card series": "Radeon RX 7900 XTX"}}`
	got, ok := parseROCmJSON(out, "0")
	if !ok || got != "Radeon RX 7900 XTX" {
		t.Errorf("got (%q, %v), want series name", got, ok)
	}
}

func TestParseROCmText(t *testing.T) {
	out := `========================= ROCm System Management Interface =========================
GPU[0]          : Card series:          Radeon RX 7900 XTX
GPU[0]          : Card model:           0x744c
GPU[1]          : Card series:          AMD Instinct MI300X
=====================================================================================
`

	cases := []struct {
		name     string
		deviceID string
		want     string
		found    bool
	}{
		{"first card", "0", "Radeon RX 7900 XTX", true},
		{"second card", "1", "AMD Instinct MI300X", true},
		{"missing card", "2", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseROCmText(out, tc.deviceID)
			if ok != tc.found || got != tc.want {
				t.Errorf("parseROCmText(%q) = (%q, %v), want (%q, %v)", tc.deviceID, got, ok, tc.want, tc.found)
			}
		})
	}

	t.Run("ignores lines without series or product", func(t *testing.T) {
		if got, ok := parseROCmText("GPU[0] : Temperature: 42C\n", "0"); ok {
			t.Errorf("got (%q, %v), want not found", got, ok)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if _, ok := parseROCmText("", "0"); ok {
			t.Error("found a name in empty output")
		}
	})
}

func TestAMDSysfsProductPath(t *testing.T) {
	if got := amdSysfsProductPath("2"); got != "/sys/class/drm/card2/device/product_name" {
		t.Errorf("amdSysfsProductPath = %q", got)
	}
}

package conceptual

import "testing"

func TestSanitizeDeviceID(t *testing.T) {
	cases := map[string]DeviceID{
		"Rye8":            "rye8",
		"  ia's iPhone ":  "ia-s-iphone",
		"sat/+/#":         "sat",
		"ranga-moto-act3": "ranga-moto-act3",
		"":                "",
	}
	for in, want := range cases {
		if got := SanitizeDeviceID(in); got != want {
			t.Errorf("SanitizeDeviceID(%q) = %q, want %q", in, got, want)
		}
	}
	if !SanitizeDeviceID("///").Empty() {
		t.Error("all-unsafe name should sanitize to empty")
	}
}

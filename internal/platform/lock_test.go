package platform

import "testing"

func TestNormalizeLockComponent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback string
		want     string
	}{
		{name: "preserves alnum and separators", raw: "tunelink-v1.2_3", fallback: "app", want: "tunelink-v1.2_3"},
		{name: "replaces path separators", raw: "/dev/ttyUSB0", fallback: "device", want: "dev_ttyUSB0"},
		{name: "i2c resource", raw: "i2c-1@0x42", fallback: "device", want: "i2c-1_0x42"},
		{name: "windows port", raw: `\\.\COM10`, fallback: "device", want: "COM10"},
		{name: "empty uses fallback", raw: "   ", fallback: "fallback", want: "fallback"},
		{name: "all unsupported uses fallback", raw: "[]{}", fallback: "fallback", want: "fallback"},
	}

	for _, tc := range tests {
		got := normalizeLockComponent(tc.raw, tc.fallback)
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

package main

import "testing"

func TestParseNmcli(t *testing.T) {
	out := `AA\:BB\:CC\:00\:00\:01:80
aa\:bb\:cc\:00\:00\:02:35

AA\:BB\:CC\:00\:00\:01:79
`

	readings, err := parseNmcli(out)
	if err != nil {
		t.Fatalf("parseNmcli() error = %v", err)
	}

	want := []Reading{
		{BSSID: "aa:bb:cc:00:00:01", Level: -60},
		{BSSID: "aa:bb:cc:00:00:02", Level: -83},
	}
	if len(readings) != len(want) {
		t.Fatalf("expected %d readings, got %d: %v", len(want), len(readings), readings)
	}
	for i := range want {
		if readings[i] != want[i] {
			t.Errorf("reading %d: got %+v, want %+v", i, readings[i], want[i])
		}
	}
}

func TestParseNmcli_Empty(t *testing.T) {
	readings, err := parseNmcli("")
	if err != nil {
		t.Fatalf("parseNmcli() error = %v", err)
	}
	if readings == nil || len(readings) != 0 {
		t.Errorf("expected empty non-nil readings, got %v", readings)
	}
}

func TestParseNmcli_Malformed(t *testing.T) {
	tests := []string{
		"no-signal-separator",
		`AA\:BB:strong`,
	}

	for _, out := range tests {
		if _, err := parseNmcli(out); err == nil {
			t.Errorf("expected error for %q", out)
		}
	}
}

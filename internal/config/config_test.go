package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("TRACEMATCH_DATA_DIR", dataDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DBPath != filepath.Join(dataDir, "fingerprints.db") {
		t.Errorf("unexpected DBPath %q", cfg.DBPath)
	}
	if cfg.TemplatePath != filepath.Join(dataDir, "gestures001.dat") {
		t.Errorf("unexpected TemplatePath %q", cfg.TemplatePath)
	}
	if cfg.PluginDir != filepath.Join(dataDir, "plugins") {
		t.Errorf("unexpected PluginDir %q", cfg.PluginDir)
	}
	if cfg.Addr != ":8080" || cfg.Scanner != "wifi-scan" {
		t.Errorf("unexpected addr/scanner %q/%q", cfg.Addr, cfg.Scanner)
	}
	if cfg.ScanPeriod != 3*time.Second || cfg.PluginTimeout != 5*time.Second {
		t.Errorf("unexpected durations %s/%s", cfg.ScanPeriod, cfg.PluginTimeout)
	}
	if cfg.K != 3 || cfg.ExamplesPerGesture != 3 {
		t.Errorf("unexpected K/examples %d/%d", cfg.K, cfg.ExamplesPerGesture)
	}
	if len(cfg.Locations) != 4 || cfg.Locations[0] != "Location 1" {
		t.Errorf("unexpected locations %v", cfg.Locations)
	}
	if len(cfg.Gestures) != 3 || cfg.Gestures[2] != "triangle" {
		t.Errorf("unexpected gestures %v", cfg.Gestures)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TRACEMATCH_DATA_DIR", t.TempDir())
	t.Setenv("TRACEMATCH_ADDR", "127.0.0.1:9000")
	t.Setenv("TRACEMATCH_SCAN_PERIOD", "500ms")
	t.Setenv("TRACEMATCH_K", "5")
	t.Setenv("TRACEMATCH_LOCATIONS", " Kitchen , ,Office ")
	t.Setenv("TRACEMATCH_GESTURES", "zigzag")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("unexpected addr %q", cfg.Addr)
	}
	if cfg.ScanPeriod != 500*time.Millisecond {
		t.Errorf("unexpected scan period %s", cfg.ScanPeriod)
	}
	if cfg.K != 5 {
		t.Errorf("unexpected K %d", cfg.K)
	}
	if len(cfg.Locations) != 2 || cfg.Locations[0] != "Kitchen" || cfg.Locations[1] != "Office" {
		t.Errorf("unexpected locations %q", cfg.Locations)
	}
	if len(cfg.Gestures) != 1 || cfg.Gestures[0] != "zigzag" {
		t.Errorf("unexpected gestures %v", cfg.Gestures)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TRACEMATCH_DATA_DIR", t.TempDir())
	t.Setenv("TRACEMATCH_K", "three")
	t.Setenv("TRACEMATCH_PLUGIN_TIMEOUT", "soon")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.K != 3 || cfg.PluginTimeout != 5*time.Second {
		t.Errorf("expected defaults for unparsable values, got K=%d timeout=%s", cfg.K, cfg.PluginTimeout)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TRACEMATCH_K", "0"},
		{"TRACEMATCH_SCAN_PERIOD", "-1s"},
		{"TRACEMATCH_EXAMPLES_PER_GESTURE", "0"},
		{"TRACEMATCH_GESTURES", " , "},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("TRACEMATCH_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "TRACEMATCH_DATA_DIR=" + dir + "\nTRACEMATCH_SCANNER=fake-scan\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	// godotenv sets process variables; register them for cleanup first.
	t.Setenv("TRACEMATCH_DATA_DIR", "")
	os.Unsetenv("TRACEMATCH_DATA_DIR")
	t.Setenv("TRACEMATCH_SCANNER", "")
	os.Unsetenv("TRACEMATCH_SCANNER")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scanner != "fake-scan" || cfg.DataDir != dir {
		t.Errorf("expected values from env file, got scanner=%q dataDir=%q", cfg.Scanner, cfg.DataDir)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("TRACEMATCH_DATA_DIR", t.TempDir())

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("a missing env file should be ignored, got %v", err)
	}
}

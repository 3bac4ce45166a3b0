package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Playback.IntervalMs != nil || cfg.Backend.URL != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[playback]
interval-ms = 250
fallback-rows = 4
source = "http://127.0.0.1:5000"

[backend]
url = "http://sim:5000"
timeout-ms = 1500

[single]
humanities = 50

[range]
science = 20
engineering = 30

[server]
addr = ":8080"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Playback.IntervalMs == nil || *cfg.Playback.IntervalMs != 250 {
		t.Fatalf("unexpected interval: %v", cfg.Playback.IntervalMs)
	}
	if cfg.Playback.FallbackCols != nil {
		t.Fatalf("expected unset fallback cols")
	}
	if *cfg.Backend.URL != "http://sim:5000" || *cfg.Backend.TimeoutMs != 1500 {
		t.Fatalf("unexpected backend: %+v", cfg.Backend)
	}
	if *cfg.Single.Humanities != 50 || cfg.Single.Science != nil {
		t.Fatalf("unexpected single ratios: %+v", cfg.Single)
	}
	if *cfg.Range.Science != 20 || *cfg.Range.Engineering != 30 {
		t.Fatalf("unexpected range ratios: %+v", cfg.Range)
	}
	if *cfg.Server.Addr != ":8080" || cfg.Server.DataDir != nil {
		t.Fatalf("unexpected server: %+v", cfg.Server)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[playback]\nspeed = 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "playback.speed") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "seatplay", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultRecordSource(); got != filepath.Join("/data", "seatplay", "simulation_data", "simulations") {
		t.Fatalf("unexpected record source %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "seatplay", "seatplay.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}

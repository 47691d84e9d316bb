package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RunsDir != "runs" {
		t.Errorf("runs dir = %q, want %q", cfg.RunsDir, "runs")
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.MaxEdgeDistance != 50.0 {
		t.Errorf("max edge distance = %v, want 50", cfg.MaxEdgeDistance)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TRACK_CURATOR_PORT", "9090")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want env override 9090", cfg.Port)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TRACK_CURATOR_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	if err := flags.Parse([]string{"--port", "7070"}); err != nil {
		t.Fatalf("flag parse failed: %v", err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want flag override 7070", cfg.Port)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"breathe/internal/config"
)

// testConfigFile writes a config pointing every path under a temp base
// and returns the config file path plus the loaded values.
func testConfigFile(t *testing.T) (string, config.Config) {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ContentDir = filepath.Join(base, "content")
	cfg.Paths.StylesFile = filepath.Join(base, "styles.json")
	cfg.Paths.SiteDir = filepath.Join(base, "site")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Telemetry.SessionDBPath = filepath.Join(base, "sessions.db")

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, cfg
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

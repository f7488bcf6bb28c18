package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDir(t *testing.T) {
	t.Setenv("HINTSYS_HOME", "")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if filepath.Base(dir) != ".hintsys" {
		t.Errorf("Dir() = %q, want path ending in .hintsys", dir)
	}

	t.Setenv("HINTSYS_HOME", "/opt/hintsys")
	dir, err = Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != "/opt/hintsys" {
		t.Errorf("Dir() = %q, want /opt/hintsys", dir)
	}
}

func TestEnsureDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HINTSYS_HOME", home)

	dir, err := EnsureDir()
	if err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if dir != home {
		t.Errorf("EnsureDir() = %q, want %q", dir, home)
	}

	for _, sub := range []string{"logs", "data", "problems"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil {
			t.Errorf("subdirectory %s not created: %v", sub, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", sub)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Path != filepath.Join(dir, "data", "hintsys.db") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Runner.Timeout != 5*time.Second {
		t.Errorf("Runner.Timeout = %v, want 5s", cfg.Runner.Timeout)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
storage:
  driver: memory
runner:
  executor: docker
  parallelism: 3
  timeout: 2s
llm:
  enabled: true
  provider: claude
  model: claude-sonnet-4-20250514
  timeout: 10s
grading:
  badges: false
metrics:
  addr: ":9100"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Runner.Executor != "docker" || cfg.Runner.Parallelism != 3 || cfg.Runner.Timeout != 2*time.Second {
		t.Errorf("Runner = %+v", cfg.Runner)
	}
	// Unset keys keep their defaults
	if cfg.Runner.MaxOutputBytes != 64*1024 {
		t.Errorf("Runner.MaxOutputBytes = %d, want default", cfg.Runner.MaxOutputBytes)
	}
	if !cfg.LLM.Enabled || cfg.LLM.Provider != "claude" || cfg.LLM.Timeout != 10*time.Second {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Grading.Badges {
		t.Error("Grading.Badges should be false")
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_WithSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "llm:\n  enabled: true\n  provider: openai\n")
	writeFile(t, filepath.Join(dir, "secrets.yaml"), `
providers:
  openai:
    api_key: sk-openai
  claude:
    api_key: sk-claude
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "sk-openai" {
		t.Errorf("LLM.APIKey = %q, want the openai key", cfg.LLM.APIKey)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "runner:\n  parallelism: 2\n")
	t.Setenv("HINTSYS_PARALLELISM", "6")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Runner.Parallelism != 6 {
		t.Errorf("Runner.Parallelism = %d, want 6", cfg.Runner.Parallelism)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		secrets string
		want    string
	}{
		{"invalid config yaml", "storage: [oops", "", "parse config"},
		{"invalid secrets yaml", "", "providers: [oops", "parse secrets"},
		{"invalid values", "storage:\n  driver: mongo\n", "", "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.config != "" {
				writeFile(t, filepath.Join(dir, "config.yaml"), tt.config)
			}
			if tt.secrets != "" {
				writeFile(t, filepath.Join(dir, "secrets.yaml"), tt.secrets)
			}

			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default(dir)
	cfg.Runner.Parallelism = 5
	cfg.LLM.Enabled = true
	cfg.LLM.Provider = "claude"
	cfg.LLM.APIKey = "sk-never-written"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "sk-never-written") {
		t.Error("API key was written to config.yaml")
	}

	if err := SaveSecrets(dir, map[string]string{"claude": "sk-secret"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Runner.Parallelism != 5 {
		t.Errorf("Runner.Parallelism = %d, want 5", loaded.Runner.Parallelism)
	}
	if loaded.LLM.APIKey != "sk-secret" {
		t.Errorf("LLM.APIKey = %q, want sk-secret", loaded.LLM.APIKey)
	}
	if loaded.Catalog.CacheTTL != cfg.Catalog.CacheTTL {
		t.Errorf("Catalog.CacheTTL = %v, want %v", loaded.Catalog.CacheTTL, cfg.Catalog.CacheTTL)
	}
}

func TestSaveSecrets_Permissions(t *testing.T) {
	dir := t.TempDir()

	if err := SaveSecrets(dir, map[string]string{}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		t.Fatalf("stat secrets: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("secrets.yaml permissions = %o, want 600", perm)
	}
}

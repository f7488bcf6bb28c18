package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "TEST_KEY_SET", "default", "custom", "custom"},
		{"returns empty string env over default", "TEST_KEY_EMPTY", "default", "", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "TEST_INT_INVALID", 100, "not-a-number", 100},
		{"parses negative int", "TEST_INT_NEG", 100, "-5", -5},
		{"parses zero", "TEST_INT_ZERO", 100, "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue float64
		envValue     string
		want         float64
	}{
		{"returns default when not set", "TEST_FLOAT_UNSET", 1.5, "", 1.5},
		{"parses valid float", "TEST_FLOAT_VALID", 1.5, "2.5", 2.5},
		{"returns default on invalid float", "TEST_FLOAT_INVALID", 1.5, "not-a-float", 1.5},
		{"parses int as float", "TEST_FLOAT_INT", 1.5, "3", 3.0},
		{"parses negative float", "TEST_FLOAT_NEG", 1.5, "-0.5", -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvFloat(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvFloat(%q, %f) = %f, want %f", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns default when not set", "TEST_BOOL_UNSET", true, "", true},
		{"parses true", "TEST_BOOL_TRUE", false, "true", true},
		{"parses false", "TEST_BOOL_FALSE", true, "false", false},
		{"parses 1 as true", "TEST_BOOL_ONE", false, "1", true},
		{"parses 0 as false", "TEST_BOOL_ZERO", true, "0", false},
		{"returns default on invalid bool", "TEST_BOOL_INVALID", true, "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION_VALID", "750ms")
	t.Setenv("TEST_DURATION_INVALID", "soon")

	if got := getEnvDuration("TEST_DURATION_VALID", time.Second); got != 750*time.Millisecond {
		t.Errorf("getEnvDuration(valid) = %v, want 750ms", got)
	}
	if got := getEnvDuration("TEST_DURATION_INVALID", time.Second); got != time.Second {
		t.Errorf("getEnvDuration(invalid) = %v, want 1s", got)
	}
	if got := getEnvDuration("TEST_DURATION_UNSET", 2*time.Second); got != 2*time.Second {
		t.Errorf("getEnvDuration(unset) = %v, want 2s", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/srv/hintsys")

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != filepath.Join("/srv/hintsys", "data", "hintsys.db") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Catalog.Path != filepath.Join("/srv/hintsys", "problems") {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Runner.Executor != "local" || cfg.Runner.Parallelism != 1 {
		t.Errorf("Runner = %+v, want local executor, parallelism 1", cfg.Runner)
	}
	if cfg.LLM.Enabled {
		t.Error("LLM should be disabled by default")
	}
	if !cfg.Grading.Badges || cfg.Grading.MasteryRetries <= 0 {
		t.Errorf("Grading = %+v", cfg.Grading)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want disabled", cfg.Metrics.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	envVars := map[string]string{
		"HINTSYS_STORAGE_DRIVER": "postgres",
		"HINTSYS_DATABASE_URL":   "postgres://u:p@db:5432/hints",
		"HINTSYS_EXECUTOR":       "docker",
		"HINTSYS_PARALLELISM":    "4",
		"HINTSYS_TIMEOUT":        "3s",
		"HINTSYS_CPU_LIMIT":      "1.5",
		"HINTSYS_LLM_ENABLED":    "true",
		"HINTSYS_LLM_PROVIDER":   "ollama",
		"HINTSYS_LLM_API_KEY":    "sk-env",
		"HINTSYS_WORKERS":        "8",
		"HINTSYS_METRICS_ADDR":   ":9100",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg := Default(t.TempDir())
	applyEnv(cfg)

	if cfg.Storage.Driver != DriverPostgres || cfg.Storage.PostgresURL != "postgres://u:p@db:5432/hints" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Runner.Executor != "docker" || cfg.Runner.Parallelism != 4 || cfg.Runner.Timeout != 3*time.Second {
		t.Errorf("Runner = %+v", cfg.Runner)
	}
	if cfg.Runner.CPULimit != 1.5 {
		t.Errorf("Runner.CPULimit = %v, want 1.5", cfg.Runner.CPULimit)
	}
	if !cfg.LLM.Enabled || cfg.LLM.Provider != "ollama" || cfg.LLM.APIKey != "sk-env" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Queue.Consumer.Workers != 8 {
		t.Errorf("Queue.Consumer.Workers = %d, want 8", cfg.Queue.Consumer.Workers)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"memory driver", func(c *Config) { c.Storage.Driver = DriverMemory }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, true},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }, true},
		{"postgres without url", func(c *Config) { c.Storage.Driver = DriverPostgres }, true},
		{"unknown executor", func(c *Config) { c.Runner.Executor = "firecracker" }, true},
		{"zero parallelism", func(c *Config) { c.Runner.Parallelism = 0 }, true},
		{"zero timeout", func(c *Config) { c.Runner.Timeout = 0 }, true},
		{"unknown provider ignored when disabled", func(c *Config) { c.LLM.Provider = "bard" }, false},
		{"unknown provider when enabled", func(c *Config) { c.LLM.Enabled, c.LLM.Provider = true, "bard" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/tmp/hintsys")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

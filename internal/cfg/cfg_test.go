package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "models/wine_model.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.HTTPPort != 8501 {
					t.Errorf("expected default HTTPPort 8501, got %d", settings.HTTPPort)
				}
				if settings.MetricsPort != 8080 {
					t.Errorf("expected default MetricsPort 8080, got %d", settings.MetricsPort)
				}
				if settings.CacheSize != 1024 {
					t.Errorf("expected default CacheSize 1024, got %d", settings.CacheSize)
				}
				if settings.RequestTimeout != 5*time.Second {
					t.Errorf("expected default RequestTimeout 5s, got %v", settings.RequestTimeout)
				}
				if settings.HistoryEnabled() {
					t.Error("expected history to be disabled without DATA_PATH")
				}
				if len(settings.AllowedOrigins) != 1 || settings.AllowedOrigins[0] != "*" {
					t.Errorf("expected default origins [*], got %v", settings.AllowedOrigins)
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"MODEL_PATH":      "/srv/models/wine.onnx",
				"HTTP_PORT":       "9000",
				"METRICS_PORT":    "9090",
				"DATA_PATH":       "/var/lib/wine",
				"CACHE_SIZE":      "0",
				"REQUEST_TIMEOUT": "2s",
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "json",
				"ALLOWED_ORIGINS": "https://a.example, https://b.example",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "/srv/models/wine.onnx" {
					t.Errorf("expected ModelPath override, got %s", settings.ModelPath)
				}
				if settings.HTTPPort != 9000 {
					t.Errorf("expected HTTPPort 9000, got %d", settings.HTTPPort)
				}
				if settings.CacheSize != 0 {
					t.Errorf("expected CacheSize 0, got %d", settings.CacheSize)
				}
				if settings.RequestTimeout != 2*time.Second {
					t.Errorf("expected RequestTimeout 2s, got %v", settings.RequestTimeout)
				}
				if !settings.HistoryEnabled() {
					t.Error("expected history to be enabled")
				}
				expectedOrigins := []string{"https://a.example", "https://b.example"}
				if len(settings.AllowedOrigins) != len(expectedOrigins) {
					t.Fatalf("expected %d origins, got %v", len(expectedOrigins), settings.AllowedOrigins)
				}
				for i, o := range expectedOrigins {
					if settings.AllowedOrigins[i] != o {
						t.Errorf("expected origin %s at index %d, got %s", o, i, settings.AllowedOrigins[i])
					}
				}
			},
		},
		{
			name: "unparseable values fall back to defaults",
			envVars: map[string]string{
				"HTTP_PORT":    "not-a-port",
				"READ_TIMEOUT": "soon",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.HTTPPort != 8501 {
					t.Errorf("expected default HTTPPort, got %d", settings.HTTPPort)
				}
				if settings.ReadTimeout != 10*time.Second {
					t.Errorf("expected default ReadTimeout, got %v", settings.ReadTimeout)
				}
			},
		},
		{
			name: "invalid port",
			envVars: map[string]string{
				"HTTP_PORT": "80",
			},
			wantErr: true,
		},
		{
			name: "ports collide",
			envVars: map[string]string{
				"HTTP_PORT":    "8080",
				"METRICS_PORT": "8080",
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			envVars: map[string]string{
				"LOG_LEVEL": "loud",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
model:
  path: "models/custom.json"
  cacheSize: 0

server:
  httpPort: 9000
  readTimeout: "20s"
  writeTimeout: "20s"
  requestTimeout: "3s"
  allowedOrigins:
    - "https://wine.example"

history:
  dataPath: "/custom/data"
  limit: 25

logging:
  level: "warn"
  format: "json"
  file: "/var/log/wine.log"

system:
  metricsPort: 9090
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "models/custom.json" {
					t.Errorf("expected ModelPath 'models/custom.json', got %s", settings.ModelPath)
				}
				if settings.CacheSize != 0 {
					t.Errorf("expected explicit CacheSize 0, got %d", settings.CacheSize)
				}
				if settings.HTTPPort != 9000 {
					t.Errorf("expected HTTPPort 9000, got %d", settings.HTTPPort)
				}
				if settings.ReadTimeout != 20*time.Second {
					t.Errorf("expected ReadTimeout 20s, got %v", settings.ReadTimeout)
				}
				if settings.RequestTimeout != 3*time.Second {
					t.Errorf("expected RequestTimeout 3s, got %v", settings.RequestTimeout)
				}
				if settings.DataPath != "/custom/data" || settings.HistoryLimit != 25 {
					t.Errorf("expected history /custom/data limit 25, got %s %d", settings.DataPath, settings.HistoryLimit)
				}
				if settings.LogLevel != "warn" || settings.LogFormat != "json" || settings.LogFile != "/var/log/wine.log" {
					t.Errorf("unexpected logging settings: %s %s %s", settings.LogLevel, settings.LogFormat, settings.LogFile)
				}
				if settings.MetricsPort != 9090 {
					t.Errorf("expected MetricsPort 9090, got %d", settings.MetricsPort)
				}
				if len(settings.AllowedOrigins) != 1 || settings.AllowedOrigins[0] != "https://wine.example" {
					t.Errorf("expected origins from YAML, got %v", settings.AllowedOrigins)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
model:
  path: "models/custom.json"
server:
  httpPort: 9000
system:
  metricsPort: 9090
`,
			envOverrides: map[string]string{
				"MODEL_PATH": "env.json",
				"HTTP_PORT":  "9100",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "env.json" {
					t.Errorf("expected env override ModelPath 'env.json', got %s", settings.ModelPath)
				}
				if settings.HTTPPort != 9100 {
					t.Errorf("expected env override HTTPPort 9100, got %d", settings.HTTPPort)
				}
				if settings.MetricsPort != 9090 {
					t.Errorf("expected YAML MetricsPort 9090, got %d", settings.MetricsPort)
				}
			},
		},
		{
			name:        "empty YAML uses defaults",
			yamlContent: `{}`,
			wantErr:     false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "models/wine_model.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.CacheSize != 1024 {
					t.Errorf("expected default CacheSize, got %d", settings.CacheSize)
				}
			},
		},
		{
			name: "YAML out of range",
			yamlContent: `
history:
  limit: 100000
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		testChdir(t, t.TempDir())
		t.Setenv("HTTP_PORT", "9001")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.HTTPPort != 9001 {
			t.Errorf("expected HTTPPort 9001, got %d", settings.HTTPPort)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)
		testChdir(t, t.TempDir())

		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  httpPort: 9002\n"), 0o644); err != nil {
			t.Fatalf("failed to write test config file: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.HTTPPort != 9002 {
			t.Errorf("expected HTTPPort 9002, got %d", settings.HTTPPort)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		testChdir(t, t.TempDir())
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("dotenv file is read", func(t *testing.T) {
		clearTestEnv(t)
		dir := t.TempDir()
		testChdir(t, dir)
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_PATH=/from/dotenv\nHISTORY_LIMIT=10\n"), 0o644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.DataPath != "/from/dotenv" {
			t.Errorf("expected DataPath from .env, got %q", settings.DataPath)
		}
		if settings.HistoryLimit != 10 {
			t.Errorf("expected HistoryLimit 10 from .env, got %d", settings.HistoryLimit)
		}
	})
}

// clearTestEnv unsets potentially conflicting environment variables for the
// duration of the test.
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "MODEL_PATH", "ONNX_LIBRARY_PATH", "HTTP_PORT", "METRICS_PORT",
		"DATA_PATH", "CACHE_SIZE", "READ_TIMEOUT", "WRITE_TIMEOUT", "REQUEST_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "ALLOWED_ORIGINS", "HISTORY_LIMIT",
	}

	for _, env := range envVars {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it
// changes the working directory and restores it when the test finishes.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

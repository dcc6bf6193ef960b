package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const goodSecret = "0123456789abcdef-secret"

// clearEnv makes sure variables from the developer's shell don't leak into
// a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DB_PATH", "JWT_SECRET", "JWT_TTL", "JWT_ISSUER", "BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", goodSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.TokenTTL() != 7*24*time.Hour {
		t.Errorf("TokenTTL() = %v, want 168h", cfg.TokenTTL())
	}
	if cfg.JWT.Issuer != "student-roster" {
		t.Errorf("Issuer = %q", cfg.JWT.Issuer)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.Auth.BcryptCost)
	}
	if cfg.ShutdownTimeout() != 30*time.Second {
		t.Errorf("ShutdownTimeout() = %v", cfg.ShutdownTimeout())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  port: 8081
database:
  path: /tmp/roster.db
jwt:
  secret: file-secret-long-enough
  ttl: 1h
logging:
  level: debug
  format: json
`)
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want env override 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/roster.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.JWT.Secret != "file-secret-long-enough" {
		t.Error("JWT secret from file was not applied")
	}
	if cfg.TokenTTL() != time.Hour {
		t.Errorf("TokenTTL() = %v, want 1h", cfg.TokenTTL())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{"missing secret", nil, "", "JWT secret"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "", "JWT secret"},
		{"bad port", map[string]string{"JWT_SECRET": goodSecret, "PORT": "eighty"}, "", "PORT"},
		{"port out of range", map[string]string{"JWT_SECRET": goodSecret, "PORT": "0"}, "", "port"},
		{"bad ttl", map[string]string{"JWT_SECRET": goodSecret, "JWT_TTL": "a week"}, "", "ttl"},
		{"bcrypt too low", map[string]string{"JWT_SECRET": goodSecret, "BCRYPT_COST": "2"}, "", "bcrypt"},
		{"bcrypt too high", map[string]string{"JWT_SECRET": goodSecret, "BCRYPT_COST": "40"}, "", "bcrypt"},
		{"bad format", map[string]string{"JWT_SECRET": goodSecret, "LOG_FORMAT": "xml"}, "", "log format"},
		{"bad yaml", map[string]string{"JWT_SECRET": goodSecret}, "server: [", "parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "none.yaml")
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want failure")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DoesNotLeakSecret(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.JWT.Secret = "tooshort"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	if strings.Contains(err.Error(), "tooshort") {
		t.Errorf("Validate() error leaks the secret: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("n", 1))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line logged at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("JSON output missing warn line: %s", out)
	}

	buf.Reset()
	NewLogger(&buf, "nonsense", "text").Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text output = %q", buf.String())
	}
}

// Package config loads server settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. The merged result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither -config nor CONFIG_PATH is given.
const DefaultPath = "config.yaml"

// MinSecretLength matches the token service's requirement.
const MinSecretLength = 16

type Config struct {
	Server struct {
		Port            int    `yaml:"port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Auth struct {
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads configPath if it exists, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	file, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.Port = 3000
	cfg.Server.ShutdownTimeout = "30s"

	cfg.Database.Path = "data/students.db"

	cfg.JWT.TTL = "168h"
	cfg.JWT.Issuer = "student-roster"

	cfg.Auth.BcryptCost = bcrypt.DefaultCost

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
}

func loadFromEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q is not a number", v)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv("BCRYPT_COST"); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST %q is not a number", v)
		}
		cfg.Auth.BcryptCost = cost
	}

	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.JWT.TTL, "JWT_TTL")
	setString(&cfg.JWT.Issuer, "JWT_ISSUER")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate checks every setting. The JWT secret is never echoed back in
// errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if len(c.JWT.Secret) < MinSecretLength {
		return fmt.Errorf("JWT secret must be at least %d characters (set JWT_SECRET)", MinSecretLength)
	}
	if ttl, err := time.ParseDuration(c.JWT.TTL); err != nil || ttl <= 0 {
		return fmt.Errorf("invalid JWT ttl %q", c.JWT.TTL)
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout %q", c.Server.ShutdownTimeout)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d outside %d..%d", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// TokenTTL returns the parsed JWT lifetime. Only valid after Validate.
func (c *Config) TokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.TTL)
	return d
}

// ShutdownTimeout returns the parsed graceful-shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

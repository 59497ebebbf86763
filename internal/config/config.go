package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from a YAML file
// selected by APP_ENV with environment variable overrides for secrets
type Config struct {
	App struct {
		Env    string `yaml:"env"`
		Port   int    `yaml:"port"`
		Locale string `yaml:"locale"`
	} `yaml:"app"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	JWT struct {
		Secret       string        `yaml:"secret"`
		ExpiresInRaw string        `yaml:"expires_in"`
		RefreshInRaw string        `yaml:"refresh_in"`
		ExpiresIn    time.Duration `yaml:"-"`
		RefreshIn    time.Duration `yaml:"-"`
	} `yaml:"jwt"`

	CORS struct {
		AllowOrigins string `yaml:"allow_origins"`
	} `yaml:"cors"`

	Content struct {
		TypesPath string `yaml:"types_path"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"content"`
}

// Load reads the YAML config at path and applies env overrides
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.App.Env = "local"
	cfg.App.Port = 8080
	cfg.App.Locale = "en"
	cfg.Redis.PoolSize = 10
	cfg.JWT.ExpiresIn = 24 * time.Hour
	cfg.JWT.RefreshIn = 7 * 24 * time.Hour
	cfg.Content.TypesPath = "configs/contenttypes.yaml"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.JWT.ExpiresInRaw != "" {
		d, err := time.ParseDuration(cfg.JWT.ExpiresInRaw)
		if err != nil {
			return nil, fmt.Errorf("parse jwt.expires_in: %w", err)
		}
		cfg.JWT.ExpiresIn = d
	}
	if cfg.JWT.RefreshInRaw != "" {
		d, err := time.ParseDuration(cfg.JWT.RefreshInRaw)
		if err != nil {
			return nil, fmt.Errorf("parse jwt.refresh_in: %w", err)
		}
		cfg.JWT.RefreshIn = d
	}

	return cfg, nil
}

// applyEnvOverrides lets deployment env vars win over file values
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}

// DSN returns the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name)
}

// IsDevelopment reports whether the app runs in a development env
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "local" || c.App.Env == "dev" || c.App.Env == "development"
}

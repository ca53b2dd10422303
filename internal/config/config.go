package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "GROGNON_"
	DefaultSessionKey = "grognon"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"  envPrefix:"SERVER_"`
	Data    DataConfig    `koanf:"data"    envPrefix:"DATA_"`
	Jobs    JobsConfig    `koanf:"jobs"    envPrefix:"JOBS_"`
	Logging LoggingConfig `koanf:"logging" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"             env:"ADDR"`
	SessionKey      string        `koanf:"session_key"      env:"SESSION_KEY"`
	AllowedOrigins  []string      `koanf:"allowed_origins"  env:"ALLOWED_ORIGINS" envSeparator:","`
	ReadTimeout     time.Duration `koanf:"read_timeout"     env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type DataConfig struct {
	Dir string `koanf:"dir" env:"DIR"`
}

type JobsConfig struct {
	CronInterval       time.Duration `koanf:"cron_interval"       env:"CRON_INTERVAL"`
	ReflectionInterval time.Duration `koanf:"reflection_interval" env:"REFLECTION_INTERVAL"`
	RefreshInterval    time.Duration `koanf:"refresh_interval"    env:"REFRESH_INTERVAL"`
	QueryTimeout       time.Duration `koanf:"query_timeout"       env:"QUERY_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"  env:"LEVEL"`  // debug, info, warn, error
	Format string `koanf:"format" env:"FORMAT"` // text, json
}

// Overrides carries values set explicitly on the command line.
type Overrides struct {
	DataDir  string
	Addr     string
	LogLevel string
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			SessionKey:      "",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Jobs: JobsConfig{
			CronInterval:       30 * time.Second,
			ReflectionInterval: 30 * time.Minute,
			RefreshInterval:    5 * time.Minute,
			QueryTimeout:       30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load layers defaults, the optional YAML file, .env, GROGNON_* variables and flag overrides.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.apply(overrides)

	if cfg.Server.SessionKey == "" {
		slog.Warn("GROGNON_SERVER_SESSION_KEY not set, using the default key")
		cfg.Server.SessionKey = DefaultSessionKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(o Overrides) {
	if o.DataDir != "" {
		c.Data.Dir = o.DataDir
	}
	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server addr is required")
	}
	if c.Data.Dir == "" {
		return errors.New("data dir is required")
	}
	intervals := map[string]time.Duration{
		"jobs.cron_interval":       c.Jobs.CronInterval,
		"jobs.reflection_interval": c.Jobs.ReflectionInterval,
		"jobs.refresh_interval":    c.Jobs.RefreshInterval,
		"jobs.query_timeout":       c.Jobs.QueryTimeout,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// Package mcp parses MCP command configuration and starts the server.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	mcpapp "github.com/louisbranch/mcptoolbox/internal/app/mcp"
	entrypoint "github.com/louisbranch/mcptoolbox/internal/platform/cmd"
	"github.com/louisbranch/mcptoolbox/internal/platform/config"
	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	ConfigFile      string        `env:"MCPTOOLBOX_CONFIG"`
	Transport       string        `env:"MCPTOOLBOX_TRANSPORT"         envDefault:"stdio"`
	HTTPAddr        string        `env:"MCPTOOLBOX_HTTP_ADDR"         envDefault:"localhost:8081"`
	AllowedHosts    []string      `env:"MCPTOOLBOX_ALLOWED_HOSTS"     envSeparator:","`
	LogLevel        string        `env:"MCPTOOLBOX_LOG_LEVEL"         envDefault:"info"`
	ServerName      string        `env:"MCPTOOLBOX_SERVER_NAME"       envDefault:"mcptoolbox"`
	ServerVersion   string        `env:"MCPTOOLBOX_SERVER_VERSION"    envDefault:"0.1.0"`
	VersionCommand  string        `env:"MCPTOOLBOX_VERSION_COMMAND"   envDefault:"go version"`
	VersionTimeout  time.Duration `env:"MCPTOOLBOX_VERSION_TIMEOUT"   envDefault:"5s"`
	PickSeed        string        `env:"MCPTOOLBOX_PICK_SEED"`
	RateLimit       int           `env:"MCPTOOLBOX_RATE_LIMIT"`
	RateBurst       int           `env:"MCPTOOLBOX_RATE_BURST"`
	ShutdownTimeout time.Duration `env:"MCPTOOLBOX_SHUTDOWN_TIMEOUT"  envDefault:"5s"`
	Telemetry       otel.Config
}

// fileConfig is the TOML file shape. Only keys present in the file override
// the environment.
type fileConfig struct {
	Transport       *string   `toml:"transport"`
	HTTPAddr        *string   `toml:"http_addr"`
	AllowedHosts    []string  `toml:"allowed_hosts"`
	LogLevel        *string   `toml:"log_level"`
	ServerName      *string   `toml:"server_name"`
	ServerVersion   *string   `toml:"server_version"`
	VersionCommand  *string   `toml:"version_command"`
	VersionTimeout  *string   `toml:"version_timeout"`
	PickSeed        *string   `toml:"pick_seed"`
	RateLimit       *int      `toml:"rate_limit"`
	RateBurst       *int      `toml:"rate_burst"`
	ShutdownTimeout *string   `toml:"shutdown_timeout"`
	Telemetry       *fileOtel `toml:"otel"`
}

type fileOtel struct {
	Endpoint *string `toml:"endpoint"`
	Enabled  *bool   `toml:"enabled"`
}

// ParseConfig loads the environment, then the optional TOML file, then flags.
// A nil environ reads the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	var err error
	if environ == nil {
		err = entrypoint.ParseConfig(&cfg)
	} else {
		err = config.ParseEnvFrom(&cfg, environ)
	}
	if err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "path to a TOML config file")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.VersionCommand, "version-command", cfg.VersionCommand, "command whose output runtimeVersion reports")
	fs.DurationVar(&cfg.VersionTimeout, "version-timeout", cfg.VersionTimeout, "time limit for the version command")
	fs.StringVar(&cfg.PickSeed, "pick-seed", cfg.PickSeed, "seed for selectRandom; empty picks a random seed")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "tool calls per second; 0 disables limiting")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.ConfigFile) == "" {
		return cfg, nil
	}
	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	var file fileConfig
	if err := config.LoadFile(cfg.ConfigFile, &file); err != nil {
		return Config{}, err
	}
	if err := file.apply(&cfg); err != nil {
		return Config{}, err
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return Config{}, fmt.Errorf("reapply flag %s: %w", name, err)
		}
	}
	return cfg, nil
}

func (f fileConfig) apply(cfg *Config) error {
	setString(&cfg.Transport, f.Transport)
	setString(&cfg.HTTPAddr, f.HTTPAddr)
	if f.AllowedHosts != nil {
		cfg.AllowedHosts = f.AllowedHosts
	}
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.ServerName, f.ServerName)
	setString(&cfg.ServerVersion, f.ServerVersion)
	setString(&cfg.VersionCommand, f.VersionCommand)
	setString(&cfg.PickSeed, f.PickSeed)
	if f.RateLimit != nil {
		cfg.RateLimit = *f.RateLimit
	}
	if f.RateBurst != nil {
		cfg.RateBurst = *f.RateBurst
	}
	if err := setDuration(&cfg.VersionTimeout, f.VersionTimeout, "version_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ShutdownTimeout, f.ShutdownTimeout, "shutdown_timeout"); err != nil {
		return err
	}
	if f.Telemetry != nil {
		setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
		if f.Telemetry.Enabled != nil {
			cfg.Telemetry.Enabled = *f.Telemetry.Enabled
		}
	}
	return nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func setDuration(dst *time.Duration, value *string, key string) error {
	if value == nil {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("config file %s: %w", key, err)
	}
	*dst = d
	return nil
}

// Run starts the MCP server with telemetry and blocks until it stops.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Component: entrypoint.ServiceMCP})
	if err != nil {
		return err
	}
	options := entrypoint.RunOptions{
		Telemetry: cfg.Telemetry,
		Logger:    logger,
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, options, func(ctx context.Context) error {
		logger.WithFields(logging.Fields{
			"transport": cfg.Transport,
			"version":   cfg.ServerVersion,
		}).Info("starting MCP server")
		return mcpapp.Run(ctx, mcpapp.Options{
			Transport:       cfg.Transport,
			HTTPAddr:        cfg.HTTPAddr,
			AllowedHosts:    cfg.AllowedHosts,
			ServerName:      cfg.ServerName,
			ServerVersion:   cfg.ServerVersion,
			VersionCommand:  cfg.VersionCommand,
			VersionTimeout:  cfg.VersionTimeout,
			PickSeed:        cfg.PickSeed,
			RateLimit:       cfg.RateLimit,
			RateBurst:       cfg.RateBurst,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          logger,
		})
	})
}

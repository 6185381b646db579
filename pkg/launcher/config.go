package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Smithed-MC/UX/pkg/gameengine"
	"github.com/Smithed-MC/UX/pkg/identity"
	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
)

// Config is the launcher configuration.
type Config struct {
	Dir           string       `yaml:"-"` // Set by CLI, not from YAML.
	APIURL        string       `yaml:"api_url" env:"SMITHED_API_URL"`
	UserAgent     string       `yaml:"user_agent"`
	LogLevel      string       `yaml:"log_level" env:"SMITHED_LOG_LEVEL"`
	OutputLevel   string       `yaml:"output_level" env:"SMITHED_OUTPUT_LEVEL"`
	ClientID      string       `yaml:"client_id" env:"SMITHED_CLIENT_ID"`
	LaunchCommand []string     `yaml:"launch_command"`
	Server        ServerConfig `yaml:"server"`
}

// ServerConfig holds IPC server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"SMITHED_ADDR"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		APIURL:        registry.DefaultBaseURL,
		UserAgent:     "smithed-launcher",
		LogLevel:      "info",
		OutputLevel:   relay.LevelInfo.String(),
		ClientID:      identity.DefaultClientID,
		LaunchCommand: gameengine.DefaultLaunchCommand,
		Server:        ServerConfig{Addr: "127.0.0.1:4817"},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and then applies
// SMITHED_* environment overrides. A missing file is not an error.
// Environment variables referenced as ${VAR} or $VAR in the YAML are
// expanded before parsing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("launcher: load config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("launcher: parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("launcher: parse env: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("launcher: config: api_url %q must be an http(s) URL", c.APIURL)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if _, err := relay.ParseLevel(c.OutputLevel); err != nil {
		return fmt.Errorf("launcher: config: output_level: %w", err)
	}

	if len(c.LaunchCommand) == 0 || c.LaunchCommand[0] == "" {
		return fmt.Errorf("launcher: config: launch_command is required")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("launcher: config: server.addr is required")
	}

	return nil
}

// SlogLevel returns the parsed log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("launcher: config: log_level: %w", err)
	}
	return lvl, nil
}

// RelayLevel returns the minimum output level forwarded to frontends. An
// invalid value falls back to info.
func (c Config) RelayLevel() relay.Level {
	lvl, err := relay.ParseLevel(c.OutputLevel)
	if err != nil {
		return relay.LevelInfo
	}
	return lvl
}

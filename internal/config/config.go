// Package config loads pagepdf command configuration from PAGEPDF_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	pagepdf "github.com/porticus-lab/go-page-pdf"
)

// Config holds the settings shared by the pagepdf subcommands.
//
// Values come from the environment first; flags registered with
// [Config.RegisterFlags] override them.
type Config struct {
	HTTPAddr          string        `env:"PAGEPDF_HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout   time.Duration `env:"PAGEPDF_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ChromePath        string        `env:"PAGEPDF_CHROME_PATH"`
	AutoDownload      bool          `env:"PAGEPDF_AUTO_DOWNLOAD"`
	BrowserDir        string        `env:"PAGEPDF_BROWSER_DIR"`
	NoSandbox         bool          `env:"PAGEPDF_NO_SANDBOX"`
	NavigationTimeout time.Duration `env:"PAGEPDF_NAVIGATION_TIMEOUT" envDefault:"30s"`
	SettleDelay       time.Duration `env:"PAGEPDF_SETTLE_DELAY" envDefault:"1500ms"`
	ManifestPath      string        `env:"PAGEPDF_MANIFEST"`
	DBPath            string        `env:"PAGEPDF_DB_PATH"`
	LogLevel          string        `env:"PAGEPDF_LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"PAGEPDF_LOG_FORMAT" envDefault:"json"`
	OTelEndpoint      string        `env:"PAGEPDF_OTEL_ENDPOINT"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RegisterFlags adds flags for every field to fs, using the current values
// as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "addr", c.HTTPAddr, "HTTP listen address")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown timeout")
	fs.StringVar(&c.ChromePath, "chrome", c.ChromePath, "Chrome/Chromium executable")
	fs.BoolVar(&c.AutoDownload, "auto-download", c.AutoDownload, "download Chromium when no executable is configured")
	fs.StringVar(&c.BrowserDir, "browser-dir", c.BrowserDir, "download cache directory for --auto-download")
	fs.BoolVar(&c.NoSandbox, "no-sandbox", c.NoSandbox, "disable the Chrome sandbox (required as root)")
	fs.DurationVar(&c.NavigationTimeout, "timeout", c.NavigationTimeout, "per-page navigation timeout")
	fs.DurationVar(&c.SettleDelay, "settle", c.SettleDelay, "wait after navigation before printing")
	fs.StringVar(&c.ManifestPath, "manifest", c.ManifestPath, "page manifest YAML (default: built-in)")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite binding store path (empty disables it)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: json, console")
	fs.StringVar(&c.OTelEndpoint, "otel-endpoint", c.OTelEndpoint, "OTLP/HTTP trace endpoint (empty disables tracing)")
}

// Parse loads the environment, registers the flags on fs and parses args.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	if fs == nil {
		return nil, errors.New("flag set is required")
	}
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.NavigationTimeout < 0 {
		errs = append(errs, fmt.Errorf("navigation timeout must not be negative, got %s", c.NavigationTimeout))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if c.BrowserDir != "" && !c.AutoDownload {
		errs = append(errs, errors.New("browser dir requires auto download"))
	}
	return errors.Join(errs...)
}

// PipelineOptions translates the browser settings into pipeline options.
func (c *Config) PipelineOptions(logger *zap.Logger) []pagepdf.Option {
	opts := []pagepdf.Option{
		pagepdf.WithTimeout(c.NavigationTimeout),
		pagepdf.WithSettleDelay(c.SettleDelay),
		pagepdf.WithLogger(logger),
	}
	if c.ChromePath != "" {
		opts = append(opts, pagepdf.WithChromePath(c.ChromePath))
	}
	if c.AutoDownload {
		opts = append(opts, pagepdf.WithAutoDownload(c.BrowserDir))
	}
	if c.NoSandbox {
		opts = append(opts, pagepdf.WithNoSandbox())
	}
	return opts
}

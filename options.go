package pagepdf

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Fixed timings applied to every page unless overridden.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 1500 * time.Millisecond
)

// Opener starts a render session for one pipeline run.
type Opener func(ctx context.Context) (Session, error)

// config holds internal configuration shared by sessions and pipelines.
type config struct {
	chromePath   string
	browserDir   string
	autoDownload bool
	noSandbox    bool
	headless     string
	timeout      time.Duration
	settle       time.Duration
	page         PageConfig
	logger       *zap.Logger
	opener       Opener
}

func defaultConfig() config {
	return config{
		headless: "new",
		timeout:  DefaultNavigationTimeout,
		settle:   DefaultSettleDelay,
		page:     DefaultPageConfig(),
		logger:   zap.NewNop(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Option configures a [ChromeSession] or a [Pipeline].
type Option func(*config)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithAutoDownload downloads a compatible Chromium build when no Chrome
// path is configured. dir overrides the download cache directory; pass ""
// for the launcher default.
func WithAutoDownload(dir string) Option {
	return func(c *config) {
		c.autoDownload = true
		c.browserDir = dir
	}
}

// WithTimeout sets the maximum duration of a single page navigation.
// Defaults to 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithSettleDelay sets how long to wait after navigation for late,
// script-driven layout. Defaults to 1.5 seconds.
func WithSettleDelay(d time.Duration) Option {
	return func(c *config) {
		if d < 0 {
			d = 0
		}
		c.settle = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// WithPageConfig sets the page geometry used for every page.
func WithPageConfig(pg PageConfig) Option {
	return func(c *config) {
		c.page = pg.resolved()
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

// WithOpener replaces the Chrome backend used by a [Pipeline] with another
// session factory.
func WithOpener(open Opener) Option {
	return func(c *config) {
		c.opener = open
	}
}

package pagepdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Session is a render session: one browser process and one browsing
// context, owned by a single pipeline run.
//
// Implementations are not safe for concurrent use; pages are rendered one
// at a time.
type Session interface {
	// Load navigates the browsing context to markup and waits until the
	// document has settled.
	Load(ctx context.Context, markup string) error
	// Fit forces the loaded document onto exactly one physical page.
	Fit(ctx context.Context) error
	// Print exports the loaded document as a single-page PDF.
	Print(ctx context.Context) ([]byte, error)
	// Close terminates the browser and releases every resource held by the
	// session. Close is idempotent.
	Close() error
}

var _ Session = (*ChromeSession)(nil)

// ChromeSession is a [Session] backed by a headless Chrome process driven
// over the Chrome DevTools Protocol.
//
// Markup is written to a scratch directory owned by the session and loaded
// from a file:// URL; the directory is removed by [ChromeSession.Close].
type ChromeSession struct {
	cfg         config
	dir         string
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu     sync.Mutex
	seq    int
	closed bool
}

// OpenSession starts a headless browser and opens its browsing context.
// The caller must call [ChromeSession.Close] when finished.
//
// Errors wrap [ErrSessionUnavailable].
func OpenSession(ctx context.Context, opts ...Option) (*ChromeSession, error) {
	return openChrome(ctx, newConfig(opts))
}

func openChrome(ctx context.Context, cfg config) (*ChromeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	execPath, err := cfg.resolveChromePath()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "pagepdf-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating scratch dir: %w", ErrSessionUnavailable, err)
	}

	width, height := cfg.page.viewport()
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("headless", cfg.headless),
		chromedp.WindowSize(int(width), int(height)),
	)
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser, so launch errors surface here.
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(cfg.page.DeviceScale)),
	); err != nil {
		tabCancel()
		allocCancel()
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: starting browser: %w", ErrSessionUnavailable, err)
	}

	return &ChromeSession{
		cfg:         cfg,
		dir:         dir,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// Close terminates the browser process and removes the scratch directory.
// Close is idempotent.
func (s *ChromeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := chromedp.Cancel(s.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	s.tabCancel()
	s.allocCancel()
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("removing scratch dir: %w", err))
	}
	return errors.Join(errs...)
}

// Load writes markup to the scratch directory and navigates to it. The
// navigation, including the wait for the body and web fonts, is bounded by
// the session timeout; the settle delay follows it.
func (s *ChromeSession) Load(ctx context.Context, markup string) error {
	name, err := s.writeMarkup(markup)
	if err != nil {
		return err
	}

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate("file://"+name))
	if err != nil {
		return navigationError(runCtx, err)
	}
	// file:// responses carry no HTTP status.
	if resp != nil && resp.Status != 0 && (resp.Status < 200 || resp.Status > 299) {
		return fmt.Errorf("%w: status %d %s", ErrNavigation, resp.Status, resp.StatusText)
	}

	var ready bool
	if err := chromedp.Run(runCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready, awaitPromise),
	); err != nil {
		return navigationError(runCtx, err)
	}

	if s.cfg.settle <= 0 {
		return nil
	}
	t := time.NewTimer(s.cfg.settle)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNavigation, ctx.Err())
	}
}

// Fit overrides document sizing and installs the print stylesheet.
func (s *ChromeSession) Fit(ctx context.Context) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(s.cfg.page.fitScript(), &ok)); err != nil {
		return fmt.Errorf("%w: %w", ErrLayout, err)
	}
	return nil
}

// Print exports the first page of the loaded document as PDF.
func (s *ChromeSession) Print(ctx context.Context) ([]byte, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	pg := s.cfg.page
	width, height := pg.paperDimensions()
	marginTop, marginRight, marginBottom, marginLeft := pg.marginInches()

	var buf []byte
	if err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(marginTop).
				WithMarginRight(marginRight).
				WithMarginBottom(marginBottom).
				WithMarginLeft(marginLeft).
				WithScale(pg.Scale).
				WithPrintBackground(true).
				WithLandscape(pg.Orientation == Landscape).
				WithPreferCSSPageSize(true).
				WithPageRanges("1").
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return buf, nil
}

func (s *ChromeSession) writeMarkup(markup string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	s.seq++
	name := filepath.Join(s.dir, fmt.Sprintf("page-%03d.html", s.seq))
	if err := os.WriteFile(name, []byte(markup), 0o600); err != nil {
		return "", fmt.Errorf("%w: writing markup: %w", ErrNavigation, err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", fmt.Errorf("%w: resolving path: %w", ErrNavigation, err)
	}
	return abs, nil
}

// runContext derives a context from the browsing context that is bounded by
// the session timeout and cancelled together with ctx.
func (s *ChromeSession) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.cfg.timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tabCtx, s.cfg.timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tabCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *ChromeSession) checkClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func navigationError(runCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNavigation, err)
}

package pagepdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/porticus-lab/go-page-pdf"

// Pipeline drives page requests through a render session and guarantees
// one artifact per request, in request order.
//
// A Pipeline holds no browser state between runs and is safe for
// concurrent use; each call to [Pipeline.Run] opens its own session.
type Pipeline struct {
	cfg      config
	renderer *Renderer
	fallback *FallbackBuilder
	tracer   trace.Tracer

	// buildFallback draws substitute pages. It is FallbackBuilder.Build
	// outside tests.
	buildFallback func(title, reason string) ([]byte, error)
}

// NewPipeline returns a Pipeline resolving markup from src. Without
// [WithOpener], each run launches a [ChromeSession] configured by opts.
func NewPipeline(src PageSource, opts ...Option) *Pipeline {
	cfg := newConfig(opts)
	if cfg.opener == nil {
		sessionCfg := cfg
		cfg.opener = func(ctx context.Context) (Session, error) {
			return openChrome(ctx, sessionCfg)
		}
	}
	fb := NewFallbackBuilder(&cfg.page)
	return &Pipeline{
		cfg:           cfg,
		renderer:      NewRenderer(src),
		fallback:      fb,
		tracer:        otel.Tracer(tracerName),
		buildFallback: fb.Build,
	}
}

// Run renders every request sequentially in one session.
//
// A page that fails to render is replaced by a fallback page describing the
// failure. Run only fails when reqs is invalid ([ErrInvalidRequest]), the
// session cannot be opened ([ErrSessionUnavailable]) or a fallback page
// cannot be built ([ErrFallback]). An empty reqs yields no artifacts and
// opens no session.
func (p *Pipeline) Run(ctx context.Context, reqs []PageRequest) (artifacts []*Artifact, err error) {
	if err := validateRequests(reqs); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, nil
	}

	runID := uuid.NewString()
	log := p.cfg.logger.With(zap.String("run_id", runID))
	ctx, span := p.tracer.Start(ctx, "pagepdf.Run", trace.WithAttributes(
		attribute.String("pagepdf.run_id", runID),
		attribute.Int("pagepdf.pages", len(reqs)),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sess, err := p.cfg.opener(ctx)
	if err != nil {
		log.Error("render session unavailable", zap.Error(err))
		if !errors.Is(err, ErrSessionUnavailable) {
			err = fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("closing render session", zap.Error(cerr))
		}
	}()

	artifacts = make([]*Artifact, 0, len(reqs))
	fallbacks := 0
	for i, req := range reqs {
		a, err := p.renderPage(ctx, log, sess, i, req)
		if err != nil {
			return nil, err
		}
		if a.Status() == StatusFallback {
			fallbacks++
		}
		artifacts = append(artifacts, a)
	}

	span.SetAttributes(attribute.Int("pagepdf.fallbacks", fallbacks))
	log.Info("pipeline run complete",
		zap.Int("pages", len(artifacts)),
		zap.Int("fallbacks", fallbacks),
		zap.Duration("duration", time.Since(start)))
	return artifacts, nil
}

func (p *Pipeline) renderPage(ctx context.Context, log *zap.Logger, sess Session, index int, req PageRequest) (*Artifact, error) {
	ctx, span := p.tracer.Start(ctx, "pagepdf.RenderPage", trace.WithAttributes(
		attribute.String("pagepdf.page_id", req.ID),
		attribute.Int("pagepdf.index", index),
	))
	defer span.End()

	start := time.Now()
	data, err := p.renderer.Render(ctx, sess, req)
	if err == nil {
		log.Debug("page rendered",
			zap.String("page_id", req.ID),
			zap.Int("bytes", len(data)),
			zap.Duration("duration", time.Since(start)))
		return newArtifact(req.ID, data), nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "page substituted")
	reason := err.Error()
	log.Warn("page render failed, substituting fallback",
		zap.String("page_id", req.ID),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))

	fb, ferr := p.buildFallback(fmt.Sprintf("Page %q could not be rendered", req.ID), reason)
	if ferr != nil {
		log.Error("fallback page failed", zap.String("page_id", req.ID), zap.Error(ferr))
		if !errors.Is(ferr, ErrFallback) {
			ferr = fmt.Errorf("%w: %w", ErrFallback, ferr)
		}
		return nil, ferr
	}
	return newFallbackArtifact(req.ID, fb, reason), nil
}

func validateRequests(reqs []PageRequest) error {
	seen := make(map[string]struct{}, len(reqs))
	for i, r := range reqs {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("%w: request %d has no identifier", ErrInvalidRequest, i+1)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate identifier %q", ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

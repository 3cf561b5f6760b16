package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	pagepdf "github.com/porticus-lab/go-page-pdf"
	"github.com/porticus-lab/go-page-pdf/internal/config"
	"github.com/porticus-lab/go-page-pdf/internal/logging"
	"github.com/porticus-lab/go-page-pdf/internal/pages"
	"github.com/porticus-lab/go-page-pdf/internal/storage/sqlite"
	"github.com/porticus-lab/go-page-pdf/internal/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

// app holds the components shared by the rendering commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *sqlite.Store
	source    *pages.Source
	streamer  *pagepdf.Streamer
	telemetry func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	a.telemetry, err = telemetry.Setup(ctx, cfg.OTelEndpoint, Version)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	manifest, err := pages.LoadManifest(cfg.ManifestPath)
	if err != nil {
		a.close()
		return nil, err
	}

	var store pages.BindingStore
	if cfg.DBPath != "" {
		a.store, err = sqlite.Open(cfg.DBPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("binding store: %w", err)
		}
		store = a.store
	}

	a.source = pages.NewSource(manifest, store)
	a.streamer = pagepdf.NewStreamer(pagepdf.NewPipeline(a.source, cfg.PipelineOptions(logger)...))
	return a, nil
}

func (a *app) close() {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		errs = append(errs, a.telemetry(ctx))
		cancel()
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}

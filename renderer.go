package pagepdf

import (
	"context"
	"errors"
	"fmt"
)

// pageErrors are the failures a renderer reports for a single page.
var pageErrors = []error{
	ErrSourceUnavailable,
	ErrNavigationTimeout,
	ErrNavigation,
	ErrLayout,
	ErrExport,
	ErrClosed,
}

// Renderer renders one [PageRequest] to a single-page PDF inside an open
// [Session].
type Renderer struct {
	src PageSource
}

// NewRenderer returns a Renderer that resolves markup from src.
func NewRenderer(src PageSource) *Renderer {
	return &Renderer{src: src}
}

// Render resolves, loads, fits and prints one page. Every failure is
// returned as a [*PageError] wrapping a page-level sentinel error. A panic
// in the source or the session is reported as a failure of the step that
// raised it.
func (r *Renderer) Render(ctx context.Context, s Session, req PageRequest) (data []byte, err error) {
	kind := ErrSourceUnavailable
	defer func() {
		if v := recover(); v != nil {
			data = nil
			err = &PageError{ID: req.ID, Err: fmt.Errorf("%w: panic: %v", kind, v)}
		}
	}()
	fail := func(err error) ([]byte, error) {
		return nil, &PageError{ID: req.ID, Err: classify(err, kind)}
	}

	markup, err := r.src.Resolve(ctx, req.ID, req.Params)
	if err != nil {
		return fail(err)
	}
	kind = ErrNavigation
	if err := s.Load(ctx, markup); err != nil {
		return fail(err)
	}
	kind = ErrLayout
	if err := s.Fit(ctx); err != nil {
		return fail(err)
	}
	kind = ErrExport
	data, err = s.Print(ctx)
	if err != nil {
		return fail(err)
	}
	if len(data) == 0 {
		return fail(errors.New("empty document"))
	}
	return data, nil
}

// classify wraps err with kind unless it already carries a page-level
// sentinel.
func classify(err, kind error) error {
	for _, known := range pageErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", kind, err)
}

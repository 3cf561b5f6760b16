// Package pages holds the page templates of the combined document and the
// [pagepdf.PageSource] that renders them in process.
package pages

import (
	"bytes"
	"context"
	"fmt"
	"io"

	pagepdf "github.com/porticus-lab/go-page-pdf"
)

// BindingStore supplies stored bindings for a page. A page without stored
// bindings returns a nil map.
type BindingStore interface {
	Bindings(ctx context.Context, pageID string) (map[string]any, error)
}

var _ pagepdf.PageSource = (*Source)(nil)

// Source renders manifest pages to markup.
//
// The bindings of a page are layered: manifest defaults, then the binding
// store, then request parameters.
type Source struct {
	manifest *Manifest
	store    BindingStore
}

// NewSource returns a Source for m. store may be nil.
func NewSource(m *Manifest, store BindingStore) *Source {
	return &Source{manifest: m, store: store}
}

// Manifest returns the manifest the source renders.
func (s *Source) Manifest() *Manifest { return s.manifest }

// Resolve renders the page id. Every failure wraps
// [pagepdf.ErrSourceUnavailable].
func (s *Source) Resolve(ctx context.Context, id string, params map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := s.Render(ctx, &buf, id, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes the markup of page id to w.
func (s *Source) Render(ctx context.Context, w io.Writer, id string, params map[string]any) error {
	spec, ok := s.manifest.Page(id)
	if !ok {
		return fmt.Errorf("%w: unknown page %q", pagepdf.ErrSourceUnavailable, id)
	}
	tmpl, ok := LookupTemplate(spec.Template)
	if !ok {
		return fmt.Errorf("%w: page %q: unknown template %q", pagepdf.ErrSourceUnavailable, id, spec.Template)
	}

	var stored map[string]any
	if s.store != nil {
		var err error
		stored, err = s.store.Bindings(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: page %q: loading bindings: %w", pagepdf.ErrSourceUnavailable, id, err)
		}
	}
	b := merge(map[string]any{"title": spec.Title}, spec.Bindings, stored, params)

	if err := tmpl(b).Render(ctx, w); err != nil {
		return fmt.Errorf("%w: page %q: %w", pagepdf.ErrSourceUnavailable, id, err)
	}
	return nil
}

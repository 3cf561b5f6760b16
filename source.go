package pagepdf

import (
	"context"
	"fmt"
)

// PageRequest identifies one page to render. The position of a request in
// the list passed to [Pipeline.Run] is the position of its page in the
// assembled document.
type PageRequest struct {
	ID     string
	Params map[string]any
}

// PageSource produces renderable markup for a page.
//
// Implementations should return an error wrapping [ErrSourceUnavailable]
// when they cannot supply markup; any other error is wrapped by the
// renderer.
type PageSource interface {
	Resolve(ctx context.Context, id string, params map[string]any) (string, error)
}

// SourceFunc adapts an ordinary function to a [PageSource].
type SourceFunc func(ctx context.Context, id string, params map[string]any) (string, error)

// Resolve calls f(ctx, id, params).
func (f SourceFunc) Resolve(ctx context.Context, id string, params map[string]any) (string, error) {
	return f(ctx, id, params)
}

// StaticSource serves fixed markup keyed by page identifier. Parameters are
// ignored.
type StaticSource map[string]string

// Resolve returns the markup registered for id.
func (s StaticSource) Resolve(_ context.Context, id string, _ map[string]any) (string, error) {
	markup, ok := s[id]
	if !ok {
		return "", fmt.Errorf("%w: no markup for %q", ErrSourceUnavailable, id)
	}
	return markup, nil
}

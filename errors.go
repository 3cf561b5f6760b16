package pagepdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [ChromeSession].
	ErrClosed = errors.New("pagepdf: session is closed")

	// ErrInvalidRequest is returned by [Pipeline.Run] when the request list
	// contains an empty or duplicated page identifier.
	ErrInvalidRequest = errors.New("pagepdf: invalid page request")

	// Run-level failures. These end a pipeline run.
	ErrSessionUnavailable = errors.New("pagepdf: render session unavailable")
	ErrFallback           = errors.New("pagepdf: fallback page generation failed")
	ErrAssembly           = errors.New("pagepdf: document assembly failed")

	// Page-level failures. These are replaced by a fallback page.
	ErrSourceUnavailable = errors.New("pagepdf: page source unavailable")
	ErrNavigationTimeout = errors.New("pagepdf: navigation timed out")
	ErrNavigation        = errors.New("pagepdf: navigation failed")
	ErrLayout            = errors.New("pagepdf: print layout failed")
	ErrExport            = errors.New("pagepdf: pdf export failed")
)

// PageError reports a failure to render one page. It wraps one of the
// page-level sentinel errors.
type PageError struct {
	ID  string
	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %q: %v", e.ID, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

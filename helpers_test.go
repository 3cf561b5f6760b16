package pagepdf

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// isPDF checks whether data starts with the PDF magic number.
func isPDF(data []byte) bool {
	return len(data) > 4 && string(data[:5]) == "%PDF-"
}

// fakeSession renders the loaded markup as a plain-text fallback page so the
// pipeline can be exercised without a browser.
type fakeSession struct {
	fb       *FallbackBuilder
	loaded   string
	loads    []string
	loadErrs map[string]error
	fitErr   error
	printErr error
	closes   int
}

func (s *fakeSession) Load(_ context.Context, markup string) error {
	s.loads = append(s.loads, markup)
	if err, ok := s.loadErrs[markup]; ok {
		return err
	}
	s.loaded = markup
	return nil
}

func (s *fakeSession) Fit(context.Context) error { return s.fitErr }

func (s *fakeSession) Print(context.Context) ([]byte, error) {
	if s.printErr != nil {
		return nil, s.printErr
	}
	return s.fb.Build("Rendered", s.loaded)
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

// fakeBackend hands out fakeSessions and records how often it was asked.
type fakeBackend struct {
	opens    int
	openErr  error
	sessions []*fakeSession
	setup    func(*fakeSession)
}

func (b *fakeBackend) open(context.Context) (Session, error) {
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	s := &fakeSession{fb: NewFallbackBuilder(nil)}
	if b.setup != nil {
		b.setup(s)
	}
	b.sessions = append(b.sessions, s)
	return s, nil
}

func (b *fakeBackend) totalCloses() int {
	n := 0
	for _, s := range b.sessions {
		n += s.closes
	}
	return n
}

func newTestPipeline(t *testing.T, src PageSource, b *fakeBackend) *Pipeline {
	t.Helper()
	return NewPipeline(src, WithOpener(b.open))
}

var errBoom = errors.New("boom")

func testSource() StaticSource {
	return StaticSource{
		"cover":    "<h1>cover page</h1>",
		"customer": "<h1>customer page</h1>",
		"terms":    "<h1>terms page</h1>",
	}
}

func requests(ids ...string) []PageRequest {
	reqs := make([]PageRequest, len(ids))
	for i, id := range ids {
		reqs[i] = PageRequest{ID: id}
	}
	return reqs
}

// assertTextOrder checks that each marker occurs in data after the previous
// one. Pages drawn by FallbackBuilder keep their text uncompressed.
func assertTextOrder(t *testing.T, data []byte, markers ...string) {
	t.Helper()
	prev := -1
	for _, m := range markers {
		i := bytes.Index(data, []byte(m))
		if i < 0 {
			t.Errorf("document does not contain %q", m)
			return
		}
		if i < prev {
			t.Errorf("%q appears before the previous page's text", m)
		}
		prev = i
	}
}

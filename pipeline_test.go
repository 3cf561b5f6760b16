package pagepdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRun_AllPagesSucceed(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), requests("cover", "customer", "terms"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(arts))
	}
	for i, id := range []string{"cover", "customer", "terms"} {
		if arts[i].ID() != id {
			t.Errorf("artifact %d id = %q, want %q", i, arts[i].ID(), id)
		}
		if arts[i].Status() != StatusSuccess {
			t.Errorf("artifact %d status = %v, want success", i, arts[i].Status())
		}
		if !isPDF(arts[i].Bytes()) {
			t.Errorf("artifact %d is not a PDF", i)
		}
	}
	if b.opens != 1 || b.totalCloses() != 1 {
		t.Errorf("opens = %d, closes = %d, want 1 and 1", b.opens, b.totalCloses())
	}
}

func TestRun_LoadsPagesInRequestOrder(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)

	if _, err := p.Run(context.Background(), requests("terms", "cover", "customer")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := b.sessions[0].loads
	want := []string{"<h1>terms page</h1>", "<h1>cover page</h1>", "<h1>customer page</h1>"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("load order = %q, want %q", got, want)
	}
}

func TestRun_SourceFailureFallsBack(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), requests("cover", "missing", "terms"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(arts))
	}
	if arts[0].Status() != StatusSuccess || arts[2].Status() != StatusSuccess {
		t.Errorf("siblings = %v, %v, want success", arts[0].Status(), arts[2].Status())
	}
	fb := arts[1]
	if fb.Status() != StatusFallback {
		t.Fatalf("missing page status = %v, want fallback", fb.Status())
	}
	if fb.ID() != "missing" {
		t.Errorf("fallback id = %q, want missing", fb.ID())
	}
	if !strings.Contains(fb.Reason(), "page source unavailable") {
		t.Errorf("reason = %q, want source unavailable", fb.Reason())
	}
	if !bytes.Contains(fb.Bytes(), []byte("unavailable")) {
		t.Error("fallback page does not show the failure reason")
	}
	if b.totalCloses() != 1 {
		t.Errorf("closes = %d, want 1", b.totalCloses())
	}
}

func TestRun_PageFailuresAreLocal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeSession)
		want  error
	}{
		{
			name: "navigation timeout",
			setup: func(s *fakeSession) {
				s.loadErrs = map[string]error{
					"<h1>customer page</h1>": fmt.Errorf("%w: deadline", ErrNavigationTimeout),
				}
			},
			want: ErrNavigationTimeout,
		},
		{
			name: "unclassified load error",
			setup: func(s *fakeSession) {
				s.loadErrs = map[string]error{"<h1>customer page</h1>": errBoom}
			},
			want: ErrNavigation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{setup: tt.setup}
			p := newTestPipeline(t, testSource(), b)

			arts, err := p.Run(context.Background(), requests("cover", "customer", "terms"))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			got := []Status{arts[0].Status(), arts[1].Status(), arts[2].Status()}
			want := []Status{StatusSuccess, StatusFallback, StatusSuccess}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("status[%d] = %v, want %v", i, got[i], want[i])
				}
			}
			if !strings.Contains(arts[1].Reason(), tt.want.Error()) {
				t.Errorf("reason = %q, want it to mention %q", arts[1].Reason(), tt.want)
			}
		})
	}
}

func TestRun_ExportFailureOnEveryPage(t *testing.T) {
	b := &fakeBackend{setup: func(s *fakeSession) { s.printErr = errBoom }}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), requests("cover", "customer"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, a := range arts {
		if a.Status() != StatusFallback {
			t.Errorf("artifact %d status = %v, want fallback", i, a.Status())
		}
		if !strings.Contains(a.Reason(), ErrExport.Error()) {
			t.Errorf("artifact %d reason = %q, want export error", i, a.Reason())
		}
	}
	if b.totalCloses() != 1 {
		t.Errorf("closes = %d, want 1", b.totalCloses())
	}
}

func TestRun_LayoutFailure(t *testing.T) {
	b := &fakeBackend{setup: func(s *fakeSession) { s.fitErr = errBoom }}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), requests("cover"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if arts[0].Status() != StatusFallback || !strings.Contains(arts[0].Reason(), ErrLayout.Error()) {
		t.Errorf("artifact = %v %q, want layout fallback", arts[0].Status(), arts[0].Reason())
	}
}

func TestRun_SessionUnavailable(t *testing.T) {
	b := &fakeBackend{openErr: errBoom}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), requests("cover", "customer"))
	if !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("err = %v, want ErrSessionUnavailable", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want it to wrap the cause", err)
	}
	if arts != nil {
		t.Errorf("got %d artifacts, want none", len(arts))
	}
}

func TestRun_EmptyRequestsOpenNoSession(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)

	arts, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(arts) != 0 {
		t.Errorf("got %d artifacts, want 0", len(arts))
	}
	if b.opens != 0 {
		t.Errorf("opens = %d, want 0", b.opens)
	}
}

func TestRun_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		reqs []PageRequest
	}{
		{"duplicate", requests("cover", "customer", "cover")},
		{"empty id", requests("cover", " ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			p := newTestPipeline(t, testSource(), b)

			_, err := p.Run(context.Background(), tt.reqs)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
			if b.opens != 0 {
				t.Errorf("opens = %d, want 0", b.opens)
			}
		})
	}
}

func TestRun_RepeatedRunsAreStructurallyEqual(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)
	reqs := requests("cover", "missing", "terms")

	first, err := p.Run(context.Background(), reqs)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background(), reqs)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID() != second[i].ID() || first[i].Status() != second[i].Status() {
			t.Errorf("artifact %d: %s/%v vs %s/%v", i,
				first[i].ID(), first[i].Status(), second[i].ID(), second[i].Status())
		}
	}
	if b.opens != 2 || b.totalCloses() != 2 {
		t.Errorf("opens = %d, closes = %d, want a fresh session per run", b.opens, b.totalCloses())
	}
}

func TestRun_FallbackFailureEndsRunAndClosesSession(t *testing.T) {
	b := &fakeBackend{}
	p := newTestPipeline(t, testSource(), b)
	p.buildFallback = func(string, string) ([]byte, error) { return nil, errBoom }

	arts, err := p.Run(context.Background(), requests("cover", "missing", "terms"))
	if !errors.Is(err, ErrFallback) {
		t.Fatalf("err = %v, want ErrFallback", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want it to wrap the builder error", err)
	}
	if arts != nil {
		t.Errorf("artifacts = %v, want none", arts)
	}
	if b.opens != 1 || b.totalCloses() != 1 {
		t.Errorf("opens = %d, closes = %d, want 1 and 1", b.opens, b.totalCloses())
	}
	if loads := b.sessions[0].loads; len(loads) != 1 {
		t.Errorf("loads = %q, want the run to stop at the failing page", loads)
	}
}

func TestRun_PanickingSourceFallsBack(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, id string, params map[string]any) (string, error) {
		if id == "customer" {
			panic("template: bad bindings")
		}
		return testSource().Resolve(ctx, id, params)
	})
	b := &fakeBackend{}
	p := newTestPipeline(t, src, b)

	arts, err := p.Run(context.Background(), requests("cover", "customer", "terms"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if arts[1].Status() != StatusFallback || !strings.Contains(arts[1].Reason(), "panic") {
		t.Errorf("customer = %v %q, want fallback mentioning the panic", arts[1].Status(), arts[1].Reason())
	}
	if arts[0].Status() != StatusSuccess || arts[2].Status() != StatusSuccess {
		t.Errorf("siblings = %v, %v, want success", arts[0].Status(), arts[2].Status())
	}
	if b.totalCloses() != 1 {
		t.Errorf("closes = %d, want 1", b.totalCloses())
	}
}

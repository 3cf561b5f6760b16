package pagepdf

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Download file names used by [Streamer].
const (
	CombinedFilename = "combined_pages.pdf"
	ErrorFilename    = "error.pdf"
)

// RequestFunc decodes the ordered page requests for an HTTP request.
type RequestFunc func(r *http.Request) ([]PageRequest, error)

// Streamer runs the pipeline and always yields a valid PDF: the assembled
// document, or a one-page document describing why there is none.
type Streamer struct {
	pipeline *Pipeline
	fallback *FallbackBuilder
	logger   *zap.Logger
}

// NewStreamer returns a Streamer for p.
func NewStreamer(p *Pipeline) *Streamer {
	return &Streamer{
		pipeline: p,
		fallback: p.fallback,
		logger:   p.cfg.logger,
	}
}

// Generate executes one pipeline run for reqs. Run-level failures and an
// empty request list produce an error document named [ErrorFilename]; the
// returned error is non-nil only when even that document cannot be built.
func (s *Streamer) Generate(ctx context.Context, reqs []PageRequest) (*Document, error) {
	if len(reqs) == 0 {
		return s.errorDocument("No pages rendered", "The request did not name any page to render.")
	}

	artifacts, err := s.pipeline.Run(ctx, reqs)
	if err != nil {
		s.logger.Error("pipeline run failed", zap.Int("pages", len(reqs)), zap.Error(err))
		return s.errorDocument("Document generation failed", err.Error())
	}
	if len(artifacts) == 0 {
		return s.errorDocument("No pages rendered", "The pipeline produced no pages.")
	}

	doc, err := Assemble(artifacts)
	if err != nil {
		s.logger.Error("document assembly failed", zap.Int("pages", len(artifacts)), zap.Error(err))
		return s.errorDocument("Document assembly failed", err.Error())
	}
	return doc, nil
}

func (s *Streamer) errorDocument(title, reason string) (*Document, error) {
	data, err := s.fallback.Build(title, reason)
	if err != nil {
		return nil, err
	}
	return &Document{data: data, filename: ErrorFilename, pages: 1}, nil
}

// Handler returns an http.Handler that streams the document for the page
// requests decoded by pages.
func (s *Streamer) Handler(pages RequestFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			doc *Document
			err error
		)
		reqs, perr := pages(r)
		if perr != nil {
			s.logger.Warn("decoding page requests", zap.Error(perr))
			doc, err = s.errorDocument("Invalid page request", perr.Error())
		} else {
			doc, err = s.Generate(r.Context(), reqs)
		}
		if err != nil {
			s.logger.Error("building error document", zap.Error(err))
			http.Error(w, "document generation failed", http.StatusInternalServerError)
			return
		}
		WriteDocument(w, doc)
	})
}

// WriteDocument writes doc as a PDF attachment with status 200.
func WriteDocument(w http.ResponseWriter, doc *Document) {
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", "attachment; filename="+doc.Filename())
	h.Set("Content-Length", strconv.Itoa(doc.Len()))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	// The status line is already sent; a failed write cannot be reported.
	_, _ = doc.WriteTo(w)
}

package server

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	pagepdf "github.com/porticus-lab/go-page-pdf"
	"github.com/porticus-lab/go-page-pdf/internal/pages"
)

// maxPages bounds the number of pages one request may ask for.
const maxPages = 64

// NewHandler returns the routes of the service:
//
//	GET /api/v1/pages/pdf   combined PDF; repeated "page" selects and orders pages
//	GET /api/v1/pages/{id}  HTML preview of one page
//	GET /healthz            liveness
//
// Query keys of the form "<page>.<field>" bind field on that page.
func NewHandler(src *pages.Source, streamer *pagepdf.Streamer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/pages/pdf", streamer.Handler(pageRequests(src.Manifest())))
	mux.HandleFunc("GET /api/v1/pages/{id}", preview(src, logger))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return withLogging(mux, logger)
}

// pageRequests decodes the page list of a PDF request.
func pageRequests(m *pages.Manifest) pagepdf.RequestFunc {
	return func(r *http.Request) ([]pagepdf.PageRequest, error) {
		q := r.URL.Query()
		var ids []string
		for _, v := range q["page"] {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
		if len(ids) > maxPages {
			return nil, errors.New("too many pages requested")
		}
		reqs := m.Requests(ids...)
		for i := range reqs {
			reqs[i].Params = pageParams(q, reqs[i].ID)
		}
		return reqs, nil
	}
}

// pageParams collects the "<id>.<field>" query values for page id.
func pageParams(q url.Values, id string) map[string]any {
	prefix := id + "."
	var params map[string]any
	for key, vals := range q {
		field, ok := strings.CutPrefix(key, prefix)
		if !ok || field == "" || len(vals) == 0 {
			continue
		}
		if params == nil {
			params = map[string]any{}
		}
		params[field] = vals[len(vals)-1]
	}
	return params
}

func preview(src *pages.Source, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := src.Manifest().Page(id); !ok {
			http.NotFound(w, r)
			return
		}
		var buf bytes.Buffer
		if err := src.Render(r.Context(), &buf, id, pageParams(r.URL.Query(), id)); err != nil {
			logger.Error("rendering preview", zap.String("page_id", id), zap.Error(err))
			http.Error(w, "page could not be rendered", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// withLogging logs one line per request and sets X-Request-ID.
func withLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		logger.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)))
	})
}

// Package pagepdf renders an ordered set of HTML pages through headless
// Chrome and combines them into one multi-page PDF.
//
// # Pipeline
//
// A [Pipeline] resolves each page's markup from a [PageSource], renders it in
// a [Session] and returns one [Artifact] per request, in request order:
//
//	p := pagepdf.NewPipeline(src, pagepdf.WithNoSandbox())
//	artifacts, err := p.Run(ctx, []pagepdf.PageRequest{
//	    {ID: "cover"},
//	    {ID: "customer", Params: map[string]any{"customer_name": "..."}},
//	})
//
// Each run opens its own browser and closes it on every exit path. A page
// that fails to render (source lookup, navigation timeout, layout script,
// PDF export) is replaced by a fallback page that states the failure, and
// the run continues. Only a session that cannot start or a fallback page
// that cannot be drawn ends the run.
//
// # Assembly
//
// [Assemble] merges the artifacts into a [Document]:
//
//	doc, err := pagepdf.Assemble(artifacts)
//	doc.Bytes()                       // []byte
//	doc.Pages()                       // page count
//	doc.WriteTo(w)                    // io.WriterTo
//	doc.WriteToFile("out.pdf", 0o644) // write to disk
//
// # Streaming
//
// A [Streamer] wraps run and assembly behind an HTTP handler that always
// answers with a PDF. When there is nothing to assemble, or the run fails,
// the body is a one-page document describing why:
//
//	s := pagepdf.NewStreamer(p)
//	mux.Handle("GET /pages/pdf", s.Handler(decodeRequests))
//
// Chrome or Chromium must be available in PATH, or use [WithChromePath] or
// [WithAutoDownload].
package pagepdf

package pagepdf

import (
	"bytes"
	"io"
	"os"
)

// Status reports how an [Artifact] was produced.
type Status int

const (
	// StatusSuccess marks a page rendered by the browser.
	StatusSuccess Status = iota
	// StatusFallback marks a synthesized page describing a render failure.
	StatusFallback
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Artifact holds the single-page PDF produced for one [PageRequest].
//
// An Artifact is immutable; its methods never modify the underlying data.
type Artifact struct {
	id     string
	data   []byte
	status Status
	reason string
}

func newArtifact(id string, data []byte) *Artifact {
	return &Artifact{id: id, data: data, status: StatusSuccess}
}

func newFallbackArtifact(id string, data []byte, reason string) *Artifact {
	return &Artifact{id: id, data: data, status: StatusFallback, reason: reason}
}

// ID returns the identifier of the request the artifact was rendered for.
func (a *Artifact) ID() string { return a.id }

// Status reports whether the page rendered or was substituted.
func (a *Artifact) Status() Status { return a.status }

// Reason returns the failure description of a fallback artifact, or "".
func (a *Artifact) Reason() string { return a.reason }

// Bytes returns the raw PDF content.
func (a *Artifact) Bytes() []byte { return a.data }

// Len returns the size of the PDF in bytes.
func (a *Artifact) Len() int { return len(a.data) }

// Reader returns an [*bytes.Reader] over the PDF content.
func (a *Artifact) Reader() *bytes.Reader { return bytes.NewReader(a.data) }

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}

// Document is an assembled multi-page PDF ready to be streamed.
type Document struct {
	data     []byte
	filename string
	pages    int
}

// Bytes returns the raw PDF content.
func (d *Document) Bytes() []byte { return d.data }

// Filename returns the download file name of the document.
func (d *Document) Filename() string { return d.filename }

// Pages returns the number of physical pages in the document.
func (d *Document) Pages() int { return d.pages }

// Len returns the size of the PDF in bytes.
func (d *Document) Len() int { return len(d.data) }

// Reader returns an [*bytes.Reader] over the PDF content.
func (d *Document) Reader() *bytes.Reader { return bytes.NewReader(d.data) }

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.data)
	return int64(n), err
}

// WriteToFile writes the PDF to the file at path, creating it if needed.
func (d *Document) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, d.data, perm)
}

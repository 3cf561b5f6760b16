package pagepdf

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// pdfConfig returns a relaxed pdfcpu configuration that never touches the
// user's config directory.
func pdfConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// CountPages returns the number of pages in a PDF document.
func CountPages(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// Assemble merges single-page artifacts into one document whose page order
// is the order of artifacts. Every artifact must hold a well-formed PDF with
// exactly one page. Errors wrap [ErrAssembly].
func Assemble(artifacts []*Artifact) (*Document, error) {
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrAssembly)
	}

	readers := make([]io.ReadSeeker, 0, len(artifacts))
	for i, a := range artifacts {
		if a == nil || a.Len() == 0 {
			return nil, fmt.Errorf("%w: page %d is empty", ErrAssembly, i+1)
		}
		n, err := CountPages(a.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: page %d (%s): %w", ErrAssembly, i+1, a.ID(), err)
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: page %d (%s) has %d pages, want 1", ErrAssembly, i+1, a.ID(), n)
		}
		readers = append(readers, a.Reader())
	}

	if len(readers) == 1 {
		return &Document{data: artifacts[0].Bytes(), filename: CombinedFilename, pages: 1}, nil
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, pdfConfig()); err != nil {
		return nil, fmt.Errorf("%w: merging: %w", ErrAssembly, err)
	}
	return &Document{data: buf.Bytes(), filename: CombinedFilename, pages: len(artifacts)}, nil
}

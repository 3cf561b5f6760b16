package pagepdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"
)

// maxReasonRunes caps the failure text so it always fits on one page.
const maxReasonRunes = 1500

// FallbackBuilder draws minimal one-page PDFs carrying a plain-text message.
//
// It does not depend on the browser, so it keeps working when the render
// session is what failed. Text is drawn with the core Helvetica font, which
// only covers Windows-1252: Arabic or other non-Latin titles and reasons come
// out as '?' characters (see toWinAnsi). The page id and error kind stay
// readable since they are ASCII in practice.
type FallbackBuilder struct {
	page PageConfig
}

// NewFallbackBuilder returns a builder producing pages of the given size.
// A nil config uses [DefaultPageConfig].
func NewFallbackBuilder(pg *PageConfig) *FallbackBuilder {
	return &FallbackBuilder{page: pg.resolved()}
}

// Build returns a single-page PDF showing title above reason. Errors wrap
// [ErrFallback].
func (b *FallbackBuilder) Build(title, reason string) ([]byte, error) {
	w, h := b.page.paperCentimeters()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: w * 10, Ht: h * 10},
	})
	pdf.SetCompression(false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(20, 20, 20)
	pdf.SetCreator("pagepdf", false)
	pdf.SetTitle(toWinAnsi(title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(153, 27, 27)
	pdf.MultiCell(0, 8, toWinAnsi(title), "", "L", false)
	pdf.Ln(2)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), w*10-20, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(0, 6, toWinAnsi(truncate(reason, maxReasonRunes)), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallback, err)
	}
	return buf.Bytes(), nil
}

// toWinAnsi maps s onto the Windows-1252 code page used by the core PDF
// fonts. Runes outside it become '?'; the core fonts have no glyphs or
// shaping for them.
func toWinAnsi(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '\n', '\t':
			out = append(out, byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, c)
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

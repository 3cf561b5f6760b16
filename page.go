package pagepdf

import (
	"fmt"
	"math"
	"strconv"
)

// PageSize represents paper dimensions in centimeters.
type PageSize struct {
	Width  float64 // Width in centimeters.
	Height float64 // Height in centimeters.
}

// Standard paper sizes.
var (
	A3     = PageSize{Width: 29.7, Height: 42.0}
	A4     = PageSize{Width: 21.0, Height: 29.7}
	A5     = PageSize{Width: 14.8, Height: 21.0}
	Letter = PageSize{Width: 21.59, Height: 27.94}
	Legal  = PageSize{Width: 21.59, Height: 35.56}
)

// Orientation represents the page orientation.
type Orientation int

const (
	// Portrait is the default vertical orientation.
	Portrait Orientation = iota
	// Landscape rotates the page to horizontal orientation.
	Landscape
)

// Margin represents page margins in centimeters.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargin returns a Margin with the same value on all sides.
func UniformMargin(cm float64) Margin {
	return Margin{Top: cm, Right: cm, Bottom: cm, Left: cm}
}

// cssPixelsPerInch is the fixed CSS reference resolution.
const cssPixelsPerInch = 96

// PageConfig controls the geometry of every page in a pipeline run.
//
// A nil PageConfig or zero-value fields use the print defaults: A4 paper,
// portrait, no margins, scale 1.0, backgrounds printed and any CSS @page
// size preferred over the paper size.
type PageConfig struct {
	// Size specifies the paper size. Defaults to A4.
	Size PageSize

	// Orientation specifies portrait or landscape. Defaults to Portrait.
	Orientation Orientation

	// Margin specifies page margins in centimeters. Defaults to zero.
	Margin Margin

	// Scale of the webpage rendering. Defaults to 1.0.
	Scale float64

	// DeviceScale is the device pixel ratio emulated by the browsing
	// context. Defaults to 2.0.
	DeviceScale float64
}

// DefaultPageConfig returns the print defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:        A4,
		Orientation: Portrait,
		Scale:       1.0,
		DeviceScale: 2.0,
	}
}

// resolved returns a PageConfig with all zero values replaced by defaults.
func (p *PageConfig) resolved() PageConfig {
	d := DefaultPageConfig()
	if p == nil {
		return d
	}
	r := *p
	if r.Size == (PageSize{}) {
		r.Size = d.Size
	}
	if r.Scale <= 0 {
		r.Scale = d.Scale
	}
	if r.DeviceScale <= 0 {
		r.DeviceScale = d.DeviceScale
	}
	return r
}

// cmToInches converts centimeters to inches.
func cmToInches(cm float64) float64 {
	return cm / 2.54
}

// paperCentimeters returns the paper width and height in centimeters,
// accounting for orientation.
func (p *PageConfig) paperCentimeters() (width, height float64) {
	r := p.resolved()
	if r.Orientation == Landscape {
		return r.Size.Height, r.Size.Width
	}
	return r.Size.Width, r.Size.Height
}

// paperDimensions returns the paper width and height in inches.
func (p *PageConfig) paperDimensions() (width, height float64) {
	w, h := p.paperCentimeters()
	return cmToInches(w), cmToInches(h)
}

// marginInches returns margins converted to inches.
func (p *PageConfig) marginInches() (top, right, bottom, left float64) {
	r := p.resolved()
	return cmToInches(r.Margin.Top),
		cmToInches(r.Margin.Right),
		cmToInches(r.Margin.Bottom),
		cmToInches(r.Margin.Left)
}

// viewport returns the CSS pixel viewport matching the paper size.
func (p *PageConfig) viewport() (width, height int64) {
	w, h := p.paperDimensions()
	return int64(math.Round(w * cssPixelsPerInch)), int64(math.Round(h * cssPixelsPerInch))
}

// printCSS returns the stylesheet that pins the document to exactly one
// physical page of the configured size.
func (p *PageConfig) printCSS() string {
	w, h := p.paperCentimeters()
	size := fmt.Sprintf("%.2fmm %.2fmm", w*10, h*10)
	return "@page { size: " + size + "; margin: 0; }\n" +
		"html, body { width: " + fmt.Sprintf("%.2fmm", w*10) + " !important; height: " +
		fmt.Sprintf("%.2fmm", h*10) + " !important; margin: 0 !important; overflow: hidden !important; }\n" +
		"* { break-inside: avoid !important; page-break-inside: avoid !important; " +
		"-webkit-print-color-adjust: exact; print-color-adjust: exact; }\n"
}

// fitScript returns the JavaScript that forces print sizing on the loaded
// document and installs the print stylesheet.
func (p *PageConfig) fitScript() string {
	w, h := p.paperCentimeters()
	width := strconv.Quote(fmt.Sprintf("%.2fmm", w*10))
	height := strconv.Quote(fmt.Sprintf("%.2fmm", h*10))
	return `(() => {
  for (const el of [document.documentElement, document.body]) {
    if (!el) continue;
    el.style.width = ` + width + `;
    el.style.height = ` + height + `;
    el.style.margin = "0";
    el.style.overflow = "hidden";
  }
  const style = document.createElement("style");
  style.setAttribute("media", "print");
  style.textContent = ` + strconv.Quote(p.printCSS()) + `;
  document.head.appendChild(style);
  return true;
})()`
}

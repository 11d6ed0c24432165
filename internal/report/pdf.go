package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ImageData is a fetched raster image
type ImageData struct {
	Bytes []byte
	Type  string // "PNG", "JPG" or "GIF"
}

// PDFCanvas measures and paints primitives onto A4 pages with fpdf
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas creates an empty A4 portrait document in millimetres
func NewPDFCanvas(title string) *PDFCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.SetCreator("ImpactusAll", true)
	pdf.SetTitle(title, true)
	return &PDFCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// StringWidth implements Measurer using the core font metrics
func (c *PDFCanvas) StringWidth(font Font, s string) float64 {
	c.pdf.SetFont(font.Family, font.Style, font.Size)
	return c.pdf.GetStringWidth(c.tr(s))
}

// RegisterImage makes data drawable under name. Unusable images are
// reported and left unregistered.
func (c *PDFCanvas) RegisterImage(name string, data ImageData) error {
	opts := fpdf.ImageOptions{ImageType: strings.ToUpper(data.Type), ReadDpi: true}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data.Bytes))
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return fmt.Errorf("registering image %s: %w", name, err)
	}
	return nil
}

// Render paints pages and returns the encoded document
func (c *PDFCanvas) Render(pages []Page) ([]byte, error) {
	for _, page := range pages {
		c.pdf.AddPage()
		for _, p := range page.Primitives {
			c.draw(p)
		}
	}

	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount is the number of pages added so far
func (c *PDFCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *PDFCanvas) draw(p Primitive) {
	switch v := p.(type) {
	case Rect:
		style := ""
		if v.Filled {
			c.pdf.SetFillColor(int(v.Fill.R), int(v.Fill.G), int(v.Fill.B))
			style += "F"
		}
		if v.Stroked {
			c.pdf.SetDrawColor(int(v.Stroke.R), int(v.Stroke.G), int(v.Stroke.B))
			c.pdf.SetLineWidth(v.LineWidth)
			style += "D"
		}
		if style == "" {
			return
		}
		if v.Radius > 0 {
			c.pdf.RoundedRect(v.X, v.Y, v.W, v.H, v.Radius, "1234", style)
		} else {
			c.pdf.Rect(v.X, v.Y, v.W, v.H, style)
		}
	case Text:
		c.pdf.SetFont(v.Font.Family, v.Font.Style, v.Font.Size)
		c.pdf.SetTextColor(int(v.Color.R), int(v.Color.G), int(v.Color.B))
		c.pdf.Text(v.X, v.Y, c.tr(v.Value))
	case Image:
		c.pdf.ImageOptions(v.Name, v.X, v.Y, v.W, v.H, false, fpdf.ImageOptions{}, 0, "")
	}
}

package report

import (
	"strings"
	"unicode"
)

// Font is a family, style ("", "B", "I", "BI") and size in points
type Font struct {
	Family string
	Style  string
	Size   float64
}

// LineHeight is the baseline-to-baseline distance in millimetres
func (f Font) LineHeight() float64 {
	const ptToMM = 0.3528
	return f.Size * ptToMM * 1.35
}

// Measurer reports rendered text width in page units
type Measurer interface {
	StringWidth(font Font, s string) float64
}

// Box is an axis-aligned rectangle in page units
type Box struct {
	X, Y, W, H float64
}

// Bottom is the y coordinate of the lower edge
func (b Box) Bottom() float64 { return b.Y + b.H }

// Grid places equally sized cells in rows of Cols, left to right then top
// to bottom.
type Grid struct {
	X, Y  float64
	Cols  int
	CellW float64
	CellH float64
	Gap   float64
}

// GridFor fits cols columns into width starting at x
func GridFor(x, y, width float64, cols int, cellH, gap float64) Grid {
	if cols < 1 {
		cols = 1
	}
	cellW := (width - gap*float64(cols-1)) / float64(cols)
	return Grid{X: x, Y: y, Cols: cols, CellW: cellW, CellH: cellH, Gap: gap}
}

// Cells returns the boxes of the first n cells
func (g Grid) Cells(n int) []Box {
	cols := g.Cols
	if cols < 1 {
		cols = 1
	}
	out := make([]Box, n)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		out[i] = Box{
			X: g.X + float64(col)*(g.CellW+g.Gap),
			Y: g.Y + float64(row)*(g.CellH+g.Gap),
			W: g.CellW,
			H: g.CellH,
		}
	}
	return out
}

// Height is the vertical extent of n cells
func (g Grid) Height(n int) float64 {
	if n <= 0 {
		return 0
	}
	cols := g.Cols
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols
	return float64(rows)*g.CellH + float64(rows-1)*g.Gap
}

// Wrap breaks text into lines no wider than width as measured by m.
// Newlines start new paragraphs; words wider than width are split.
func Wrap(m Measurer, font Font, text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.FieldsFunc(para, unicode.IsSpace)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if m.StringWidth(font, candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for m.StringWidth(font, w) > width {
				head, tail := splitToWidth(m, font, w, width)
				lines = append(lines, head)
				w = tail
			}
			line = w
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitToWidth returns the longest prefix of word fitting width, always at
// least one rune, and the remainder.
func splitToWidth(m Measurer, font Font, word string, width float64) (string, string) {
	runes := []rune(word)
	cut := 1
	for cut < len(runes) && m.StringWidth(font, string(runes[:cut+1])) <= width {
		cut++
	}
	return string(runes[:cut]), string(runes[cut:])
}

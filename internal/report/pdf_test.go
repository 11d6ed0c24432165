package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFCanvasMeasures(t *testing.T) {
	c := NewPDFCanvas("test")
	small := c.StringWidth(Font{Family: "Helvetica", Size: 10}, "Impact")
	large := c.StringWidth(Font{Family: "Helvetica", Size: 20}, "Impact")
	assert.Greater(t, small, 0.0)
	assert.InDelta(t, small*2, large, 1e-6)
	assert.Greater(t, c.StringWidth(Font{Family: "Helvetica", Style: "B", Size: 10}, "Impact"), small)
}

func TestPDFCanvasRejectsBadImage(t *testing.T) {
	c := NewPDFCanvas("test")
	assert.Error(t, c.RegisterImage("broken", ImageData{Bytes: []byte("not an image"), Type: "PNG"}))
	require.NoError(t, c.RegisterImage("ok", ImageData{Bytes: tinyPNG(), Type: "PNG"}))

	data, err := c.Render([]Page{{Primitives: []Primitive{
		Rect{Box: Box{X: 10, Y: 10, W: 50, H: 20}, Fill: Color{1, 2, 3}, Filled: true, Radius: 2},
		Rect{Box: Box{X: 10, Y: 40, W: 50, H: 20}, Stroke: Color{1, 2, 3}, Stroked: true, LineWidth: 0.5},
		Text{X: 10, Y: 80, Font: Font{Family: "Helvetica", Size: 12}, Color: Ink, Value: "£1,000 raised"},
		Image{Box: Box{X: 10, Y: 90, W: 20, H: 20}, Name: "ok"},
	}}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, 1, c.PageCount())
}

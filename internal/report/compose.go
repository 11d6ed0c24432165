package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A4 portrait in millimetres
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 15.0
	ContentW   = PageWidth - 2*Margin

	// SpotlightLimit caps the stories given a full panel
	SpotlightLimit = 3
)

// Color is an RGB triple
type Color struct {
	R, G, B uint8
}

var (
	White  = Color{255, 255, 255}
	Ink    = Color{40, 40, 40}
	Muted  = Color{110, 110, 110}
	Shadow = Color{215, 215, 220}
)

// ParseHexColor parses #RRGGBB, returning fallback on malformed input
func ParseHexColor(s string, fallback Color) Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// Primitive is one absolutely positioned drawing instruction
type Primitive interface {
	primitive()
}

// Rect is a filled and/or stroked rectangle, rounded when Radius > 0
type Rect struct {
	Box
	Fill      Color
	Filled    bool
	Stroke    Color
	Stroked   bool
	LineWidth float64
	Radius    float64
}

// Text is a single line; Y is the baseline
type Text struct {
	X, Y  float64
	Font  Font
	Color Color
	Value string
}

// Image draws a registered raster image into Box
type Image struct {
	Box
	Name string
}

func (Rect) primitive()  {}
func (Text) primitive()  {}
func (Image) primitive() {}

// Page is an ordered list of primitives painted back to front
type Page struct {
	Primitives []Primitive
}

// Theme carries donor branding
type Theme struct {
	Primary   Color
	Secondary Color
	Currency  string
}

// Content is the fetched snapshot a document is composed from
type Content struct {
	DonorName    string
	Theme        Theme
	Text         TextFields
	WindowLabel  string
	GeneratedAt  time.Time
	Figures      Figures
	Stories      []StorySnapshot
	DonorLogo    string            // registered image name, "" for none
	CharityLogos map[string]string // story id to registered image name
}

var (
	fontTitle    = Font{Family: "Helvetica", Style: "B", Size: 26}
	fontSubtitle = Font{Family: "Helvetica", Size: 12}
	fontHeading  = Font{Family: "Helvetica", Style: "B", Size: 16}
	fontBody     = Font{Family: "Helvetica", Size: 10.5}
	fontSmall    = Font{Family: "Helvetica", Size: 9}
	fontNote     = Font{Family: "Helvetica", Style: "I", Size: 8.5}
	fontFigure   = Font{Family: "Helvetica", Style: "B", Size: 20}
	fontHero     = Font{Family: "Helvetica", Style: "B", Size: 30}
	fontPanel    = Font{Family: "Helvetica", Style: "B", Size: 13}
	fontCharity  = Font{Family: "Helvetica", Style: "I", Size: 10}
)

// Spotlight panels clip their text so a panel always fits on one page.
const (
	maxTitleLines   = 3
	maxExcerptLines = 10
	maxMetricLines  = 4
)

func clipLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	lines = lines[:n]
	lines[n-1] += "..."
	return lines
}

// composer lays content out top to bottom, opening a new page whenever
// the next block does not fit.
type composer struct {
	m     Measurer
	theme Theme
	pages []Page
	y     float64
}

// Compose lays out every page of a report
func Compose(m Measurer, c Content) []Page {
	cp := &composer{m: m, theme: c.Theme}
	cp.cover(c)
	cp.summary(c)
	cp.spotlights(c)
	cp.closing(c)
	return cp.pages
}

func (cp *composer) newPage() {
	cp.pages = append(cp.pages, Page{})
	cp.y = Margin
}

func (cp *composer) add(p ...Primitive) {
	page := &cp.pages[len(cp.pages)-1]
	page.Primitives = append(page.Primitives, p...)
}

// ensure starts a new page unless h more millimetres fit on this one
func (cp *composer) ensure(h float64) {
	if cp.y+h > PageHeight-Margin && cp.y > Margin {
		cp.newPage()
	}
}

// fitFont shrinks f until s fits width, down to 6pt
func (cp *composer) fitFont(f Font, s string, width float64) Font {
	for f.Size > 6 && cp.m.StringWidth(f, s) > width {
		f.Size -= 0.5
	}
	return f
}

func (cp *composer) centered(box Box, baseline float64, f Font, col Color, s string) {
	f = cp.fitFont(f, s, box.W-4)
	w := cp.m.StringWidth(f, s)
	cp.add(Text{X: box.X + (box.W-w)/2, Y: baseline, Font: f, Color: col, Value: s})
}

// tile is the shared card: drop shadow, white rounded body with a thick
// border, a large figure and a small label beneath.
func (cp *composer) tile(box Box, value, label string) {
	cp.add(
		Rect{Box: Box{X: box.X + 1.2, Y: box.Y + 1.2, W: box.W, H: box.H}, Fill: Shadow, Filled: true, Radius: 3},
		Rect{Box: box, Fill: White, Filled: true, Stroke: cp.theme.Primary, Stroked: true, LineWidth: 0.8, Radius: 3},
	)
	cp.centered(box, box.Y+box.H*0.55, fontFigure, cp.theme.Primary, value)
	cp.centered(box, box.Y+box.H*0.55+fontSmall.LineHeight()+1.5, fontSmall, Muted, label)
}

func (cp *composer) heading(s string) {
	cp.ensure(fontHeading.LineHeight() + 6)
	cp.y += fontHeading.LineHeight()
	cp.add(Text{X: Margin, Y: cp.y, Font: fontHeading, Color: cp.theme.Primary, Value: s})
	cp.add(Rect{Box: Box{X: Margin, Y: cp.y + 2, W: 24, H: 0.9}, Fill: cp.theme.Secondary, Filled: true})
	cp.y += 6
}

// paragraph wraps s to the content width, continuing on a new page when
// needed.
func (cp *composer) paragraph(f Font, col Color, s string) {
	lh := f.LineHeight()
	for _, line := range Wrap(cp.m, f, s, ContentW) {
		cp.ensure(lh)
		cp.y += lh
		if line != "" {
			cp.add(Text{X: Margin, Y: cp.y, Font: f, Color: col, Value: line})
		}
	}
	cp.y += 3
}

func (cp *composer) grid(cols int, cellH float64, tiles [][2]string) {
	g := GridFor(Margin, 0, ContentW, cols, cellH, 6)
	h := g.Height(len(tiles))
	cp.ensure(h)
	g.Y = cp.y
	for i, box := range g.Cells(len(tiles)) {
		cp.tile(box, tiles[i][0], tiles[i][1])
	}
	cp.y += h + 6
}

func (cp *composer) cover(c Content) {
	cp.newPage()
	const band = 72.0
	cp.add(Rect{Box: Box{X: 0, Y: 0, W: PageWidth, H: band}, Fill: cp.theme.Primary, Filled: true})

	textX := Margin
	if c.DonorLogo != "" {
		cp.add(Image{Box: Box{X: Margin, Y: 14, W: 30, H: 30}, Name: c.DonorLogo})
		textX = Margin + 36
	}
	textW := PageWidth - Margin - textX

	title := cp.fitFont(fontTitle, c.Text.Title, textW)
	y := 26.0
	cp.add(Text{X: textX, Y: y, Font: title, Color: White, Value: c.Text.Title})
	y += 4
	for _, line := range Wrap(cp.m, fontSubtitle, c.Text.Subtitle, textW) {
		y += fontSubtitle.LineHeight()
		if y > band-12 {
			break
		}
		cp.add(Text{X: textX, Y: y, Font: fontSubtitle, Color: White, Value: line})
	}
	meta := fmt.Sprintf("%s | %s", c.GeneratedAt.Format("2 January 2006"), c.WindowLabel)
	cp.add(Text{X: textX, Y: band - 8, Font: fontSmall, Color: White, Value: meta})

	callout := Box{X: Margin, Y: band + 14, W: ContentW, H: 34}
	cp.add(
		Rect{Box: Box{X: callout.X + 1.2, Y: callout.Y + 1.2, W: callout.W, H: callout.H}, Fill: Shadow, Filled: true, Radius: 4},
		Rect{Box: callout, Fill: cp.theme.Secondary, Filled: true, Radius: 4},
	)
	cp.centered(callout, callout.Y+11, fontSmall, White, "Total investment")
	cp.centered(callout, callout.Y+26, fontHero, White, formatMoney(cp.theme.Currency, c.Figures.TotalInvestment))

	cp.y = callout.Bottom() + 12
	cp.grid(2, 46, coverTiles(c.Figures))

	cp.add(Text{X: Margin, Y: PageHeight - Margin, Font: fontNote, Color: Muted, Value: "Prepared for " + c.DonorName})
}

// coverTiles is stories, engagement and the two largest impact metrics,
// padded with estimated figures when fewer metrics exist.
func coverTiles(f Figures) [][2]string {
	tiles := [][2]string{
		{formatInt(int64(f.StoryCount)), "Stories featured"},
		{formatInt(f.TotalEngagement), "Total engagement"},
	}
	for _, k := range TopMetrics(f.ImpactMetrics, 2) {
		tiles = append(tiles, [2]string{formatNumber(f.ImpactMetrics[k]), metricLabel(k)})
	}
	fill := [][2]string{
		{formatInt(f.Estimated.Reach), "Estimated reach"},
		{formatInt(f.Estimated.Impressions), "Estimated impressions"},
	}
	for i := 0; len(tiles) < 4; i++ {
		tiles = append(tiles, fill[i])
	}
	return tiles
}

func (cp *composer) summary(c Content) {
	cp.newPage()
	f := c.Figures

	cp.heading("Executive summary")
	cp.paragraph(fontBody, Ink, c.Text.Summary)

	cp.grid(3, 34, [][2]string{
		{formatMoney(cp.theme.Currency, f.TotalInvestment), "Invested"},
		{formatInt(int64(f.StoryCount)), "Stories"},
		{formatInt(int64(len(f.ImpactMetrics))), "Outcomes tracked"},
	})

	panel := Box{X: Margin, Y: 0, W: ContentW, H: 36}
	cp.ensure(panel.H + 6)
	panel.Y = cp.y
	cp.add(
		Rect{Box: Box{X: panel.X + 1.2, Y: panel.Y + 1.2, W: panel.W, H: panel.H}, Fill: Shadow, Filled: true, Radius: 3},
		Rect{Box: panel, Fill: cp.theme.Primary, Filled: true, Radius: 3},
	)
	cp.centered(panel, panel.Y+20, fontHero, White, formatInt(f.TotalEngagement))
	cp.centered(panel, panel.Y+29, fontSmall, White, "Total engagement: likes, comments and reactions")
	cp.y = panel.Bottom() + 6

	cp.grid(4, 28, [][2]string{
		{formatInt(f.Likes), "Likes"},
		{formatInt(f.Comments), "Comments"},
		{formatInt(f.Reactions), "Reactions"},
		{fmt.Sprintf("%.1f%%", f.Estimated.EngagementRate), "Engagement rate (est.)"},
	})
	cp.grid(2, 28, [][2]string{
		{formatInt(f.Estimated.Reach), "Estimated reach"},
		{formatInt(f.Estimated.Impressions), "Estimated impressions"},
	})
	cp.paragraph(fontNote, Muted, "Estimated figures are illustrative multiples of measured engagement, not measured data.")

	cp.heading("Recommendation")
	cp.paragraph(fontBody, Ink, c.Text.Recommendation)
}

func (cp *composer) spotlights(c Content) {
	cp.newPage()
	cp.heading("Story spotlights")

	shown := c.Stories
	if len(shown) > SpotlightLimit {
		shown = shown[:SpotlightLimit]
	}
	for _, s := range shown {
		cp.spotlight(s, c.CharityLogos[s.ID])
	}
	if extra := len(c.Stories) - len(shown); extra > 0 {
		cp.paragraph(fontNote, Muted, fmt.Sprintf("%d further stories are included in the totals in this report.", extra))
	}
}

func (cp *composer) spotlight(s StorySnapshot, logo string) {
	const pad, logoSize = 6.0, 22.0
	innerX := Margin + pad
	innerW := ContentW - 2*pad
	if logo != "" {
		innerX += logoSize + pad
		innerW -= logoSize + pad
	}

	title := clipLines(Wrap(cp.m, fontPanel, s.Title, innerW), maxTitleLines)
	excerpt := clipLines(Wrap(cp.m, fontBody, s.Excerpt, innerW), maxExcerptLines)
	metricsLine := clipLines(Wrap(cp.m, fontSmall, metricsSummary(s), innerW), maxMetricLines)
	engagement := fmt.Sprintf("%s likes | %s comments | %s reactions",
		formatInt(s.Likes), formatInt(s.Comments), formatInt(s.Reactions))

	h := pad*2 +
		float64(len(title))*fontPanel.LineHeight() +
		fontCharity.LineHeight() + 2 +
		float64(len(excerpt))*fontBody.LineHeight() + 2 +
		float64(len(metricsLine))*fontSmall.LineHeight() +
		fontSmall.LineHeight()
	if logo != "" && h < logoSize+2*pad {
		h = logoSize + 2*pad
	}

	cp.ensure(h + 6)
	panel := Box{X: Margin, Y: cp.y, W: ContentW, H: h}
	cp.add(Rect{Box: panel, Fill: White, Filled: true, Stroke: cp.theme.Primary, Stroked: true, LineWidth: 0.6, Radius: 2})
	if logo != "" {
		cp.add(Image{Box: Box{X: Margin + pad, Y: panel.Y + pad, W: logoSize, H: logoSize}, Name: logo})
	}

	y := panel.Y + pad
	line := func(f Font, col Color, v string) {
		y += f.LineHeight()
		cp.add(Text{X: innerX, Y: y, Font: f, Color: col, Value: v})
	}
	for _, l := range title {
		line(fontPanel, cp.theme.Primary, l)
	}
	line(fontCharity, Muted, s.CharityName)
	y += 2
	for _, l := range excerpt {
		line(fontBody, Ink, l)
	}
	y += 2
	for _, l := range metricsLine {
		line(fontSmall, Ink, l)
	}
	line(fontSmall, Muted, engagement)

	cp.y = panel.Bottom() + 6
}

// metricsSummary is the condensed "Label: value" line for a story
func metricsSummary(s StorySnapshot) string {
	if len(s.ImpactMetrics) == 0 {
		return "No impact metrics reported"
	}
	keys := TopMetrics(s.ImpactMetrics, len(s.ImpactMetrics))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, metricLabel(k)+": "+formatNumber(s.ImpactMetrics[k]))
	}
	return strings.Join(parts, " | ")
}

func (cp *composer) closing(c Content) {
	cp.newPage()
	cp.heading("Thank you")
	cp.paragraph(fontBody, Ink, c.Text.Closing)
	cp.paragraph(fontNote, Muted, "Reach, impressions and engagement rate in this report are estimates derived from measured engagement.")
}

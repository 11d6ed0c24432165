package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleContent(stories int) Content {
	snaps := make([]StorySnapshot, stories)
	for i := range snaps {
		snaps[i] = StorySnapshot{
			ID:             string(rune('a' + i)),
			Title:          "Clean water for the valley",
			CharityName:    "Hope trust",
			Excerpt:        strings.Repeat("Wells were dug and families now have safe water. ", 4),
			DonationAmount: 1000,
			ImpactMetrics:  models.ImpactMetrics{"families_helped": 10},
			Likes:          3,
		}
	}
	return Content{
		DonorName:   "Acme plc",
		Theme:       Theme{Primary: Color{30, 58, 95}, Secondary: Color{244, 162, 89}, Currency: "GBP"},
		Text:        resolveText(TemplateExecutive, TextFields{}, "Acme plc"),
		WindowLabel: WindowAllTime.Label(),
		GeneratedAt: fixedTime,
		Figures:     ComputeFigures(snaps, DefaultHeuristics),
		Stories:     snaps,
	}
}

func texts(p Page) []string {
	var out []string
	for _, prim := range p.Primitives {
		if t, ok := prim.(Text); ok {
			out = append(out, t.Value)
		}
	}
	return out
}

func allTexts(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(strings.Join(texts(p), "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func TestComposeProducesFixedPageSequence(t *testing.T) {
	pages := Compose(fixedMeasurer{perRune: 1.8}, sampleContent(1))
	require.Len(t, pages, 4)

	assert.Contains(t, texts(pages[0]), "Total investment")
	assert.Contains(t, texts(pages[0]), "£1,000")
	assert.Contains(t, texts(pages[1]), "Executive summary")
	assert.Contains(t, texts(pages[2]), "Story spotlights")
	assert.Contains(t, texts(pages[3]), "Thank you")
}

func TestComposeLabelsEstimates(t *testing.T) {
	pages := Compose(fixedMeasurer{perRune: 1.8}, sampleContent(2))
	summary := strings.Join(texts(pages[1]), "\n")
	assert.Contains(t, summary, "Estimated reach")
	assert.Contains(t, summary, "Estimated impressions")
	assert.Contains(t, summary, "Engagement rate (est.)")
}

func TestComposeCapsSpotlights(t *testing.T) {
	pages := Compose(fixedMeasurer{perRune: 1.8}, sampleContent(5))
	all := allTexts(pages)
	assert.Equal(t, 3, strings.Count(all, "Clean water for the valley"))
	assert.Contains(t, all, "2 further stories are included")
}

func TestComposeOverflowsSpotlightsToNewPage(t *testing.T) {
	c := sampleContent(3)
	for i := range c.Stories {
		c.Stories[i].Excerpt = strings.Repeat("A long account of the programme and its outcomes. ", 30)
	}
	pages := Compose(fixedMeasurer{perRune: 1.8}, c)
	assert.Greater(t, len(pages), 4)
}

func TestComposeKeepsPrimitivesOnPage(t *testing.T) {
	c := sampleContent(3)
	c.Text.Summary = strings.Repeat("Lots of narrative text that goes on and on. ", 120)
	pages := Compose(fixedMeasurer{perRune: 1.8}, c)
	require.Greater(t, len(pages), 4)

	for i, p := range pages {
		for _, prim := range p.Primitives {
			switch v := prim.(type) {
			case Rect:
				assert.LessOrEqual(t, v.Bottom(), PageHeight, "page %d", i)
			case Text:
				assert.LessOrEqual(t, v.Y, PageHeight-Margin+0.01, "page %d", i)
				assert.GreaterOrEqual(t, v.X, 0.0)
			}
		}
	}
}

func TestComposeClipsOversizedSpotlight(t *testing.T) {
	c := sampleContent(1)
	c.Stories[0].Title = strings.Repeat("Clean water ", 250)
	c.Stories[0].Excerpt = strings.Repeat("A long account of the programme. ", 200)
	metrics := models.ImpactMetrics{}
	for i := 0; i < 60; i++ {
		metrics[fmt.Sprintf("outcome_measure_%02d", i)] = float64(i)
	}
	c.Stories[0].ImpactMetrics = metrics

	pages := Compose(fixedMeasurer{perRune: 1.8}, c)
	for i, p := range pages {
		for _, prim := range p.Primitives {
			if r, ok := prim.(Rect); ok {
				assert.LessOrEqual(t, r.Bottom(), PageHeight, "page %d", i)
			}
		}
	}
	assert.Contains(t, allTexts(pages), "...")
}

func TestClipLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, clipLines([]string{"a", "b"}, 3))
	assert.Equal(t, []string{"a", "b..."}, clipLines([]string{"a", "b", "c"}, 2))
}

func TestComposeUsesLogosWhenRegistered(t *testing.T) {
	c := sampleContent(1)
	c.DonorLogo = "donor-logo"
	c.CharityLogos = map[string]string{"a": "charity-logo-a"}

	var names []string
	for _, p := range Compose(fixedMeasurer{perRune: 1.8}, c) {
		for _, prim := range p.Primitives {
			if img, ok := prim.(Image); ok {
				names = append(names, img.Name)
			}
		}
	}
	assert.Equal(t, []string{"donor-logo", "charity-logo-a"}, names)
}

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, Color{0x1E, 0x3A, 0x5F}, ParseHexColor("#1E3A5F", White))
	assert.Equal(t, White, ParseHexColor("blue", White))
}

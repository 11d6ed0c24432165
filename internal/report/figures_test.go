package report

import (
	"testing"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeFigures(t *testing.T) {
	stories := []StorySnapshot{
		{DonationAmount: 5000, Likes: 10, Comments: 2, Reactions: 8, ImpactMetrics: models.ImpactMetrics{"families_helped": 10}},
		{DonationAmount: 2500, Likes: 5, Comments: 0, Reactions: 5, ImpactMetrics: models.ImpactMetrics{"families_helped": 5, "jobs_secured": 2}},
	}

	f := ComputeFigures(stories, DefaultHeuristics)
	assert.Equal(t, 2, f.StoryCount)
	assert.Equal(t, 7500.0, f.TotalInvestment)
	assert.Equal(t, int64(30), f.TotalEngagement)
	assert.Equal(t, models.ImpactMetrics{"families_helped": 15, "jobs_secured": 2}, f.ImpactMetrics)
	assert.Equal(t, int64(360), f.Estimated.Reach)
	assert.Equal(t, int64(750), f.Estimated.Impressions)
	assert.InDelta(t, 4.0, f.Estimated.EngagementRate, 1e-9)
}

func TestComputeFiguresWithoutEngagement(t *testing.T) {
	f := ComputeFigures([]StorySnapshot{{DonationAmount: 10}}, Heuristics{ReachPerEngagement: 3, ImpressionsPerEngagement: 7})
	assert.Zero(t, f.Estimated.Reach)
	assert.Zero(t, f.Estimated.EngagementRate)
	assert.Empty(t, f.ImpactMetrics)
}

func TestTopMetrics(t *testing.T) {
	m := models.ImpactMetrics{"b": 5, "a": 5, "c": 9, "d": 1}
	assert.Equal(t, []string{"c", "a"}, TopMetrics(m, 2))
	assert.Equal(t, []string{"c", "a", "b", "d"}, TopMetrics(m, 10))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12,345", formatInt(12345))
	assert.Equal(t, "£7,500", formatMoney("GBP", 7500))
	assert.Equal(t, "$10", formatMoney("USD", 9.6))
	assert.Equal(t, "CHF 3", formatMoney("CHF", 3))
	assert.Equal(t, "2.5", formatNumber(2.5))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "Families helped", metricLabel("families_helped"))
}

func TestParseInputs(t *testing.T) {
	tmpl, err := ParseTemplate(" Impact-Showcase ")
	assert.NoError(t, err)
	assert.Equal(t, TemplateImpactShowcase, tmpl)

	_, err = ParseTemplate("glossy")
	assert.Error(t, err)

	w, err := ParseWindow("")
	assert.NoError(t, err)
	assert.Equal(t, WindowAllTime, w)
	_, ok := w.Since(fixedTime)
	assert.False(t, ok)

	w, err = ParseWindow("last-quarter")
	assert.NoError(t, err)
	since, ok := w.Since(fixedTime)
	assert.True(t, ok)
	assert.Equal(t, fixedTime.AddDate(0, -3, 0), since)

	_, err = ParseWindow("last-decade")
	assert.Error(t, err)
}

func TestResolveTextFallsBackPerField(t *testing.T) {
	text := resolveText(TemplateStrategic, TextFields{Title: "Our year", Closing: "  "}, "Acme plc")
	assert.Equal(t, "Our year", text.Title)
	assert.Equal(t, "Programme performance and outlook for Acme plc", text.Subtitle)
	assert.Equal(t, boilerplate[TemplateStrategic].Closing, text.Closing)

	exec := resolveText(TemplateExecutive, TextFields{}, "Acme plc")
	assert.NotEqual(t, exec.Summary, text.Summary)
}

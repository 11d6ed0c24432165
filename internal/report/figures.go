package report

import (
	"math"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/analytics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Heuristics turn measured engagement into illustrative reach figures.
// Anything derived from them is labelled estimated.
type Heuristics struct {
	ReachPerEngagement       float64
	ImpressionsPerEngagement float64
}

// DefaultHeuristics are the multipliers used when none are configured
var DefaultHeuristics = Heuristics{ReachPerEngagement: 12, ImpressionsPerEngagement: 25}

// StorySnapshot is everything the report needs about one story, fetched
// before rendering starts.
type StorySnapshot struct {
	ID             string
	Title          string
	CharityName    string
	CharityLogoURL string
	Excerpt        string
	PublishedAt    time.Time
	DonationAmount float64
	ImpactMetrics  models.ImpactMetrics
	Likes          int64
	Comments       int64
	Reactions      int64
}

// Engagement is likes plus comments plus reactions
func (s StorySnapshot) Engagement() int64 {
	return s.Likes + s.Comments + s.Reactions
}

// Estimates are presentational figures, not measurements
type Estimates struct {
	Reach          int64   `json:"estimated_reach"`
	Impressions    int64   `json:"estimated_impressions"`
	EngagementRate float64 `json:"estimated_engagement_rate"`
}

// Figures are the derived numbers shown in a report
type Figures struct {
	StoryCount      int                  `json:"story_count"`
	TotalInvestment float64              `json:"total_investment"`
	Likes           int64                `json:"likes"`
	Comments        int64                `json:"comments"`
	Reactions       int64                `json:"reactions"`
	TotalEngagement int64                `json:"total_engagement"`
	ImpactMetrics   models.ImpactMetrics `json:"impact_metrics"`
	Estimated       Estimates            `json:"estimated"`
}

// ComputeFigures derives report figures from the selected stories. It is a
// pure function of its inputs.
func ComputeFigures(stories []StorySnapshot, h Heuristics) Figures {
	f := Figures{StoryCount: len(stories)}
	metrics := make([]models.ImpactMetrics, 0, len(stories))
	for _, s := range stories {
		f.TotalInvestment += s.DonationAmount
		f.Likes += s.Likes
		f.Comments += s.Comments
		f.Reactions += s.Reactions
		metrics = append(metrics, s.ImpactMetrics)
	}
	f.TotalEngagement = f.Likes + f.Comments + f.Reactions
	f.ImpactMetrics = analytics.AggregateImpactMetrics(metrics)

	f.Estimated.Reach = int64(math.Round(float64(f.TotalEngagement) * h.ReachPerEngagement))
	f.Estimated.Impressions = int64(math.Round(float64(f.TotalEngagement) * h.ImpressionsPerEngagement))
	if f.Estimated.Impressions > 0 {
		f.Estimated.EngagementRate = float64(f.TotalEngagement) / float64(f.Estimated.Impressions) * 100
	}
	return f
}

// TopMetrics returns up to n metric keys, largest value first, ties broken
// alphabetically.
func TopMetrics(m models.ImpactMetrics, n int) []string {
	keys := analytics.MetricKeys(m)
	// insertion sort keeps ties in alphabetical order
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && m[keys[j]] > m[keys[j-1]]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

var printer = message.NewPrinter(language.BritishEnglish)

// formatInt renders n with thousands separators
func formatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatNumber renders a metric value, dropping the fraction when whole
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.1f", v)
}

// formatMoney renders an amount in the donor's currency
func formatMoney(currency string, v float64) string {
	symbol := currency + " "
	switch currency {
	case "", "GBP":
		symbol = "£"
	case "USD":
		symbol = "$"
	case "EUR":
		symbol = "€"
	}
	return symbol + printer.Sprintf("%d", int64(math.Round(v)))
}

// metricLabel turns families_helped into "Families helped"
func metricLabel(key string) string {
	b := []rune(key)
	for i, r := range b {
		if r == '_' || r == '-' {
			b[i] = ' '
		}
	}
	if len(b) > 0 && b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

package analytics

import "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"

// DefaultWindowDays applies when a caller passes a non-positive window
const DefaultWindowDays = 30

// MaxWindowDays bounds windowed queries
const MaxWindowDays = 3650

// Totals is a set of summed engagement counters
type Totals struct {
	Views          int64 `json:"views"`
	UniqueVisitors int64 `json:"unique_visitors"`
	Likes          int64 `json:"likes"`
	Shares         int64 `json:"shares"`
	Comments       int64 `json:"comments"`
	Reactions      int64 `json:"reactions"`
}

func (t *Totals) add(row *models.Analytics) {
	t.Views += row.Views
	t.UniqueVisitors += row.UniqueVisitors
	t.Likes += row.Likes
	t.Shares += row.Shares
	t.Comments += row.Comments
	t.Reactions += row.Reactions
}

// Engagement is likes plus comments plus reactions
func (t Totals) Engagement() int64 {
	return t.Likes + t.Comments + t.Reactions
}

// DayPoint is one charted date with every row for that date summed
type DayPoint struct {
	Date string `json:"date"`
	Totals
}

// Timeline is a donor's per-day series, oldest first. Dates without rows
// are absent.
type Timeline struct {
	DonorID string     `json:"donor_id"`
	Days    int        `json:"days"`
	Points  []DayPoint `json:"points"`
}

// SocialBreakdown sums each platform counter across a window. Total is
// derived from the platform counters; StoredShares is the separately
// stored shares counter for the same rows.
type SocialBreakdown struct {
	DonorID      string           `json:"donor_id"`
	Days         int              `json:"days"`
	Platforms    map[string]int64 `json:"platforms"`
	Total        int64            `json:"total"`
	StoredShares int64            `json:"stored_shares"`
}

// Consistent reports whether the derived total matches the stored counter
func (b *SocialBreakdown) Consistent() bool {
	return b.Total == b.StoredShares
}

// Summary is a donor dashboard headline
type Summary struct {
	DonorID          string               `json:"donor_id"`
	Days             int                  `json:"days"`
	Window           Totals               `json:"window"`
	Lifetime         Totals               `json:"lifetime"`
	Stories          int64                `json:"stories"`
	PublishedStories int64                `json:"published_stories"`
	TotalInvestment  float64              `json:"total_investment"`
	ImpactMetrics    models.ImpactMetrics `json:"impact_metrics"`
}

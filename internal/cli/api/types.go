package api

import "time"

// User is the account returned by login and /auth/me
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CharityID string `json:"charity_id,omitempty"`
	DonorID   string `json:"donor_id,omitempty"`
	DonorRole string `json:"donor_role,omitempty"`
}

// LoginResponse carries the bearer token
type LoginResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FlaggedStory is a story in the admin flag list
type FlaggedStory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CharityName string    `json:"charity_name"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FlaggedComment is a comment in the admin flag list
type FlaggedComment struct {
	ID         string    `json:"id"`
	StoryTitle string    `json:"story_title"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Flagged is everything awaiting platform review
type Flagged struct {
	Stories  []FlaggedStory   `json:"stories"`
	Comments []FlaggedComment `json:"comments"`
}

// QueuedComment is a comment in a moderation queue
type QueuedComment struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"story_id"`
	StoryTitle string    `json:"story_title"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Totals are summed engagement counters
type Totals struct {
	Views          int64 `json:"views"`
	UniqueVisitors int64 `json:"unique_visitors"`
	Likes          int64 `json:"likes"`
	Shares         int64 `json:"shares"`
	Comments       int64 `json:"comments"`
	Reactions      int64 `json:"reactions"`
}

// Summary is a donor's dashboard headline
type Summary struct {
	DonorID          string             `json:"donor_id"`
	Days             int                `json:"days"`
	Window           Totals             `json:"window"`
	Lifetime         Totals             `json:"lifetime"`
	Stories          int64              `json:"stories"`
	PublishedStories int64              `json:"published_stories"`
	TotalInvestment  float64            `json:"total_investment"`
	ImpactMetrics    map[string]float64 `json:"impact_metrics"`
}

// DayPoint is one day of a timeline
type DayPoint struct {
	Date string `json:"date"`
	Totals
}

// Timeline is a donor's per-day series
type Timeline struct {
	DonorID string     `json:"donor_id"`
	Days    int        `json:"days"`
	Points  []DayPoint `json:"points"`
}

// ReportRequest selects what goes into a PDF report
type ReportRequest struct {
	DonorID  string   `json:"donor_id,omitempty"`
	Template string   `json:"template,omitempty"`
	Window   string   `json:"window,omitempty"`
	StoryIDs []string `json:"story_ids"`
}

// Report is a downloaded PDF
type Report struct {
	Filename string
	Pages    string
	Data     []byte
}

package content

import (
	"context"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
)

// Notifier delivers "new story published" events to a donor's users
type Notifier interface {
	NotifyStoryPublished(ctx context.Context, event StoryPublishedEvent) error
}

// Recipient is one addressee of a notification
type Recipient struct {
	Email string
	Name  string
}

// StoryPublishedEvent describes a story's first publish for its donor
type StoryPublishedEvent struct {
	Recipients    []Recipient
	DonorName     string
	CharityName   string
	StoryID       string
	StoryTitle    string
	Excerpt       string
	ImpactMetrics models.ImpactMetrics
	URL           string
	PublishedAt   time.Time
}

// MilestoneInput is one desired milestone. An ID matching an existing row
// updates it; anything else inserts a new row.
type MilestoneInput struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
}

// ThankYouInput is one desired thank-you message
type ThankYouInput struct {
	ID         string `json:"id,omitempty"`
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role,omitempty"`
	Message    string `json:"message"`
	Featured   bool   `json:"featured"`
}

// MediaInput keeps an existing media row. New media arrive via UploadMedia.
type MediaInput struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

// Upload is raw bytes destined for the blob store
type Upload struct {
	Data        []byte
	ContentType string
}

// StoryInput is the full form submitted on create and edit. Child slices are
// replace-by-set: nil leaves stored rows untouched, empty deletes them all.
type StoryInput struct {
	CharityID        string               `json:"charity_id,omitempty"`
	DonorID          *string              `json:"donor_id,omitempty"`
	Title            string               `json:"title"`
	Excerpt          string               `json:"excerpt"`
	Body             string               `json:"body"`
	FeaturedImageKey string               `json:"featured_image_key,omitempty"`
	ImpactMetrics    models.ImpactMetrics `json:"impact_metrics,omitempty"`
	DonationAmount   float64              `json:"donation_amount"`
	Status           string               `json:"status,omitempty"`
	Milestones       []MilestoneInput     `json:"milestones"`
	ThankYouMessages []ThankYouInput      `json:"thank_you_messages"`
	Media            []MediaInput         `json:"media"`
	Video            *Upload              `json:"-"`
}

// UpdateResult is the stored story plus secondary-step failures that did not
// roll it back.
type UpdateResult struct {
	Story    *models.Story         `json:"story"`
	Warnings []*apierrors.APIError `json:"warnings,omitempty"`
}

// PublicTenant is the branding shown next to a public story
type PublicTenant struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	LogoURL        string `json:"logo_url,omitempty"`
	Website        string `json:"website,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
}

// PublicMedia is an attachment with its resolved URL
type PublicMedia struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	Caption      string `json:"caption,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// PublicStory is the published story page
type PublicStory struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Slug             string                   `json:"slug"`
	Excerpt          string                   `json:"excerpt"`
	Body             string                   `json:"body"`
	FeaturedImageURL string                   `json:"featured_image_url,omitempty"`
	VideoURL         string                   `json:"video_url,omitempty"`
	ImpactMetrics    models.ImpactMetrics     `json:"impact_metrics"`
	DonationAmount   float64                  `json:"donation_amount"`
	PublishedAt      *time.Time               `json:"published_at,omitempty"`
	Charity          PublicTenant             `json:"charity"`
	Donor            *PublicTenant            `json:"donor,omitempty"`
	Milestones       []models.Milestone       `json:"milestones"`
	ThankYouMessages []models.ThankYouMessage `json:"thank_you_messages"`
	Media            []PublicMedia            `json:"media"`
}

// StorySummary is a story card on the donor hub
type StorySummary struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	Excerpt          string               `json:"excerpt"`
	FeaturedImageURL string               `json:"featured_image_url,omitempty"`
	CharityName      string               `json:"charity_name"`
	PublishedAt      *time.Time           `json:"published_at,omitempty"`
	ImpactMetrics    models.ImpactMetrics `json:"impact_metrics"`
	Likes            int64                `json:"likes"`
	Reactions        int64                `json:"reactions"`
	Comments         int64                `json:"comments"`
}

// DonorHub is a donor's public page
type DonorHub struct {
	Donor   PublicTenant   `json:"donor"`
	Stories []StorySummary `json:"stories"`
}

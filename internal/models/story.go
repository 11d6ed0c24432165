package models

import (
	"time"

	"gorm.io/gorm"
)

// Story is a narrative of how a donation helped beneficiaries. Slugs are
// unique per owning charity.
type Story struct {
	ID        string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CharityID string   `gorm:"type:varchar(36);not null;uniqueIndex:idx_stories_charity_slug,priority:1;index" json:"charity_id"`
	Charity   *Charity `gorm:"foreignKey:CharityID" json:"charity,omitempty"`
	DonorID   *string  `gorm:"type:varchar(36);index" json:"donor_id,omitempty"`
	Donor     *Donor   `gorm:"foreignKey:DonorID" json:"donor,omitempty"`

	Title            string        `gorm:"not null" json:"title"`
	Slug             string        `gorm:"not null;uniqueIndex:idx_stories_charity_slug,priority:2" json:"slug"`
	Excerpt          string        `gorm:"type:text" json:"excerpt"`
	Body             string        `gorm:"type:text;not null" json:"body"`
	FeaturedImageKey string        `json:"featured_image_key,omitempty"`
	VideoKey         string        `json:"video_key,omitempty"`
	ImpactMetrics    ImpactMetrics `gorm:"serializer:json" json:"impact_metrics"`
	DonationAmount   float64       `gorm:"default:0" json:"donation_amount"`

	Status      string     `gorm:"not null;default:DRAFT;index" json:"status"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`

	IsFlagged  bool   `gorm:"default:false;index" json:"is_flagged"`
	FlagReason string `json:"flag_reason,omitempty"`

	CreatedByID string `gorm:"type:varchar(36)" json:"created_by_id"`
	UpdatedByID string `gorm:"type:varchar(36)" json:"updated_by_id"`

	Milestones       []Milestone       `gorm:"foreignKey:StoryID" json:"milestones,omitempty"`
	ThankYouMessages []ThankYouMessage `gorm:"foreignKey:StoryID" json:"thank_you_messages,omitempty"`
	Media            []StoryMedia      `gorm:"foreignKey:StoryID" json:"media,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished reports whether the story is publicly visible
func (s *Story) IsPublished() bool {
	return s.Status == StoryStatusPublished
}

// Milestone is one entry of a story's timeline. DisplayOrder is dense 1..n.
type Milestone struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID      string     `gorm:"type:varchar(36);not null;index" json:"story_id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Date         *time.Time `json:"date,omitempty"`
	DisplayOrder int        `gorm:"not null" json:"display_order"`
}

// ThankYouMessage is a beneficiary quote. Only featured ones are public.
type ThankYouMessage struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID      string `gorm:"type:varchar(36);not null;index" json:"story_id"`
	AuthorName   string `gorm:"not null" json:"author_name"`
	AuthorRole   string `json:"author_role,omitempty"`
	Message      string `gorm:"type:text;not null" json:"message"`
	Featured     bool   `gorm:"default:false" json:"featured"`
	DisplayOrder int    `json:"display_order"`
}

// StoryMedia is an attachment stored in the blob store
type StoryMedia struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID      string    `gorm:"type:varchar(36);not null;index" json:"story_id"`
	Kind         string    `gorm:"not null" json:"kind"`
	StorageKey   string    `gorm:"not null" json:"storage_key"`
	ContentType  string    `json:"content_type,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName keeps the plural table name stable
func (StoryMedia) TableName() string {
	return "story_media"
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}

func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (t *ThankYouMessage) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

func (m *StoryMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analytics is a per-story daily rollup. DonorID is denormalised from the
// story. Readers merge same-date rows rather than assuming one per day.
type Analytics struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID        string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_analytics_story_date,priority:1" json:"story_id"`
	DonorID        *string        `gorm:"type:varchar(36);index:idx_analytics_donor_date,priority:1" json:"donor_id,omitempty"`
	Date           datatypes.Date `gorm:"not null;uniqueIndex:idx_analytics_story_date,priority:2;index:idx_analytics_donor_date,priority:2" json:"date"`
	Views          int64          `gorm:"default:0" json:"views"`
	UniqueVisitors int64          `gorm:"default:0" json:"unique_visitors"`
	Likes          int64          `gorm:"default:0" json:"likes"`
	Shares         int64          `gorm:"default:0" json:"shares"`
	Comments       int64          `gorm:"default:0" json:"comments"`
	Reactions      int64          `gorm:"default:0" json:"reactions"`

	SharesTwitter   int64 `gorm:"default:0" json:"shares_twitter"`
	SharesFacebook  int64 `gorm:"default:0" json:"shares_facebook"`
	SharesLinkedIn  int64 `gorm:"column:shares_linkedin;default:0" json:"shares_linkedin"`
	SharesInstagram int64 `gorm:"default:0" json:"shares_instagram"`
	SharesWhatsApp  int64 `gorm:"column:shares_whatsapp;default:0" json:"shares_whatsapp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps "analytics" singular-plural stable across inflectors
func (Analytics) TableName() string {
	return "analytics"
}

// Social platforms with a dedicated share counter
const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformWhatsApp  = "whatsapp"
)

// SharePlatforms lists every platform with a counter column
var SharePlatforms = []string{PlatformTwitter, PlatformFacebook, PlatformLinkedIn, PlatformInstagram, PlatformWhatsApp}

// ShareColumn returns the counter column for a platform, or "" if unknown
func ShareColumn(platform string) string {
	switch platform {
	case PlatformTwitter:
		return "shares_twitter"
	case PlatformFacebook:
		return "shares_facebook"
	case PlatformLinkedIn:
		return "shares_linkedin"
	case PlatformInstagram:
		return "shares_instagram"
	case PlatformWhatsApp:
		return "shares_whatsapp"
	}
	return ""
}

// ActivityLog is the append-only audit trail of moderation and content
// transitions.
type ActivityLog struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ActorID    string         `gorm:"type:varchar(36);index" json:"actor_id"`
	Action     string         `gorm:"not null;index" json:"action"`
	EntityType string         `gorm:"not null;index:idx_activity_entity,priority:1" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(36);not null;index:idx_activity_entity,priority:2" json:"entity_id"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *Analytics) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}

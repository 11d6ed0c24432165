package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account. Charity admins carry CharityID; corporate users carry
// DonorID and a DonorRole.
type User struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Name         string  `json:"name"`
	Role         string  `gorm:"not null;default:PUBLIC;index" json:"role"`
	CharityID    *string `gorm:"type:varchar(36);index" json:"charity_id,omitempty"`
	DonorID      *string `gorm:"type:varchar(36);index" json:"donor_id,omitempty"`
	DonorRole    string  `json:"donor_role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Charity subscription states
const (
	SubscriptionTrial     = "TRIAL"
	SubscriptionActive    = "ACTIVE"
	SubscriptionPastDue   = "PAST_DUE"
	SubscriptionCancelled = "CANCELLED"
)

// Charity authors stories. Subscription state is carried for report
// branding context only.
type Charity struct {
	ID                 string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name               string     `gorm:"not null" json:"name"`
	Slug               string     `gorm:"uniqueIndex;not null" json:"slug"`
	LogoKey            string     `json:"logo_key,omitempty"`
	Website            string     `json:"website,omitempty"`
	SubscriptionStatus string     `gorm:"default:TRIAL" json:"subscription_status"`
	MonthlyFee         float64    `json:"monthly_fee"`
	NextDueAt          *time.Time `json:"next_due_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Donor is a corporate funder with a branded public hub
type Donor struct {
	ID             string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name           string `gorm:"not null" json:"name"`
	Slug           string `gorm:"uniqueIndex;not null" json:"slug"`
	LogoKey        string `json:"logo_key,omitempty"`
	Website        string `json:"website,omitempty"`
	PrimaryColor   string `gorm:"default:'#1E3A5F'" json:"primary_color"`
	SecondaryColor string `gorm:"default:'#F4A259'" json:"secondary_color"`
	Currency       string `gorm:"default:GBP" json:"currency"`
	// Keys: story_published, monthly_digest. A missing key means enabled.
	NotificationPrefs map[string]bool `gorm:"serializer:json" json:"notification_prefs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification preference keys
const (
	PrefStoryPublished = "story_published"
	PrefMonthlyDigest  = "monthly_digest"
)

// WantsNotification reports whether the donor has not opted out of key
func (d *Donor) WantsNotification(key string) bool {
	if d.NotificationPrefs == nil {
		return true
	}
	enabled, ok := d.NotificationPrefs[key]
	return !ok || enabled
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (c *Charity) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (d *Donor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = generateUUID()
	}
	return nil
}

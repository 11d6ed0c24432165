// Package testutil builds persisted fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Charity inserts a charity with the given slug
func Charity(t testing.TB, db *gorm.DB, slug string) *models.Charity {
	t.Helper()
	c := &models.Charity{Name: slug + " trust", Slug: slug, SubscriptionStatus: models.SubscriptionActive}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Donor inserts a donor with the given slug
func Donor(t testing.TB, db *gorm.DB, slug string) *models.Donor {
	t.Helper()
	d := &models.Donor{
		Name:           slug + " plc",
		Slug:           slug,
		PrimaryColor:   "#1E3A5F",
		SecondaryColor: "#F4A259",
		Currency:       "GBP",
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

// StoryOption customises a Story fixture
type StoryOption func(*models.Story)

// WithDonor tags the story to a donor
func WithDonor(donorID string) StoryOption {
	return func(s *models.Story) { s.DonorID = &donorID }
}

// Published marks the story published at t
func Published(at time.Time) StoryOption {
	return func(s *models.Story) {
		s.Status = models.StoryStatusPublished
		s.PublishedAt = &at
	}
}

// WithMetrics sets impact metrics
func WithMetrics(m models.ImpactMetrics) StoryOption {
	return func(s *models.Story) { s.ImpactMetrics = m }
}

// WithDonation sets the donation amount
func WithDonation(amount float64) StoryOption {
	return func(s *models.Story) { s.DonationAmount = amount }
}

// Story inserts a story owned by charityID
func Story(t testing.TB, db *gorm.DB, charityID, slug string, opts ...StoryOption) *models.Story {
	t.Helper()
	s := &models.Story{
		CharityID: charityID,
		Title:     slug,
		Slug:      slug,
		Excerpt:   "An excerpt for " + slug,
		Body:      "The full story of " + slug,
		Status:    models.StoryStatusDraft,
	}
	for _, opt := range opts {
		opt(s)
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// User inserts an account and returns it with its principal
func User(t testing.TB, db *gorm.DB, email string, role identity.Role, mutate ...func(*models.User)) (*models.User, *identity.Principal) {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", Name: email, Role: string(role)}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u, identity.FromUser(u)
}

// CharityAdmin inserts a charity admin for charityID
func CharityAdmin(t testing.TB, db *gorm.DB, email, charityID string) *identity.Principal {
	t.Helper()
	_, p := User(t, db, email, identity.RoleCharityAdmin, func(u *models.User) { u.CharityID = &charityID })
	return p
}

// PlatformAdmin inserts a platform admin
func PlatformAdmin(t testing.TB, db *gorm.DB, email string) *identity.Principal {
	t.Helper()
	_, p := User(t, db, email, identity.RolePlatformAdmin)
	return p
}

// CorporateUser inserts a donor member with the given sub-role
func CorporateUser(t testing.TB, db *gorm.DB, email, donorID string, role identity.DonorRole) *identity.Principal {
	t.Helper()
	_, p := User(t, db, email, identity.RoleCorporateUser, func(u *models.User) {
		u.DonorID = &donorID
		u.DonorRole = string(role)
	})
	return p
}

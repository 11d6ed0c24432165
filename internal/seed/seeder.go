package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/analytics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/auth"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/engagement"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAlreadySeeded is returned when the platform admin account exists
var ErrAlreadySeeded = errors.New("database already contains seed data")

// AdminEmail is the platform admin created by every seed run
const AdminEmail = "admin@impactusall.test"

var metricNames = []string{"families_helped", "children_supported", "meals_served", "wells_built", "trees_planted", "volunteer_hours"}

// Options sizes a seed run
type Options struct {
	Charities         int
	Donors            int
	StoriesPerCharity int
	// Days of analytics history to generate
	Days     int
	Password string
	// Seed makes runs reproducible when non-zero
	Seed int64
}

// Result counts what a run created
type Result struct {
	Charities int
	Donors    int
	Users     int
	Stories   int
	Likes     int
	Reactions int
	Comments  int
	Analytics int
}

// Seeder fills a database with realistic demo data
type Seeder struct {
	db         *gorm.DB
	engagement *engagement.Service
	recorder   *analytics.Recorder
	rollup     *analytics.Rollup
	now        func() time.Time
}

// NewSeeder creates a seeder on db
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:         db,
		engagement: engagement.NewService(db, nil),
		recorder:   analytics.NewRecorder(db),
		rollup:     analytics.NewRollup(db, nil),
		now:        time.Now,
	}
}

func (o *Options) defaults() {
	if o.Charities <= 0 {
		o.Charities = 4
	}
	if o.Donors <= 0 {
		o.Donors = 3
	}
	if o.StoriesPerCharity <= 0 {
		o.StoriesPerCharity = 5
	}
	if o.Days <= 0 {
		o.Days = 30
	}
	if o.Password == "" {
		o.Password = "password123"
	}
}

// Seed creates tenants, users, stories, engagement and analytics history.
// It refuses to run twice against the same database.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	opts.defaults()
	if opts.Seed != 0 {
		_ = gofakeit.Seed(opts.Seed)
	} else {
		_ = gofakeit.Seed(time.Now().UnixNano())
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", AdminEmail).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("checking for seed data: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadySeeded
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	log := logger.L()

	log.Info("Creating platform admin...")
	if err := s.createUser(ctx, res, &models.User{Email: AdminEmail, Name: "Platform Admin", Role: string(identity.RolePlatformAdmin)}, hash); err != nil {
		return nil, err
	}

	log.Info("Creating donors...")
	donors, err := s.seedDonors(ctx, res, opts.Donors, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to seed donors: %w", err)
	}

	log.Info("Creating charities and stories...")
	var stories []models.Story
	for i := 0; i < opts.Charities; i++ {
		charity, err := s.seedCharity(ctx, res, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to seed charity: %w", err)
		}
		created, err := s.seedStories(ctx, res, charity, donors, opts.StoriesPerCharity, opts.Days)
		if err != nil {
			return nil, fmt.Errorf("failed to seed stories: %w", err)
		}
		stories = append(stories, created...)
	}

	log.Info("Creating engagement...")
	if err := s.seedEngagement(ctx, res, stories); err != nil {
		return nil, fmt.Errorf("failed to seed engagement: %w", err)
	}

	log.Info("Creating analytics history...")
	if err := s.seedAnalytics(ctx, res, stories, opts.Days); err != nil {
		return nil, fmt.Errorf("failed to seed analytics: %w", err)
	}

	log.Info("Seed complete",
		zap.Int("charities", res.Charities),
		zap.Int("donors", res.Donors),
		zap.Int("users", res.Users),
		zap.Int("stories", res.Stories),
		zap.Int("comments", res.Comments))
	return res, nil
}

// Clean removes every row the seeder can create, children first
func (s *Seeder) Clean(ctx context.Context) error {
	tables := []string{
		"activity_logs", "analytics", "comments", "reactions", "likes",
		"story_media", "thank_you_messages", "milestones", "stories",
		"users", "donors", "charities",
	}
	db := s.db.WithContext(ctx)
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) createUser(ctx context.Context, res *Result, u *models.User, hash string) error {
	u.PasswordHash = hash
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", u.Email, err)
	}
	res.Users++
	return nil
}

func (s *Seeder) seedDonors(ctx context.Context, res *Result, count int, hash string) ([]models.Donor, error) {
	donors := make([]models.Donor, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Company()
		slug := uniqueSuffix(content.Slugify(name), i)
		d := models.Donor{
			Name:           name,
			Slug:           slug,
			Website:        "https://" + slug + ".example.com",
			PrimaryColor:   strings.ToUpper(gofakeit.HexColor()),
			SecondaryColor: strings.ToUpper(gofakeit.HexColor()),
			Currency:       "GBP",
		}
		if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
			return nil, err
		}
		res.Donors++

		for _, role := range []identity.DonorRole{identity.DonorRoleAdmin, identity.DonorRoleViewer} {
			u := &models.User{
				Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(string(role)), slug),
				Name:      gofakeit.Name(),
				Role:      string(identity.RoleCorporateUser),
				DonorID:   &d.ID,
				DonorRole: string(role),
			}
			if err := s.createUser(ctx, res, u, hash); err != nil {
				return nil, err
			}
		}
		donors = append(donors, d)
	}
	return donors, nil
}

func (s *Seeder) seedCharity(ctx context.Context, res *Result, hash string) (*models.Charity, error) {
	name := gofakeit.City() + " " + gofakeit.RandomString([]string{"Trust", "Foundation", "Community Fund", "Relief"})
	slug := uniqueSuffix(content.Slugify(name), res.Charities)
	c := &models.Charity{
		Name:               name,
		Slug:               slug,
		Website:            "https://" + slug + ".example.org",
		SubscriptionStatus: models.SubscriptionActive,
		MonthlyFee:         float64(gofakeit.Number(50, 400)),
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	res.Charities++

	u := &models.User{
		Email:     "admin@" + slug + ".example.org",
		Name:      gofakeit.Name(),
		Role:      string(identity.RoleCharityAdmin),
		CharityID: &c.ID,
	}
	return c, s.createUser(ctx, res, u, hash)
}

func (s *Seeder) seedStories(ctx context.Context, res *Result, charity *models.Charity, donors []models.Donor, count, days int) ([]models.Story, error) {
	now := s.now().UTC()
	start := now.AddDate(0, 0, -days)
	stories := make([]models.Story, 0, count)

	for i := 0; i < count; i++ {
		title := strings.TrimSuffix(gofakeit.HipsterSentence(), ".")
		created := gofakeit.DateRange(start, now)
		story := models.Story{
			CharityID:      charity.ID,
			Title:          title,
			Slug:           uniqueSuffix(content.Slugify(title), i),
			Excerpt:        gofakeit.HipsterSentence(),
			Body:           paragraphs(4),
			ImpactMetrics:  randomMetrics(),
			DonationAmount: float64(gofakeit.Number(5, 500) * 100),
			Status:         models.StoryStatusDraft,
			CreatedAt:      created,
		}
		if len(donors) > 0 && gofakeit.Number(0, 4) > 0 {
			story.DonorID = &donors[gofakeit.Number(0, len(donors)-1)].ID
		}
		if gofakeit.Number(0, 4) > 0 {
			published := gofakeit.DateRange(created, now)
			story.Status = models.StoryStatusPublished
			story.PublishedAt = &published
		}
		for m := 1; m <= gofakeit.Number(1, 4); m++ {
			date := gofakeit.DateRange(start, now)
			story.Milestones = append(story.Milestones, models.Milestone{
				Title:        gofakeit.HipsterSentence(),
				Description:  gofakeit.HipsterSentence(),
				Date:         &date,
				DisplayOrder: m,
			})
		}
		story.ThankYouMessages = []models.ThankYouMessage{{
			AuthorName:   gofakeit.FirstName(),
			AuthorRole:   "Beneficiary",
			Message:      gofakeit.HipsterSentence(),
			Featured:     true,
			DisplayOrder: 1,
		}}

		if err := s.db.WithContext(ctx).Create(&story).Error; err != nil {
			return nil, err
		}
		res.Stories++
		stories = append(stories, story)
	}
	return stories, nil
}

// seedEngagement goes through the engagement service so actor keys and
// uniqueness rules match live traffic.
func (s *Seeder) seedEngagement(ctx context.Context, res *Result, stories []models.Story) error {
	for _, story := range stories {
		if !story.IsPublished() {
			continue
		}
		for i := 0; i < gofakeit.Number(0, 25); i++ {
			actor := identity.Anonymous(gofakeit.IPv4Address())
			if _, err := s.engagement.RecordLike(ctx, story.ID, actor); err == nil {
				res.Likes++
			}
			if gofakeit.Number(0, 2) == 0 {
				reaction := models.ReactionTypes[gofakeit.Number(0, len(models.ReactionTypes)-1)]
				if _, err := s.engagement.AddReaction(ctx, story.ID, actor, reaction); err == nil {
					res.Reactions++
				}
			}
		}

		for i := 0; i < gofakeit.Number(0, 6); i++ {
			comment, err := s.engagement.SubmitComment(ctx, story.ID, nil, gofakeit.FirstName(), gofakeit.HipsterSentence(), gofakeit.IPv4Address())
			if err != nil {
				return err
			}
			res.Comments++
			if gofakeit.Number(0, 3) > 0 {
				if err := s.db.WithContext(ctx).Model(&models.Comment{}).
					Where("id = ?", comment.ID).
					Update("status", models.CommentStatusApproved).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// seedAnalytics writes synthetic rows for past days and then derives
// today's row from the real engagement via the rollup.
func (s *Seeder) seedAnalytics(ctx context.Context, res *Result, stories []models.Story, days int) error {
	today := s.now().UTC().Truncate(24 * time.Hour)
	var rows []models.Analytics

	for _, story := range stories {
		if !story.IsPublished() {
			continue
		}
		first := story.PublishedAt.UTC().Truncate(24 * time.Hour)
		for d := days; d >= 1; d-- {
			date := today.AddDate(0, 0, -d)
			if date.Before(first) {
				continue
			}
			views := int64(gofakeit.Number(5, 400))
			row := models.Analytics{
				StoryID:         story.ID,
				DonorID:         story.DonorID,
				Date:            datatypes.Date(date),
				Views:           views,
				UniqueVisitors:  views * int64(gofakeit.Number(40, 90)) / 100,
				Likes:           int64(gofakeit.Number(0, 20)),
				Comments:        int64(gofakeit.Number(0, 4)),
				Reactions:       int64(gofakeit.Number(0, 12)),
				SharesTwitter:   int64(gofakeit.Number(0, 5)),
				SharesFacebook:  int64(gofakeit.Number(0, 5)),
				SharesLinkedIn:  int64(gofakeit.Number(0, 8)),
				SharesInstagram: int64(gofakeit.Number(0, 3)),
				SharesWhatsApp:  int64(gofakeit.Number(0, 3)),
			}
			row.Shares = row.SharesTwitter + row.SharesFacebook + row.SharesLinkedIn + row.SharesInstagram + row.SharesWhatsApp
			rows = append(rows, row)
		}

		for i := 0; i < gofakeit.Number(1, 30); i++ {
			if err := s.recorder.TrackView(ctx, story.ID, gofakeit.Bool()); err != nil {
				return err
			}
		}
		if err := s.recorder.TrackShare(ctx, story.ID, models.SharePlatforms[gofakeit.Number(0, len(models.SharePlatforms)-1)]); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(rows, 200).Error; err != nil {
			return err
		}
	}
	res.Analytics = len(rows)

	written, err := s.rollup.RollupDay(ctx, today)
	if err != nil {
		return err
	}
	res.Analytics += written
	return nil
}

func randomMetrics() models.ImpactMetrics {
	m := models.ImpactMetrics{}
	for i := 0; i < gofakeit.Number(1, 3); i++ {
		m[metricNames[gofakeit.Number(0, len(metricNames)-1)]] = float64(gofakeit.Number(3, 2500))
	}
	return m
}

func paragraphs(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = gofakeit.HipsterSentence() + " " + gofakeit.HipsterSentence() + " " + gofakeit.HipsterSentence()
	}
	return strings.Join(parts, "\n\n")
}

func uniqueSuffix(slug string, i int) string {
	if slug == "" {
		slug = "item"
	}
	return fmt.Sprintf("%s-%d", slug, i+1)
}

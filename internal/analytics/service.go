// Package analytics rolls per-story daily counters up into donor timelines,
// social breakdowns and dashboard summaries.
package analytics

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cache"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Options configures a Service
type Options struct {
	DefaultWindowDays int
	SummaryTTL        time.Duration
	Now               func() time.Time
}

// Service answers read-only analytics queries. It never writes.
type Service struct {
	db    *gorm.DB
	cache cache.Store
	opts  Options
}

// NewService creates an analytics reader. store may be nil to disable
// summary caching.
func NewService(db *gorm.DB, store cache.Store, opts Options) *Service {
	if opts.DefaultWindowDays <= 0 {
		opts.DefaultWindowDays = DefaultWindowDays
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{db: db, cache: store, opts: opts}
}

// DonorTimeline returns the donor's rows in the last days days, merged by
// calendar date and ordered oldest first.
func (s *Service) DonorTimeline(ctx context.Context, p *identity.Principal, donorID string, days int) (*Timeline, error) {
	if err := s.authorize(ctx, p, donorID); err != nil {
		return nil, err
	}
	days, err := s.window(days)
	if err != nil {
		return nil, err
	}

	rows, err := s.windowRows(ctx, donorID, days)
	if err != nil {
		return nil, err
	}
	return &Timeline{DonorID: donorID, Days: days, Points: MergeByDate(rows)}, nil
}

// SocialBreakdown sums every platform share counter over the window
func (s *Service) SocialBreakdown(ctx context.Context, p *identity.Principal, donorID string, days int) (*SocialBreakdown, error) {
	if err := s.authorize(ctx, p, donorID); err != nil {
		return nil, err
	}
	days, err := s.window(days)
	if err != nil {
		return nil, err
	}

	rows, err := s.windowRows(ctx, donorID, days)
	if err != nil {
		return nil, err
	}
	out := BreakdownOf(rows)
	out.DonorID = donorID
	out.Days = days
	return out, nil
}

// DonorSummary returns window and lifetime totals for a donor along with
// aggregated impact metrics of the donor's published stories.
func (s *Service) DonorSummary(ctx context.Context, p *identity.Principal, donorID string, days int) (*Summary, error) {
	if err := s.authorize(ctx, p, donorID); err != nil {
		return nil, err
	}
	days, err := s.window(days)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = s.summaryKey(ctx, donorID, days)
		var cached Summary
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !stderrors.Is(err, cache.ErrMiss) {
			logger.L().Warn("Analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	summary, err := s.buildSummary(ctx, donorID, days)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, summary, s.opts.SummaryTTL); err != nil {
			logger.L().Warn("Analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, nil
}

func (s *Service) buildSummary(ctx context.Context, donorID string, days int) (*Summary, error) {
	out := &Summary{DonorID: donorID, Days: days}

	rows, err := s.windowRows(ctx, donorID, days)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out.Window.add(&rows[i])
	}

	err = s.db.WithContext(ctx).
		Table("analytics").
		Select(`COALESCE(SUM(analytics.views), 0) AS views,
			COALESCE(SUM(analytics.unique_visitors), 0) AS unique_visitors,
			COALESCE(SUM(analytics.likes), 0) AS likes,
			COALESCE(SUM(analytics.shares), 0) AS shares,
			COALESCE(SUM(analytics.comments), 0) AS comments,
			COALESCE(SUM(analytics.reactions), 0) AS reactions`).
		Joins("JOIN stories ON stories.id = analytics.story_id").
		Where("stories.donor_id = ?", donorID).
		Scan(&out.Lifetime).Error
	if err != nil {
		return nil, fmt.Errorf("summing lifetime analytics: %w", err)
	}

	var stories []models.Story
	err = s.db.WithContext(ctx).
		Select("id", "status", "impact_metrics", "donation_amount").
		Where("donor_id = ?", donorID).
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("loading donor stories: %w", err)
	}

	var published []models.ImpactMetrics
	for _, st := range stories {
		out.Stories++
		if st.Status != models.StoryStatusPublished {
			continue
		}
		out.PublishedStories++
		out.TotalInvestment += st.DonationAmount
		published = append(published, st.ImpactMetrics)
	}
	out.ImpactMetrics = AggregateImpactMetrics(published)
	return out, nil
}

// summaryKey folds the donor's cache generation into the key so a single
// write retires summaries of every window length.
func (s *Service) summaryKey(ctx context.Context, donorID string, days int) string {
	var gen int64
	if err := s.cache.GetJSON(ctx, generationKey(donorID), &gen); err != nil && !stderrors.Is(err, cache.ErrMiss) {
		logger.L().Warn("Analytics cache read failed", logger.WithDonorID(donorID), zap.Error(err))
	}
	return fmt.Sprintf("summary:%s:%d:%d", donorID, gen, days)
}

func generationKey(donorID string) string {
	return "summary-gen:" + donorID
}

// InvalidateSummary retires every cached summary of the given donors. The
// generation outlives the summaries it replaces, so an expired generation
// can never revive a stale entry.
func (s *Service) InvalidateSummary(ctx context.Context, donorIDs ...string) {
	if s.cache == nil {
		return
	}
	gen := time.Now().UnixNano()
	for _, id := range donorIDs {
		if err := s.cache.SetJSON(ctx, generationKey(id), gen, 2*s.opts.SummaryTTL); err != nil {
			logger.L().Warn("Analytics cache invalidation failed", logger.WithDonorID(id), zap.Error(err))
		}
	}
}

// windowRows loads every analytics row for the donor's stories from the
// start of the window through today.
func (s *Service) windowRows(ctx context.Context, donorID string, days int) ([]models.Analytics, error) {
	start := startOfDay(s.opts.Now()).AddDate(0, 0, -(days - 1))

	var rows []models.Analytics
	err := s.db.WithContext(ctx).
		Select("analytics.*").
		Joins("JOIN stories ON stories.id = analytics.story_id").
		Where("stories.donor_id = ?", donorID).
		Where("analytics.date >= ?", start).
		Order("analytics.date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading analytics rows: %w", err)
	}
	return rows, nil
}

func (s *Service) window(days int) (int, error) {
	if days == 0 {
		return s.opts.DefaultWindowDays, nil
	}
	if days < 0 || days > MaxWindowDays {
		return 0, apierrors.ValidationError("days", fmt.Sprintf("days must be between 1 and %d", MaxWindowDays))
	}
	return days, nil
}

// authorize allows platform admins and members of the donor. Members of
// other donors see NotFound.
func (s *Service) authorize(ctx context.Context, p *identity.Principal, donorID string) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if !p.IsPlatformAdmin() && p.Role != identity.RoleCorporateUser {
		return apierrors.Forbidden("donor analytics are available to donor users")
	}
	if !p.IsPlatformAdmin() && !p.CanViewDonor(donorID) {
		return apierrors.NotFound("donor")
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Donor{}).Where("id = ?", donorID).Count(&n).Error; err != nil {
		return fmt.Errorf("checking donor: %w", err)
	}
	if n == 0 {
		return apierrors.NotFound("donor")
	}
	return nil
}

// MergeByDate sums rows sharing a calendar date and returns them oldest
// first. Input order does not matter.
func MergeByDate(rows []models.Analytics) []DayPoint {
	byDate := make(map[string]*DayPoint)
	for i := range rows {
		key := dateKey(rows[i].Date)
		pt, ok := byDate[key]
		if !ok {
			pt = &DayPoint{Date: key}
			byDate[key] = pt
		}
		pt.add(&rows[i])
	}

	points := make([]DayPoint, 0, len(byDate))
	for _, pt := range byDate {
		points = append(points, *pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// BreakdownOf sums the platform counters of rows
func BreakdownOf(rows []models.Analytics) *SocialBreakdown {
	out := &SocialBreakdown{Platforms: make(map[string]int64, len(models.SharePlatforms))}
	for _, p := range models.SharePlatforms {
		out.Platforms[p] = 0
	}
	for _, r := range rows {
		out.Platforms[models.PlatformTwitter] += r.SharesTwitter
		out.Platforms[models.PlatformFacebook] += r.SharesFacebook
		out.Platforms[models.PlatformLinkedIn] += r.SharesLinkedIn
		out.Platforms[models.PlatformInstagram] += r.SharesInstagram
		out.Platforms[models.PlatformWhatsApp] += r.SharesWhatsApp
		out.StoredShares += r.Shares
	}
	for _, n := range out.Platforms {
		out.Total += n
	}
	return out
}

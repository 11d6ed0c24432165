package analytics

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recorder increments today's counters for public view and share events
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder creates a recorder writing to db
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// TrackView counts a page view. unique marks the first view from a visitor.
func (r *Recorder) TrackView(ctx context.Context, storyID string, unique bool) error {
	inc := map[string]int64{"views": 1}
	if unique {
		inc["unique_visitors"] = 1
	}
	err := r.increment(ctx, storyID, inc)
	observe("view", err)
	return err
}

// TrackShare counts a share to one of the known social platforms
func (r *Recorder) TrackShare(ctx context.Context, storyID, platform string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	column := models.ShareColumn(platform)
	if column == "" {
		err := apierrors.ValidationError("platform", "platform must be one of "+strings.Join(models.SharePlatforms, ", "))
		observe("share", err)
		return err
	}
	err := r.increment(ctx, storyID, map[string]int64{"shares": 1, column: 1})
	observe("share", err)
	return err
}

// increment upserts today's row for the story, adding inc to its counters
func (r *Recorder) increment(ctx context.Context, storyID string, inc map[string]int64) error {
	var story models.Story
	err := r.db.WithContext(ctx).Select("id", "donor_id").Where("id = ?", storyID).Take(&story).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("story")
	}
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}

	row := models.Analytics{StoryID: story.ID, DonorID: story.DonorID, Date: Day(r.now())}
	updates := map[string]interface{}{
		"donor_id":   gorm.Expr("excluded.donor_id"),
		"updated_at": gorm.Expr("excluded.updated_at"),
	}
	for column, n := range inc {
		setCounter(&row, column, n)
		updates[column] = gorm.Expr("analytics."+column+" + ?", n)
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("recording analytics: %w", err)
	}
	return nil
}

// setCounter sets the initial value of a counter column on a new row
func setCounter(row *models.Analytics, column string, n int64) {
	switch column {
	case "views":
		row.Views = n
	case "unique_visitors":
		row.UniqueVisitors = n
	case "shares":
		row.Shares = n
	case "shares_twitter":
		row.SharesTwitter = n
	case "shares_facebook":
		row.SharesFacebook = n
	case "shares_linkedin":
		row.SharesLinkedIn = n
	case "shares_instagram":
		row.SharesInstagram = n
	case "shares_whatsapp":
		row.SharesWhatsApp = n
	}
}

func observe(kind string, err error) {
	result := "created"
	if err != nil {
		result = "error"
	}
	metrics.Get().EngagementEventsTotal.WithLabelValues(kind, result).Inc()
}

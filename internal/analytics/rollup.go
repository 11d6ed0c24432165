package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryInvalidator drops cached summaries of donors whose rows changed
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context, donorIDs ...string)
}

// Rollup recomputes the engagement counters of daily analytics rows from
// the like, reaction and comment tables. Views and shares are left alone.
type Rollup struct {
	db          *gorm.DB
	invalidator SummaryInvalidator
}

// NewRollup creates a rollup over db. invalidator may be nil.
func NewRollup(db *gorm.DB, invalidator SummaryInvalidator) *Rollup {
	return &Rollup{db: db, invalidator: invalidator}
}

type storyCount struct {
	StoryID string
	N       int64
}

type dayCounts struct {
	likes, comments, reactions int64
}

// RollupDay rewrites likes, comments (approved only) and reactions for
// every story with activity on date. Rows for stories with no activity
// left on that date are reset to zero. Running it twice is harmless.
// Returns the number of rows written.
func (r *Rollup) RollupDay(ctx context.Context, date time.Time) (int, error) {
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)
	began := time.Now()
	ctx, span := telemetry.TraceRollup(ctx, start.Format(dateLayout))
	defer span.End()

	written := 0
	donors := make(map[string]bool)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counts := make(map[string]*dayCounts)
		get := func(id string) *dayCounts {
			c, ok := counts[id]
			if !ok {
				c = &dayCounts{}
				counts[id] = c
			}
			return c
		}

		var likes, reactions, comments []storyCount
		if err := countPerStory(tx, &models.Like{}, start, end, &likes); err != nil {
			return err
		}
		if err := countPerStory(tx, &models.Reaction{}, start, end, &reactions); err != nil {
			return err
		}
		if err := countPerStory(tx.Where("status = ?", models.CommentStatusApproved), &models.Comment{}, start, end, &comments); err != nil {
			return err
		}
		for _, c := range likes {
			get(c.StoryID).likes = c.N
		}
		for _, c := range reactions {
			get(c.StoryID).reactions = c.N
		}
		for _, c := range comments {
			get(c.StoryID).comments = c.N
		}

		var previous []string
		err := tx.Model(&models.Analytics{}).
			Where("date = ? AND donor_id IS NOT NULL", Day(start)).
			Distinct().
			Pluck("donor_id", &previous).Error
		if err != nil {
			return fmt.Errorf("loading donors: %w", err)
		}
		for _, id := range previous {
			donors[id] = true
		}

		err = tx.Model(&models.Analytics{}).
			Where("date = ?", Day(start)).
			Updates(map[string]interface{}{"likes": 0, "comments": 0, "reactions": 0}).Error
		if err != nil {
			return fmt.Errorf("resetting counters: %w", err)
		}
		if len(counts) == 0 {
			return nil
		}

		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		var stories []models.Story
		if err := tx.Select("id", "donor_id").Where("id IN ?", ids).Find(&stories).Error; err != nil {
			return fmt.Errorf("loading stories: %w", err)
		}

		rows := make([]models.Analytics, 0, len(stories))
		for _, st := range stories {
			if st.DonorID != nil {
				donors[*st.DonorID] = true
			}
			c := counts[st.ID]
			rows = append(rows, models.Analytics{
				StoryID:   st.ID,
				DonorID:   st.DonorID,
				Date:      Day(start),
				Likes:     c.likes,
				Comments:  c.comments,
				Reactions: c.reactions,
			})
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "story_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"donor_id", "likes", "comments", "reactions", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
		if err != nil {
			return fmt.Errorf("writing rollup rows: %w", err)
		}
		written = len(rows)
		return nil
	})

	m := metrics.Get()
	m.RollupDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		m.RollupRunsTotal.WithLabelValues("error").Inc()
		telemetry.RecordExternalCallError(span, err)
		return 0, err
	}
	m.RollupRunsTotal.WithLabelValues("success").Inc()
	m.RollupRowsUpdated.Add(float64(written))

	if r.invalidator != nil && len(donors) > 0 {
		ids := make([]string, 0, len(donors))
		for id := range donors {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		r.invalidator.InvalidateSummary(ctx, ids...)
	}

	logger.L().Info("Analytics rollup completed",
		zap.String("date", start.Format(dateLayout)),
		zap.Int("rows", written),
		logger.WithDuration(time.Since(began)),
	)
	return written, nil
}

func countPerStory(q *gorm.DB, model interface{}, start, end time.Time, out *[]storyCount) error {
	err := q.Model(model).
		Select("story_id, COUNT(*) AS n").
		Where("created_at >= ? AND created_at < ?", start, end).
		Group("story_id").
		Scan(out).Error
	if err != nil {
		return fmt.Errorf("counting %T: %w", model, err)
	}
	return nil
}

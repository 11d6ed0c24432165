package engagement

import (
	"context"
	"fmt"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"gorm.io/gorm"
)

// StoryTotals are the public engagement counts of one story. Comments are
// approved comments only.
type StoryTotals struct {
	Likes     int64 `json:"likes"`
	Reactions int64 `json:"reactions"`
	Comments  int64 `json:"comments"`
}

// CountMany returns totals for every id in storyIDs using one grouped
// query per table. Stories without engagement map to zero totals.
func CountMany(ctx context.Context, db *gorm.DB, storyIDs []string) (map[string]StoryTotals, error) {
	out := make(map[string]StoryTotals, len(storyIDs))
	if len(storyIDs) == 0 {
		return out, nil
	}

	likes, err := countByStory(ctx, db, &models.Like{}, storyIDs, "")
	if err != nil {
		return nil, err
	}
	reactions, err := countByStory(ctx, db, &models.Reaction{}, storyIDs, "")
	if err != nil {
		return nil, err
	}
	comments, err := countByStory(ctx, db, &models.Comment{}, storyIDs, models.CommentStatusApproved)
	if err != nil {
		return nil, err
	}
	for _, id := range storyIDs {
		out[id] = StoryTotals{Likes: likes[id], Reactions: reactions[id], Comments: comments[id]}
	}
	return out, nil
}

func countByStory(ctx context.Context, db *gorm.DB, model interface{}, storyIDs []string, status string) (map[string]int64, error) {
	var rows []struct {
		StoryID string
		Total   int64
	}
	q := db.WithContext(ctx).Model(model).Select("story_id, COUNT(*) AS total").Where("story_id IN ?", storyIDs)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Group("story_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting %T: %w", model, err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.StoryID] = r.Total
	}
	return out, nil
}

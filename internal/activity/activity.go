// Package activity appends audit entries for content and moderation
// transitions. Entries are written inside the caller's transaction.
package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types
const (
	EntityStory   = "story"
	EntityComment = "comment"
	EntityDonor   = "donor"
	EntityUser    = "user"
)

// Actions
const (
	ActionStoryCreated        = "story.created"
	ActionStoryUpdated        = "story.updated"
	ActionStoryPublished      = "story.published"
	ActionStoryDeleted        = "story.deleted"
	ActionStoryFlagged        = "story.flagged"
	ActionStoryUnflagged      = "story.unflagged"
	ActionMediaUploaded       = "story.media_uploaded"
	ActionCommentFlagged      = "comment.flagged"
	ActionCommentUnflagged    = "comment.unflagged"
	ActionCommentStatus       = "comment.status_changed"
	ActionCommentDeleted      = "comment.deleted"
	ActionDonorMemberAdded    = "donor.member_added"
	ActionDonorMemberRemoved  = "donor.member_removed"
	ActionDonorSettingsUpdate = "donor.settings_updated"
	ActionUserRoleChanged     = "user.role_changed"
)

// Entry is one audit record before persistence
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]interface{}
}

// Record appends e using tx, so it commits or rolls back with the change
// it describes.
func Record(tx *gorm.DB, e Entry) error {
	var details datatypes.JSON
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("encoding activity details: %w", err)
		}
		details = datatypes.JSON(raw)
	}

	row := models.ActivityLog{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    details,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("recording activity %s: %w", e.Action, err)
	}
	return nil
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	EntityType string
	EntityID   string
	ActorID    string
	Action     string
	Limit      int
}

// List returns entries newest first
func List(ctx context.Context, db *gorm.DB, f Filter) ([]models.ActivityLog, error) {
	q := db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []models.ActivityLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return rows, nil
}

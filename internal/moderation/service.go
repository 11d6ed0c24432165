// Package moderation implements flagging, comment review and deletion by
// admins. Every transition is audited in the same transaction.
package moderation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CountsPublisher refreshes live engagement counts after visibility changes
type CountsPublisher interface {
	PublishCounts(ctx context.Context, storyID string)
}

// BlobReleaser deletes blobs left behind by a story deletion
type BlobReleaser interface {
	ReleaseBlobs(ctx context.Context, keys []string)
}

// FlaggedStory is a story awaiting review
type FlaggedStory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CharityID   string    `json:"charity_id"`
	CharityName string    `json:"charity_name"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FlaggedComment is a comment awaiting review
type FlaggedComment struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"story_id"`
	StoryTitle string    `json:"story_title"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Flagged lists everything currently flagged
type Flagged struct {
	Stories  []FlaggedStory   `json:"stories"`
	Comments []FlaggedComment `json:"comments"`
}

// QueueItem is a comment in the moderation queue
type QueueItem struct {
	models.Comment
	StoryTitle string `json:"story_title"`
}

// Service applies moderation transitions
type Service struct {
	db        *gorm.DB
	publisher CountsPublisher
	blobs     BlobReleaser
	now       func() time.Time
}

// NewService creates a moderation service. publisher and blobs may be nil.
func NewService(db *gorm.DB, publisher CountsPublisher, blobs BlobReleaser) *Service {
	return &Service{
		db:        db,
		publisher: publisher,
		blobs:     blobs,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FlagStory marks a story for review with a reason
func (s *Service) FlagStory(ctx context.Context, p *identity.Principal, storyID, reason string) error {
	reason = strings.TrimSpace(reason)
	if err := requirePlatformAdmin(p); err != nil {
		return err
	}
	if reason == "" {
		return apierrors.ValidationError("reason", "a reason is required to flag content")
	}
	return s.setFlag(ctx, p, &models.Story{}, activity.EntityStory, storyID, true, reason)
}

// UnflagStory clears a story's flag and reason
func (s *Service) UnflagStory(ctx context.Context, p *identity.Principal, storyID string) error {
	if err := requirePlatformAdmin(p); err != nil {
		return err
	}
	return s.setFlag(ctx, p, &models.Story{}, activity.EntityStory, storyID, false, "")
}

// FlagComment marks a comment for review with a reason
func (s *Service) FlagComment(ctx context.Context, p *identity.Principal, commentID, reason string) error {
	reason = strings.TrimSpace(reason)
	if err := requirePlatformAdmin(p); err != nil {
		return err
	}
	if reason == "" {
		return apierrors.ValidationError("reason", "a reason is required to flag content")
	}
	return s.setFlag(ctx, p, &models.Comment{}, activity.EntityComment, commentID, true, reason)
}

// UnflagComment clears a comment's flag and reason
func (s *Service) UnflagComment(ctx context.Context, p *identity.Principal, commentID string) error {
	if err := requirePlatformAdmin(p); err != nil {
		return err
	}
	return s.setFlag(ctx, p, &models.Comment{}, activity.EntityComment, commentID, false, "")
}

func (s *Service) setFlag(ctx context.Context, p *identity.Principal, model interface{}, entityType, id string, flagged bool, reason string) error {
	action := flagAction(entityType, flagged)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(model).Where("id = ?", id).Updates(map[string]interface{}{
			"is_flagged":  flagged,
			"flag_reason": reason,
			"updated_at":  s.now(),
		})
		if res.Error != nil {
			return fmt.Errorf("updating flag: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apierrors.NotFound(entityType)
		}
		details := map[string]interface{}{}
		if reason != "" {
			details["reason"] = reason
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     action,
			EntityType: entityType,
			EntityID:   id,
			Details:    details,
		})
	})
	if err != nil {
		return err
	}

	metrics.Get().ModerationActionsTotal.WithLabelValues(action, entityType).Inc()
	logger.L().Info("Moderation flag updated",
		zap.String("entity_type", entityType),
		zap.String("entity_id", id),
		zap.Bool("flagged", flagged),
		logger.WithUserID(p.UserID),
	)
	return nil
}

// SetCommentStatus moves a comment to any moderation state. Platform admins
// act on any comment; charity admins on comments of their own stories.
func (s *Service) SetCommentStatus(ctx context.Context, p *identity.Principal, commentID, status string) (*models.Comment, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	if !models.IsValidCommentStatus(status) {
		return nil, apierrors.ValidationError("status", "status must be PENDING, APPROVED, REJECTED or SPAM")
	}

	var comment models.Comment
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadOwnedComment(tx, p, commentID, &comment); err != nil {
			return err
		}
		previous = comment.Status

		now := s.now()
		moderator := p.UserID
		comment.Status = status
		comment.ModeratedBy = &moderator
		comment.ModeratedAt = &now
		err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
			"status":       status,
			"moderated_by": moderator,
			"moderated_at": now,
			"updated_at":   now,
		}).Error
		if err != nil {
			return fmt.Errorf("updating comment: %w", err)
		}

		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionCommentStatus,
			EntityType: activity.EntityComment,
			EntityID:   comment.ID,
			Details:    map[string]interface{}{"from": previous, "to": status, "story_id": comment.StoryID},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().ModerationActionsTotal.WithLabelValues(activity.ActionCommentStatus, activity.EntityComment).Inc()
	if previous != status && (previous == models.CommentStatusApproved || status == models.CommentStatusApproved) {
		s.publish(ctx, comment.StoryID)
	}
	return &comment, nil
}

// DeleteComment removes a comment permanently
func (s *Service) DeleteComment(ctx context.Context, p *identity.Principal, commentID string) error {
	if err := requireModerator(p); err != nil {
		return err
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadOwnedComment(tx, p, commentID, &comment); err != nil {
			return err
		}
		if err := tx.Where("id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting comment: %w", err)
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionCommentDeleted,
			EntityType: activity.EntityComment,
			EntityID:   comment.ID,
			Details: map[string]interface{}{
				"story_id": comment.StoryID,
				"status":   comment.Status,
				"author":   comment.AuthorName,
			},
		})
	})
	if err != nil {
		return err
	}

	metrics.Get().ModerationActionsTotal.WithLabelValues(activity.ActionCommentDeleted, activity.EntityComment).Inc()
	if comment.Status == models.CommentStatusApproved {
		s.publish(ctx, comment.StoryID)
	}
	return nil
}

// DeleteStory removes any story and its dependents. Platform admins only.
func (s *Service) DeleteStory(ctx context.Context, p *identity.Principal, storyID string) error {
	if err := requirePlatformAdmin(p); err != nil {
		return err
	}

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story models.Story
		err := tx.Where("id = ?", storyID).Take(&story).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NotFound("story")
		}
		if err != nil {
			return fmt.Errorf("loading story: %w", err)
		}

		keys, err = content.CascadeDelete(tx, &story)
		if err != nil {
			return err
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionStoryDeleted,
			EntityType: activity.EntityStory,
			EntityID:   story.ID,
			Details: map[string]interface{}{
				"title":      story.Title,
				"charity_id": story.CharityID,
				"flagged":    story.IsFlagged,
				"reason":     story.FlagReason,
			},
		})
	})
	if err != nil {
		return err
	}

	metrics.Get().ModerationActionsTotal.WithLabelValues(activity.ActionStoryDeleted, activity.EntityStory).Inc()
	if s.blobs != nil {
		s.blobs.ReleaseBlobs(ctx, keys)
	}
	return nil
}

// ListFlagged returns all flagged stories and comments with their reasons
func (s *Service) ListFlagged(ctx context.Context, p *identity.Principal) (*Flagged, error) {
	if err := requirePlatformAdmin(p); err != nil {
		return nil, err
	}

	out := &Flagged{Stories: []FlaggedStory{}, Comments: []FlaggedComment{}}
	err := s.db.WithContext(ctx).
		Table("stories").
		Select("stories.id, stories.title, stories.charity_id, charities.name AS charity_name, stories.status, stories.flag_reason AS reason, stories.updated_at").
		Joins("LEFT JOIN charities ON charities.id = stories.charity_id").
		Where("stories.is_flagged = ?", true).
		Order("stories.updated_at DESC").
		Scan(&out.Stories).Error
	if err != nil {
		return nil, fmt.Errorf("listing flagged stories: %w", err)
	}

	err = s.db.WithContext(ctx).
		Table("comments").
		Select("comments.id, comments.story_id, stories.title AS story_title, comments.author_name, comments.content, comments.status, comments.flag_reason AS reason, comments.updated_at").
		Joins("LEFT JOIN stories ON stories.id = comments.story_id").
		Where("comments.is_flagged = ?", true).
		Order("comments.updated_at DESC").
		Scan(&out.Comments).Error
	if err != nil {
		return nil, fmt.Errorf("listing flagged comments: %w", err)
	}
	return out, nil
}

// ListModerationQueue lists comments in status (default PENDING), oldest
// first. Charity admins only see comments on their own stories.
func (s *Service) ListModerationQueue(ctx context.Context, p *identity.Principal, status string) ([]QueueItem, error) {
	if err := requireModerator(p); err != nil {
		return nil, err
	}
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		status = models.CommentStatusPending
	}
	if !models.IsValidCommentStatus(status) {
		return nil, apierrors.ValidationError("status", "unknown comment status")
	}

	q := s.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, stories.title AS story_title").
		Joins("JOIN stories ON stories.id = comments.story_id").
		Where("comments.status = ?", status)
	if !p.IsPlatformAdmin() {
		q = q.Where("stories.charity_id = ?", p.CharityID)
	}

	var items []QueueItem
	if err := q.Order("comments.created_at ASC").Limit(500).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("listing moderation queue: %w", err)
	}
	return items, nil
}

// loadOwnedComment loads a comment the principal may moderate. Comments of
// other charities are reported as not found.
func (s *Service) loadOwnedComment(tx *gorm.DB, p *identity.Principal, commentID string, out *models.Comment) error {
	err := tx.Where("id = ?", commentID).Take(out).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("comment")
	}
	if err != nil {
		return fmt.Errorf("loading comment: %w", err)
	}
	if p.IsPlatformAdmin() {
		return nil
	}

	var story models.Story
	if err := tx.Select("id", "charity_id").Where("id = ?", out.StoryID).Take(&story).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NotFound("comment")
		}
		return fmt.Errorf("loading story: %w", err)
	}
	if !p.CanManageCharity(story.CharityID) {
		return apierrors.NotFound("comment")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, storyID string) {
	if s.publisher != nil {
		s.publisher.PublishCounts(ctx, storyID)
	}
}

func requirePlatformAdmin(p *identity.Principal) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if !p.IsPlatformAdmin() {
		return apierrors.Forbidden("platform admin access required")
	}
	return nil
}

func requireModerator(p *identity.Principal) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if !p.IsPlatformAdmin() && p.Role != identity.RoleCharityAdmin {
		return apierrors.Forbidden("moderator access required")
	}
	return nil
}

func flagAction(entityType string, flagged bool) string {
	switch {
	case entityType == activity.EntityStory && flagged:
		return activity.ActionStoryFlagged
	case entityType == activity.EntityStory:
		return activity.ActionStoryUnflagged
	case flagged:
		return activity.ActionCommentFlagged
	default:
		return activity.ActionCommentUnflagged
	}
}

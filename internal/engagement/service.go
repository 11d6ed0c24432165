// Package engagement records likes, reactions and comments against stories
// for authenticated and anonymous actors.
package engagement

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxCommentLength bounds comment bodies after trimming
const MaxCommentLength = 2000

// UpdateMessageType is the live message carrying fresh counts
const UpdateMessageType = "engagement_update"

// Broadcaster pushes a payload to everyone watching a story
type Broadcaster interface {
	Publish(room, msgType string, payload interface{})
}

// ReactionCounts always carries all five reaction types
type ReactionCounts map[string]int64

// Counts is the public engagement summary of one story
type Counts struct {
	StoryID   string         `json:"story_id"`
	Likes     int64          `json:"likes"`
	Reactions ReactionCounts `json:"reactions"`
	Comments  int64          `json:"comments"`
}

// LikeResult carries the story's like total after the call
type LikeResult struct {
	Likes int64 `json:"likes"`
}

// PublicComment is what a commenter and the public page see
type PublicComment struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"story_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service is the engagement store
type Service struct {
	db          *gorm.DB
	broadcaster Broadcaster
}

// NewService creates an engagement service. broadcaster may be nil.
func NewService(db *gorm.DB, broadcaster Broadcaster) *Service {
	return &Service{db: db, broadcaster: broadcaster}
}

// RecordLike stores at most one like per (story, actor). A repeat returns
// AlreadyExists together with the unchanged total.
func (s *Service) RecordLike(ctx context.Context, storyID string, actor identity.Actor) (LikeResult, error) {
	if err := actor.Validate(); err != nil {
		return LikeResult{}, err
	}
	if err := s.requireStory(ctx, storyID); err != nil {
		return LikeResult{}, err
	}

	userID, ip := actor.Columns()
	like := models.Like{
		StoryID:   storyID,
		UserID:    userID,
		IPAddress: ip,
		ActorKey:  actor.Key(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		s.count("like", "error")
		return LikeResult{}, fmt.Errorf("recording like: %w", res.Error)
	}

	total, err := s.likeCount(ctx, storyID)
	if err != nil {
		return LikeResult{}, err
	}
	if res.RowsAffected == 0 {
		s.count("like", "duplicate")
		return LikeResult{Likes: total}, apierrors.AlreadyExists("like")
	}

	s.count("like", "created")
	s.PublishCounts(ctx, storyID)
	return LikeResult{Likes: total}, nil
}

// HasLiked reports whether actor already liked the story
func (s *Service) HasLiked(ctx context.Context, storyID string, actor identity.Actor) (bool, error) {
	if err := actor.Validate(); err != nil {
		return false, err
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("story_id = ? AND actor_key = ?", storyID, actor.Key()).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking like: %w", err)
	}
	return n > 0, nil
}

// AddReaction stores one reaction of a type per (story, actor). Different
// types coexist.
func (s *Service) AddReaction(ctx context.Context, storyID string, actor identity.Actor, reactionType string) (ReactionCounts, error) {
	reactionType = strings.ToUpper(strings.TrimSpace(reactionType))
	if err := validateReaction(actor, reactionType); err != nil {
		return nil, err
	}
	if err := s.requireStory(ctx, storyID); err != nil {
		return nil, err
	}

	userID, ip := actor.Columns()
	reaction := models.Reaction{
		StoryID:      storyID,
		ReactionType: reactionType,
		UserID:       userID,
		IPAddress:    ip,
		ActorKey:     actor.Key(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&reaction)
	if res.Error != nil {
		s.count("reaction", "error")
		return nil, fmt.Errorf("recording reaction: %w", res.Error)
	}

	counts, err := s.reactionCounts(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		s.count("reaction", "duplicate")
		return counts, apierrors.AlreadyExists("reaction")
	}

	s.count("reaction", "created")
	s.PublishCounts(ctx, storyID)
	return counts, nil
}

// RemoveReaction deletes the actor's reaction of the given type
func (s *Service) RemoveReaction(ctx context.Context, storyID string, actor identity.Actor, reactionType string) (ReactionCounts, error) {
	reactionType = strings.ToUpper(strings.TrimSpace(reactionType))
	if err := validateReaction(actor, reactionType); err != nil {
		return nil, err
	}
	if err := s.requireStory(ctx, storyID); err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Where("story_id = ? AND actor_key = ? AND reaction_type = ?", storyID, actor.Key(), reactionType).
		Delete(&models.Reaction{})
	if res.Error != nil {
		s.count("reaction", "error")
		return nil, fmt.Errorf("removing reaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apierrors.NotFound("reaction")
	}

	counts, err := s.reactionCounts(ctx, storyID)
	if err != nil {
		return nil, err
	}
	s.count("reaction", "removed")
	s.PublishCounts(ctx, storyID)
	return counts, nil
}

// SubmitComment stores a PENDING comment from a user or a named guest
func (s *Service) SubmitComment(ctx context.Context, storyID string, principal *identity.Principal, guestName, content, ip string) (*PublicComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierrors.ValidationError("content", "comment cannot be empty")
	}
	if len([]rune(content)) > MaxCommentLength {
		return nil, apierrors.ValidationError("content", fmt.Sprintf("comment cannot exceed %d characters", MaxCommentLength))
	}

	comment := models.Comment{
		StoryID:   storyID,
		Content:   content,
		IPAddress: ip,
		Status:    models.CommentStatusPending,
	}
	guestName = strings.TrimSpace(guestName)
	if principal != nil && principal.UserID != "" {
		userID := principal.UserID
		comment.UserID = &userID
		comment.AuthorName = principal.Name
		if comment.AuthorName == "" {
			comment.AuthorName = guestName
		}
		if comment.AuthorName == "" {
			comment.AuthorName = "Supporter"
		}
	} else {
		if guestName == "" {
			return nil, apierrors.ValidationError("name", "a name is required to comment without an account")
		}
		comment.AuthorName = guestName
	}

	if err := s.requireStory(ctx, storyID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		s.count("comment", "error")
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.count("comment", "created")
	logger.L().Debug("Comment submitted for moderation",
		logger.WithStoryID(storyID),
		zap.String("comment_id", comment.ID),
	)
	return toPublic(&comment), nil
}

// ListApprovedComments returns the story's APPROVED comments, newest first
func (s *Service) ListApprovedComments(ctx context.Context, storyID string) ([]PublicComment, error) {
	if err := s.requireStory(ctx, storyID); err != nil {
		return nil, err
	}
	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Where("story_id = ? AND status = ?", storyID, models.CommentStatusApproved).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	out := make([]PublicComment, 0, len(rows))
	for i := range rows {
		out = append(out, *toPublic(&rows[i]))
	}
	return out, nil
}

// Counts returns likes, per-type reactions and approved comments
func (s *Service) Counts(ctx context.Context, storyID string) (*Counts, error) {
	if err := s.requireStory(ctx, storyID); err != nil {
		return nil, err
	}
	return s.counts(ctx, storyID)
}

// PublishCounts pushes fresh counts to live viewers. Failures are logged.
func (s *Service) PublishCounts(ctx context.Context, storyID string) {
	if s.broadcaster == nil {
		return
	}
	counts, err := s.counts(ctx, storyID)
	if err != nil {
		logger.L().Warn("Failed to load counts for broadcast", logger.WithStoryID(storyID), zap.Error(err))
		return
	}
	s.broadcaster.Publish(storyID, UpdateMessageType, counts)
}

func (s *Service) counts(ctx context.Context, storyID string) (*Counts, error) {
	likes, err := s.likeCount(ctx, storyID)
	if err != nil {
		return nil, err
	}
	reactions, err := s.reactionCounts(ctx, storyID)
	if err != nil {
		return nil, err
	}
	var comments int64
	err = s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("story_id = ? AND status = ?", storyID, models.CommentStatusApproved).
		Count(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("counting comments: %w", err)
	}
	return &Counts{StoryID: storyID, Likes: likes, Reactions: reactions, Comments: comments}, nil
}

func (s *Service) likeCount(ctx context.Context, storyID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).Where("story_id = ?", storyID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting likes: %w", err)
	}
	return n, nil
}

func (s *Service) reactionCounts(ctx context.Context, storyID string) (ReactionCounts, error) {
	var rows []struct {
		ReactionType string
		Total        int64
	}
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("reaction_type, COUNT(*) AS total").
		Where("story_id = ?", storyID).
		Group("reaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting reactions: %w", err)
	}

	counts := make(ReactionCounts, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}
	for _, r := range rows {
		counts[r.ReactionType] = r.Total
	}
	return counts, nil
}

func (s *Service) requireStory(ctx context.Context, storyID string) error {
	if strings.TrimSpace(storyID) == "" {
		return apierrors.NotFound("story")
	}
	var story models.Story
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", storyID).Take(&story).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NotFound("story")
	}
	if err != nil {
		return fmt.Errorf("loading story: %w", err)
	}
	return nil
}

func (s *Service) count(kind, result string) {
	metrics.Get().EngagementEventsTotal.WithLabelValues(kind, result).Inc()
}

func validateReaction(actor identity.Actor, reactionType string) error {
	if !models.IsValidReactionType(reactionType) {
		return apierrors.ValidationError("reaction_type",
			fmt.Sprintf("reaction type must be one of %s", strings.Join(models.ReactionTypes, ", ")))
	}
	return actor.Validate()
}

func toPublic(c *models.Comment) *PublicComment {
	return &PublicComment{
		ID:         c.ID,
		StoryID:    c.StoryID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

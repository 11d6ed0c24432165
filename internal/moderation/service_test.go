package moderation

import (
	"context"
	"sync"
	"testing"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu      sync.Mutex
	stories []string
}

func (r *recordingPublisher) PublishCounts(ctx context.Context, storyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stories = append(r.stories, storyID)
}

type recordingReleaser struct{ keys []string }

func (r *recordingReleaser) ReleaseBlobs(ctx context.Context, keys []string) {
	r.keys = append(r.keys, keys...)
}

type ModerationSuite struct {
	suite.Suite
	db        *gorm.DB
	svc       *Service
	publisher *recordingPublisher
	releaser  *recordingReleaser
	ctx       context.Context

	story        *models.Story
	comment      *models.Comment
	platform     *identity.Principal
	charityAdmin *identity.Principal
	outsider     *identity.Principal
}

func TestModerationSuite(t *testing.T) {
	suite.Run(t, new(ModerationSuite))
}

func (s *ModerationSuite) SetupTest() {
	s.db = database.NewTestDB(s.T())
	s.publisher = &recordingPublisher{}
	s.releaser = &recordingReleaser{}
	s.svc = NewService(s.db, s.publisher, s.releaser)
	s.ctx = context.Background()

	charity := testutil.Charity(s.T(), s.db, "hope")
	other := testutil.Charity(s.T(), s.db, "relief")
	s.story = testutil.Story(s.T(), s.db, charity.ID, "clean-water")
	s.comment = &models.Comment{StoryID: s.story.ID, AuthorName: "Ann", Content: "Amazing", Status: models.CommentStatusPending}
	s.Require().NoError(s.db.Create(s.comment).Error)

	s.platform = testutil.PlatformAdmin(s.T(), s.db, "ops@impactusall.com")
	s.charityAdmin = testutil.CharityAdmin(s.T(), s.db, "admin@hope.org", charity.ID)
	s.outsider = testutil.CharityAdmin(s.T(), s.db, "admin@relief.org", other.ID)
}

// Flag with "duplicate content", list, unflag, list again.
func (s *ModerationSuite) TestFlagUnflagStoryScenario() {
	s.Require().NoError(s.svc.FlagStory(s.ctx, s.platform, s.story.ID, "duplicate content"))

	flagged, err := s.svc.ListFlagged(s.ctx, s.platform)
	s.Require().NoError(err)
	s.Require().Len(flagged.Stories, 1)
	s.Equal(s.story.ID, flagged.Stories[0].ID)
	s.Equal("duplicate content", flagged.Stories[0].Reason)
	s.Equal("hope trust", flagged.Stories[0].CharityName)

	s.Require().NoError(s.svc.UnflagStory(s.ctx, s.platform, s.story.ID))

	flagged, err = s.svc.ListFlagged(s.ctx, s.platform)
	s.Require().NoError(err)
	s.Empty(flagged.Stories)

	var stored models.Story
	s.Require().NoError(s.db.First(&stored, "id = ?", s.story.ID).Error)
	s.False(stored.IsFlagged)
	s.Empty(stored.FlagReason)

	logs, err := activity.List(s.ctx, s.db, activity.Filter{EntityID: s.story.ID})
	s.Require().NoError(err)
	s.Require().Len(logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	s.ElementsMatch([]string{activity.ActionStoryFlagged, activity.ActionStoryUnflagged}, actions)
}

func (s *ModerationSuite) TestFlagRules() {
	err := s.svc.FlagStory(s.ctx, s.charityAdmin, s.story.ID, "spam")
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	err = s.svc.FlagStory(s.ctx, s.platform, s.story.ID, "   ")
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	err = s.svc.FlagStory(s.ctx, s.platform, "missing", "spam")
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	err = s.svc.FlagComment(s.ctx, nil, s.comment.ID, "spam")
	s.True(apierrors.Is(err, apierrors.ErrUnauthorized))

	var logs int64
	s.db.Model(&models.ActivityLog{}).Count(&logs)
	s.Zero(logs)
}

func (s *ModerationSuite) TestFlagComment() {
	s.Require().NoError(s.svc.FlagComment(s.ctx, s.platform, s.comment.ID, "abusive"))

	flagged, err := s.svc.ListFlagged(s.ctx, s.platform)
	s.Require().NoError(err)
	s.Require().Len(flagged.Comments, 1)
	s.Equal("abusive", flagged.Comments[0].Reason)
	s.Equal("clean-water", flagged.Comments[0].StoryTitle)

	s.Require().NoError(s.svc.UnflagComment(s.ctx, s.platform, s.comment.ID))
	flagged, err = s.svc.ListFlagged(s.ctx, s.platform)
	s.Require().NoError(err)
	s.Empty(flagged.Comments)
}

func (s *ModerationSuite) TestCommentStatusTransitions() {
	updated, err := s.svc.SetCommentStatus(s.ctx, s.charityAdmin, s.comment.ID, "approved")
	s.Require().NoError(err)
	s.Equal(models.CommentStatusApproved, updated.Status)
	s.Equal(s.charityAdmin.UserID, *updated.ModeratedBy)
	s.NotNil(updated.ModeratedAt)

	// approved comments may still be marked as spam later
	updated, err = s.svc.SetCommentStatus(s.ctx, s.platform, s.comment.ID, models.CommentStatusSpam)
	s.Require().NoError(err)
	s.Equal(models.CommentStatusSpam, updated.Status)
	s.Equal([]string{s.story.ID, s.story.ID}, s.publisher.stories)

	_, err = s.svc.SetCommentStatus(s.ctx, s.platform, s.comment.ID, "HIDDEN")
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *ModerationSuite) TestCommentStatusTenantScope() {
	_, err := s.svc.SetCommentStatus(s.ctx, s.outsider, s.comment.ID, models.CommentStatusApproved)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	corporate := &identity.Principal{UserID: "c1", Role: identity.RoleCorporateUser, DonorID: "d1"}
	_, err = s.svc.SetCommentStatus(s.ctx, corporate, s.comment.ID, models.CommentStatusApproved)
	s.True(apierrors.Is(err, apierrors.ErrForbidden))
}

func (s *ModerationSuite) TestModerationQueue() {
	queue, err := s.svc.ListModerationQueue(s.ctx, s.charityAdmin, "")
	s.Require().NoError(err)
	s.Require().Len(queue, 1)
	s.Equal("clean-water", queue[0].StoryTitle)
	s.Equal("Ann", queue[0].AuthorName)

	queue, err = s.svc.ListModerationQueue(s.ctx, s.outsider, "")
	s.Require().NoError(err)
	s.Empty(queue)

	queue, err = s.svc.ListModerationQueue(s.ctx, s.platform, models.CommentStatusApproved)
	s.Require().NoError(err)
	s.Empty(queue)
}

func (s *ModerationSuite) TestDeleteComment() {
	s.True(apierrors.Is(s.svc.DeleteComment(s.ctx, s.outsider, s.comment.ID), apierrors.ErrNotFound))
	s.Require().NoError(s.svc.DeleteComment(s.ctx, s.charityAdmin, s.comment.ID))

	var n int64
	s.db.Model(&models.Comment{}).Where("id = ?", s.comment.ID).Count(&n)
	s.Zero(n)
	s.True(apierrors.Is(s.svc.DeleteComment(s.ctx, s.platform, s.comment.ID), apierrors.ErrNotFound))
}

func (s *ModerationSuite) TestDeleteStoryCascades() {
	s.True(apierrors.Is(s.svc.DeleteStory(s.ctx, s.charityAdmin, s.story.ID), apierrors.ErrForbidden))

	s.Require().NoError(s.db.Model(s.story).Update("featured_image_key", "stories/x/cover.png").Error)
	s.Require().NoError(s.svc.DeleteStory(s.ctx, s.platform, s.story.ID))

	var comments, stories int64
	s.db.Model(&models.Comment{}).Where("story_id = ?", s.story.ID).Count(&comments)
	s.db.Model(&models.Story{}).Where("id = ?", s.story.ID).Count(&stories)
	s.Zero(comments)
	s.Zero(stories)
	s.Equal([]string{"stories/x/cover.png"}, s.releaser.keys)

	logs, err := activity.List(s.ctx, s.db, activity.Filter{Action: activity.ActionStoryDeleted})
	s.Require().NoError(err)
	s.Len(logs, 1)
}

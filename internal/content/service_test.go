package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/storage"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []StoryPublishedEvent
	err    error
}

func (n *fakeNotifier) NotifyStoryPublished(ctx context.Context, event StoryPublishedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type failingBlobs struct{ storage.BlobStore }

func (failingBlobs) Put(ctx context.Context, folder string, data []byte, contentType string) (string, error) {
	return "", errors.New("s3 unavailable")
}

type ContentSuite struct {
	suite.Suite
	db       *gorm.DB
	blobs    *storage.MemoryStore
	notifier *fakeNotifier
	svc      *Service
	ctx      context.Context
	clock    time.Time

	charity *models.Charity
	donor   *models.Donor
	admin   *identity.Principal
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) SetupTest() {
	s.db = database.NewTestDB(s.T())
	s.blobs = storage.NewMemoryStore("http://blobs.local")
	s.notifier = &fakeNotifier{}
	s.clock = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	s.svc = NewService(s.db, s.blobs, s.notifier, Options{
		PublicSiteURL: "https://impactusall.test/",
		Now:           func() time.Time { return s.clock },
	})
	s.ctx = context.Background()

	s.charity = testutil.Charity(s.T(), s.db, "hope")
	s.donor = testutil.Donor(s.T(), s.db, "acme")
	s.admin = testutil.CharityAdmin(s.T(), s.db, "admin@hope.org", s.charity.ID)
}

func (s *ContentSuite) input(title string) StoryInput {
	return StoryInput{Title: title, Body: "Body of " + title, Excerpt: "Excerpt"}
}

func (s *ContentSuite) TestCreateRequiresTitleAndBody() {
	_, err := s.svc.CreateStory(s.ctx, s.admin, StoryInput{Body: "x"})
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	_, err = s.svc.CreateStory(s.ctx, s.admin, StoryInput{Title: "x", Body: "   "})
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	_, err = s.svc.CreateStory(s.ctx, s.admin, s.input(strings.Repeat("é", MaxTitleLength+1)))
	s.True(apierrors.Is(err, apierrors.ErrValidation))
	_, err = s.svc.CreateStory(s.ctx, s.admin, s.input(strings.Repeat("é", MaxTitleLength)))
	s.NoError(err)
}

func (s *ContentSuite) TestCreateRejectsNegativeMetrics() {
	in := s.input("Shelter")
	in.ImpactMetrics = models.ImpactMetrics{"families_helped": -1}
	_, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *ContentSuite) TestCreateRequiresAuthorRole() {
	viewer := testutil.CorporateUser(s.T(), s.db, "viewer@acme.com", s.donor.ID, identity.DonorRoleAdmin)
	_, err := s.svc.CreateStory(s.ctx, viewer, s.input("Hope"))
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	_, err = s.svc.CreateStory(s.ctx, nil, s.input("Hope"))
	s.True(apierrors.Is(err, apierrors.ErrUnauthorized))
}

func (s *ContentSuite) TestSlugUniquenessIsScopedToCharity() {
	other := testutil.Charity(s.T(), s.db, "relief")
	otherAdmin := testutil.CharityAdmin(s.T(), s.db, "admin@relief.org", other.ID)

	first, err := s.svc.CreateStory(s.ctx, s.admin, s.input("Hope"))
	s.Require().NoError(err)
	s.Equal("hope", first.Story.Slug)

	elsewhere, err := s.svc.CreateStory(s.ctx, otherAdmin, s.input("Hope"))
	s.Require().NoError(err)
	s.Equal("hope", elsewhere.Story.Slug)

	second, err := s.svc.CreateStory(s.ctx, s.admin, s.input("Hope!"))
	s.Require().NoError(err)
	s.Equal(disambiguate("hope", s.clock), second.Story.Slug)
}

func (s *ContentSuite) TestPublishTimestampIsStable() {
	in := s.input("Clean water")
	in.Status = models.StoryStatusPublished
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Require().NotNil(created.Story.PublishedAt)
	firstPublish := *created.Story.PublishedAt

	s.clock = s.clock.Add(48 * time.Hour)
	in.Status = models.StoryStatusDraft
	updated, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Require().NotNil(updated.Story.PublishedAt)
	s.True(firstPublish.Equal(*updated.Story.PublishedAt))

	s.clock = s.clock.Add(48 * time.Hour)
	in.Status = models.StoryStatusPublished
	in.Body = "Edited body"
	republished, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Equal(models.StoryStatusPublished, republished.Story.Status)
	s.True(firstPublish.Equal(*republished.Story.PublishedAt))
}

func (s *ContentSuite) TestEmptyStatusKeepsCurrent() {
	in := s.input("Kept")
	in.Status = models.StoryStatusPublished
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)

	in.Status = ""
	updated, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Equal(models.StoryStatusPublished, updated.Story.Status)
}

func (s *ContentSuite) TestMilestonesReplaceBySet() {
	in := s.input("Timeline")
	in.Milestones = []MilestoneInput{{Title: "Funded"}, {Title: "Built"}, {Title: "Opened"}}
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Require().Len(created.Story.Milestones, 3)
	built := created.Story.Milestones[1]
	s.Equal(2, built.DisplayOrder)

	in.Milestones = []MilestoneInput{{ID: built.ID, Title: "Built (phase 1)"}, {Title: "Celebrated"}}
	updated, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Require().Len(updated.Story.Milestones, 2)
	s.Equal(built.ID, updated.Story.Milestones[0].ID)
	s.Equal("Built (phase 1)", updated.Story.Milestones[0].Title)
	s.Equal(1, updated.Story.Milestones[0].DisplayOrder)
	s.Equal("Celebrated", updated.Story.Milestones[1].Title)
	s.Equal(2, updated.Story.Milestones[1].DisplayOrder)

	in.Milestones = nil
	untouched, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Len(untouched.Story.Milestones, 2)

	in.Milestones = []MilestoneInput{}
	cleared, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Empty(cleared.Story.Milestones)
}

func (s *ContentSuite) TestTenantIsolation() {
	created, err := s.svc.CreateStory(s.ctx, s.admin, s.input("Private"))
	s.Require().NoError(err)

	other := testutil.Charity(s.T(), s.db, "relief")
	otherAdmin := testutil.CharityAdmin(s.T(), s.db, "admin@relief.org", other.ID)

	_, err = s.svc.UpdateStory(s.ctx, otherAdmin, created.Story.ID, s.input("Hijack"))
	s.True(apierrors.Is(err, apierrors.ErrNotFound))
	s.True(apierrors.Is(s.svc.DeleteStory(s.ctx, otherAdmin, created.Story.ID), apierrors.ErrNotFound))
	_, err = s.svc.GetStory(s.ctx, otherAdmin, created.Story.ID)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	platform := testutil.PlatformAdmin(s.T(), s.db, "ops@impactusall.com")
	_, err = s.svc.UpdateStory(s.ctx, platform, created.Story.ID, s.input("Fixed typo"))
	s.NoError(err)
}

func (s *ContentSuite) TestDeleteCascades() {
	created, err := s.svc.CreateStory(s.ctx, s.admin, StoryInput{
		Title:            "Doomed",
		Body:             "Body",
		Milestones:       []MilestoneInput{{Title: "One"}},
		ThankYouMessages: []ThankYouInput{{AuthorName: "Ama", Message: "Thank you"}},
	})
	s.Require().NoError(err)
	storyID := created.Story.ID

	media, err := s.svc.UploadMedia(s.ctx, s.admin, storyID, []byte("png"), "image/png", "image", "Cover")
	s.Require().NoError(err)
	s.Equal(1, media.DisplayOrder)

	ip := "1.2.3.4"
	s.Require().NoError(s.db.Create(&models.Like{StoryID: storyID, IPAddress: &ip, ActorKey: "ip:" + ip}).Error)
	s.Require().NoError(s.db.Create(&models.Reaction{StoryID: storyID, ReactionType: models.ReactionLove, IPAddress: &ip, ActorKey: "ip:" + ip}).Error)
	s.Require().NoError(s.db.Create(&models.Comment{StoryID: storyID, AuthorName: "Ann", Content: "Hi", Status: models.CommentStatusApproved}).Error)
	s.Require().NoError(s.db.Create(&models.Analytics{StoryID: storyID, Date: datatypes.Date(s.clock), Views: 3}).Error)

	s.Require().NoError(s.svc.DeleteStory(s.ctx, s.admin, storyID))

	for _, model := range []interface{}{&models.Like{}, &models.Reaction{}, &models.Comment{}, &models.Analytics{}, &models.Milestone{}, &models.ThankYouMessage{}, &models.StoryMedia{}} {
		var n int64
		s.db.Model(model).Where("story_id = ?", storyID).Count(&n)
		s.Zero(n, "%T", model)
	}
	var stories int64
	s.db.Model(&models.Story{}).Where("id = ?", storyID).Count(&stories)
	s.Zero(stories)
	s.Zero(s.blobs.Len())
}

func (s *ContentSuite) TestFirstPublishNotifiesDonorUsers() {
	testutil.CorporateUser(s.T(), s.db, "ceo@acme.com", s.donor.ID, identity.DonorRoleAdmin)
	testutil.CorporateUser(s.T(), s.db, "cfo@acme.com", s.donor.ID, identity.DonorRoleViewer)

	in := s.input("Jobs programme")
	in.DonorID = &s.donor.ID
	in.ImpactMetrics = models.ImpactMetrics{"jobs_secured": 12}
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Empty(s.notifier.events)

	in.Status = models.StoryStatusPublished
	_, err = s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Require().Len(s.notifier.events, 1)
	event := s.notifier.events[0]
	s.Len(event.Recipients, 2)
	s.Equal("https://impactusall.test/stories/"+created.Story.ID, event.URL)
	s.Equal(12.0, event.ImpactMetrics["jobs_secured"])

	_, err = s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Len(s.notifier.events, 1)
}

func (s *ContentSuite) TestNotificationFailureDoesNotFailPublish() {
	testutil.CorporateUser(s.T(), s.db, "ceo@acme.com", s.donor.ID, identity.DonorRoleAdmin)
	s.notifier.err = errors.New("ses throttled")

	in := s.input("Resilient")
	in.DonorID = &s.donor.ID
	in.Status = models.StoryStatusPublished
	res, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Equal(models.StoryStatusPublished, res.Story.Status)
	s.Len(s.notifier.events, 1)
}

func (s *ContentSuite) TestOptedOutDonorIsNotNotified() {
	testutil.CorporateUser(s.T(), s.db, "ceo@acme.com", s.donor.ID, identity.DonorRoleAdmin)
	s.donor.NotificationPrefs = map[string]bool{models.PrefStoryPublished: false}
	s.Require().NoError(s.db.Save(s.donor).Error)

	in := s.input("Quiet")
	in.DonorID = &s.donor.ID
	in.Status = models.StoryStatusPublished
	_, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Empty(s.notifier.events)
}

func (s *ContentSuite) TestVideoFailureIsAWarning() {
	created, err := s.svc.CreateStory(s.ctx, s.admin, s.input("Video"))
	s.Require().NoError(err)

	failing := NewService(s.db, failingBlobs{s.blobs}, nil, Options{Now: func() time.Time { return s.clock }})
	in := s.input("Video (edited)")
	in.Video = &Upload{Data: []byte("mp4"), ContentType: "video/mp4"}
	res, err := failing.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.Equal("Video (edited)", res.Story.Title)
	s.Require().Len(res.Warnings, 1)
	s.Equal(apierrors.ErrDependency, res.Warnings[0].Code)
	s.Empty(res.Story.VideoKey)
}

func (s *ContentSuite) TestVideoReplacement() {
	in := s.input("Video")
	in.Video = &Upload{Data: []byte("v1"), ContentType: "video/mp4"}
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	s.Require().Empty(created.Warnings)
	first := created.Story.VideoKey
	s.NotEmpty(first)

	in.Video = &Upload{Data: []byte("v2"), ContentType: "video/mp4"}
	updated, err := s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)
	s.NotEqual(first, updated.Story.VideoKey)
	_, stillThere := s.blobs.Get(first)
	s.False(stillThere)
}

func (s *ContentSuite) TestPublicStory() {
	in := s.input("Public")
	in.ThankYouMessages = []ThankYouInput{
		{AuthorName: "Hidden", Message: "not featured"},
		{AuthorName: "Shown", Message: "featured", Featured: true},
	}
	in.Milestones = []MilestoneInput{{Title: "First"}, {Title: "Second"}}
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)

	_, err = s.svc.GetPublicStory(s.ctx, created.Story.ID)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	in.Status = models.StoryStatusPublished
	in.ThankYouMessages = nil
	in.Milestones = nil
	_, err = s.svc.UpdateStory(s.ctx, s.admin, created.Story.ID, in)
	s.Require().NoError(err)

	_, err = s.svc.UploadMedia(s.ctx, s.admin, created.Story.ID, []byte("jpg"), "image/jpeg", models.MediaImage, "")
	s.Require().NoError(err)

	public, err := s.svc.GetPublicStory(s.ctx, created.Story.ID)
	s.Require().NoError(err)
	s.Require().Len(public.ThankYouMessages, 1)
	s.Equal("Shown", public.ThankYouMessages[0].AuthorName)
	s.Equal("First", public.Milestones[0].Title)
	s.Equal("hope trust", public.Charity.Name)
	s.Require().Len(public.Media, 1)
	s.Contains(public.Media[0].URL, "http://blobs.local/stories/")
}

func (s *ContentSuite) TestUploadMediaValidation() {
	created, err := s.svc.CreateStory(s.ctx, s.admin, s.input("Media"))
	s.Require().NoError(err)

	_, err = s.svc.UploadMedia(s.ctx, s.admin, created.Story.ID, []byte("x"), "text/plain", models.MediaImage, "")
	s.True(apierrors.Is(err, apierrors.ErrValidation))
	_, err = s.svc.UploadMedia(s.ctx, s.admin, created.Story.ID, nil, "image/png", models.MediaImage, "")
	s.True(apierrors.Is(err, apierrors.ErrValidation))
	_, err = s.svc.UploadMedia(s.ctx, s.admin, created.Story.ID, []byte("x"), "image/png", "GIF", "")
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	failing := NewService(s.db, failingBlobs{s.blobs}, nil, Options{})
	_, err = failing.UploadMedia(s.ctx, s.admin, created.Story.ID, []byte("x"), "image/png", models.MediaImage, "")
	s.True(apierrors.Is(err, apierrors.ErrDependency))
}

func (s *ContentSuite) TestDonorHubAndListings() {
	in := s.input("Hub story")
	in.DonorID = &s.donor.ID
	in.Status = models.StoryStatusPublished
	created, err := s.svc.CreateStory(s.ctx, s.admin, in)
	s.Require().NoError(err)
	_, err = s.svc.CreateStory(s.ctx, s.admin, StoryInput{Title: "Draft", Body: "b", DonorID: &s.donor.ID})
	s.Require().NoError(err)

	ip := "1.2.3.4"
	s.Require().NoError(s.db.Create(&models.Like{StoryID: created.Story.ID, IPAddress: &ip, ActorKey: "ip:" + ip}).Error)

	hub, err := s.svc.GetDonorHub(s.ctx, "acme")
	s.Require().NoError(err)
	s.Require().Len(hub.Stories, 1)
	s.Equal(int64(1), hub.Stories[0].Likes)
	s.Equal("hope trust", hub.Stories[0].CharityName)

	_, err = s.svc.GetDonorHub(s.ctx, "nobody")
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	all, err := s.svc.ListCharityStories(s.ctx, s.admin, "", "")
	s.Require().NoError(err)
	s.Len(all, 2)
	drafts, err := s.svc.ListCharityStories(s.ctx, s.admin, "", "draft")
	s.Require().NoError(err)
	s.Len(drafts, 1)

	member := testutil.CorporateUser(s.T(), s.db, "cfo@acme.com", s.donor.ID, identity.DonorRoleViewer)
	donorStories, err := s.svc.ListDonorStories(s.ctx, member, "")
	s.Require().NoError(err)
	s.Len(donorStories, 1)
	story, err := s.svc.GetStory(s.ctx, member, created.Story.ID)
	s.Require().NoError(err)
	s.Equal(created.Story.ID, story.ID)
}

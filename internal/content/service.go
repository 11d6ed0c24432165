// Package content owns the story lifecycle: authoring, publishing, child
// rows, media and deletion.
package content

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/activity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/engagement"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/storage"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options tunes the content service
type Options struct {
	PublicSiteURL string
	URLExpiry     time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// Service is the content lifecycle
type Service struct {
	db       *gorm.DB
	blobs    storage.BlobStore
	notifier Notifier
	opts     Options
}

// NewService creates a content service. notifier may be nil.
func NewService(db *gorm.DB, blobs storage.BlobStore, notifier Notifier, opts Options) *Service {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = time.Hour
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	opts.PublicSiteURL = strings.TrimSuffix(opts.PublicSiteURL, "/")
	return &Service{db: db, blobs: blobs, notifier: notifier, opts: opts}
}

// CreateStory validates and stores a new story with its child rows
func (s *Service) CreateStory(ctx context.Context, p *identity.Principal, in StoryInput) (*UpdateResult, error) {
	if err := requireAuthor(p); err != nil {
		return nil, err
	}
	charityID := p.CharityID
	if p.IsPlatformAdmin() {
		charityID = strings.TrimSpace(in.CharityID)
		if charityID == "" {
			return nil, apierrors.ValidationError("charity_id", "charity is required")
		}
	} else if in.CharityID != "" && in.CharityID != p.CharityID {
		return nil, apierrors.NotFound("charity")
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	var story *models.Story
	now := s.opts.Now()
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		story, err = s.createOnce(ctx, p, charityID, &in, now)
		if !database.IsUniqueViolation(err) {
			break
		}
		now = now.Add(time.Millisecond)
	}
	if err != nil {
		return nil, err
	}

	logger.L().Info("Story created",
		logger.WithStoryID(story.ID),
		logger.WithCharityID(charityID),
		zap.String("status", story.Status),
	)

	result := &UpdateResult{}
	if in.Video != nil {
		if warning := s.replaceVideo(ctx, story, in.Video); warning != nil {
			result.Warnings = append(result.Warnings, warning)
		}
	}
	if story.IsPublished() {
		metrics.Get().StoriesPublishedTotal.Inc()
		s.notifyPublished(ctx, story.ID)
	}

	result.Story, err = s.load(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) createOnce(ctx context.Context, p *identity.Principal, charityID string, in *StoryInput, now time.Time) (*models.Story, error) {
	story := &models.Story{
		CharityID:        charityID,
		Title:            in.Title,
		Excerpt:          in.Excerpt,
		Body:             in.Body,
		FeaturedImageKey: in.FeaturedImageKey,
		ImpactMetrics:    in.ImpactMetrics,
		DonationAmount:   in.DonationAmount,
		Status:           in.Status,
		CreatedByID:      p.UserID,
		UpdatedByID:      p.UserID,
	}
	if story.ImpactMetrics == nil {
		story.ImpactMetrics = models.ImpactMetrics{}
	}
	if story.Status == "" {
		story.Status = models.StoryStatusDraft
	}
	if story.Status == models.StoryStatusPublished {
		story.PublishedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Charity{}, charityID, "charity"); err != nil {
			return err
		}
		if in.DonorID != nil && *in.DonorID != "" {
			if err := requireRow(tx, &models.Donor{}, *in.DonorID, "donor"); err != nil {
				return err
			}
			donorID := *in.DonorID
			story.DonorID = &donorID
		}

		slug, err := uniqueSlug(ctx, tx, charityID, Slugify(in.Title), "", now)
		if err != nil {
			return err
		}
		story.Slug = slug

		if err := tx.Omit(clause.Associations).Create(story).Error; err != nil {
			return fmt.Errorf("creating story: %w", err)
		}
		if err := s.replaceChildren(tx, story.ID, in, nil); err != nil {
			return err
		}

		if err := activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionStoryCreated,
			EntityType: activity.EntityStory,
			EntityID:   story.ID,
			Details:    map[string]interface{}{"title": story.Title, "slug": story.Slug, "status": story.Status},
		}); err != nil {
			return err
		}
		if story.IsPublished() {
			return activity.Record(tx, activity.Entry{
				ActorID:    p.UserID,
				Action:     activity.ActionStoryPublished,
				EntityType: activity.EntityStory,
				EntityID:   story.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

// UpdateStory applies a full edit. The publish timestamp is set only on the
// first transition into PUBLISHED.
func (s *Service) UpdateStory(ctx context.Context, p *identity.Principal, storyID string, in StoryInput) (*UpdateResult, error) {
	if err := requireAuthor(p); err != nil {
		return nil, err
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	var story models.Story
	var firstPublish bool
	var removedKeys []string
	now := s.opts.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", storyID).Take(&story).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("story")
			}
			return fmt.Errorf("loading story: %w", err)
		}
		if !p.CanManageCharity(story.CharityID) {
			return apierrors.NotFound("story")
		}

		if in.Title != story.Title {
			slug, err := uniqueSlug(ctx, tx, story.CharityID, Slugify(in.Title), story.ID, now)
			if err != nil {
				return err
			}
			story.Slug = slug
		}
		story.Title = in.Title
		story.Excerpt = in.Excerpt
		story.Body = in.Body
		story.FeaturedImageKey = in.FeaturedImageKey
		story.DonationAmount = in.DonationAmount
		story.UpdatedByID = p.UserID
		if in.ImpactMetrics != nil {
			story.ImpactMetrics = in.ImpactMetrics
		}
		if in.DonorID != nil {
			if *in.DonorID == "" {
				story.DonorID = nil
			} else {
				if err := requireRow(tx, &models.Donor{}, *in.DonorID, "donor"); err != nil {
					return err
				}
				donorID := *in.DonorID
				story.DonorID = &donorID
			}
		}
		if in.Status != "" {
			story.Status = in.Status
			if in.Status == models.StoryStatusPublished && story.PublishedAt == nil {
				story.PublishedAt = &now
				firstPublish = true
			}
		}

		if err := tx.Omit(clause.Associations).Save(&story).Error; err != nil {
			return fmt.Errorf("updating story: %w", err)
		}
		if err := s.replaceChildren(tx, story.ID, &in, &removedKeys); err != nil {
			return err
		}

		if err := activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionStoryUpdated,
			EntityType: activity.EntityStory,
			EntityID:   story.ID,
			Details:    map[string]interface{}{"status": story.Status, "slug": story.Slug},
		}); err != nil {
			return err
		}
		if firstPublish {
			return activity.Record(tx, activity.Entry{
				ActorID:    p.UserID,
				Action:     activity.ActionStoryPublished,
				EntityType: activity.EntityStory,
				EntityID:   story.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ReleaseBlobs(ctx, removedKeys)

	result := &UpdateResult{}
	if in.Video != nil {
		if warning := s.replaceVideo(ctx, &story, in.Video); warning != nil {
			result.Warnings = append(result.Warnings, warning)
		}
	}
	if firstPublish {
		metrics.Get().StoriesPublishedTotal.Inc()
		s.notifyPublished(ctx, story.ID)
	}

	result.Story, err = s.load(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteStory removes a story and every dependent row in one transaction,
// then releases its blobs.
func (s *Service) DeleteStory(ctx context.Context, p *identity.Principal, storyID string) error {
	if err := requireAuthor(p); err != nil {
		return err
	}

	var keys []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story models.Story
		if err := tx.Where("id = ?", storyID).Take(&story).Error; err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("story")
			}
			return fmt.Errorf("loading story: %w", err)
		}
		if !p.CanManageCharity(story.CharityID) {
			return apierrors.NotFound("story")
		}

		var err error
		keys, err = CascadeDelete(tx, &story)
		if err != nil {
			return err
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionStoryDeleted,
			EntityType: activity.EntityStory,
			EntityID:   story.ID,
			Details:    map[string]interface{}{"title": story.Title, "charity_id": story.CharityID},
		})
	})
	if err != nil {
		return err
	}

	s.ReleaseBlobs(ctx, keys)
	logger.L().Info("Story deleted", logger.WithStoryID(storyID), logger.WithUserID(p.UserID))
	return nil
}

// CascadeDelete deletes story and all rows pointing at it using tx. It
// returns the blob keys the caller should release after commit.
func CascadeDelete(tx *gorm.DB, story *models.Story) ([]string, error) {
	var keys []string
	if err := tx.Model(&models.StoryMedia{}).Where("story_id = ?", story.ID).Pluck("storage_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	for _, k := range []string{story.FeaturedImageKey, story.VideoKey} {
		if k != "" && !storage.IsURL(k) {
			keys = append(keys, k)
		}
	}

	dependents := []interface{}{
		&models.Like{},
		&models.Reaction{},
		&models.Comment{},
		&models.Analytics{},
		&models.Milestone{},
		&models.ThankYouMessage{},
		&models.StoryMedia{},
	}
	for _, model := range dependents {
		if err := tx.Where("story_id = ?", story.ID).Delete(model).Error; err != nil {
			return nil, fmt.Errorf("deleting %T: %w", model, err)
		}
	}
	if err := tx.Where("id = ?", story.ID).Delete(&models.Story{}).Error; err != nil {
		return nil, fmt.Errorf("deleting story: %w", err)
	}
	return keys, nil
}

// ReleaseBlobs deletes blobs best-effort; failures are only logged
func (s *Service) ReleaseBlobs(ctx context.Context, keys []string) {
	if s.blobs == nil {
		return
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			logger.L().Warn("Failed to delete blob", zap.String("key", key), zap.Error(err))
		}
	}
}

// GetStory returns a story with all child rows for dashboards. Charity
// admins see their own charity's stories, corporate users their donor's.
func (s *Service) GetStory(ctx context.Context, p *identity.Principal, storyID string) (*models.Story, error) {
	if p == nil {
		return nil, apierrors.Unauthorized("login required")
	}
	story, err := s.load(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if p.CanManageCharity(story.CharityID) {
		return story, nil
	}
	if story.DonorID != nil && p.CanViewDonor(*story.DonorID) {
		return story, nil
	}
	return nil, apierrors.NotFound("story")
}

// GetPublicStory returns a PUBLISHED story with ordered milestones, featured
// thank-you messages and resolved media URLs.
func (s *Service) GetPublicStory(ctx context.Context, storyID string) (*PublicStory, error) {
	var story models.Story
	err := s.db.WithContext(ctx).
		Preload("Charity").
		Preload("Donor").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("ThankYouMessages", func(db *gorm.DB) *gorm.DB {
			return db.Where("featured = ?", true).Order("display_order ASC")
		}).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("id = ? AND status = ?", storyID, models.StoryStatusPublished).
		Take(&story).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("story")
	}
	if err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}

	out := &PublicStory{
		ID:               story.ID,
		Title:            story.Title,
		Slug:             story.Slug,
		Excerpt:          story.Excerpt,
		Body:             story.Body,
		FeaturedImageURL: s.resolve(ctx, story.FeaturedImageKey),
		VideoURL:         s.resolve(ctx, story.VideoKey),
		ImpactMetrics:    story.ImpactMetrics,
		DonationAmount:   story.DonationAmount,
		PublishedAt:      story.PublishedAt,
		Milestones:       story.Milestones,
		ThankYouMessages: story.ThankYouMessages,
		Media:            make([]PublicMedia, 0, len(story.Media)),
	}
	if story.Charity != nil {
		out.Charity = s.charityTenant(ctx, story.Charity)
	}
	if story.Donor != nil {
		donor := s.donorTenant(ctx, story.Donor)
		out.Donor = &donor
	}
	for _, m := range story.Media {
		out.Media = append(out.Media, s.publicMedia(ctx, &m))
	}
	return out, nil
}

// ListCharityStories lists a charity's stories, optionally by status.
// An empty charityID means the caller's own charity.
func (s *Service) ListCharityStories(ctx context.Context, p *identity.Principal, charityID, status string) ([]models.Story, error) {
	if err := requireAuthor(p); err != nil {
		return nil, err
	}
	if charityID == "" {
		charityID = p.CharityID
	}
	if !p.CanManageCharity(charityID) {
		return nil, apierrors.NotFound("charity")
	}

	q := s.db.WithContext(ctx).Where("charity_id = ?", charityID)
	if status != "" {
		status = strings.ToUpper(status)
		if !models.IsValidStoryStatus(status) {
			return nil, apierrors.ValidationError("status", "unknown story status")
		}
		q = q.Where("status = ?", status)
	}

	var stories []models.Story
	if err := q.Order("updated_at DESC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	return stories, nil
}

// ListDonorStories lists the published stories tagged to a donor, newest
// publish first, for dashboards and the report picker.
func (s *Service) ListDonorStories(ctx context.Context, p *identity.Principal, donorID string) ([]models.Story, error) {
	if p == nil {
		return nil, apierrors.Unauthorized("login required")
	}
	if donorID == "" {
		donorID = p.DonorID
	}
	if !p.CanViewDonor(donorID) {
		return nil, apierrors.NotFound("donor")
	}
	return s.publishedForDonor(ctx, donorID)
}

func (s *Service) publishedForDonor(ctx context.Context, donorID string) ([]models.Story, error) {
	var stories []models.Story
	err := s.db.WithContext(ctx).
		Preload("Charity").
		Where("donor_id = ? AND status = ?", donorID, models.StoryStatusPublished).
		Order("published_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("listing donor stories: %w", err)
	}
	return stories, nil
}

// GetDonorHub returns the public hub for a donor slug
func (s *Service) GetDonorHub(ctx context.Context, slug string) (*DonorHub, error) {
	var donor models.Donor
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&donor).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("donor")
	}
	if err != nil {
		return nil, fmt.Errorf("loading donor: %w", err)
	}

	stories, err := s.publishedForDonor(ctx, donor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(stories))
	for _, st := range stories {
		ids = append(ids, st.ID)
	}
	totals, err := engagement.CountMany(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	hub := &DonorHub{Donor: s.donorTenant(ctx, &donor), Stories: make([]StorySummary, 0, len(stories))}
	for _, st := range stories {
		summary := StorySummary{
			ID:               st.ID,
			Title:            st.Title,
			Slug:             st.Slug,
			Excerpt:          st.Excerpt,
			FeaturedImageURL: s.resolve(ctx, st.FeaturedImageKey),
			PublishedAt:      st.PublishedAt,
			ImpactMetrics:    st.ImpactMetrics,
			Likes:            totals[st.ID].Likes,
			Reactions:        totals[st.ID].Reactions,
			Comments:         totals[st.ID].Comments,
		}
		if st.Charity != nil {
			summary.CharityName = st.Charity.Name
		}
		hub.Stories = append(hub.Stories, summary)
	}
	return hub, nil
}

// UploadMedia stores a blob and appends a media row to the story
func (s *Service) UploadMedia(ctx context.Context, p *identity.Principal, storyID string, data []byte, contentType, kind, caption string) (*PublicMedia, error) {
	if err := requireAuthor(p); err != nil {
		return nil, err
	}
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if err := validateMedia(kind, contentType, data); err != nil {
		return nil, err
	}

	var story models.Story
	err := s.db.WithContext(ctx).Where("id = ?", storyID).Take(&story).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("story")
	}
	if err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}
	if !p.CanManageCharity(story.CharityID) {
		return nil, apierrors.NotFound("story")
	}
	if s.blobs == nil {
		return nil, apierrors.Dependency("media storage", fmt.Errorf("no blob store configured"))
	}

	key, err := s.blobs.Put(ctx, "stories/"+story.ID, data, contentType)
	if err != nil {
		return nil, apierrors.Dependency("media storage", err)
	}

	media := models.StoryMedia{
		StoryID:     story.ID,
		Kind:        kind,
		StorageKey:  key,
		ContentType: contentType,
		Caption:     strings.TrimSpace(caption),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.StoryMedia{}).Where("story_id = ?", story.ID).
			Select("COALESCE(MAX(display_order), 0)").Scan(&maxOrder).Error; err != nil {
			return fmt.Errorf("reading media order: %w", err)
		}
		media.DisplayOrder = maxOrder + 1
		if err := tx.Create(&media).Error; err != nil {
			return fmt.Errorf("creating media: %w", err)
		}
		return activity.Record(tx, activity.Entry{
			ActorID:    p.UserID,
			Action:     activity.ActionMediaUploaded,
			EntityType: activity.EntityStory,
			EntityID:   story.ID,
			Details:    map[string]interface{}{"media_id": media.ID, "kind": kind},
		})
	})
	if err != nil {
		s.ReleaseBlobs(ctx, []string{key})
		return nil, err
	}

	out := s.publicMedia(ctx, &media)
	return &out, nil
}

// replaceVideo uploads a new video and swaps the story's key. Failures are
// returned as warnings; the story edit itself is already committed.
func (s *Service) replaceVideo(ctx context.Context, story *models.Story, video *Upload) *apierrors.APIError {
	fail := func(err error) *apierrors.APIError {
		metrics.Get().SecondaryStepFailures.WithLabelValues("video_replace").Inc()
		logger.L().Warn("Video replacement failed", logger.WithStoryID(story.ID), zap.Error(err))
		return apierrors.Dependency("video storage", err)
	}
	if s.blobs == nil {
		return fail(fmt.Errorf("no blob store configured"))
	}
	if err := validateMedia(models.MediaVideo, video.ContentType, video.Data); err != nil {
		if apiErr, ok := apierrors.As(err); ok {
			return apiErr
		}
		return fail(err)
	}

	key, err := s.blobs.Put(ctx, "stories/"+story.ID+"/video", video.Data, video.ContentType)
	if err != nil {
		return fail(err)
	}
	err = s.db.WithContext(ctx).Model(&models.Story{}).Where("id = ?", story.ID).Update("video_key", key).Error
	if err != nil {
		s.ReleaseBlobs(ctx, []string{key})
		return fail(err)
	}

	old := story.VideoKey
	story.VideoKey = key
	if old != "" && !storage.IsURL(old) {
		s.ReleaseBlobs(ctx, []string{old})
	}
	return nil
}

// notifyPublished tells the tagged donor's users about a first publish.
// Delivery problems are logged and counted, never returned.
func (s *Service) notifyPublished(ctx context.Context, storyID string) {
	if s.notifier == nil {
		return
	}
	log := logger.L().With(logger.WithStoryID(storyID))

	var story models.Story
	err := s.db.WithContext(ctx).Preload("Charity").Preload("Donor").Where("id = ?", storyID).Take(&story).Error
	if err != nil {
		log.Warn("Skipping publish notification, story not loaded", zap.Error(err))
		return
	}
	if story.Donor == nil || !story.Donor.WantsNotification(models.PrefStoryPublished) {
		return
	}

	var users []models.User
	err = s.db.WithContext(ctx).
		Where("donor_id = ? AND role = ?", story.Donor.ID, string(identity.RoleCorporateUser)).
		Find(&users).Error
	if err != nil {
		log.Warn("Skipping publish notification, recipients not loaded", zap.Error(err))
		return
	}
	if len(users) == 0 {
		return
	}

	event := StoryPublishedEvent{
		DonorName:     story.Donor.Name,
		StoryID:       story.ID,
		StoryTitle:    story.Title,
		Excerpt:       story.Excerpt,
		ImpactMetrics: story.ImpactMetrics,
		URL:           fmt.Sprintf("%s/stories/%s", s.opts.PublicSiteURL, story.ID),
	}
	if story.Charity != nil {
		event.CharityName = story.Charity.Name
	}
	if story.PublishedAt != nil {
		event.PublishedAt = *story.PublishedAt
	}
	for _, u := range users {
		event.Recipients = append(event.Recipients, Recipient{Email: u.Email, Name: u.Name})
	}

	ctx, span := telemetry.TraceStoryPublished(ctx, story.ID, len(event.Recipients))
	defer span.End()
	notifyCtx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyStoryPublished(notifyCtx, event); err != nil {
		telemetry.RecordExternalCallError(span, err)
		metrics.Get().NotificationFailuresTotal.WithLabelValues("story_published").Inc()
		log.Warn("Story published notification failed", zap.Error(err), zap.Int("recipients", len(event.Recipients)))
		return
	}
	log.Info("Story published notification sent", zap.Int("recipients", len(event.Recipients)))
}

func (s *Service) load(ctx context.Context, storyID string) (*models.Story, error) {
	var story models.Story
	err := s.db.WithContext(ctx).
		Preload("Charity").
		Preload("Donor").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("ThankYouMessages", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") }).
		Where("id = ?", storyID).
		Take(&story).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("story")
	}
	if err != nil {
		return nil, fmt.Errorf("loading story: %w", err)
	}
	return &story, nil
}

func (s *Service) resolve(ctx context.Context, key string) string {
	if key == "" || s.blobs == nil {
		if storage.IsURL(key) {
			return key
		}
		return ""
	}
	url, err := s.blobs.ResolveURL(ctx, key, s.opts.URLExpiry)
	if err != nil {
		logger.L().Warn("Failed to resolve blob URL", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

// ResolveURL exposes key resolution to report and hub consumers
func (s *Service) ResolveURL(ctx context.Context, key string) string {
	return s.resolve(ctx, key)
}

func (s *Service) publicMedia(ctx context.Context, m *models.StoryMedia) PublicMedia {
	return PublicMedia{
		ID:           m.ID,
		Kind:         m.Kind,
		URL:          s.resolve(ctx, m.StorageKey),
		Caption:      m.Caption,
		DisplayOrder: m.DisplayOrder,
	}
}

func (s *Service) charityTenant(ctx context.Context, c *models.Charity) PublicTenant {
	return PublicTenant{ID: c.ID, Name: c.Name, Slug: c.Slug, LogoURL: s.resolve(ctx, c.LogoKey), Website: c.Website}
}

func (s *Service) donorTenant(ctx context.Context, d *models.Donor) PublicTenant {
	return PublicTenant{
		ID:             d.ID,
		Name:           d.Name,
		Slug:           d.Slug,
		LogoURL:        s.resolve(ctx, d.LogoKey),
		Website:        d.Website,
		PrimaryColor:   d.PrimaryColor,
		SecondaryColor: d.SecondaryColor,
	}
}

func requireAuthor(p *identity.Principal) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if p.Role != identity.RoleCharityAdmin && !p.IsPlatformAdmin() {
		return apierrors.Forbidden("only charity admins can manage stories")
	}
	return nil
}

func requireRow(tx *gorm.DB, model interface{}, id, resource string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("loading %s: %w", resource, err)
	}
	if n == 0 {
		return apierrors.NotFound(resource)
	}
	return nil
}

// MaxTitleLength bounds story titles in runes.
const MaxTitleLength = 200

func validateInput(in *StoryInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))

	if in.Title == "" {
		return apierrors.ValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return apierrors.ValidationError("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if in.Body == "" {
		return apierrors.ValidationError("body", "body is required")
	}
	if in.Status != "" && !models.IsValidStoryStatus(in.Status) {
		return apierrors.ValidationError("status", "status must be DRAFT, PUBLISHED or ARCHIVED")
	}
	if math.IsNaN(in.DonationAmount) || math.IsInf(in.DonationAmount, 0) || in.DonationAmount < 0 {
		return apierrors.ValidationError("donation_amount", "donation amount must be a non-negative number")
	}
	if err := ValidateMetrics(in.ImpactMetrics); err != nil {
		return err
	}
	for i, m := range in.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			return apierrors.ValidationError(fmt.Sprintf("milestones[%d].title", i), "milestone title is required")
		}
	}
	for i, t := range in.ThankYouMessages {
		if strings.TrimSpace(t.AuthorName) == "" || strings.TrimSpace(t.Message) == "" {
			return apierrors.ValidationError(fmt.Sprintf("thank_you_messages[%d]", i), "author name and message are required")
		}
	}
	return nil
}

// ValidateMetrics accepts only named, finite, non-negative values
func ValidateMetrics(m models.ImpactMetrics) error {
	for k, v := range m {
		if strings.TrimSpace(k) == "" {
			return apierrors.ValidationError("impact_metrics", "metric names cannot be empty")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return apierrors.ValidationError("impact_metrics."+k, "metric values must be non-negative numbers")
		}
	}
	return nil
}

func validateMedia(kind, contentType string, data []byte) error {
	if len(data) == 0 {
		return apierrors.ValidationError("file", "file is empty")
	}
	ct := strings.ToLower(contentType)
	switch kind {
	case models.MediaImage:
		if !strings.HasPrefix(ct, "image/") {
			return apierrors.ValidationError("file", "images must be an image/* type")
		}
	case models.MediaVideo:
		if !strings.HasPrefix(ct, "video/") {
			return apierrors.ValidationError("file", "videos must be a video/* type")
		}
	case models.MediaDocument:
		if ct != "application/pdf" {
			return apierrors.ValidationError("file", "documents must be PDF")
		}
	default:
		return apierrors.ValidationError("kind", "kind must be IMAGE, VIDEO or DOCUMENT")
	}
	return nil
}

package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
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
	"gorm.io/gorm"
)

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

type fakeFetcher struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*ImageData, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &ImageData{Bytes: tinyPNG(), Type: "PNG"}, nil
}

type GeneratorSuite struct {
	suite.Suite
	db      *gorm.DB
	blobs   *storage.MemoryStore
	fetcher *fakeFetcher
	gen     *Generator
	ctx     context.Context

	donor   *models.Donor
	recent  *models.Story
	old     *models.Story
	foreign *models.Story
	member  *identity.Principal
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.db = database.NewTestDB(s.T())
	s.blobs = storage.NewMemoryStore("http://cdn.test")
	s.fetcher = &fakeFetcher{}
	s.gen = NewGenerator(s.db, s.blobs, s.fetcher, Options{Now: func() time.Time { return fixedTime }})
	s.ctx = context.Background()

	logoKey, err := s.blobs.Put(s.ctx, "logos", tinyPNG(), "image/png")
	s.Require().NoError(err)

	charity := testutil.Charity(s.T(), s.db, "hope")
	s.Require().NoError(s.db.Model(charity).Update("logo_key", "https://cdn.test/hope.png").Error)
	s.donor = testutil.Donor(s.T(), s.db, "acme")
	s.Require().NoError(s.db.Model(s.donor).Update("logo_key", logoKey).Error)
	other := testutil.Donor(s.T(), s.db, "globex")

	s.recent = testutil.Story(s.T(), s.db, charity.ID, "wells",
		testutil.WithDonor(s.donor.ID),
		testutil.Published(fixedTime.AddDate(0, -1, 0)),
		testutil.WithMetrics(models.ImpactMetrics{"families_helped": 10}),
		testutil.WithDonation(5000),
	)
	s.old = testutil.Story(s.T(), s.db, charity.ID, "school",
		testutil.WithDonor(s.donor.ID),
		testutil.Published(fixedTime.AddDate(-2, 0, 0)),
		testutil.WithMetrics(models.ImpactMetrics{"families_helped": 5, "jobs_secured": 2}),
		testutil.WithDonation(2500),
	)
	s.foreign = testutil.Story(s.T(), s.db, charity.ID, "other",
		testutil.WithDonor(other.ID),
		testutil.Published(fixedTime.AddDate(0, -1, 0)),
		testutil.WithDonation(99999),
	)
	s.Require().NoError(s.db.Create(&models.Like{StoryID: s.recent.ID, ActorKey: "ip:1.2.3.4"}).Error)
	s.Require().NoError(s.db.Create(&models.Comment{StoryID: s.recent.ID, AuthorName: "A", Content: "x", Status: models.CommentStatusApproved}).Error)
	s.Require().NoError(s.db.Create(&models.Comment{StoryID: s.recent.ID, AuthorName: "B", Content: "y", Status: models.CommentStatusPending}).Error)

	s.member = testutil.CorporateUser(s.T(), s.db, "viewer@acme.com", s.donor.ID, identity.DonorRoleViewer)
}

func (s *GeneratorSuite) TestRejectsEmptySelection() {
	doc, err := s.gen.Generate(s.ctx, s.member, Request{DonorID: s.donor.ID, Template: "executive"})
	s.Nil(doc)
	s.True(apierrors.Is(err, apierrors.ErrValidation))

	doc, err = s.gen.Generate(s.ctx, s.member, Request{DonorID: s.donor.ID, StoryIDs: []string{" ", ""}})
	s.Nil(doc)
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *GeneratorSuite) TestRejectsSelectionEmptiedByWindow() {
	doc, err := s.gen.Generate(s.ctx, s.member, Request{
		DonorID:  s.donor.ID,
		Window:   string(WindowLastYear),
		StoryIDs: []string{s.old.ID, s.foreign.ID},
	})
	s.Nil(doc)
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *GeneratorSuite) TestGeneratesPDF() {
	doc, err := s.gen.Generate(s.ctx, s.member, Request{
		DonorID:  s.donor.ID,
		Template: "impact-showcase",
		StoryIDs: []string{s.recent.ID, s.old.ID, s.foreign.ID, s.recent.ID},
		Text:     TextFields{Title: "Our 2026 impact"},
	})
	s.Require().NoError(err)

	s.Equal("acme-impact-report-2026-03-10.pdf", doc.Filename)
	s.Equal("application/pdf", doc.ContentType)
	s.True(bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	s.Equal(4, doc.Pages)

	s.Equal(2, doc.Figures.StoryCount)
	s.Equal(7500.0, doc.Figures.TotalInvestment)
	s.Equal(int64(2), doc.Figures.TotalEngagement)
	s.Equal(models.ImpactMetrics{"families_helped": 15, "jobs_secured": 2}, doc.Figures.ImpactMetrics)

	s.Contains(s.fetcher.urls, "https://cdn.test/hope.png")
	s.Len(s.fetcher.urls, 3)
}

func (s *GeneratorSuite) TestWindowFiltersByPublishDate() {
	doc, err := s.gen.Generate(s.ctx, s.member, Request{
		DonorID:  s.donor.ID,
		Window:   string(WindowLast6Months),
		StoryIDs: []string{s.recent.ID, s.old.ID},
	})
	s.Require().NoError(err)
	s.Equal(1, doc.Figures.StoryCount)
	s.Equal(5000.0, doc.Figures.TotalInvestment)
}

func (s *GeneratorSuite) TestImageFailuresAreOmitted() {
	s.fetcher.err = errors.New("connection refused")
	doc, err := s.gen.Generate(s.ctx, s.member, Request{DonorID: s.donor.ID, StoryIDs: []string{s.recent.ID}})
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(doc.Data, []byte("%PDF-")))

	noImages := NewGenerator(s.db, nil, nil, Options{Now: func() time.Time { return fixedTime }})
	doc, err = noImages.Generate(s.ctx, s.member, Request{DonorID: s.donor.ID, StoryIDs: []string{s.recent.ID}})
	s.Require().NoError(err)
	s.NotEmpty(doc.Data)
}

func (s *GeneratorSuite) TestAccessRules() {
	req := Request{DonorID: s.donor.ID, StoryIDs: []string{s.recent.ID}}

	_, err := s.gen.Generate(s.ctx, nil, req)
	s.True(apierrors.Is(err, apierrors.ErrUnauthorized))

	admin := testutil.CharityAdmin(s.T(), s.db, "admin@hope.org", s.recent.CharityID)
	_, err = s.gen.Generate(s.ctx, admin, req)
	s.True(apierrors.Is(err, apierrors.ErrForbidden))

	outsider := testutil.CorporateUser(s.T(), s.db, "x@globex.com", *s.foreign.DonorID, identity.DonorRoleAdmin)
	_, err = s.gen.Generate(s.ctx, outsider, req)
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	_, err = s.gen.Generate(s.ctx, s.member, Request{DonorID: s.donor.ID, Template: "glossy", StoryIDs: req.StoryIDs})
	s.True(apierrors.Is(err, apierrors.ErrValidation))
}

func (s *GeneratorSuite) TestFilename() {
	s.Equal("donor-impact-report-2026-03-10.pdf", Filename("", fixedTime))
}

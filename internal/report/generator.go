// Package report builds donor impact reports: it snapshots the selected
// stories, derives figures, computes page layout and renders a PDF.
package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

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
)

// MaxImageBytes bounds a fetched logo
const MaxImageBytes = 5 << 20

// ImageFetcher downloads an image from a resolved URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*ImageData, error)
}

// HTTPImageFetcher fetches images over a traced HTTP client
type HTTPImageFetcher struct {
	client *http.Client
}

// NewHTTPImageFetcher creates a fetcher with a short timeout
func NewHTTPImageFetcher() *HTTPImageFetcher {
	return &HTTPImageFetcher{client: telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
		ServiceName: "report-images",
		Timeout:     10 * time.Second,
	})}
}

// Fetch downloads url and sniffs its type
func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) (*ImageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageBytes)
	}
	kind := imageType(http.DetectContentType(body))
	if kind == "" {
		return nil, fmt.Errorf("unsupported image type")
	}
	return &ImageData{Bytes: body, Type: kind}, nil
}

func imageType(contentType string) string {
	switch contentType {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

// Document is a rendered report
type Document struct {
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Data        []byte  `json:"-"`
	Pages       int     `json:"pages"`
	Figures     Figures `json:"figures"`
}

// Options configures a Generator
type Options struct {
	Heuristics Heuristics
	URLExpiry  time.Duration
	Now        func() time.Time
}

// Generator produces donor reports
type Generator struct {
	db      *gorm.DB
	blobs   storage.BlobStore
	fetcher ImageFetcher
	opts    Options
}

// NewGenerator creates a generator. blobs and fetcher may be nil, in which
// case reports carry no logos.
func NewGenerator(db *gorm.DB, blobs storage.BlobStore, fetcher ImageFetcher, opts Options) *Generator {
	if opts.Heuristics == (Heuristics{}) {
		opts.Heuristics = DefaultHeuristics
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{db: db, blobs: blobs, fetcher: fetcher, opts: opts}
}

// Generate renders the requested report. Zero selected stories, before or
// after window filtering, is a validation error and produces no document.
func (g *Generator) Generate(ctx context.Context, p *identity.Principal, req Request) (*Document, error) {
	if err := authorize(p, req.DonorID); err != nil {
		return nil, err
	}
	tmpl, err := ParseTemplate(req.Template)
	if err != nil {
		return nil, err
	}
	window, err := ParseWindow(req.Window)
	if err != nil {
		return nil, err
	}
	ids := dedupe(req.StoryIDs)
	if len(ids) == 0 {
		return nil, apierrors.ValidationError("story_ids", "select at least one story for the report")
	}

	started := time.Now()
	doc, err := g.generate(ctx, req.DonorID, tmpl, window, ids, req.Text)
	result := "success"
	if err != nil {
		result = "error"
		if apierrors.Is(err, apierrors.ErrValidation) {
			result = "rejected"
		}
	}
	m := metrics.Get()
	m.ReportsTotal.WithLabelValues(string(tmpl), result).Inc()
	if err != nil {
		return nil, err
	}
	m.ReportGenerationDuration.WithLabelValues(string(tmpl)).Observe(time.Since(started).Seconds())
	m.ReportPages.Observe(float64(doc.Pages))

	logger.L().Info("Report generated",
		logger.WithDonorID(req.DonorID),
		logger.WithUserID(p.UserID),
		zap.String("template", string(tmpl)),
		zap.Int("stories", doc.Figures.StoryCount),
		zap.Int("pages", doc.Pages),
		logger.WithDuration(time.Since(started)),
	)
	return doc, nil
}

func (g *Generator) generate(ctx context.Context, donorID string, tmpl Template, window Window, ids []string, text TextFields) (*Document, error) {
	var donor models.Donor
	err := g.db.WithContext(ctx).Where("id = ?", donorID).Take(&donor).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("donor")
	}
	if err != nil {
		return nil, fmt.Errorf("loading donor: %w", err)
	}

	now := g.opts.Now().UTC()
	snapshots, err := g.snapshot(ctx, donor.ID, ids, window, now)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, apierrors.ValidationError("story_ids", "none of the selected stories are published in the chosen window")
	}

	ctx, span := telemetry.TraceReportGeneration(ctx, donor.ID, string(tmpl), len(snapshots))
	defer span.End()

	figures := ComputeFigures(snapshots, g.opts.Heuristics)
	resolved := resolveText(tmpl, text, donor.Name)
	canvas := NewPDFCanvas(resolved.Title)

	content := Content{
		DonorName: donor.Name,
		Theme: Theme{
			Primary:   ParseHexColor(donor.PrimaryColor, Color{30, 58, 95}),
			Secondary: ParseHexColor(donor.SecondaryColor, Color{244, 162, 89}),
			Currency:  donor.Currency,
		},
		Text:         resolved,
		WindowLabel:  window.Label(),
		GeneratedAt:  now,
		Figures:      figures,
		Stories:      snapshots,
		CharityLogos: map[string]string{},
	}
	content.DonorLogo = g.embed(ctx, canvas, "donor-logo", donor.LogoKey)
	for i, s := range snapshots {
		if i >= SpotlightLimit {
			break
		}
		content.CharityLogos[s.ID] = g.embed(ctx, canvas, "charity-logo-"+s.ID, s.CharityLogoURL)
	}

	pages := Compose(canvas, content)
	data, err := canvas.Render(pages)
	if err != nil {
		telemetry.RecordExternalCallError(span, err)
		return nil, err
	}

	return &Document{
		Filename:    Filename(donor.Slug, now),
		ContentType: "application/pdf",
		Data:        data,
		Pages:       canvas.PageCount(),
		Figures:     figures,
	}, nil
}

// snapshot loads the selected published stories in request order along
// with their engagement totals.
func (g *Generator) snapshot(ctx context.Context, donorID string, ids []string, window Window, now time.Time) ([]StorySnapshot, error) {
	q := g.db.WithContext(ctx).
		Preload("Charity").
		Where("id IN ?", ids).
		Where("donor_id = ? AND status = ?", donorID, models.StoryStatusPublished)
	if since, ok := window.Since(now); ok {
		q = q.Where("published_at >= ?", since)
	}
	var stories []models.Story
	if err := q.Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("loading report stories: %w", err)
	}

	found := make([]string, 0, len(stories))
	byID := make(map[string]*models.Story, len(stories))
	for i := range stories {
		byID[stories[i].ID] = &stories[i]
		found = append(found, stories[i].ID)
	}
	totals, err := engagement.CountMany(ctx, g.db, found)
	if err != nil {
		return nil, err
	}

	out := make([]StorySnapshot, 0, len(stories))
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			continue
		}
		snap := StorySnapshot{
			ID:             st.ID,
			Title:          st.Title,
			Excerpt:        st.Excerpt,
			DonationAmount: st.DonationAmount,
			ImpactMetrics:  st.ImpactMetrics,
			Likes:          totals[id].Likes,
			Comments:       totals[id].Comments,
			Reactions:      totals[id].Reactions,
		}
		if st.PublishedAt != nil {
			snap.PublishedAt = *st.PublishedAt
		}
		if st.Charity != nil {
			snap.CharityName = st.Charity.Name
			snap.CharityLogoURL = st.Charity.LogoKey
		}
		out = append(out, snap)
	}
	return out, nil
}

// embed resolves and fetches an image and registers it on the canvas.
// Any failure omits the image and returns "".
func (g *Generator) embed(ctx context.Context, canvas *PDFCanvas, name, keyOrURL string) string {
	if keyOrURL == "" || g.fetcher == nil {
		return ""
	}
	url := keyOrURL
	if g.blobs != nil {
		resolved, err := g.blobs.ResolveURL(ctx, keyOrURL, g.opts.URLExpiry)
		if err != nil {
			logger.L().Warn("Report image not resolved", zap.String("image", name), zap.Error(err))
			return ""
		}
		url = resolved
	} else if !storage.IsURL(keyOrURL) {
		return ""
	}

	img, err := g.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.L().Warn("Report image not fetched", zap.String("image", name), zap.Error(err))
		return ""
	}
	if err := canvas.RegisterImage(name, *img); err != nil {
		logger.L().Warn("Report image not usable", zap.String("image", name), zap.Error(err))
		return ""
	}
	return name
}

// Filename is <donor-slug>-impact-report-<YYYY-MM-DD>.pdf
func Filename(donorSlug string, at time.Time) string {
	slug := strings.Trim(strings.ToLower(donorSlug), "-")
	if slug == "" {
		slug = "donor"
	}
	return fmt.Sprintf("%s-impact-report-%s.pdf", slug, at.UTC().Format("2006-01-02"))
}

func authorize(p *identity.Principal, donorID string) error {
	if p == nil || p.UserID == "" {
		return apierrors.Unauthorized("login required")
	}
	if p.IsPlatformAdmin() {
		return nil
	}
	if p.Role != identity.RoleCorporateUser {
		return apierrors.Forbidden("reports are available to donor users")
	}
	if !p.CanViewDonor(donorID) {
		return apierrors.NotFound("donor")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

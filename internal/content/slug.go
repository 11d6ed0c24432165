package content

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// MaxSlugLen bounds the base slug, in runes, before any collision suffix
const MaxSlugLen = 120

// Slugify lower-cases title, strips diacritics, collapses runs of
// non-alphanumerics into one hyphen and trims hyphens. Letters and digits
// of any script are kept. An empty result becomes "story".
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if r := []rune(slug); len(r) > MaxSlugLen {
		slug = strings.Trim(string(r[:MaxSlugLen]), "-")
	}
	if slug == "" {
		return "story"
	}
	return slug
}

// disambiguate appends the creation timestamp to a colliding slug
func disambiguate(base string, at time.Time) string {
	return fmt.Sprintf("%s-%d", base, at.UnixMilli())
}

// uniqueSlug returns base, or base with a timestamp suffix when another
// story of the same charity already holds it. excludeID skips the story
// being renamed.
func uniqueSlug(ctx context.Context, tx *gorm.DB, charityID, base, excludeID string, at time.Time) (string, error) {
	taken, err := slugTaken(ctx, tx, charityID, base, excludeID)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	candidate := disambiguate(base, at)
	for i := 1; i <= 5; i++ {
		taken, err = slugTaken(ctx, tx, charityID, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = disambiguate(base, at.Add(time.Duration(i)*time.Millisecond))
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}

func slugTaken(ctx context.Context, tx *gorm.DB, charityID, slug, excludeID string) (bool, error) {
	q := tx.WithContext(ctx).Model(&models.Story{}).Where("charity_id = ? AND slug = ?", charityID, slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return n > 0, nil
}

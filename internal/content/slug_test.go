package content

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hope", "hope"},
		{"Clean Water for 500 Families!", "clean-water-for-500-families"},
		{"  Café Olé  ", "cafe-ole"},
		{"--Already--hyphenated--", "already-hyphenated"},
		{"Zürich & Łódź", "zurich-łodz"},
		{"Вода для села", "вода-для-села"},
		{"清洁水 2024", "清洁水-2024"},
		{"Ελπίδα", "ελπιδα"},
		{"!!!", "story"},
		{"", "story"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "word "
	}
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), MaxSlugLen)
	assert.NotEqual(t, '-', rune(slug[len(slug)-1]))

	cyrillic := Slugify(strings.Repeat("вода ", 60))
	assert.True(t, utf8.ValidString(cyrillic))
	assert.LessOrEqual(t, utf8.RuneCountInString(cyrillic), MaxSlugLen)
	assert.False(t, strings.HasSuffix(cyrillic, "-"))
}

func TestNonLatinTitlesKeepDistinctSlugs(t *testing.T) {
	assert.NotEqual(t, Slugify("Вода для села"), Slugify("Школа для детей"))
	assert.NotEqual(t, "story", Slugify("مياه نظيفة"))
}

func TestDisambiguate(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "hope-1700000000123", disambiguate("hope", at))
}

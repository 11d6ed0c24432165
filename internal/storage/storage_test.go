package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	now := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	key := NewKey("/stories/abc/", "image/png", now)

	assert.True(t, strings.HasPrefix(key, "stories/abc/2025/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, NewKey("stories/abc", "image/png", now))
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":               ".jpg",
		"IMAGE/PNG":                ".png",
		"video/mp4":                ".mp4",
		"application/pdf":          ".pdf",
		"text/html; charset=utf-8": ".bin",
	}
	for contentType, want := range tests {
		assert.Equal(t, want, ExtensionFor(contentType), contentType)
	}
}

func TestS3ResolveURLPassthrough(t *testing.T) {
	s := &S3Store{cdnBase: "https://cdn.example.com"}

	url, err := s.ResolveURL(context.Background(), "https://elsewhere.example.com/logo.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere.example.com/logo.png", url)

	url, err = s.ResolveURL(context.Background(), "logos/2025/01/x.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logos/2025/01/x.png", url)

	url, err = s.ResolveURL(context.Background(), "", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("http://localhost:8787/blobs/")

	key, err := m.Put(ctx, "media", []byte("pixels"), "image/webp")
	require.NoError(t, err)

	url, err := m.ResolveURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787/blobs/"+key, url)

	blob, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "image/webp", blob.ContentType)

	require.NoError(t, m.Delete(ctx, key))
	assert.Zero(t, m.Len())
	_, err = m.ResolveURL(ctx, key, time.Minute)
	assert.Error(t, err)
}

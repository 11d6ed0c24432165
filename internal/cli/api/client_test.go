package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestLoginStoresToken(t *testing.T) {
	var sawAuth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ops@example.com", body["email"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"tok-123","user":{"id":"u1","email":"ops@example.com","role":"PLATFORM_ADMIN"},"expires_at":"2030-01-01T00:00:00Z"}`))
		case "/api/v1/auth/me":
			sawAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"ops@example.com","role":"PLATFORM_ADMIN"}}`))
		}
	})

	resp, err := c.Login(context.Background(), "ops@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "PLATFORM_ADMIN", resp.User.Role)

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer tok-123", sawAuth)
}

func TestErrorsAreDecoded(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/admin/flagged" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"FORBIDDEN","message":"insufficient role"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Flagged(context.Background())
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.Contains(t, err.Error(), "insufficient role")

	_, err = c.Summary(context.Background(), "", 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNKNOWN_ERROR", apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, IsUnauthorized(err))
}

func TestModerationRoutes(t *testing.T) {
	var calls []string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"comments":[{"id":"c1","author_name":"Ann"}]}`))
	})
	ctx := context.Background()

	require.NoError(t, c.Flag(ctx, "stories", "s1", "spam"))
	require.NoError(t, c.Unflag(ctx, "comments", "c1"))
	require.NoError(t, c.SetCommentStatus(ctx, "charity", "c1", "APPROVED"))
	queue, err := c.Queue(ctx, "admin", "SPAM")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Ann", queue[0].AuthorName)

	assert.Equal(t, []string{
		"POST /api/v1/admin/stories/s1/flag",
		"DELETE /api/v1/admin/comments/c1/flag",
		"PUT /api/v1/charity/comments/c1/status",
		"GET /api/v1/admin/comments?status=SPAM",
	}, calls)
}

func TestGenerateReportUsesServerFilename(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ReportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"s1", "s2"}, req.StoryIDs)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="acme-impact-report-2026-10-18.pdf"`)
		w.Header().Set("X-Report-Pages", "4")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	rep, err := c.GenerateReport(context.Background(), ReportRequest{StoryIDs: []string{"s1", "s2"}})
	require.NoError(t, err)
	assert.Equal(t, "acme-impact-report-2026-10-18.pdf", rep.Filename)
	assert.Equal(t, "4", rep.Pages)
	assert.Equal(t, []byte("%PDF-1.4"), rep.Data)
}

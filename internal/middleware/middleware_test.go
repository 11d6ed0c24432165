package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cache"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth map[string]*identity.Principal

func (f fakeAuth) Authenticate(ctx context.Context, token string) (*identity.Principal, error) {
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, apierrors.Unauthorized("invalid or expired token")
}

type failingCounter struct{}

func (failingCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, stderrors.New("redis: connection refused")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), GinLoggerMiddleware(), MetricsMiddleware())
	chain := append(handlers, func(c *gin.Context) {
		who := "anonymous"
		if p := util.Principal(c); p != nil {
			who = p.UserID
		}
		c.String(http.StatusOK, who)
	})
	r.GET("/test", chain...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newRouter()
	w := get(r, "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestOptionalAuth(t *testing.T) {
	auth := fakeAuth{"good": {UserID: "u-1", Role: identity.RolePublic}}
	r := newRouter(OptionalAuth(auth))

	assert.Equal(t, "anonymous", get(r, "").Body.String())
	assert.Equal(t, "u-1", get(r, "good").Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(r, "expired").Code)
}

func TestRequireAuthAndRole(t *testing.T) {
	auth := fakeAuth{
		"charity":  {UserID: "c-1", Role: identity.RoleCharityAdmin, CharityID: "ch-1"},
		"donor":    {UserID: "d-1", Role: identity.RoleCorporateUser, DonorID: "do-1"},
		"platform": {UserID: "p-1", Role: identity.RolePlatformAdmin},
	}
	r := newRouter(RequireAuth(auth), RequireRole(identity.RoleCharityAdmin))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "charity").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "donor").Code)
	assert.Equal(t, http.StatusOK, get(r, "platform").Code)
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimitMiddleware(cache.NewMemoryStore(), RateLimitConfig{Name: "test", MaxRequests: 2, Window: time.Hour}))

	require.Equal(t, http.StatusOK, get(r, "").Code)
	w := get(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newRouter(RateLimitMiddleware(failingCounter{}, RateLimitConfig{Name: "test", MaxRequests: 1, Window: time.Minute}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions configures RegisterRoutes
type RouteOptions struct {
	Authenticator middleware.Authenticator
	// Counter backs the public write rate limit; nil disables it
	Counter            middleware.WindowCounter
	RateLimitPerMinute int
	// TrustedProxies are the peers allowed to set X-Forwarded-For. With
	// none, actors and rate limits key on the connection's address.
	TrustedProxies []string
	// Health reports dependency status for GET /health
	Health func() map[string]string
}

// RegisterRoutes mounts the API on r
func (h *Handlers) RegisterRoutes(r *gin.Engine, opts RouteOptions) error {
	var proxies []string
	if len(opts.TrustedProxies) > 0 {
		proxies = opts.TrustedProxies
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	RegisterValidators()

	r.GET("/health", func(c *gin.Context) {
		checks := map[string]string{}
		if opts.Health != nil {
			checks = opts.Health()
		}
		status := http.StatusOK
		for _, v := range checks {
			if v != "ok" {
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	optional := middleware.OptionalAuth(opts.Authenticator)
	required := middleware.RequireAuth(opts.Authenticator)
	limited := middleware.RateLimitMiddleware(opts.Counter, middleware.RateLimitConfig{
		Name:        "engagement",
		MaxRequests: opts.RateLimitPerMinute,
		Window:      time.Minute,
	})
	loginLimited := middleware.RateLimitMiddleware(opts.Counter, middleware.RateLimitConfig{
		Name:        "login",
		MaxRequests: 10,
		Window:      time.Minute,
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", loginLimited, h.Login)
		authGroup.GET("/me", required, h.Me)
	}

	stories := api.Group("/stories/:id", optional)
	{
		stories.GET("", h.GetPublicStory)
		stories.GET("/engagement", h.GetEngagement)
		stories.GET("/live", h.Live)
		stories.GET("/like", h.HasLiked)
		stories.POST("/like", limited, h.LikeStory)
		stories.POST("/reactions", limited, h.AddReaction)
		stories.DELETE("/reactions/:type", limited, h.RemoveReaction)
		stories.GET("/comments", h.ListComments)
		stories.POST("/comments", limited, h.SubmitComment)
		stories.POST("/view", limited, h.TrackView)
		stories.POST("/share", limited, h.TrackShare)
	}

	api.GET("/donors/:slug/hub", h.DonorHub)

	charity := api.Group("/charity", required, middleware.RequireRole(identity.RoleCharityAdmin))
	{
		charity.POST("/stories", h.CreateStory)
		charity.GET("/stories", h.ListCharityStories)
		charity.GET("/stories/:id", h.GetCharityStory)
		charity.PUT("/stories/:id", h.UpdateStory)
		charity.DELETE("/stories/:id", h.DeleteCharityStory)
		charity.POST("/stories/:id/media", h.UploadMedia)
		charity.GET("/comments", h.ModerationQueue)
		charity.PUT("/comments/:id/status", h.SetCommentStatus)
	}

	donor := api.Group("/donor", required, middleware.RequireRole(identity.RoleCorporateUser))
	{
		donor.GET("/analytics/timeline", h.DonorTimeline)
		donor.GET("/analytics/social", h.DonorSocial)
		donor.GET("/analytics/summary", h.DonorSummary)
		donor.GET("/stories", h.DonorStories)
		donor.POST("/reports", h.GenerateReport)
		donor.GET("/team", h.ListTeam)
		donor.POST("/team", h.AddMember)
		donor.DELETE("/team/:userID", h.RemoveMember)
		donor.PUT("/settings", h.UpdateSettings)
	}

	admin := api.Group("/admin", required, middleware.RequireRole(identity.RolePlatformAdmin))
	{
		admin.GET("/flagged", h.ListFlagged)
		admin.POST("/stories/:id/flag", h.FlagStory)
		admin.DELETE("/stories/:id/flag", h.UnflagStory)
		admin.POST("/comments/:id/flag", h.FlagComment)
		admin.DELETE("/comments/:id/flag", h.UnflagComment)
		admin.PUT("/comments/:id/status", h.SetCommentStatus)
		admin.DELETE("/stories/:id", h.AdminDeleteStory)
		admin.DELETE("/comments/:id", h.AdminDeleteComment)
		admin.GET("/comments", h.ModerationQueue)
	}

	return nil
}

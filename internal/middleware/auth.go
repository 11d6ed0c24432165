package middleware

import (
	"context"
	"strings"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Principal, error)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// browsers cannot set headers on websocket upgrades
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

// OptionalAuth attaches a principal when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected so the
// client learns its session has expired.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		util.SetPrincipal(c, p)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c)
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		util.SetPrincipal(c, p)
		c.Next()
	}
}

// RequireRole admits principals holding one of roles. Platform admins are
// always admitted. Must run after RequireAuth.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := util.RequirePrincipal(c)
		if !ok {
			return
		}
		if p.IsPlatformAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		util.RespondWithAPIError(c, apierrors.Forbidden("insufficient role"))
	}
}

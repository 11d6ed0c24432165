package util

import (
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/gin-gonic/gin"
)

// Context keys set by middleware
const (
	PrincipalKey = "principal"
	RequestIDKey = "request_id"
)

// SetPrincipal stores the authenticated principal on the request
func SetPrincipal(c *gin.Context, p *identity.Principal) {
	c.Set(PrincipalKey, p)
	c.Set("user_id", p.UserID)
}

// Principal returns the authenticated principal, or nil for anonymous
// requests.
func Principal(c *gin.Context) *identity.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*identity.Principal)
	return p
}

// RequirePrincipal returns the principal or writes a 401 and returns false
func RequirePrincipal(c *gin.Context) (*identity.Principal, bool) {
	p := Principal(c)
	if p == nil {
		RespondUnauthorized(c)
		return nil, false
	}
	return p, true
}

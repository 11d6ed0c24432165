package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/auth"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// Login handles POST /auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	resp, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me handles GET /auth/me
func (h *Handlers) Me(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	user, err := h.Users.GetUser(c.Request.Context(), p.UserID)
	if stderrors.Is(err, repository.ErrUserNotFound) {
		util.RespondUnauthorized(c, "account no longer exists")
		return
	}
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

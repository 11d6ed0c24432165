package handlers

import (
	"net/http"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

type flagRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListFlagged handles GET /admin/flagged
func (h *Handlers) ListFlagged(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	flagged, err := h.Moderation.ListFlagged(c.Request.Context(), p)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, flagged)
}

// FlagStory handles POST /admin/stories/:id/flag
func (h *Handlers) FlagStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req flagRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.Moderation.FlagStory(c.Request.Context(), p, c.Param("id"), req.Reason); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": true})
}

// UnflagStory handles DELETE /admin/stories/:id/flag
func (h *Handlers) UnflagStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Moderation.UnflagStory(c.Request.Context(), p, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": false})
}

// FlagComment handles POST /admin/comments/:id/flag
func (h *Handlers) FlagComment(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req flagRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.Moderation.FlagComment(c.Request.Context(), p, c.Param("id"), req.Reason); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": true})
}

// UnflagComment handles DELETE /admin/comments/:id/flag
func (h *Handlers) UnflagComment(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Moderation.UnflagComment(c.Request.Context(), p, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": false})
}

// AdminDeleteStory handles DELETE /admin/stories/:id
func (h *Handlers) AdminDeleteStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Moderation.DeleteStory(c.Request.Context(), p, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdminDeleteComment handles DELETE /admin/comments/:id
func (h *Handlers) AdminDeleteComment(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Moderation.DeleteComment(c.Request.Context(), p, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

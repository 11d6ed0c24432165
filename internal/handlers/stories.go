package handlers

import (
	"context"
	"net/http"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/engagement"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reactionRequest struct {
	Type string `json:"type" binding:"required,reactiontype"`
}

type commentRequest struct {
	GuestName string `json:"guest_name" binding:"max=100"`
	Content   string `json:"content" binding:"required"`
}

type viewRequest struct {
	Unique bool `json:"unique"`
}

type shareRequest struct {
	Platform string `json:"platform" binding:"required"`
}

func actor(c *gin.Context) identity.Actor {
	return identity.ActorFor(util.Principal(c), c.ClientIP())
}

// GetPublicStory handles GET /stories/:id
func (h *Handlers) GetPublicStory(c *gin.Context) {
	story, err := h.Content.GetPublicStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// GetEngagement handles GET /stories/:id/engagement
func (h *Handlers) GetEngagement(c *gin.Context) {
	counts, err := h.Engagement.Counts(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// LikeStory handles POST /stories/:id/like. A repeat like is a 409 that
// still carries the current total.
func (h *Handlers) LikeStory(c *gin.Context) {
	res, err := h.Engagement.RecordLike(c.Request.Context(), c.Param("id"), actor(c))
	if apierrors.Is(err, apierrors.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{
			"code":          apierrors.ErrAlreadyExists,
			"message":       "story already liked",
			"already_liked": true,
			"likes":         res.Likes,
		})
		return
	}
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"likes": res.Likes, "already_liked": false})
}

// HasLiked handles GET /stories/:id/like
func (h *Handlers) HasLiked(c *gin.Context) {
	liked, err := h.Engagement.HasLiked(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// AddReaction handles POST /stories/:id/reactions
func (h *Handlers) AddReaction(c *gin.Context) {
	var req reactionRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	counts, err := h.Engagement.AddReaction(c.Request.Context(), c.Param("id"), actor(c), req.Type)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reactions": counts})
}

// RemoveReaction handles DELETE /stories/:id/reactions/:type
func (h *Handlers) RemoveReaction(c *gin.Context) {
	counts, err := h.Engagement.RemoveReaction(c.Request.Context(), c.Param("id"), actor(c), c.Param("type"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": counts})
}

// ListComments handles GET /stories/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	comments, err := h.Engagement.ListApprovedComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// SubmitComment handles POST /stories/:id/comments
func (h *Handlers) SubmitComment(c *gin.Context) {
	var req commentRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	comment, err := h.Engagement.SubmitComment(c.Request.Context(), c.Param("id"), util.Principal(c), req.GuestName, req.Content, c.ClientIP())
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
		"message": "Thanks! Your comment will appear once it has been approved.",
	})
}

// TrackView handles POST /stories/:id/view. The body is optional.
func (h *Handlers) TrackView(c *gin.Context) {
	var req viewRequest
	if c.Request.ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}
	if err := h.Recorder.TrackView(c.Request.Context(), c.Param("id"), req.Unique); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TrackShare handles POST /stories/:id/share
func (h *Handlers) TrackShare(c *gin.Context) {
	var req shareRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.Recorder.TrackShare(c.Request.Context(), c.Param("id"), req.Platform); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Live handles GET /stories/:id/live. The story must exist before the
// upgrade; the watcher first receives the current counts.
func (h *Handlers) Live(c *gin.Context) {
	if h.Hub == nil {
		util.RespondWithAPIError(c, apierrors.NotFound("live updates"))
		return
	}
	storyID := c.Param("id")
	if _, err := h.Engagement.Counts(c.Request.Context(), storyID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	err := h.Hub.ServeRoom(c.Writer, c.Request, storyID, websocket.AcceptOptions{
		OriginPatterns: h.AllowedOrigins,
		RemoteAddr:     c.ClientIP(),
		Snapshot: func(ctx context.Context) (string, interface{}, error) {
			counts, err := h.Engagement.Counts(ctx, storyID)
			return engagement.UpdateMessageType, counts, err
		},
	})
	if err != nil {
		logger.L().Debug("Live connection rejected", logger.WithStoryID(storyID), zap.Error(err))
	}
}

// DonorHub handles GET /donors/:slug/hub
func (h *Handlers) DonorHub(c *gin.Context) {
	hub, err := h.Content.GetDonorHub(c.Request.Context(), c.Param("slug"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

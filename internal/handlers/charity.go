package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

type commentStatusRequest struct {
	Status string `json:"status" binding:"required,commentstatus"`
}

// readStoryInput accepts either a JSON body or a multipart form with the
// JSON in a "story" field and an optional "video" file.
func readStoryInput(c *gin.Context) (content.StoryInput, error) {
	var in content.StoryInput
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return in, bind(c, &in)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	raw := c.PostForm("story")
	if raw == "" {
		return in, apierrors.ValidationError("story", "story is required")
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return in, apierrors.BadRequest("story field is not valid JSON")
	}
	if fh, err := c.FormFile("video"); err == nil {
		data, err := readFormFile(fh)
		if err != nil {
			return in, err
		}
		in.Video = &content.Upload{Data: data, ContentType: fh.Header.Get("Content-Type")}
	}
	return in, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxUploadBytes {
		return nil, apierrors.ValidationError("file", "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apierrors.BadRequest("could not read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return nil, apierrors.BadRequest("could not read uploaded file")
	}
	if len(data) > MaxUploadBytes {
		return nil, apierrors.ValidationError("file", "file is too large")
	}
	return data, nil
}

func respondUpdate(c *gin.Context, status int, res *content.UpdateResult) {
	c.JSON(status, res)
}

// CreateStory handles POST /charity/stories
func (h *Handlers) CreateStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	in, err := readStoryInput(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	res, err := h.Content.CreateStory(c.Request.Context(), p, in)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	respondUpdate(c, http.StatusCreated, res)
}

// ListCharityStories handles GET /charity/stories?status=&charity_id=
func (h *Handlers) ListCharityStories(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	stories, err := h.Content.ListCharityStories(c.Request.Context(), p, c.Query("charity_id"), c.Query("status"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// GetCharityStory handles GET /charity/stories/:id
func (h *Handlers) GetCharityStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	story, err := h.Content.GetStory(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// UpdateStory handles PUT /charity/stories/:id
func (h *Handlers) UpdateStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	in, err := readStoryInput(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	res, err := h.Content.UpdateStory(c.Request.Context(), p, c.Param("id"), in)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	respondUpdate(c, http.StatusOK, res)
}

// DeleteCharityStory handles DELETE /charity/stories/:id
func (h *Handlers) DeleteCharityStory(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Content.DeleteStory(c.Request.Context(), p, c.Param("id")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadMedia handles POST /charity/stories/:id/media (multipart: file,
// kind, caption)
func (h *Handlers) UploadMedia(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		util.RespondWithError(c, apierrors.ValidationError("file", "file is required"))
		return
	}
	data, err := readFormFile(fh)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	media, err := h.Content.UploadMedia(c.Request.Context(), p, c.Param("id"), data,
		fh.Header.Get("Content-Type"), c.PostForm("kind"), c.PostForm("caption"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// ModerationQueue handles GET /charity/comments and GET /admin/comments
func (h *Handlers) ModerationQueue(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	items, err := h.Moderation.ListModerationQueue(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": items})
}

// SetCommentStatus handles PUT /charity/comments/:id/status and its admin twin
func (h *Handlers) SetCommentStatus(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req commentStatusRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	comment, err := h.Moderation.SetCommentStatus(c.Request.Context(), p, c.Param("id"), req.Status)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/report"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/tenants"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

type addMemberRequest struct {
	Email     string `json:"email" binding:"required,email"`
	DonorRole string `json:"donor_role" binding:"required"`
}

// donorScope picks the donor a request acts on: the caller's own, or the
// donor_id query parameter for platform admins.
func donorScope(c *gin.Context, p *identity.Principal) string {
	if id := c.Query("donor_id"); id != "" {
		return id
	}
	return p.DonorID
}

func days(c *gin.Context) int {
	return util.ParseInt(c.Query("days"), 0)
}

// DonorTimeline handles GET /donor/analytics/timeline?days=
func (h *Handlers) DonorTimeline(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	timeline, err := h.Analytics.DonorTimeline(c.Request.Context(), p, donorScope(c, p), days(c))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

// DonorSocial handles GET /donor/analytics/social?days=
func (h *Handlers) DonorSocial(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	breakdown, err := h.Analytics.SocialBreakdown(c.Request.Context(), p, donorScope(c, p), days(c))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// DonorSummary handles GET /donor/analytics/summary?days=
func (h *Handlers) DonorSummary(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	summary, err := h.Analytics.DonorSummary(c.Request.Context(), p, donorScope(c, p), days(c))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DonorStories handles GET /donor/stories
func (h *Handlers) DonorStories(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	stories, err := h.Content.ListDonorStories(c.Request.Context(), p, donorScope(c, p))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// GenerateReport handles POST /donor/reports and streams the PDF back
func (h *Handlers) GenerateReport(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req report.Request
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if req.DonorID == "" {
		req.DonorID = donorScope(c, p)
	}

	doc, err := h.Reports.Generate(c.Request.Context(), p, req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("X-Report-Pages", strconv.Itoa(doc.Pages))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// ListTeam handles GET /donor/team
func (h *Handlers) ListTeam(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	team, err := h.Tenants.ListTeam(c.Request.Context(), p, donorScope(c, p))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": team})
}

// AddMember handles POST /donor/team
func (h *Handlers) AddMember(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	member, err := h.Tenants.AddMember(c.Request.Context(), p, donorScope(c, p), req.Email, identity.DonorRole(req.DonorRole))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// RemoveMember handles DELETE /donor/team/:userID
func (h *Handlers) RemoveMember(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	if err := h.Tenants.RemoveMember(c.Request.Context(), p, donorScope(c, p), c.Param("userID")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateSettings handles PUT /donor/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	p, ok := util.RequirePrincipal(c)
	if !ok {
		return
	}
	var req tenants.Settings
	if err := bind(c, &req); err != nil {
		util.RespondWithError(c, err)
		return
	}
	donor, err := h.Tenants.UpdateSettings(c.Request.Context(), p, donorScope(c, p), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, donor)
}

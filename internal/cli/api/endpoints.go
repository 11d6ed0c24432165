package api

import (
	"context"
	"mime"
	"strconv"
)

// Login exchanges credentials for a token and keeps it on the client
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	_, err := do(c.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/api/v1/auth/login"))
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Me returns the logged-in account
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if _, err := do(c.request(ctx).SetResult(&out).Get("/api/v1/auth/me")); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Flagged lists flagged stories and comments (platform admin)
func (c *Client) Flagged(ctx context.Context) (*Flagged, error) {
	var out Flagged
	if _, err := do(c.request(ctx).SetResult(&out).Get("/api/v1/admin/flagged")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Flag flags a story or comment. kind is "stories" or "comments".
func (c *Client) Flag(ctx context.Context, kind, id, reason string) error {
	_, err := do(c.request(ctx).
		SetBody(map[string]string{"reason": reason}).
		SetPathParams(map[string]string{"kind": kind, "id": id}).
		Post("/api/v1/admin/{kind}/{id}/flag"))
	return err
}

// Unflag clears a flag
func (c *Client) Unflag(ctx context.Context, kind, id string) error {
	_, err := do(c.request(ctx).
		SetPathParams(map[string]string{"kind": kind, "id": id}).
		Delete("/api/v1/admin/{kind}/{id}/flag"))
	return err
}

// Remove hard-deletes a story or comment (platform admin)
func (c *Client) Remove(ctx context.Context, kind, id string) error {
	_, err := do(c.request(ctx).
		SetPathParams(map[string]string{"kind": kind, "id": id}).
		Delete("/api/v1/admin/{kind}/{id}"))
	return err
}

// Queue lists comments in status for the caller's scope. scope is "admin"
// or "charity".
func (c *Client) Queue(ctx context.Context, scope, status string) ([]QueuedComment, error) {
	var out struct {
		Comments []QueuedComment `json:"comments"`
	}
	req := c.request(ctx).SetResult(&out).SetPathParam("scope", scope)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	if _, err := do(req.Get("/api/v1/{scope}/comments")); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// SetCommentStatus moves a comment through moderation
func (c *Client) SetCommentStatus(ctx context.Context, scope, id, status string) error {
	_, err := do(c.request(ctx).
		SetPathParams(map[string]string{"scope": scope, "id": id}).
		SetBody(map[string]string{"status": status}).
		Put("/api/v1/{scope}/comments/{id}/status"))
	return err
}

func donorQuery(donorID string, days int) map[string]string {
	q := map[string]string{}
	if donorID != "" {
		q["donor_id"] = donorID
	}
	if days > 0 {
		q["days"] = strconv.Itoa(days)
	}
	return q
}

// Summary fetches the donor dashboard headline
func (c *Client) Summary(ctx context.Context, donorID string, days int) (*Summary, error) {
	var out Summary
	if _, err := do(c.request(ctx).SetQueryParams(donorQuery(donorID, days)).SetResult(&out).Get("/api/v1/donor/analytics/summary")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timeline fetches the donor's per-day series
func (c *Client) Timeline(ctx context.Context, donorID string, days int) (*Timeline, error) {
	var out Timeline
	if _, err := do(c.request(ctx).SetQueryParams(donorQuery(donorID, days)).SetResult(&out).Get("/api/v1/donor/analytics/timeline")); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport renders a PDF server-side and returns its bytes
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (*Report, error) {
	resp, err := do(c.request(ctx).SetBody(req).Post("/api/v1/donor/reports"))
	if err != nil {
		return nil, err
	}
	out := &Report{Data: resp.Body(), Pages: resp.Header().Get("X-Report-Pages"), Filename: "impact-report.pdf"}
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		out.Filename = params["filename"]
	}
	return out, nil
}

// Package handlers exposes the services over the gin HTTP API.
package handlers

import (
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/analytics"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/auth"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/engagement"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/moderation"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/report"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/repository"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/tenants"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/websocket"
)

// MaxUploadBytes bounds multipart media uploads
const MaxUploadBytes = 100 << 20

// Deps are the services the API is built from. Hub may be nil, which
// disables the live endpoint.
type Deps struct {
	Auth       auth.ServiceInterface
	Users      repository.UserRepository
	Content    *content.Service
	Engagement *engagement.Service
	Moderation *moderation.Service
	Analytics  *analytics.Service
	Recorder   *analytics.Recorder
	Reports    *report.Generator
	Tenants    *tenants.Service
	Hub        *websocket.Hub

	// AllowedOrigins are the host patterns accepted for live connections
	AllowedOrigins []string
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	Deps
}

// NewHandlers creates a handlers instance
func NewHandlers(d Deps) *Handlers {
	return &Handlers{Deps: d}
}

package models

import (
	"github.com/google/uuid"
)

// ImpactMetrics is an open, caller-defined map of outcome counters such as
// families_helped or jobs_secured. Keys are conventions, not fields.
type ImpactMetrics map[string]float64

// Clone returns a copy that can be mutated without touching the receiver
func (m ImpactMetrics) Clone() ImpactMetrics {
	out := make(ImpactMetrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Story lifecycle states
const (
	StoryStatusDraft     = "DRAFT"
	StoryStatusPublished = "PUBLISHED"
	StoryStatusArchived  = "ARCHIVED"
)

// Comment moderation states
const (
	CommentStatusPending  = "PENDING"
	CommentStatusApproved = "APPROVED"
	CommentStatusRejected = "REJECTED"
	CommentStatusSpam     = "SPAM"
)

// Reaction types
const (
	ReactionLove     = "LOVE"
	ReactionApplause = "APPLAUSE"
	ReactionMoved    = "MOVED"
	ReactionInspired = "INSPIRED"
	ReactionGrateful = "GRATEFUL"
)

// ReactionTypes lists every reaction type in display order
var ReactionTypes = []string{ReactionLove, ReactionApplause, ReactionMoved, ReactionInspired, ReactionGrateful}

// IsValidReactionType reports whether t is one of ReactionTypes
func IsValidReactionType(t string) bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// IsValidCommentStatus reports whether s is a known moderation state
func IsValidCommentStatus(s string) bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected, CommentStatusSpam:
		return true
	}
	return false
}

// IsValidStoryStatus reports whether s is a known lifecycle state
func IsValidStoryStatus(s string) bool {
	switch s {
	case StoryStatusDraft, StoryStatusPublished, StoryStatusArchived:
		return true
	}
	return false
}

// Media kinds
const (
	MediaImage    = "IMAGE"
	MediaVideo    = "VIDEO"
	MediaDocument = "DOCUMENT"
)

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Charity{},
		&Donor{},
		&User{},
		&Story{},
		&Milestone{},
		&ThankYouMessage{},
		&StoryMedia{},
		&Like{},
		&Reaction{},
		&Comment{},
		&Analytics{},
		&ActivityLog{},
	}
}

func generateUUID() string {
	return uuid.New().String()
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Like is at most one per (story, actor). Exactly one of UserID and
// IPAddress is set; ActorKey is derived from whichever it is.
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_story_actor,priority:1" json:"story_id"`
	UserID    *string   `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	IPAddress *string   `gorm:"type:varchar(64)" json:"-"`
	ActorKey  string    `gorm:"not null;uniqueIndex:idx_likes_story_actor,priority:2" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction is at most one per (story, actor, type)
type Reaction struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reactions_story_actor_type,priority:1" json:"story_id"`
	ReactionType string    `gorm:"not null;uniqueIndex:idx_reactions_story_actor_type,priority:3" json:"reaction_type"`
	UserID       *string   `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	IPAddress    *string   `gorm:"type:varchar(64)" json:"-"`
	ActorKey     string    `gorm:"not null;uniqueIndex:idx_reactions_story_actor_type,priority:2" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment enters PENDING and is public only once APPROVED
type Comment struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StoryID    string  `gorm:"type:varchar(36);not null;index:idx_comments_story_status,priority:1" json:"story_id"`
	UserID     *string `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	AuthorName string  `gorm:"not null" json:"author_name"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	IPAddress  string  `gorm:"type:varchar(64)" json:"-"`

	Status      string     `gorm:"not null;default:PENDING;index:idx_comments_story_status,priority:2" json:"status"`
	IsFlagged   bool       `gorm:"default:false;index" json:"is_flagged"`
	FlagReason  string     `json:"flag_reason,omitempty"`
	ModeratedBy *string    `gorm:"type:varchar(36)" json:"moderated_by,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

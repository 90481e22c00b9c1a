package models

import "time"

const MaxCommentLength = 2000

type EventComment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	EventID   int64     `gorm:"not null;index" json:"event_id"`
	AuthorID  *int64    `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	ParentID  *int64    `gorm:"index" json:"parent_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentInput struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CommentNode is a comment with its author display data and, for top-level
// comments, the ordered replies.
type CommentNode struct {
	ID        int64         `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	EventID   int64         `json:"event_id"`
	AuthorID  *int64        `json:"author_id"`
	ParentID  *int64        `json:"parent_id"`
	AvatarURL *string       `json:"avatar_url"`
	FullName  string        `json:"full_name"`
	Replies   []CommentNode `json:"replies"`
}

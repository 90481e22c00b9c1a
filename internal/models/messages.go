package models

import "time"

const (
	MessageTypeText     = "text"
	MessageTypeVoice    = "voice"
	MessageTypeLocation = "location"
	MessageTypeImage    = "image"
	MessageTypeFile     = "file"
)

type Conversation struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Participants []User    `gorm:"many2many:conversation_participants" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConversationParticipant is a row of the conversation_participants join table.
type ConversationParticipant struct {
	ConversationID int64 `gorm:"primaryKey"`
	UserID         int64 `gorm:"primaryKey"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

type Message struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	ConversationID int64     `gorm:"not null;index" json:"conversation_id"`
	SenderID       int64     `gorm:"not null;index" json:"sender_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	MessageType    string    `gorm:"size:20;not null" json:"message_type"`
	IsRead         bool      `gorm:"not null" json:"is_read"`
	CreatedAt      time.Time `json:"timestamp"`
}

type CreateConversationInput struct {
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1,max=50,dive,gt=0"`
}

type SendMessageInput struct {
	Text        string `json:"text" validate:"required,max=5000"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text voice location image file"`
}

type ConversationView struct {
	ID           int64         `json:"id"`
	Participants []UserSummary `json:"participants"`
	UnreadCount  int64         `json:"unread_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

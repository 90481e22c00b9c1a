package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CategoryBirthday    = "birthday"
	CategoryParty       = "party"
	CategoryDinner      = "dinner"
	CategoryMeeting     = "meeting"
	CategoryCelebration = "celebration"
	CategoryOther       = "other"

	DefaultPrice = "Free"

	MaxTitleLength    = 100
	MaxLocationLength = 255
	MaxPriceLength    = 50
)

var EventCategories = []string{
	CategoryBirthday,
	CategoryParty,
	CategoryDinner,
	CategoryMeeting,
	CategoryCelebration,
	CategoryOther,
}

func IsValidCategory(category string) bool {
	for _, c := range EventCategories {
		if c == category {
			return true
		}
	}
	return false
}

const (
	ActivityCreated   = "created"
	ActivityUpdated   = "updated"
	ActivityJoined    = "joined"
	ActivityLeft      = "left"
	ActivityCommented = "commented"
)

type Event struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Date          time.Time `gorm:"not null;index" json:"date"`
	Location      string    `gorm:"size:255;not null" json:"location"`
	Category      string    `gorm:"size:30;not null;index" json:"category"`
	Price         string    `gorm:"size:50;not null" json:"price"`
	Image         *string   `gorm:"size:512" json:"image"`
	IsPublic      bool      `gorm:"not null" json:"is_public"`
	AllowComments bool      `gorm:"not null" json:"allow_comments"`
	AllowSharing  bool      `gorm:"not null" json:"allow_sharing"`
	MaxAttendees  *int      `json:"max_attendees"`
	OrganizerID   int64     `gorm:"not null;index" json:"organizer_id"`
	Organizer     *User     `gorm:"foreignKey:OrganizerID" json:"-"`
	Participants  []User    `gorm:"many2many:event_participants" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EventParticipant is a row of the event_participants join table.
type EventParticipant struct {
	EventID int64 `gorm:"primaryKey"`
	UserID  int64 `gorm:"primaryKey"`
}

func (EventParticipant) TableName() string {
	return "event_participants"
}

// IsFull reports whether a capacity is set and reached.
func (e *Event) IsFull(participantCount int) bool {
	return e.MaxAttendees != nil && participantCount >= *e.MaxAttendees
}

func (e *Event) HasParticipant(userID int64) bool {
	for _, p := range e.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

type EventActivity struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	EventID      int64          `gorm:"not null;index" json:"event_id"`
	UserID       int64          `gorm:"not null;index" json:"user_id"`
	ActivityType string         `gorm:"size:30;not null" json:"activity_type"`
	Data         datatypes.JSON `json:"data"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateEventInput is the single accepted shape for a new event. Date stays a
// string so the service can report parse errors against the field.
type CreateEventInput struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	Location      string  `json:"location"`
	Category      string  `json:"category"`
	Price         *string `json:"price"`
	Image         *string `json:"image"`
	IsPublic      *bool   `json:"is_public"`
	AllowComments *bool   `json:"allow_comments"`
	AllowSharing  *bool   `json:"allow_sharing"`
	MaxAttendees  *int    `json:"max_attendees"`
}

type UpdateEventInput struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Date          *string `json:"date"`
	Location      *string `json:"location"`
	Category      *string `json:"category"`
	Price         *string `json:"price"`
	Image         *string `json:"image"`
	IsPublic      *bool   `json:"is_public"`
	AllowComments *bool   `json:"allow_comments"`
	AllowSharing  *bool   `json:"allow_sharing"`
	MaxAttendees  *int    `json:"max_attendees"`
}

type EventFilters struct {
	Category    string
	Location    string
	DateFrom    *time.Time
	DateTo      *time.Time
	OrganizerID *int64
	Search      string
}

type ListEventsQuery struct {
	Page    int
	PerPage int
	Filters EventFilters
}

type EventView struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Date             time.Time   `json:"date"`
	Location         string      `json:"location"`
	Category         string      `json:"category"`
	Price            string      `json:"price"`
	Image            *string     `json:"image"`
	IsPublic         bool        `json:"is_public"`
	AllowComments    bool        `json:"allow_comments"`
	AllowSharing     bool        `json:"allow_sharing"`
	MaxAttendees     *int        `json:"max_attendees"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	OrganizerID      int64       `json:"organizer_id"`
	Organizer        UserSummary `json:"organizer"`
	OrganizerName    string      `json:"organizer_name"`
	ParticipantCount int         `json:"participant_count"`
	IsFull           bool        `json:"is_full"`
	CommentsCount    int64       `json:"comments_count"`
	IsParticipant    bool        `json:"is_participant"`
}

type EventPage struct {
	Events  []EventView `json:"events"`
	Total   int64       `json:"total"`
	Pages   int         `json:"pages"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

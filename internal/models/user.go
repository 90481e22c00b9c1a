package models

import (
	"strings"
	"time"
)

const (
	AnonymousName   = "Anonymous"
	DeletedUserName = "deleted user"
)

type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	AuthID    *string   `gorm:"size:64;uniqueIndex" json:"-"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Phone     *string   `gorm:"size:30" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName is the trimmed "first last" display name, or AnonymousName when both are blank.
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return AnonymousName
	}
	return name
}

type SignupInput struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type UpdateUserInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
}

// UserSummary is the public slice of a user embedded in other responses.
type UserSummary struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FullName  string  `json:"full_name"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url"`
}

func NewUserSummary(u *User, avatar *string) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Phone:     u.Phone,
		AvatarURL: avatar,
	}
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ProfilesColName = "profiles"

// Profile is the document-store view of a user, joined to users by UserID only.
type Profile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID         int64              `bson:"user_id" json:"user_id"`
	Email          string             `bson:"email" json:"email"`
	FirstName      string             `bson:"first_name" json:"first_name"`
	LastName       string             `bson:"last_name" json:"last_name"`
	Bio            string             `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL      *string            `bson:"avatar_url,omitempty" json:"avatar_url"`
	Follow         []int64            `bson:"follow" json:"follow"`
	FollowersCount int64              `bson:"followers_count" json:"followers_count"`
	OnlineStatus   bool               `bson:"online_status" json:"online_status"`
	LastSeen       *time.Time         `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
	CreatedAt      time.Time          `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at,omitempty" json:"updated_at"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type PresenceInput struct {
	Online *bool `json:"online" validate:"required"`
}

type PresenceView struct {
	UserID       int64      `json:"user_id"`
	OnlineStatus bool       `json:"online_status"`
	LastSeen     *time.Time `json:"last_seen"`
}

type FollowResult struct {
	UserID         int64 `json:"user_id"`
	Following      bool  `json:"following"`
	Changed        bool  `json:"changed"`
	FollowersCount int64 `json:"followers_count"`
}

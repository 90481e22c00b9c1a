package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"gorm.io/gorm"
)

// AuthRepo talks to the identity provider.
type AuthRepo interface {
	SignUp(ctx context.Context, email, password string, data map[string]interface{}) (string, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByAuthID(ctx context.Context, authID string) (*User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) ([]User, error)
	UpdateUser(ctx context.Context, id int64, updates map[string]interface{}) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// SignUp registers the identity and returns the provider subject.
func (su *SupabaseRepo) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (string, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     data,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "already registered") || strings.Contains(errMsg, "already exists") {
			return "", apperrors.ErrEmailInUse
		}
		if strings.Contains(errMsg, "password") {
			return "", apperrors.NewValidationError("password", "password rejected by identity provider")
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	id := res.User.ID
	if id == uuid.Nil {
		id = res.Session.User.ID
	}
	if id == uuid.Nil {
		return "", fmt.Errorf("identity provider returned no user id")
	}
	return id.String(), nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, &apperrors.CustomError{Err: apperrors.ErrUnauthorized, Message: "invalid email or password"}
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return resp, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (r *GormRepo) GetUserByAuthID(ctx context.Context, authID string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

func (r *GormRepo) GetUsersByIDs(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	var users []User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id int64, updates map[string]interface{}) (*User, error) {
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("", "no fields to update")
	}

	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NewResourceNotFoundError("user not found")
	}
	return r.GetUserByID(ctx, id)
}

// DeleteUser removes the user and everything they own. Comments they wrote on
// other events survive with a null author.
func (r *GormRepo) DeleteUser(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []int64
		if err := tx.Model(&Event{}).Where("organizer_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return err
		}
		for _, eventID := range owned {
			if err := deleteEventTx(tx, eventID); err != nil {
				return err
			}
		}

		if err := tx.Model(&EventComment{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&EventParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ConversationParticipant{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewResourceNotFoundError("user not found")
		}
		return nil
	})
}

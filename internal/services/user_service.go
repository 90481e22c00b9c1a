package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/helpers"
	"github.com/bako110/Anniv/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	authRepo    models.AuthRepo
	userRepo    models.UserRepo
	profileRepo models.ProfileRepo
	logger      *slog.Logger
}

func NewUserService(authRepo models.AuthRepo, userRepo models.UserRepo, profileRepo models.ProfileRepo, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		authRepo:    authRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

func (us *UserService) profileFor(user *models.User, avatar *string) *models.Profile {
	if avatar == nil {
		a := helpers.DefaultAvatarURL(user.FirstName, user.LastName)
		avatar = &a
	}
	return &models.Profile{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: avatar,
	}
}

// Signup registers the identity, creates the users row linked by auth_id and
// seeds the profile document.
func (us *UserService) Signup(ctx context.Context, input models.SignupInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}
	if !helpers.IsPasswordStrong(input.Password) {
		return nil, apperrors.NewValidationError("password", "password must contain upper and lower case letters, a digit and a special character")
	}

	authID, err := us.authRepo.SignUp(ctx, input.Email, input.Password, map[string]interface{}{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
	})
	if err != nil {
		return nil, err
	}

	user := &models.User{
		AuthID:    &authID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	}
	if err := us.userRepo.CreateUser(ctx, user); err != nil {
		us.logger.Error("failed to create user row", "auth_id", authID, "error", err)
		return nil, err
	}

	if _, err := us.profileRepo.UpsertProfile(ctx, us.profileFor(user, input.AvatarURL)); err != nil {
		// the profile is recreated on the next /me call
		us.logger.Warn("failed to seed profile", "user_id", user.ID, "error", err)
	}

	us.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

func (us *UserService) Login(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewValidationError("email", "invalid email format")
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, apperrors.NewValidationError("password", "invalid password format")
	}
	return us.authRepo.AuthenticateUser(ctx, strings.ToLower(strings.TrimSpace(email)), password)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refresh_token", "refresh token is required")
	}
	resp, err := us.authRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return resp, nil
}

// ResolvePrincipal maps a verified token subject to the local user.
func (us *UserService) ResolvePrincipal(ctx context.Context, authID string) (*models.User, error) {
	user, err := us.userRepo.GetUserByAuthID(ctx, authID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrUnknownIdentity
		}
		return nil, err
	}
	return user, nil
}

func (us *UserService) GetUser(ctx context.Context, id int64) (*models.UserSummary, error) {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	avatars, err := us.profileRepo.AvatarsByUserIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	summary := models.NewUserSummary(user, avatars[id])
	return &summary, nil
}

// Me returns the caller and recreates the profile document when it is missing.
func (us *UserService) Me(ctx context.Context, id int64) (*models.UserSummary, error) {
	user, err := us.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := us.profileRepo.FindProfile(ctx, id)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		if profile, err = us.profileRepo.UpsertProfile(ctx, us.profileFor(user, nil)); err != nil {
			return nil, err
		}
	}
	summary := models.NewUserSummary(user, profile.AvatarURL)
	return &summary, nil
}

func (us *UserService) UpdateUser(ctx context.Context, actorID, id int64, input models.UpdateUserInput) (*models.UserSummary, error) {
	if actorID != id {
		return nil, apperrors.NewForbiddenError("you can only update your own account")
	}
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}

	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	updates["updated_at"] = time.Now().UTC()
	if len(updates) == 1 {
		return nil, apperrors.NewValidationError("", "no fields to update")
	}

	user, err := us.userRepo.UpdateUser(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil || input.LastName != nil {
		patch := models.UpdateProfileInput{FirstName: input.FirstName, LastName: input.LastName}
		if _, err := us.profileRepo.UpdateProfile(ctx, id, patch); err != nil && !apperrors.Is(err, apperrors.ErrResourceNotFound) {
			us.logger.Warn("failed to mirror name onto profile", "user_id", id, "error", err)
		}
	}
	return us.GetUser(ctx, user.ID)
}

// DeleteUser removes the account. Owned events go with it; comments on other
// events stay and render as a deleted user.
func (us *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID != id {
		return apperrors.NewForbiddenError("you can only delete your own account")
	}
	if err := us.userRepo.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := us.profileRepo.DeleteProfile(ctx, id); err != nil {
		us.logger.Warn("failed to delete profile", "user_id", id, "error", err)
	}
	us.logger.Info("user deleted", "user_id", id)
	return nil
}

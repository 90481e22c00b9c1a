package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/models"
)

const SearchLimit = 50

type ProfileService struct {
	profileRepo models.ProfileRepo
	userRepo    models.UserRepo
	logger      *slog.Logger
	now         func() time.Time
}

func NewProfileService(profileRepo models.ProfileRepo, userRepo models.UserRepo, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (ps *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	return ps.profileRepo.FindProfile(ctx, userID)
}

// UpdateProfile patches the profile document. Name changes are mirrored onto
// the users row so display names stay consistent across both stores.
func (ps *ProfileService) UpdateProfile(ctx context.Context, userID int64, input models.UpdateProfileInput) (*models.Profile, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}
	if input.FirstName == nil && input.LastName == nil && input.Bio == nil && input.AvatarURL == nil {
		return nil, apperrors.NewValidationError("", "no fields to update")
	}

	profile, err := ps.profileRepo.UpdateProfile(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	names := map[string]interface{}{}
	if input.FirstName != nil {
		names["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		names["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if len(names) > 0 {
		if _, err := ps.userRepo.UpdateUser(ctx, userID, names); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (ps *ProfileService) followPair(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return apperrors.NewValidationError("user_id", "you cannot follow yourself")
	}
	if _, err := ps.profileRepo.FindProfile(ctx, followerID); err != nil {
		return err
	}
	if _, err := ps.profileRepo.FindProfile(ctx, followeeID); err != nil {
		return err
	}
	return nil
}

func (ps *ProfileService) followResult(ctx context.Context, followeeID int64, following, changed bool) (*models.FollowResult, error) {
	target, err := ps.profileRepo.FindProfile(ctx, followeeID)
	if err != nil {
		return nil, err
	}
	return &models.FollowResult{
		UserID:         followeeID,
		Following:      following,
		Changed:        changed,
		FollowersCount: target.FollowersCount,
	}, nil
}

func (ps *ProfileService) Follow(ctx context.Context, followerID, followeeID int64) (*models.FollowResult, error) {
	if err := ps.followPair(ctx, followerID, followeeID); err != nil {
		return nil, err
	}
	changed, err := ps.profileRepo.AddFollow(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if changed {
		ps.logger.Info("user followed", "follower_id", followerID, "followee_id", followeeID)
	}
	return ps.followResult(ctx, followeeID, true, changed)
}

func (ps *ProfileService) Unfollow(ctx context.Context, followerID, followeeID int64) (*models.FollowResult, error) {
	if err := ps.followPair(ctx, followerID, followeeID); err != nil {
		return nil, err
	}
	changed, err := ps.profileRepo.RemoveFollow(ctx, followerID, followeeID)
	if err != nil {
		return nil, err
	}
	if changed {
		ps.logger.Info("user unfollowed", "follower_id", followerID, "followee_id", followeeID)
	}
	return ps.followResult(ctx, followeeID, false, changed)
}

// Friends returns the profiles the user follows.
func (ps *ProfileService) Friends(ctx context.Context, userID int64) ([]models.Profile, error) {
	profile, err := ps.profileRepo.FindProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ps.profileRepo.ProfilesByUserIDs(ctx, profile.Follow)
}

func (ps *ProfileService) Followers(ctx context.Context, userID int64) ([]models.Profile, error) {
	if _, err := ps.profileRepo.FindProfile(ctx, userID); err != nil {
		return nil, err
	}
	return ps.profileRepo.Followers(ctx, userID)
}

func (ps *ProfileService) Search(ctx context.Context, query string) ([]models.Profile, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperrors.NewValidationError("q", "search query is required")
	}
	return ps.profileRepo.SearchProfiles(ctx, q, SearchLimit)
}

func presenceView(p *models.Profile) *models.PresenceView {
	return &models.PresenceView{
		UserID:       p.UserID,
		OnlineStatus: p.OnlineStatus,
		LastSeen:     p.LastSeen,
	}
}

// SetPresence records a heartbeat.
func (ps *ProfileService) SetPresence(ctx context.Context, userID int64, input models.PresenceInput) (*models.PresenceView, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("online", "online is required")
	}
	profile, err := ps.profileRepo.SetPresence(ctx, userID, *input.Online, ps.now())
	if err != nil {
		return nil, err
	}
	return presenceView(profile), nil
}

func (ps *ProfileService) GetPresence(ctx context.Context, userID int64) (*models.PresenceView, error) {
	profile, err := ps.profileRepo.FindProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return presenceView(profile), nil
}

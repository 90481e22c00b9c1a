package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, first, last string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: first, LastName: last}
	require.NoError(t, db.Create(u).Error)
	return u
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

// MockProfileRepository is an in-memory profile store. Set AvatarsFunc to
// override the batched avatar lookup.
type MockProfileRepository struct {
	mu          sync.Mutex
	profiles    map[int64]*models.Profile
	AvatarsFunc func(ctx context.Context, userIDs []int64) (map[int64]*string, error)
	AvatarCalls int
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: map[int64]*models.Profile{}}
}

func (m *MockProfileRepository) put(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Follow == nil {
		p.Follow = []int64{}
	}
	m.profiles[p.UserID] = &p
}

func (m *MockProfileRepository) FindProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("profile not found")
	}
	cp := *p
	cp.Follow = append([]int64{}, p.Follow...)
	return &cp, nil
}

func (m *MockProfileRepository) AvatarsByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*string, error) {
	m.mu.Lock()
	m.AvatarCalls++
	m.mu.Unlock()
	if m.AvatarsFunc != nil {
		return m.AvatarsFunc(ctx, userIDs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]*string{}
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out[id] = p.AvatarURL
		}
	}
	return out, nil
}

func (m *MockProfileRepository) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	existing, ok := m.profiles[profile.UserID]
	m.mu.Unlock()
	p := *profile
	if ok {
		p.Follow = existing.Follow
		p.FollowersCount = existing.FollowersCount
	}
	m.put(p)
	return m.FindProfile(ctx, profile.UserID)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, userID int64, input models.UpdateProfileInput) (*models.Profile, error) {
	m.mu.Lock()
	p, ok := m.profiles[userID]
	if ok {
		if input.FirstName != nil {
			p.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			p.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.Bio != nil {
			p.Bio = strings.TrimSpace(*input.Bio)
		}
		if input.AvatarURL != nil {
			a := strings.TrimSpace(*input.AvatarURL)
			p.AvatarURL = &a
		}
	}
	m.mu.Unlock()
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("profile not found")
	}
	return m.FindProfile(ctx, userID)
}

func (m *MockProfileRepository) DeleteProfile(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	for _, p := range m.profiles {
		p.Follow = without(p.Follow, userID)
	}
	return nil
}

func without(ids []int64, id int64) []int64 {
	out := []int64{}
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *MockProfileRepository) AddFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	follower, ok := m.profiles[followerID]
	if !ok || contains(follower.Follow, followeeID) {
		return false, nil
	}
	follower.Follow = append(follower.Follow, followeeID)
	if followee, ok := m.profiles[followeeID]; ok {
		followee.FollowersCount++
	}
	return true, nil
}

func (m *MockProfileRepository) RemoveFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	follower, ok := m.profiles[followerID]
	if !ok || !contains(follower.Follow, followeeID) {
		return false, nil
	}
	follower.Follow = without(follower.Follow, followeeID)
	if followee, ok := m.profiles[followeeID]; ok && followee.FollowersCount > 0 {
		followee.FollowersCount--
	}
	return true, nil
}

func (m *MockProfileRepository) collect(match func(*models.Profile) bool) []models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Profile{}
	for _, p := range m.profiles {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (m *MockProfileRepository) ProfilesByUserIDs(ctx context.Context, userIDs []int64) ([]models.Profile, error) {
	return m.collect(func(p *models.Profile) bool { return contains(userIDs, p.UserID) }), nil
}

func (m *MockProfileRepository) Followers(ctx context.Context, userID int64) ([]models.Profile, error) {
	return m.collect(func(p *models.Profile) bool { return contains(p.Follow, userID) }), nil
}

func (m *MockProfileRepository) SetPresence(ctx context.Context, userID int64, online bool, at time.Time) (*models.Profile, error) {
	m.mu.Lock()
	p, ok := m.profiles[userID]
	if ok {
		p.OnlineStatus = online
		seen := at
		p.LastSeen = &seen
	}
	m.mu.Unlock()
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("profile not found")
	}
	return m.FindProfile(ctx, userID)
}

func (m *MockProfileRepository) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.profiles {
		if p.OnlineStatus && p.LastSeen != nil && p.LastSeen.Before(cutoff) {
			p.OnlineStatus = false
			n++
		}
	}
	return n, nil
}

func (m *MockProfileRepository) SearchProfiles(ctx context.Context, query string, limit int64) ([]models.Profile, error) {
	q := strings.ToLower(query)
	out := m.collect(func(p *models.Profile) bool {
		return strings.HasPrefix(strings.ToLower(p.FirstName), q) ||
			strings.HasPrefix(strings.ToLower(p.LastName), q) ||
			strings.HasPrefix(strings.ToLower(p.Email), q)
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MockAuthRepository struct {
	SignUpFunc           func(ctx context.Context, email, password string, data map[string]interface{}) (string, error)
	AuthenticateUserFunc func(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshTokenFunc     func(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

func (m *MockAuthRepository) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (string, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password, data)
	}
	return "auth-" + email, nil
}

func (m *MockAuthRepository) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	if m.AuthenticateUserFunc != nil {
		return m.AuthenticateUserFunc(ctx, email, password)
	}
	return &types.TokenResponse{}, nil
}

func (m *MockAuthRepository) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return &types.TokenResponse{}, nil
}

package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Ada", "Lovelace", "Ada Lovelace"},
		{"  Ada ", "", "Ada"},
		{"", "Lovelace", "Lovelace"},
		{" ", "  ", AnonymousName},
	}
	for _, tt := range tests {
		u := &User{FirstName: tt.first, LastName: tt.last}
		assert.Equal(t, tt.want, u.FullName())
	}
}

func TestGormRepo_UserLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()

	authID := "7f3c5a9e-0000-4000-8000-000000000001"
	u := &User{AuthID: &authID, Email: "ada@example.com", FirstName: "Ada"}
	require.NoError(t, repo.CreateUser(ctx, u))

	byAuth, err := repo.GetUserByAuthID(ctx, authID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byAuth.ID)

	_, err = repo.GetUserByAuthID(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	updated, err := repo.UpdateUser(ctx, u.ID, map[string]interface{}{"last_name": "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", updated.LastName)

	_, err = repo.UpdateUser(ctx, 999, map[string]interface{}{"last_name": "x"})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	users, err := repo.GetUsersByIDs(ctx, []int64{u.ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGormRepo_DeleteUserKeepsForeignComments(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	org := seedUser(t, db, "org@example.com", "Org", "")
	leaver := seedUser(t, db, "leaver@example.com", "Leaver", "")

	hosted := seedEvent(t, repo, org.ID, "Hosted", time.Now().Add(time.Hour))
	own := seedEvent(t, repo, leaver.ID, "Own", time.Now().Add(time.Hour))
	comment := &EventComment{EventID: hosted.ID, AuthorID: &leaver.ID, Content: "see you"}
	require.NoError(t, db.Create(comment).Error)
	_, err := repo.AddParticipant(ctx, hosted.ID, leaver.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, leaver.ID))

	reloaded, err := repo.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.AuthorID)

	_, err = repo.GetEventByID(ctx, own.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	event, err := repo.GetEventByID(ctx, hosted.ID)
	require.NoError(t, err)
	assert.Empty(t, event.Participants)

	err = repo.DeleteUser(ctx, leaver.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

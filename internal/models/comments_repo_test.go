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

func TestGormRepo_CommentQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	u := seedUser(t, db, "u@example.com", "Grace", "Hopper")
	event := seedEvent(t, repo, u.ID, "Talk", time.Now().Add(time.Hour))
	other := seedEvent(t, repo, u.ID, "Other", time.Now().Add(time.Hour))

	t0 := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	second := &EventComment{EventID: event.ID, AuthorID: &u.ID, Content: "second", CreatedAt: t0.Add(time.Minute)}
	first := &EventComment{EventID: event.ID, AuthorID: &u.ID, Content: "first", CreatedAt: t0}
	require.NoError(t, db.Create(second).Error)
	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(&EventComment{EventID: other.ID, AuthorID: &u.ID, Content: "elsewhere", CreatedAt: t0}).Error)

	reply := &EventComment{EventID: event.ID, AuthorID: nil, ParentID: &first.ID, Content: "anon reply", CreatedAt: t0.Add(2 * time.Minute)}
	require.NoError(t, db.Create(reply).Error)

	parents, err := repo.ListTopLevelComments(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, parents, 2)
	assert.Equal(t, "first", parents[0].Content)
	assert.Equal(t, "second", parents[1].Content)
	require.NotNil(t, parents[0].Author)
	assert.Equal(t, "Grace", parents[0].Author.FirstName)

	replies, err := repo.ListRepliesByParentIDs(ctx, event.ID, []int64{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "anon reply", replies[0].Content)
	assert.Nil(t, replies[0].Author)

	none, err := repo.ListRepliesByParentIDs(ctx, event.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := repo.ListTopLevelComments(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGormRepo_CreateUpdateDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	u := seedUser(t, db, "u@example.com", "Grace", "Hopper")
	event := seedEvent(t, repo, u.ID, "Talk", time.Now().Add(time.Hour))

	parent := &EventComment{EventID: event.ID, AuthorID: &u.ID, Content: "root"}
	require.NoError(t, repo.CreateCommentWithActivity(ctx, parent, &EventActivity{UserID: u.ID, ActivityType: ActivityCommented}))
	require.NotNil(t, parent.Author)
	assert.Equal(t, u.ID, parent.Author.ID)

	child := &EventComment{EventID: event.ID, AuthorID: &u.ID, ParentID: &parent.ID, Content: "child"}
	require.NoError(t, repo.CreateCommentWithActivity(ctx, child, &EventActivity{UserID: u.ID, ActivityType: ActivityCommented}))

	updated, err := repo.UpdateCommentContent(ctx, child.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, repo.DeleteCommentTree(ctx, parent.ID))

	var n int64
	require.NoError(t, db.Model(&EventComment{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = repo.GetCommentByID(ctx, parent.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	err = repo.DeleteCommentTree(ctx, parent.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

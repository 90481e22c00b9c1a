package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRepo_Conversations(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com", "Alice", "")
	bob := seedUser(t, db, "bob@example.com", "Bob", "")
	carol := seedUser(t, db, "carol@example.com", "Carol", "")

	conv, err := repo.CreateConversation(ctx, []int64{alice.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, conv.Participants, 2)

	ok, err := repo.IsConversationParticipant(ctx, conv.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsConversationParticipant(ctx, conv.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.CreateConversation(ctx, []int64{bob.ID, carol.ID})
	require.NoError(t, err)

	aliceConvs, err := repo.ListConversationsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceConvs, 1)
	assert.Equal(t, conv.ID, aliceConvs[0].ID)
	assert.Len(t, aliceConvs[0].Participants, 2)

	bobConvs, err := repo.ListConversationsForUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobConvs, 2)
}

func TestGormRepo_MessagesAndUnread(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com", "Alice", "")
	bob := seedUser(t, db, "bob@example.com", "Bob", "")
	conv, err := repo.CreateConversation(ctx, []int64{alice.ID, bob.ID})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.CreateMessage(ctx, &Message{ConversationID: conv.ID, SenderID: alice.ID, Text: text, MessageType: MessageTypeText}))
	}
	require.NoError(t, repo.CreateMessage(ctx, &Message{ConversationID: conv.ID, SenderID: bob.ID, Text: "reply", MessageType: MessageTypeText}))

	latest, err := repo.ListMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "three", latest[0].Text)
	assert.Equal(t, "reply", latest[1].Text)

	unread, err := repo.CountUnread(ctx, bob.ID, []int64{conv.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread[conv.ID])

	marked, err := repo.MarkMessagesRead(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	unread, err = repo.CountUnread(ctx, bob.ID, []int64{conv.ID})
	require.NoError(t, err)
	assert.Zero(t, unread[conv.ID])

	aliceUnread, err := repo.CountUnread(ctx, alice.ID, []int64{conv.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceUnread[conv.ID])
}

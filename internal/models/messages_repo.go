package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type MessagesRepo interface {
	CreateConversation(ctx context.Context, participantIDs []int64) (*Conversation, error)
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
	IsConversationParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	ListConversationsForUser(ctx context.Context, userID int64) ([]Conversation, error)
	CountUnread(ctx context.Context, userID int64, conversationIDs []int64) (map[int64]int64, error)
	CreateMessage(ctx context.Context, message *Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID int64) (int64, error)
}

func (r *GormRepo) CreateConversation(ctx context.Context, participantIDs []int64) (*Conversation, error) {
	conv := &Conversation{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants").Create(conv).Error; err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}
		rows := make([]ConversationParticipant, 0, len(participantIDs))
		for _, id := range participantIDs {
			rows = append(rows, ConversationParticipant{ConversationID: conv.ID, UserID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetConversation(ctx, conv.ID)
}

func (r *GormRepo) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("users.id ASC") }).
		First(&conv, id).Error
	if err != nil {
		return nil, notFoundOr(err, "conversation")
	}
	return &conv, nil
}

func (r *GormRepo) IsConversationParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return n > 0, nil
}

func (r *GormRepo) ListConversationsForUser(ctx context.Context, userID int64) ([]Conversation, error) {
	convs := []Conversation{}
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("users.id ASC") }).
		Order("conversations.updated_at DESC").
		Order("conversations.id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// CountUnread counts, per conversation, the messages others sent that userID has not read.
func (r *GormRepo) CountUnread(ctx context.Context, userID int64, conversationIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ConversationID int64
		Total          int64
	}
	err := r.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, COUNT(id) AS total").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	for _, row := range rows {
		counts[row.ConversationID] = row.Total
	}
	return counts, nil
}

// CreateMessage stores the message and bumps the conversation so listings sort by activity.
func (r *GormRepo) CreateMessage(ctx context.Context, message *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		err := tx.Model(&Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("updated_at", time.Now().UTC()).Error
		if err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
}

// ListMessages returns the latest messages of a conversation in chronological order.
func (r *GormRepo) ListMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error) {
	messages := []Message{}
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *GormRepo) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/metrics"
	"github.com/bako110/Anniv/internal/models"
)

const (
	DefaultMessageLimit = 100
	MaxMessageLimit     = 500
)

type MessageService struct {
	messagesRepo models.MessagesRepo
	userRepo     models.UserRepo
	profiles     models.ProfileReader
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewMessageService(messagesRepo models.MessagesRepo, userRepo models.UserRepo, profiles models.ProfileReader, m *metrics.Metrics, logger *slog.Logger) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		messagesRepo: messagesRepo,
		userRepo:     userRepo,
		profiles:     profiles,
		metrics:      m,
		logger:       logger,
	}
}

// conversationMembers returns the sorted distinct participant ids, caller included.
func conversationMembers(callerID int64, ids []int64) []int64 {
	set := map[int64]struct{}{callerID: {}}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	members := make([]int64, 0, len(set))
	for id := range set {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}

func (ms *MessageService) conversationViews(ctx context.Context, callerID int64, convs []models.Conversation) ([]models.ConversationView, error) {
	views := make([]models.ConversationView, 0, len(convs))
	if len(convs) == 0 {
		return views, nil
	}

	convIDs := make([]int64, 0, len(convs))
	userIDs := []int64{}
	seen := map[int64]struct{}{}
	for _, c := range convs {
		convIDs = append(convIDs, c.ID)
		for _, p := range c.Participants {
			if _, ok := seen[p.ID]; !ok {
				seen[p.ID] = struct{}{}
				userIDs = append(userIDs, p.ID)
			}
		}
	}

	unread, err := ms.messagesRepo.CountUnread(ctx, callerID, convIDs)
	if err != nil {
		return nil, err
	}
	avatars, err := ms.profiles.AvatarsByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for i := range convs {
		c := &convs[i]
		participants := make([]models.UserSummary, 0, len(c.Participants))
		for j := range c.Participants {
			u := &c.Participants[j]
			participants = append(participants, models.NewUserSummary(u, avatars[u.ID]))
		}
		views = append(views, models.ConversationView{
			ID:           c.ID,
			Participants: participants,
			UnreadCount:  unread[c.ID],
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return views, nil
}

func (ms *MessageService) CreateConversation(ctx context.Context, callerID int64, input models.CreateConversationInput) (*models.ConversationView, error) {
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("participant_ids", err.Error())
	}
	members := conversationMembers(callerID, input.ParticipantIDs)
	if len(members) < 2 {
		return nil, apperrors.NewValidationError("participant_ids", "a conversation needs at least one other participant")
	}

	users, err := ms.userRepo.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	if len(users) != len(members) {
		return nil, apperrors.NewValidationError("participant_ids", "one or more participants do not exist")
	}

	conv, err := ms.messagesRepo.CreateConversation(ctx, members)
	if err != nil {
		return nil, err
	}
	ms.logger.Info("conversation created", "conversation_id", conv.ID, "participants", len(members))

	views, err := ms.conversationViews(ctx, callerID, []models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (ms *MessageService) ListConversations(ctx context.Context, callerID int64) ([]models.ConversationView, error) {
	convs, err := ms.messagesRepo.ListConversationsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return ms.conversationViews(ctx, callerID, convs)
}

func (ms *MessageService) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	if _, err := ms.messagesRepo.GetConversation(ctx, conversationID); err != nil {
		return err
	}
	ok, err := ms.messagesRepo.IsConversationParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotParticipant
	}
	return nil
}

func (ms *MessageService) ListMessages(ctx context.Context, conversationID, callerID int64, limit int) ([]models.Message, error) {
	if err := ms.requireParticipant(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	return ms.messagesRepo.ListMessages(ctx, conversationID, limit)
}

func (ms *MessageService) SendMessage(ctx context.Context, conversationID, senderID int64, input models.SendMessageInput) (*models.Message, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := models.Validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("text", err.Error())
	}
	if err := ms.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msgType := input.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           input.Text,
		MessageType:    msgType,
	}
	if err := ms.messagesRepo.CreateMessage(ctx, message); err != nil {
		ms.logger.Error("failed to send message", "conversation_id", conversationID, "error", err)
		return nil, err
	}
	ms.metrics.IncrementMessageSent()
	return message, nil
}

// MarkRead marks every message the other participants sent as read by the caller.
func (ms *MessageService) MarkRead(ctx context.Context, conversationID, callerID int64) (int64, error) {
	if err := ms.requireParticipant(ctx, conversationID, callerID); err != nil {
		return 0, err
	}
	return ms.messagesRepo.MarkMessagesRead(ctx, conversationID, callerID)
}

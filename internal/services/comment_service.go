package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bako110/Anniv/internal/apperrors"
	"github.com/bako110/Anniv/internal/metrics"
	"github.com/bako110/Anniv/internal/models"
	"github.com/go-playground/validator/v10"
)

type CommentService struct {
	commentsRepo models.CommentsRepo
	eventsRepo   models.EventsRepo
	profiles     models.ProfileReader
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewCommentService(commentsRepo models.CommentsRepo, eventsRepo models.EventsRepo, profiles models.ProfileReader, m *metrics.Metrics, logger *slog.Logger) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{
		commentsRepo: commentsRepo,
		eventsRepo:   eventsRepo,
		profiles:     profiles,
		metrics:      m,
		logger:       logger,
	}
}

func (cs *CommentService) avatars(ctx context.Context, userIDs []int64) (map[int64]*string, error) {
	start := time.Now()
	avatars, err := cs.profiles.AvatarsByUserIDs(ctx, userIDs)
	cs.metrics.ObserveProfileLookup("avatars", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load avatars: %w", err)
	}
	return avatars, nil
}

// authorIDs is the distinct set of non-null author ids, in first-seen order.
func authorIDs(groups ...[]models.EventComment) []int64 {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, comments := range groups {
		for _, c := range comments {
			if c.AuthorID == nil {
				continue
			}
			if _, ok := seen[*c.AuthorID]; ok {
				continue
			}
			seen[*c.AuthorID] = struct{}{}
			ids = append(ids, *c.AuthorID)
		}
	}
	return ids
}

// newCommentNode resolves display data. A missing author row means the
// account is gone: the node shows DeletedUserName with no avatar.
func newCommentNode(c *models.EventComment, avatars map[int64]*string) models.CommentNode {
	node := models.CommentNode{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		EventID:   c.EventID,
		AuthorID:  c.AuthorID,
		ParentID:  c.ParentID,
		FullName:  models.DeletedUserName,
		Replies:   []models.CommentNode{},
	}
	if c.AuthorID != nil && c.Author != nil {
		node.FullName = c.Author.FullName()
		node.AvatarURL = avatars[*c.AuthorID]
	}
	return node
}

// BuildCommentTree nests replies under their parents. Replies whose parent is
// not in parents are dropped, so no reply ever surfaces at the top level.
func BuildCommentTree(parents, replies []models.EventComment, avatars map[int64]*string) []models.CommentNode {
	byParent := make(map[int64][]models.CommentNode, len(parents))
	for i := range replies {
		r := &replies[i]
		if r.ParentID == nil {
			continue
		}
		byParent[*r.ParentID] = append(byParent[*r.ParentID], newCommentNode(r, avatars))
	}

	tree := make([]models.CommentNode, 0, len(parents))
	for i := range parents {
		node := newCommentNode(&parents[i], avatars)
		if children, ok := byParent[parents[i].ID]; ok {
			node.Replies = children
		}
		tree = append(tree, node)
	}
	return tree
}

// GetComments loads the two-level comment tree of an event with two comment
// queries and one batched avatar lookup.
func (cs *CommentService) GetComments(ctx context.Context, eventID int64) ([]models.CommentNode, error) {
	exists, err := cs.eventsRepo.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewResourceNotFoundError("event not found")
	}

	parents, err := cs.commentsRepo.ListTopLevelComments(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return []models.CommentNode{}, nil
	}

	parentIDs := make([]int64, len(parents))
	for i, p := range parents {
		parentIDs[i] = p.ID
	}
	replies, err := cs.commentsRepo.ListRepliesByParentIDs(ctx, eventID, parentIDs)
	if err != nil {
		return nil, err
	}

	avatars, err := cs.avatars(ctx, authorIDs(parents, replies))
	if err != nil {
		return nil, err
	}

	tree := BuildCommentTree(parents, replies, avatars)
	cs.logger.Debug("comments loaded", "event_id", eventID, "top_level", len(parents), "replies", len(replies))
	return tree, nil
}

// validateCommentInput runs the struct tags on an input whose content is already trimmed.
func validateCommentInput(input interface{}) error {
	err := models.Validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.StructField() {
		case "ParentID":
			return apperrors.NewValidationError("parent_id", "parent_id must be a positive integer")
		case "Content":
			if fe.Tag() == "max" {
				return apperrors.NewValidationError("content", fmt.Sprintf("content must be at most %d characters", models.MaxCommentLength))
			}
			return apperrors.NewValidationError("content", "content is required")
		}
	}
	return apperrors.NewValidationError("", err.Error())
}

func (cs *CommentService) singleNode(ctx context.Context, c *models.EventComment) (models.CommentNode, error) {
	avatars := map[int64]*string{}
	if c.AuthorID != nil {
		var err error
		avatars, err = cs.avatars(ctx, []int64{*c.AuthorID})
		if err != nil {
			return models.CommentNode{}, err
		}
	}
	return newCommentNode(c, avatars), nil
}

// AddComment posts a top-level comment or a reply. A reply to a reply is
// attached to the thread's top-level comment.
func (cs *CommentService) AddComment(ctx context.Context, eventID, authorID int64, input models.CreateCommentInput) (*models.CommentNode, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validateCommentInput(input); err != nil {
		return nil, err
	}
	content := input.Content

	event, err := cs.eventsRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.AllowComments {
		return nil, apperrors.ErrCommentsClosed
	}

	var parentID *int64
	if input.ParentID != nil {
		parent, err := cs.commentsRepo.GetCommentByID(ctx, *input.ParentID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, apperrors.NewValidationError("parent_id", "parent comment does not exist")
			}
			return nil, err
		}
		if parent.EventID != eventID {
			return nil, apperrors.NewValidationError("parent_id", "parent comment belongs to another event")
		}
		root := parent.ID
		if parent.ParentID != nil {
			root = *parent.ParentID
		}
		parentID = &root
	}

	comment := &models.EventComment{
		EventID:  eventID,
		AuthorID: &authorID,
		ParentID: parentID,
		Content:  content,
	}
	activity := &models.EventActivity{
		UserID:       authorID,
		ActivityType: models.ActivityCommented,
		Data:         activityData(map[string]interface{}{"parent_id": parentID}),
	}
	if err := cs.commentsRepo.CreateCommentWithActivity(ctx, comment, activity); err != nil {
		cs.logger.Error("failed to create comment", "event_id", eventID, "error", err)
		return nil, err
	}
	cs.metrics.IncrementCommentCreated()

	node, err := cs.singleNode(ctx, comment)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (cs *CommentService) UpdateComment(ctx context.Context, commentID, actorID int64, input models.UpdateCommentInput) (*models.CommentNode, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validateCommentInput(input); err != nil {
		return nil, err
	}
	content := input.Content
	comment, err := cs.commentsRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID == nil || *comment.AuthorID != actorID {
		return nil, apperrors.NewForbiddenError("only the author can edit this comment")
	}

	updated, err := cs.commentsRepo.UpdateCommentContent(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	node, err := cs.singleNode(ctx, updated)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteComment is allowed for the author and for the event organizer.
func (cs *CommentService) DeleteComment(ctx context.Context, commentID, actorID int64) error {
	comment, err := cs.commentsRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID == nil || *comment.AuthorID != actorID {
		event, err := cs.eventsRepo.GetEventByID(ctx, comment.EventID)
		if err != nil {
			return err
		}
		if event.OrganizerID != actorID {
			return apperrors.NewForbiddenError("only the author or the organizer can delete this comment")
		}
	}
	if err := cs.commentsRepo.DeleteCommentTree(ctx, commentID); err != nil {
		return err
	}
	cs.logger.Info("comment deleted", "comment_id", commentID, "event_id", comment.EventID)
	return nil
}

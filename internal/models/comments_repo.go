package models

import (
	"context"
	"fmt"

	"github.com/bako110/Anniv/internal/apperrors"
	"gorm.io/gorm"
)

type CommentsRepo interface {
	ListTopLevelComments(ctx context.Context, eventID int64) ([]EventComment, error)
	ListRepliesByParentIDs(ctx context.Context, eventID int64, parentIDs []int64) ([]EventComment, error)
	GetCommentByID(ctx context.Context, id int64) (*EventComment, error)
	CreateCommentWithActivity(ctx context.Context, comment *EventComment, activity *EventActivity) error
	UpdateCommentContent(ctx context.Context, id int64, content string) (*EventComment, error)
	DeleteCommentTree(ctx context.Context, id int64) error
}

func (r *GormRepo) ListTopLevelComments(ctx context.Context, eventID int64) ([]EventComment, error) {
	comments := []EventComment{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("event_id = ? AND parent_id IS NULL", eventID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	return comments, nil
}

// ListRepliesByParentIDs loads every reply of the given parents in a single query.
func (r *GormRepo) ListRepliesByParentIDs(ctx context.Context, eventID int64, parentIDs []int64) ([]EventComment, error) {
	replies := []EventComment{}
	if len(parentIDs) == 0 {
		return replies, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("event_id = ? AND parent_id IN ?", eventID, parentIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load replies: %w", err)
	}
	return replies, nil
}

func (r *GormRepo) GetCommentByID(ctx context.Context, id int64) (*EventComment, error) {
	var comment EventComment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "comment")
	}
	return &comment, nil
}

func (r *GormRepo) CreateCommentWithActivity(ctx context.Context, comment *EventComment, activity *EventActivity) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		activity.EventID = comment.EventID
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to insert event activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if comment.AuthorID != nil {
		var author User
		if err := r.db.WithContext(ctx).First(&author, *comment.AuthorID).Error; err == nil {
			comment.Author = &author
		}
	}
	return nil
}

func (r *GormRepo) UpdateCommentContent(ctx context.Context, id int64, content string) (*EventComment, error) {
	res := r.db.WithContext(ctx).Model(&EventComment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NewResourceNotFoundError("comment not found")
	}
	return r.GetCommentByID(ctx, id)
}

// DeleteCommentTree deletes a comment and its direct replies.
func (r *GormRepo) DeleteCommentTree(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&EventComment{}).Error; err != nil {
			return fmt.Errorf("failed to delete replies: %w", err)
		}
		res := tx.Delete(&EventComment{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete comment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NewResourceNotFoundError("comment not found")
		}
		return nil
	})
}

package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/bako110/Anniv/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventsRepo interface {
	CreateEventWithActivity(ctx context.Context, event *Event, activity *EventActivity) error
	GetEventByID(ctx context.Context, id int64) (*Event, error)
	EventExists(ctx context.Context, id int64) (bool, error)
	ListEvents(ctx context.Context, filters EventFilters, offset, limit int) ([]Event, int64, error)
	CountCommentsByEventIDs(ctx context.Context, eventIDs []int64) (map[int64]int64, error)
	UpdateEventWithActivity(ctx context.Context, id int64, updates map[string]interface{}, activity *EventActivity) (*Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	AddParticipant(ctx context.Context, eventID, userID int64) (bool, error)
	RemoveParticipant(ctx context.Context, eventID, userID int64) (bool, error)
	ListActivities(ctx context.Context, eventID int64, limit int) ([]EventActivity, error)
}

// CreateEventWithActivity inserts the event and its audit row in one transaction.
func (r *GormRepo) CreateEventWithActivity(ctx context.Context, event *Event, activity *EventActivity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(event).Error; err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		activity.EventID = event.ID
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to insert event activity: %w", err)
		}
		return nil
	})
}

func (r *GormRepo) GetEventByID(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("users.id ASC") }).
		First(&event, id).Error
	if err != nil {
		return nil, notFoundOr(err, "event")
	}
	return &event, nil
}

func (r *GormRepo) EventExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is a lowercase substring LIKE pattern with wildcards in s escaped by '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// filteredEvents builds a fresh chain each call so the count and page queries never share state.
func (r *GormRepo) filteredEvents(ctx context.Context, f EventFilters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Event{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, containsPattern(loc))
	}
	if f.DateFrom != nil {
		q = q.Where("date >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", f.DateTo.UTC())
	}
	if f.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *f.OrganizerID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := containsPattern(s)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	return q
}

func (r *GormRepo) ListEvents(ctx context.Context, filters EventFilters, offset, limit int) ([]Event, int64, error) {
	var total int64
	if err := r.filteredEvents(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	events := []Event{}
	if total == 0 || int64(offset) >= total {
		return events, total, nil
	}

	err := r.filteredEvents(ctx, filters).
		Preload("Organizer").
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("users.id ASC") }).
		Order("date ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

func (r *GormRepo) CountCommentsByEventIDs(ctx context.Context, eventIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID int64
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&EventComment{}).
		Select("event_id, COUNT(id) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	for _, row := range rows {
		counts[row.EventID] = row.Total
	}
	return counts, nil
}

func (r *GormRepo) UpdateEventWithActivity(ctx context.Context, id int64, updates map[string]interface{}, activity *EventActivity) (*Event, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Event{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NewResourceNotFoundError("event not found")
		}
		activity.EventID = id
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to insert event activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetEventByID(ctx, id)
}

func (r *GormRepo) DeleteEvent(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteEventTx(tx, id)
	})
}

func deleteEventTx(tx *gorm.DB, id int64) error {
	if err := tx.Where("event_id = ?", id).Delete(&EventComment{}).Error; err != nil {
		return fmt.Errorf("failed to delete event comments: %w", err)
	}
	if err := tx.Where("event_id = ?", id).Delete(&EventActivity{}).Error; err != nil {
		return fmt.Errorf("failed to delete event activities: %w", err)
	}
	if err := tx.Where("event_id = ?", id).Delete(&EventParticipant{}).Error; err != nil {
		return fmt.Errorf("failed to delete event participants: %w", err)
	}
	res := tx.Delete(&Event{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewResourceNotFoundError("event not found")
	}
	return nil
}

// AddParticipant joins the user to the event. It returns false when the user
// was already a participant. The capacity check and insert share one
// transaction with the event row locked.
func (r *GormRepo) AddParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	joined := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, eventID).Error; err != nil {
			return notFoundOr(err, "event")
		}

		var existing int64
		if err := tx.Model(&EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&EventParticipant{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if event.IsFull(int(count)) {
			return apperrors.ErrEventFull
		}

		if err := tx.Create(&EventParticipant{EventID: eventID, UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
		if err := tx.Create(&EventActivity{EventID: eventID, UserID: userID, ActivityType: ActivityJoined}).Error; err != nil {
			return fmt.Errorf("failed to insert event activity: %w", err)
		}
		joined = true
		return nil
	})
	return joined, err
}

func (r *GormRepo) RemoveParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	left := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Event{}).Where("id = ?", eventID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperrors.NewResourceNotFoundError("event not found")
		}

		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&EventParticipant{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(&EventActivity{EventID: eventID, UserID: userID, ActivityType: ActivityLeft}).Error; err != nil {
			return fmt.Errorf("failed to insert event activity: %w", err)
		}
		left = true
		return nil
	})
	return left, err
}

func (r *GormRepo) ListActivities(ctx context.Context, eventID int64, limit int) ([]EventActivity, error) {
	activities := []EventActivity{}
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

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

func TestGormRepo_CreateEventWithActivity(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	organizer := seedUser(t, db, "org@example.com", "Ada", "Lovelace")

	event := seedEvent(t, repo, organizer.ID, "Launch", time.Now().Add(48*time.Hour))
	require.NotZero(t, event.ID)

	var activities []EventActivity
	require.NoError(t, db.Where("event_id = ?", event.ID).Find(&activities).Error)
	require.Len(t, activities, 1)
	assert.Equal(t, ActivityCreated, activities[0].ActivityType)

	loaded, err := repo.GetEventByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Organizer)
	assert.Equal(t, "Ada", loaded.Organizer.FirstName)
	assert.True(t, loaded.AllowComments)
	assert.Empty(t, loaded.Participants)
}

func TestGormRepo_CreateEventWithActivity_RollsBackOnActivityFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	organizer := seedUser(t, db, "org@example.com", "Ada", "Lovelace")
	require.NoError(t, db.Migrator().DropTable(&EventActivity{}))

	event := &Event{
		Title:       "Launch",
		Description: "rocket",
		Date:        time.Now().Add(48 * time.Hour).UTC(),
		Location:    "Paris",
		Category:    CategoryParty,
		Price:       DefaultPrice,
		OrganizerID: organizer.ID,
	}
	err := repo.CreateEventWithActivity(context.Background(), event, &EventActivity{UserID: organizer.ID, ActivityType: ActivityCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert event activity")

	var count int64
	require.NoError(t, db.Model(&Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormRepo_CreateEventPersistsFalseFlags(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	organizer := seedUser(t, db, "org@example.com", "Ada", "Lovelace")

	event := seedEvent(t, repo, organizer.ID, "Private", time.Now().Add(time.Hour), func(e *Event) {
		e.IsPublic = false
		e.AllowComments = false
	})

	loaded, err := repo.GetEventByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsPublic)
	assert.False(t, loaded.AllowComments)
	assert.True(t, loaded.AllowSharing)
}

func TestGormRepo_GetEventByID_NotFound(t *testing.T) {
	repo := GormNewRepo(setupTestDB(t))

	_, err := repo.GetEventByID(context.Background(), 404)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestGormRepo_ListEvents_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com", "Alice", "A")
	bob := seedUser(t, db, "bob@example.com", "Bob", "B")

	base := time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	seedEvent(t, repo, alice.ID, "Summer Concert", base, func(e *Event) { e.Category = CategoryParty; e.Location = "Lyon Centre" })
	seedEvent(t, repo, alice.ID, "Dinner night", base.Add(24*time.Hour), func(e *Event) {
		e.Category = CategoryDinner
		e.Description = "A quiet dinner with a small concert afterwards"
	})
	seedEvent(t, repo, bob.ID, "Board meeting", base.Add(72*time.Hour), func(e *Event) { e.Category = CategoryMeeting; e.Location = "Marseille" })

	tests := []struct {
		name    string
		filters EventFilters
		want    []string
	}{
		{"no filters", EventFilters{}, []string{"Summer Concert", "Dinner night", "Board meeting"}},
		{"category", EventFilters{Category: CategoryDinner}, []string{"Dinner night"}},
		{"location case insensitive", EventFilters{Location: "lyon"}, []string{"Summer Concert"}},
		{"search title or description", EventFilters{Search: "CONCERT"}, []string{"Summer Concert", "Dinner night"}},
		{"organizer", EventFilters{OrganizerID: int64Ptr(bob.ID)}, []string{"Board meeting"}},
		{"date from inclusive", EventFilters{DateFrom: timePtr(base.Add(24 * time.Hour))}, []string{"Dinner night", "Board meeting"}},
		{"date to inclusive", EventFilters{DateTo: timePtr(base.Add(24 * time.Hour))}, []string{"Summer Concert", "Dinner night"}},
		{"combined", EventFilters{Search: "concert", Category: CategoryParty}, []string{"Summer Concert"}},
		{"no match", EventFilters{Category: CategoryBirthday}, []string{}},
		{"percent is literal", EventFilters{Search: "%"}, []string{}},
		{"underscore is literal", EventFilters{Search: "_"}, []string{}},
		{"location underscore is literal", EventFilters{Location: "_"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := repo.ListEvents(ctx, tt.filters, 0, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			titles := []string{}
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestGormRepo_ListEvents_WildcardsMatchLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com", "Alice", "A")

	base := time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC)
	seedEvent(t, repo, alice.ID, "50% off party", base)
	seedEvent(t, repo, alice.ID, "500 guests", base.Add(time.Hour))
	seedEvent(t, repo, alice.ID, "snake_case meetup", base.Add(2*time.Hour), func(e *Event) { e.Location = `C:\hall_1` })
	seedEvent(t, repo, alice.ID, "snakeXcase meetup", base.Add(3*time.Hour), func(e *Event) { e.Location = "hallX1" })

	tests := []struct {
		name    string
		filters EventFilters
		want    []string
	}{
		{"percent", EventFilters{Search: "50%"}, []string{"50% off party"}},
		{"underscore", EventFilters{Search: "snake_case"}, []string{"snake_case meetup"}},
		{"location underscore", EventFilters{Location: "hall_1"}, []string{"snake_case meetup"}},
		{"backslash", EventFilters{Location: `c:\`}, []string{"snake_case meetup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := repo.ListEvents(ctx, tt.filters, 0, 20)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			titles := []string{}
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestGormRepo_ListEvents_PaginationIsStable(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	organizer := seedUser(t, db, "org@example.com", "Org", "")

	date := time.Date(2031, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 5; i++ {
		// same date for all: order falls back to id
		e := seedEvent(t, repo, organizer.ID, "Same day", date)
		ids = append(ids, e.ID)
	}

	page1, total, err := repo.ListEvents(ctx, EventFilters{}, 0, 2)
	require.NoError(t, err)
	page3, total3, err := repo.ListEvents(ctx, EventFilters{}, 4, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(5), total)
	assert.Equal(t, total, total3)
	require.Len(t, page1, 2)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[0], page1[0].ID)
	assert.Equal(t, ids[1], page1[1].ID)
	assert.Equal(t, ids[4], page3[0].ID)

	beyond, totalBeyond, err := repo.ListEvents(ctx, EventFilters{}, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, int64(5), totalBeyond)
}

func TestGormRepo_CountCommentsByEventIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	u := seedUser(t, db, "u@example.com", "U", "")
	e1 := seedEvent(t, repo, u.ID, "One", time.Now().Add(time.Hour))
	e2 := seedEvent(t, repo, u.ID, "Two", time.Now().Add(time.Hour))

	parent := &EventComment{EventID: e1.ID, AuthorID: &u.ID, Content: "hi"}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(&EventComment{EventID: e1.ID, AuthorID: &u.ID, ParentID: &parent.ID, Content: "reply"}).Error)

	counts, err := repo.CountCommentsByEventIDs(ctx, []int64{e1.ID, e2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[e1.ID])
	_, ok := counts[e2.ID]
	assert.False(t, ok)

	empty, err := repo.CountCommentsByEventIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormRepo_AddParticipant(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	org := seedUser(t, db, "org@example.com", "Org", "")
	u1 := seedUser(t, db, "u1@example.com", "U1", "")
	u2 := seedUser(t, db, "u2@example.com", "U2", "")
	event := seedEvent(t, repo, org.ID, "Small", time.Now().Add(time.Hour), func(e *Event) { e.MaxAttendees = intPtr(1) })

	joined, err := repo.AddParticipant(ctx, event.ID, u1.ID)
	require.NoError(t, err)
	assert.True(t, joined)

	again, err := repo.AddParticipant(ctx, event.ID, u1.ID)
	require.NoError(t, err)
	assert.False(t, again)

	_, err = repo.AddParticipant(ctx, event.ID, u2.ID)
	assert.True(t, errors.Is(err, apperrors.ErrEventFull))

	_, err = repo.AddParticipant(ctx, 999, u2.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	loaded, err := repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Participants, 1)
	assert.Equal(t, u1.ID, loaded.Participants[0].ID)

	var joins int64
	require.NoError(t, db.Model(&EventActivity{}).Where("event_id = ? AND activity_type = ?", event.ID, ActivityJoined).Count(&joins).Error)
	assert.Equal(t, int64(1), joins)
}

func TestGormRepo_RemoveParticipant(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	org := seedUser(t, db, "org@example.com", "Org", "")
	u := seedUser(t, db, "u@example.com", "U", "")
	event := seedEvent(t, repo, org.ID, "Open", time.Now().Add(time.Hour))

	_, err := repo.AddParticipant(ctx, event.ID, u.ID)
	require.NoError(t, err)

	left, err := repo.RemoveParticipant(ctx, event.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, left)

	again, err := repo.RemoveParticipant(ctx, event.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, again)

	_, err = repo.RemoveParticipant(ctx, 999, u.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestGormRepo_UpdateEventWithActivity(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	org := seedUser(t, db, "org@example.com", "Org", "")
	event := seedEvent(t, repo, org.ID, "Old", time.Now().Add(time.Hour))

	updated, err := repo.UpdateEventWithActivity(ctx, event.ID, map[string]interface{}{"title": "New", "allow_comments": false},
		&EventActivity{UserID: org.ID, ActivityType: ActivityUpdated})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.False(t, updated.AllowComments)

	_, err = repo.UpdateEventWithActivity(ctx, 999, map[string]interface{}{"title": "x"},
		&EventActivity{UserID: org.ID, ActivityType: ActivityUpdated})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	activities, err := repo.ListActivities(ctx, event.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, ActivityUpdated, activities[0].ActivityType)
	assert.Equal(t, ActivityCreated, activities[1].ActivityType)
}

func TestGormRepo_DeleteEventCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := GormNewRepo(db)
	ctx := context.Background()
	org := seedUser(t, db, "org@example.com", "Org", "")
	u := seedUser(t, db, "u@example.com", "U", "")
	event := seedEvent(t, repo, org.ID, "Doomed", time.Now().Add(time.Hour))
	_, err := repo.AddParticipant(ctx, event.ID, u.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&EventComment{EventID: event.ID, AuthorID: &u.ID, Content: "bye"}).Error)

	require.NoError(t, repo.DeleteEvent(ctx, event.ID))

	for _, model := range []interface{}{&Event{}, &EventComment{}, &EventActivity{}, &EventParticipant{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	err = repo.DeleteEvent(ctx, event.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func timePtr(t time.Time) *time.Time { return &t }

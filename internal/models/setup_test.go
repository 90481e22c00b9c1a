package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
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

	// a single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, first, last string) *User {
	t.Helper()
	u := &User{Email: email, FirstName: first, LastName: last}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedEvent(t *testing.T, repo *GormRepo, organizerID int64, title string, date time.Time, mutate ...func(*Event)) *Event {
	t.Helper()
	e := &Event{
		Title:         title,
		Description:   "description of " + title,
		Date:          date.UTC(),
		Location:      "Paris",
		Category:      CategoryParty,
		Price:         DefaultPrice,
		IsPublic:      true,
		AllowComments: true,
		AllowSharing:  true,
		OrganizerID:   organizerID,
	}
	for _, m := range mutate {
		m(e)
	}
	require.NoError(t, repo.CreateEventWithActivity(context.Background(), e, &EventActivity{UserID: organizerID, ActivityType: ActivityCreated}))
	return e
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farellandr/eventboard/config"
	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/publisher"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logging.Silence()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "eventboard_test.db"),
		},
	}
	db, err := config.InitDatabase(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func fakePassword() string {
	return gofakeit.Password(true, true, true, false, false, 12)
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user, err := NewUserService(db).CreateUser(context.Background(), NewUser{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: fakePassword(),
	})
	require.NoError(t, err)
	return user
}

// insertEvent writes an event row directly so tests control created_at.
func insertEvent(t *testing.T, db *gorm.DB, creatorID uint, createdAt time.Time) *models.Event {
	t.Helper()

	event := models.Event{
		Title:     gofakeit.Sentence(3),
		Date:      time.Now().UTC().Add(48 * time.Hour),
		Category:  models.CategoryConcert,
		CreatedBy: creatorID,
		CreatedAt: createdAt.UTC(),
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

// recordingPublisher keeps every activity it is handed.
type recordingPublisher struct {
	mu         sync.Mutex
	activities []publisher.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, activity publisher.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, activity)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.activities))
	for _, a := range p.activities {
		types = append(types, a.Type)
	}
	return types
}

package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/farellandr/eventboard/internal/models"
)

// RateLimitWindow is the rolling period over which event creations count.
const RateLimitWindow = 24 * time.Hour

// EventRateLimiter caps how many events one user may create per window.
//
// The count and the following insert are separate statements, so two
// concurrent creations by the same user can both pass the check and push
// the user one over the limit. That overshoot is accepted.
type EventRateLimiter struct {
	db *gorm.DB
}

func NewEventRateLimiter(db *gorm.DB) *EventRateLimiter {
	return &EventRateLimiter{db: db}
}

// CheckAndMaybeReject returns a *LimitError when userID already created
// limit or more events in the window ending at now. It never creates
// anything itself.
func (l *EventRateLimiter) CheckAndMaybeReject(ctx context.Context, userID uint, limit int, now time.Time) error {
	const op = "services.EventRateLimiter.CheckAndMaybeReject"

	count, err := l.CountInWindow(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count >= int64(limit) {
		return &LimitError{Limit: limit}
	}
	return nil
}

func (l *EventRateLimiter) CountInWindow(ctx context.Context, userID uint, now time.Time) (int64, error) {
	since := now.UTC().Add(-RateLimitWindow)

	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("created_by = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

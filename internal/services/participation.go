package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/farellandr/eventboard/internal/metrics"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/publisher"
)

// ParticipationService is the registry of which users joined which
// events. Uniqueness of (user, event) is enforced by the store's unique
// index; a violation is reported as ErrAlreadyParticipating.
type ParticipationService struct {
	db        *gorm.DB
	publisher publisher.Publisher
	metrics   *metrics.Metrics
}

func NewParticipationService(db *gorm.DB, pub publisher.Publisher, m *metrics.Metrics) *ParticipationService {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &ParticipationService{db: db, publisher: pub, metrics: m}
}

func (s *ParticipationService) Join(ctx context.Context, eventID, userID uint) (*models.EventParticipant, error) {
	const op = "services.ParticipationService.Join"

	event, err := findEvent(ctx, s.db, eventID)
	if err != nil {
		s.metrics.ParticipationOp("join", "not_found")
		return nil, err
	}
	if event.CreatedBy == userID {
		s.metrics.ParticipationOp("join", "owner")
		return nil, ErrOwnerCannotJoin
	}

	participant := models.EventParticipant{
		EventID: eventID,
		UserID:  userID,
	}
	if err := s.db.WithContext(ctx).Create(&participant).Error; err != nil {
		if isUniqueViolation(err) {
			s.metrics.ParticipationOp("join", "duplicate")
			return nil, ErrAlreadyParticipating
		}
		s.metrics.ParticipationOp("join", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.ParticipationOp("join", "ok")
	publish(ctx, s.publisher, publisher.Activity{
		Type:       publisher.ParticipantJoined,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: participant.CreatedAt,
	})

	return &participant, nil
}

func (s *ParticipationService) Leave(ctx context.Context, eventID, userID uint) error {
	const op = "services.ParticipationService.Leave"

	if _, err := findEvent(ctx, s.db, eventID); err != nil {
		s.metrics.ParticipationOp("leave", "not_found")
		return err
	}

	res := s.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventParticipant{})
	if res.Error != nil {
		s.metrics.ParticipationOp("leave", "error")
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		s.metrics.ParticipationOp("leave", "not_found")
		return ErrParticipantNotFound
	}

	s.metrics.ParticipationOp("leave", "ok")
	publish(ctx, s.publisher, publisher.Activity{
		Type:       publisher.ParticipantLeft,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}

// List returns every participant of eventID with their public profile, in
// join order. An event nobody joined yields an empty slice.
func (s *ParticipationService) List(ctx context.Context, eventID uint) ([]models.ParticipantWithUser, error) {
	const op = "services.ParticipationService.List"

	if _, err := findEvent(ctx, s.db, eventID); err != nil {
		return nil, err
	}

	var rows []models.EventParticipant
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.ParticipantWithUser, 0, len(rows))
	for _, row := range rows {
		item := models.ParticipantWithUser{
			ID:        row.ID,
			UserID:    row.UserID,
			EventID:   row.EventID,
			CreatedAt: row.CreatedAt,
		}
		if row.User != nil {
			item.User = row.User.Public()
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *ParticipationService) Count(ctx context.Context, eventID uint) (int64, error) {
	const op = "services.ParticipationService.Count"

	if _, err := findEvent(ctx, s.db, eventID); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.EventParticipant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (s *ParticipationService) IsParticipating(ctx context.Context, eventID, userID uint) (bool, error) {
	const op = "services.ParticipationService.IsParticipating"

	if _, err := findEvent(ctx, s.db, eventID); err != nil {
		return false, err
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// ListForUser returns the live events userID has joined.
func (s *ParticipationService) ListForUser(ctx context.Context, userID uint) ([]models.Event, error) {
	const op = "services.ParticipationService.ListForUser"

	events := []models.Event{}
	err := s.db.WithContext(ctx).
		Joins("JOIN event_participants ON event_participants.event_id = events.id").
		Where("event_participants.user_id = ?", userID).
		Order("events.date ASC").Order("events.id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

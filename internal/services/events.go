package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/metrics"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/publisher"
)

const maxTitleLength = 255

type EventInput struct {
	Title       string
	Description *string
	Date        time.Time
	Category    string
	// CreatedBy, when set, must name the creator.
	CreatedBy *uint
}

// EventUpdate is a partial update. Nil fields are left unchanged. Description
// is applied only when Set, and a Set nil Value clears it.
type EventUpdate struct {
	Title       *string
	Description models.NullableString
	Date        *time.Time
	Category    *string
}

type EventService struct {
	db        *gorm.DB
	limiter   *EventRateLimiter
	publisher publisher.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewEventService(db *gorm.DB, limiter *EventRateLimiter, pub publisher.Publisher, m *metrics.Metrics) *EventService {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &EventService{
		db:        db,
		limiter:   limiter,
		publisher: pub,
		metrics:   m,
		now:       time.Now,
	}
}

// Create validates in, consults the daily limit for creatorID and persists
// the event.
func (s *EventService) Create(ctx context.Context, creatorID uint, in EventInput, limit int) (*models.Event, error) {
	const op = "services.EventService.Create"

	now := s.now().UTC()

	if in.CreatedBy != nil && *in.CreatedBy != creatorID {
		return nil, ErrCreatorMismatch
	}

	in.Title = strings.TrimSpace(in.Title)
	var problems []string
	problems = append(problems, validateTitle(in.Title)...)
	problems = append(problems, validateFutureDate(in.Date, now)...)
	problems = append(problems, validateCategory(in.Category)...)
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}

	if err := s.limiter.CheckAndMaybeReject(ctx, creatorID, limit, now); err != nil {
		var limitErr *LimitError
		if errors.As(err, &limitErr) {
			s.metrics.RateLimited()
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	event := models.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        in.Date.UTC(),
		Category:    in.Category,
		CreatedBy:   creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.EventCreated()
	publish(ctx, s.publisher, publisher.Activity{
		Type:       publisher.EventCreated,
		EventID:    event.ID,
		UserID:     creatorID,
		OccurredAt: event.CreatedAt,
	})

	return &event, nil
}

// List returns all live events, optionally filtered by category, soonest
// first.
func (s *EventService) List(ctx context.Context, category *string) ([]models.Event, error) {
	const op = "services.EventService.List"

	query := s.db.WithContext(ctx).Model(&models.Event{})
	if category != nil && *category != "" {
		if problems := validateCategory(*category); len(problems) > 0 {
			return nil, newValidationError(problems...)
		}
		query = query.Where("category = ?", *category)
	}

	events := []models.Event{}
	if err := query.Order("date ASC").Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (s *EventService) ListByCreator(ctx context.Context, userID uint) ([]models.Event, error) {
	const op = "services.EventService.ListByCreator"

	events := []models.Event{}
	err := s.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("date ASC").Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	return findEvent(ctx, s.db, id)
}

func (s *EventService) Update(ctx context.Context, actorID, eventID uint, in EventUpdate) (*models.Event, error) {
	const op = "services.EventService.Update"

	event, err := findEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != actorID {
		return nil, ErrNotEventOwner
	}

	updates := map[string]interface{}{}
	var problems []string

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		problems = append(problems, validateTitle(title)...)
		updates["title"] = title
	}
	if in.Description.Set {
		if in.Description.Value == nil {
			updates["description"] = gorm.Expr("NULL")
		} else {
			updates["description"] = *in.Description.Value
		}
	}
	if in.Date != nil && !in.Date.Equal(event.Date) {
		problems = append(problems, validateFutureDate(*in.Date, s.now().UTC())...)
		updates["date"] = in.Date.UTC()
	}
	if in.Category != nil {
		problems = append(problems, validateCategory(*in.Category)...)
		updates["category"] = *in.Category
	}
	if len(problems) > 0 {
		return nil, newValidationError(problems...)
	}
	if len(updates) == 0 {
		return event, nil
	}

	if err := s.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return findEvent(ctx, s.db, eventID)
}

// Delete soft-deletes the event. Only its creator may do so.
func (s *EventService) Delete(ctx context.Context, actorID, eventID uint) error {
	const op = "services.EventService.Delete"

	event, err := findEvent(ctx, s.db, eventID)
	if err != nil {
		return err
	}
	if event.CreatedBy != actorID {
		return ErrNotEventOwner
	}

	if err := s.db.WithContext(ctx).Delete(event).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func findEvent(ctx context.Context, db *gorm.DB, id uint) (*models.Event, error) {
	const op = "services.findEvent"

	var event models.Event
	err := db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &event, nil
}

func validateTitle(title string) []string {
	n := len([]rune(title))
	if n == 0 {
		return []string{"Title is required."}
	}
	if n > maxTitleLength {
		return []string{fmt.Sprintf("Title must be at most %d characters.", maxTitleLength)}
	}
	return nil
}

func validateFutureDate(date, now time.Time) []string {
	if date.IsZero() {
		return []string{"Date is required."}
	}
	if !date.After(now) {
		return []string{"Date must be in the future."}
	}
	return nil
}

func validateCategory(category string) []string {
	if category == "" {
		return []string{"Category is required."}
	}
	if !models.IsValidCategory(category) {
		return []string{fmt.Sprintf("Category must be one of: %s.", strings.Join(models.Categories, ", "))}
	}
	return nil
}

func publish(ctx context.Context, pub publisher.Publisher, activity publisher.Activity) {
	if err := pub.Publish(context.WithoutCancel(ctx), activity); err != nil {
		logging.WithOp("services.publish").
			WithField("type", activity.Type).
			Warnf("failed to publish activity: %v", err)
	}
}

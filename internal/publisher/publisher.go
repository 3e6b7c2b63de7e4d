package publisher

import (
	"context"
	"time"
)

const (
	EventCreated      = "event.created"
	ParticipantJoined = "participant.joined"
	ParticipantLeft   = "participant.left"
)

// Activity is a domain notification emitted after a successful write.
type Activity struct {
	Type       string    `json:"type"`
	EventID    uint      `json:"eventId"`
	UserID     uint      `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers activities on a best-effort basis. Implementations must
// not block the caller on delivery.
type Publisher interface {
	Publish(ctx context.Context, activity Activity) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Activity) error { return nil }

func (Nop) Close() error { return nil }

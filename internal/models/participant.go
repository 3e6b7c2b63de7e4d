package models

import "time"

// EventParticipant links a user to an event they joined. The composite
// unique index is what rejects a second join of the same pair.
type EventParticipant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_event_participants_user_event,priority:1" json:"userId"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_event_participants_user_event,priority:2;index" json:"eventId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Event     *Event    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ParticipantWithUser struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"userId"`
	EventID   uint       `json:"eventId"`
	CreatedAt time.Time  `json:"createdAt"`
	User      PublicUser `json:"user"`
}

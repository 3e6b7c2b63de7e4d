package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Date        time.Time      `gorm:"not null" json:"date"`
	Category    string         `gorm:"size:32;not null;index" json:"category"`
	CreatedBy   uint           `gorm:"not null;index:idx_events_creator_created,priority:1" json:"createdBy"`
	Creator     *User          `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `gorm:"index:idx_events_creator_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

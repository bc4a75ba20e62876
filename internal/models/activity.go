package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog keeps an audit trail of user actions. Rows are written by the
// activity event service from published domain events.
type ActivityLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     *uint          `json:"user_id" gorm:"index"`
	ActionType string         `json:"action_type" gorm:"not null;size:255"`
	EntityType string         `json:"entity_type" gorm:"not null;size:255"`
	EntityID   *uint          `json:"entity_id"`
	Details    datatypes.JSON `json:"details" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}

package webhooks

import "time"

// ProcessedEvent records a provider event id once its reconciliation committed.
type ProcessedEvent struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type;not null"`
	ProcessedAt time.Time `gorm:"column:processed_at;not null"`
}

func (ProcessedEvent) TableName() string { return "processed_webhook_events" }

package subscriptions

import (
	"time"

	"subscription-app/internal/domain/plans"
)

// Subscription is the one-per-user record of the latest recurring purchase.
type Subscription struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_subscriptions_user_id"`
	StartDate time.Time    `gorm:"not null"`
	EndDate   time.Time    `gorm:"not null"`
	Plan      plans.Plan   `gorm:"type:varchar(20);not null"`
	Period    plans.Period `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

package users

import (
	"time"

	"subscription-app/internal/domain/plans"
)

type User struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	Email      string     `gorm:"not null;uniqueIndex:idx_users_email"`
	GoogleSub  *string    `gorm:"uniqueIndex:idx_users_google_sub"`
	CustomerID *string    `gorm:"column:customer_id;uniqueIndex:idx_users_customer_id"`
	Plan       plans.Plan `gorm:"type:varchar(20);not null;default:'free'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) HasCustomerID() bool {
	return u.CustomerID != nil && *u.CustomerID != ""
}

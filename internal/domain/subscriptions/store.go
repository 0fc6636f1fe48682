package subscriptions

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("subscription not found")

// Store is the read side of subscriptions. Writes happen in billing reconciliation.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByUserID(ctx context.Context, userID uint) (*Subscription, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

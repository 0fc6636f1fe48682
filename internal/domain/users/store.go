package users

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")

// Store reads and provisions users. Plan and customer id changes belong to billing.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id uint) (*User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Store) FindByGoogleSub(ctx context.Context, sub string) (*User, error) {
	return s.first(ctx, "google_sub = ?", sub)
}

func (s *Store) Create(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) LinkGoogleSub(ctx context.Context, id uint, sub string) error {
	return s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND google_sub IS NULL", id).
		Update("google_sub", sub).Error
}

func (s *Store) first(ctx context.Context, query string, arg interface{}) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

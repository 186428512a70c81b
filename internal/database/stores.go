package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"productpager/internal/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrBulkActionNotFound = errors.New("bulk action not found")
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(d *Database) *SessionStore {
	return &SessionStore{db: d.DB}
}

// Save stores the session, replacing the token of an existing shop.
func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "scope", "updated_at"}),
	}).Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) FindByShop(ctx context.Context, shop string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("shop = ?", shop).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, shop string) error {
	if err := s.db.WithContext(ctx).Where("shop = ?", shop).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

type BulkActionStore struct {
	db *gorm.DB
}

func NewBulkActionStore(d *Database) *BulkActionStore {
	return &BulkActionStore{db: d.DB}
}

func (s *BulkActionStore) Create(ctx context.Context, action *models.BulkAction) error {
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("failed to create bulk action: %w", err)
	}
	return nil
}

// Get returns the action only if it belongs to shop.
func (s *BulkActionStore) Get(ctx context.Context, shop, id string) (*models.BulkAction, error) {
	var action models.BulkAction
	err := s.db.WithContext(ctx).Where("id = ? AND shop = ?", id, shop).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBulkActionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulk action: %w", err)
	}
	return &action, nil
}

func (s *BulkActionStore) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return s.update(ctx, id, map[string]interface{}{
		"status":       models.BulkActionStatusCompleted,
		"error":        "",
		"completed_at": &now,
	})
}

func (s *BulkActionStore) MarkFailed(ctx context.Context, id string, cause error) error {
	now := time.Now()
	return s.update(ctx, id, map[string]interface{}{
		"status":       models.BulkActionStatusFailed,
		"error":        cause.Error(),
		"completed_at": &now,
	})
}

func (s *BulkActionStore) update(ctx context.Context, id string, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.BulkAction{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update bulk action: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBulkActionNotFound
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"productpager/internal/catalog"
)

type BulkAction struct {
	ID          string             `json:"id" gorm:"type:varchar(36);primaryKey"`
	Shop        string             `json:"shop" gorm:"index;not null"`
	Kind        catalog.ActionKind `json:"kind" gorm:"not null"`
	ProductIDs  []string           `json:"product_ids" gorm:"serializer:json;type:text"`
	Status      BulkActionStatus   `json:"status" gorm:"default:QUEUED"`
	Error       string             `json:"error,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type BulkActionStatus string

const (
	BulkActionStatusQueued    BulkActionStatus = "QUEUED"
	BulkActionStatusCompleted BulkActionStatus = "COMPLETED"
	BulkActionStatusFailed    BulkActionStatus = "FAILED"
)

func (b *BulkAction) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = BulkActionStatusQueued
	}
	return nil
}

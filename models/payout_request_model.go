package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PayoutPending   = "pending"
	PayoutCompleted = "completed"
	PayoutRejected  = "rejected"
)

// PayoutRequest is an instructor cash-out drawn from the wallet.
type PayoutRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TeacherID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status      string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNotes  *string         `gorm:"type:text" json:"admin_notes"`
	ProcessedBy *uuid.UUID      `gorm:"type:uuid" json:"processed_by,omitempty"`
	RequestedAt time.Time       `gorm:"not null" json:"requested_at"`
	ProcessedAt *time.Time      `json:"processed_at"`

	Teacher User `gorm:"foreignkey:TeacherID" json:"-"`
}

func (p *PayoutRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

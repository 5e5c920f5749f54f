package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CommissionPending = "pending"
	CommissionPaid    = "paid"
)

// Commission is the platform/seller split of one course in one order.
type Commission struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commission_order_course" json:"order_id"`
	CourseID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_commission_order_course;index" json:"course_id"`
	InstructorID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"instructor_id"`
	OwnerTier      string          `gorm:"size:20;not null" json:"owner_tier"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	PlatformRate   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"platform_rate"`
	PlatformAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_amount"`
	SellerRate     decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"seller_rate"`
	SellerAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"seller_amount"`
	Status         string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaidAt         *time.Time      `json:"paid_at"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

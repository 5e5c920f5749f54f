package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is owned by the checkout flow; the ledger only reads it.
type Order struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BuyerID uuid.UUID `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Status  string    `gorm:"size:20;not null;default:'completed'" json:"status"`

	Items []OrderItem `gorm:"foreignkey:OrderID" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null" json:"course_id"`
	// ChargedPrice is what the buyer paid after discounts.
	ChargedPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"charged_price"`

	Course Course `gorm:"foreignkey:CourseID" json:"course"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

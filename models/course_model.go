package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Course struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	OwnerID   *uuid.UUID      `gorm:"type:uuid;index" json:"owner_id"`
	ListPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"list_price"`

	Owner *User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

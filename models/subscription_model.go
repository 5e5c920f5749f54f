package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubscriptionPlan struct {
	ID    uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name  string          `gorm:"size:255;not null" json:"name"`
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	// AffiliateCommissionRate is a percentage of the charged amount.
	AffiliateCommissionRate decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"affiliate_commission_rate"`
	IsLifetime              bool            `gorm:"default:false" json:"is_lifetime"`
	IsActive                bool            `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Subscription struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID        uuid.UUID       `gorm:"type:uuid;not null" json:"plan_id"`
	AmountCharged decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount_charged"`
	Status        string          `gorm:"size:20;not null;default:'active'" json:"status"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        *time.Time      `json:"ends_at"`

	Plan SubscriptionPlan `gorm:"foreignkey:PlanID" json:"plan"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

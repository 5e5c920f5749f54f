package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AffiliateCommissionPending   = "pending"
	AffiliateCommissionAvailable = "available"
	AffiliateCommissionWithdrawn = "withdrawn"

	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
	WithdrawalRejected  = "rejected"
)

type AffiliateLink struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;unique" json:"user_id"`
	Code        string    `gorm:"size:16;not null;unique" json:"code"`
	Clicks      int64     `gorm:"not null;default:0" json:"clicks"`
	Conversions int64     `gorm:"not null;default:0" json:"conversions"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *AffiliateLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type AffiliateCommission struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AffiliateID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	ReferredUserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_affiliate_commission_referral" json:"referred_user_id"`
	SubscriptionID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_affiliate_commission_referral" json:"subscription_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Rate           decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"rate"`
	Status         string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	EarnedAt       time.Time       `gorm:"not null" json:"earned_at"`
	AvailableAt    time.Time       `gorm:"not null;index" json:"available_at"`
	PeriodStart    time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd      time.Time       `gorm:"not null" json:"period_end"`
	WithdrawnAt    *time.Time      `json:"withdrawn_at"`
	WithdrawalID   *uuid.UUID      `gorm:"type:uuid;index" json:"withdrawal_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *AffiliateCommission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type AffiliateWithdrawal struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AffiliateID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"affiliate_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	RequestedAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"requested_amount"`
	// CommissionIDs is the exact set consumed; rejection restores these and nothing else.
	CommissionIDs   []uuid.UUID `gorm:"type:text;serializer:json;not null" json:"commission_ids"`
	Status          string      `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProcessedBy     *uuid.UUID  `gorm:"type:uuid" json:"processed_by,omitempty"`
	ProcessedAt     *time.Time  `json:"processed_at"`
	AdminNotes      *string     `gorm:"type:text" json:"admin_notes,omitempty"`
	RejectionReason *string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	RequestedAt     time.Time   `gorm:"not null" json:"requested_at"`

	Affiliate User `gorm:"foreignkey:AffiliateID" json:"-"`
}

func (w *AffiliateWithdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

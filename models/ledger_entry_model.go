package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerKind string

const (
	KindSaleCommission      LedgerKind = "sale_commission"
	KindWithdrawal          LedgerKind = "withdrawal"
	KindWithdrawalReversal  LedgerKind = "withdrawal_reversal"
	KindRefund              LedgerKind = "refund"
	KindManualAdjustment    LedgerKind = "manual_adjustment"
	KindSubscriptionRenewal LedgerKind = "subscription_renewal"
)

func (k LedgerKind) Valid() bool {
	switch k {
	case KindSaleCommission, KindWithdrawal, KindWithdrawalReversal, KindRefund, KindManualAdjustment, KindSubscriptionRenewal:
		return true
	}
	return false
}

// LedgerSide says whose side of the books an entry belongs to.
type LedgerSide string

const (
	SideInstructor LedgerSide = "instructor"
	SideStaff      LedgerSide = "staff"
	SideUser       LedgerSide = "user"
)

// SideForRole is the single place a role is mapped onto a ledger side.
func SideForRole(role string) LedgerSide {
	switch role {
	case RoleInstructor:
		return SideInstructor
	case RoleStaff, RoleAdmin:
		return SideStaff
	default:
		return SideUser
	}
}

var ErrLedgerEntryImmutable = errors.New("ledger entries cannot be modified")

// LedgerEntry is one signed balance change. The serial ID orders a user's history.
type LedgerEntry struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Kind          LedgerKind      `gorm:"size:32;not null;index" json:"kind"`
	Side          LedgerSide      `gorm:"size:16;not null;index" json:"side"`
	Description   string          `gorm:"size:255" json:"description"`
	RefID         *uuid.UUID      `gorm:"type:uuid;index" json:"ref_id,omitempty"`
	RefType       *string         `gorm:"size:32" json:"ref_type,omitempty"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance_after"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (e *LedgerEntry) BeforeUpdate(tx *gorm.DB) error { return ErrLedgerEntryImmutable }

func (e *LedgerEntry) BeforeDelete(tx *gorm.DB) error { return ErrLedgerEntryImmutable }

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// EntryRequest describes one balance change. Amount is always positive; Credit and Debit pick the sign.
type EntryRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Kind        models.LedgerKind
	Description string
	RefID       *uuid.UUID
	RefType     string
	// Side overrides the role-derived side. Ignored for sale commissions.
	Side models.LedgerSide
}

// WalletEvent is pushed to the owner of a wallet after an entry commits.
type WalletEvent struct {
	Type    string              `json:"type"`
	Entry   *models.LedgerEntry `json:"entry"`
	Balance decimal.Decimal     `json:"balance"`
}

// WalletLedger owns every write to a wallet balance and its entry history.
type WalletLedger struct {
	deps   Deps
	db     *gorm.DB
	logger zerolog.Logger
	inTx   bool
}

func NewWalletLedger(deps Deps) *WalletLedger {
	deps = deps.withDefaults()
	return &WalletLedger{
		deps:   deps,
		db:     deps.DB,
		logger: deps.Logger.With().Str("component", "wallet_ledger").Logger(),
	}
}

// WithTx returns a ledger whose writes join tx. The caller commits, and must call
// Published for the returned entries once it has.
func (l *WalletLedger) WithTx(tx *gorm.DB) *WalletLedger {
	bound := *l
	bound.db = tx
	bound.inTx = true
	return &bound
}

func (l *WalletLedger) Credit(ctx context.Context, req EntryRequest) (*models.LedgerEntry, error) {
	return l.apply(ctx, req, false)
}

func (l *WalletLedger) Debit(ctx context.Context, req EntryRequest) (*models.LedgerEntry, error) {
	return l.apply(ctx, req, true)
}

func (l *WalletLedger) apply(ctx context.Context, req EntryRequest, debit bool) (*models.LedgerEntry, error) {
	req.Amount = round2(req.Amount)
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if !req.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown ledger kind %q", req.Kind)}
	}

	if l.inTx {
		return l.post(l.db.WithContext(ctx), req, debit)
	}

	var entry *models.LedgerEntry
	err := database.WithTransaction(ctx, l.db, func(tx *gorm.DB) error {
		var err error
		entry, err = l.post(tx, req, debit)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Published(entry)
	return entry, nil
}

// post reads, checks and writes the balance and appends the entry on tx.
func (l *WalletLedger) post(tx *gorm.DB, req EntryRequest, debit bool) (*models.LedgerEntry, error) {
	var user models.User
	err := database.ForUpdate(tx).Select("id", "role", "wallet_balance").First(&user, "id = ?", req.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: req.UserID.String()}
		}
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	amount := round2(req.Amount)
	before := round2(user.WalletBalance)
	signed := amount
	if debit {
		if before.LessThan(amount) {
			return nil, &InsufficientFundsError{Available: before, Requested: amount}
		}
		signed = amount.Neg()
	}
	after := before.Add(signed)

	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("wallet_balance", after).Error; err != nil {
		return nil, fmt.Errorf("update wallet balance: %w", err)
	}

	entry := &models.LedgerEntry{
		UserID:        user.ID,
		Amount:        signed,
		Kind:          req.Kind,
		Side:          resolveSide(req, user.Role),
		Description:   req.Description,
		RefID:         req.RefID,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     l.deps.Now(),
	}
	if req.RefType != "" {
		refType := req.RefType
		entry.RefType = &refType
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	return entry, nil
}

func resolveSide(req EntryRequest, role string) models.LedgerSide {
	if req.Kind == models.KindSaleCommission {
		return models.SideInstructor
	}
	if req.Side != "" {
		return req.Side
	}
	return models.SideForRole(role)
}

// Published records metrics and pushes events for entries that have committed.
func (l *WalletLedger) Published(entries ...*models.LedgerEntry) {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		direction := "credit"
		if entry.Amount.IsNegative() {
			direction = "debit"
		}
		l.deps.Metrics.ObserveEntry(string(entry.Kind), direction, entry.Amount)
		l.deps.publish(entry.UserID, WalletEvent{Type: "wallet.entry", Entry: entry, Balance: entry.BalanceAfter})

		l.logger.Info().
			Str("user_id", entry.UserID.String()).
			Str("kind", string(entry.Kind)).
			Str("amount", entry.Amount.StringFixed(2)).
			Str("balance_after", entry.BalanceAfter.StringFixed(2)).
			Msg("ledger entry committed")
	}
}

func (l *WalletLedger) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Select("id", "wallet_balance").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &NotFoundError{Resource: "user", ID: userID.String()}
		}
		return decimal.Zero, fmt.Errorf("load wallet: %w", err)
	}
	return round2(user.WalletBalance), nil
}

// GetHistory returns the newest entries first.
func (l *WalletLedger) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if _, err := l.GetBalance(ctx, userID); err != nil {
		return nil, err
	}

	var entries []models.LedgerEntry
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load ledger history: %w", err)
	}
	return entries, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/notifications"
	"github.com/anjiri1684/course_ledger/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Period is the biweekly settlement window a referral commission is attributed to.
type Period struct {
	Start       time.Time
	End         time.Time
	AvailableAt time.Time
}

// SettlementPeriod maps an earn date onto its window: the 1st-15th becomes available on
// the 28th of the same month, the 16th-end of month on the 15th of the next month.
// End is the last microsecond of the window's final day.
func SettlementPeriod(d time.Time) Period {
	y, m, day := d.Date()
	loc := d.Location()
	if day <= 15 {
		return Period{
			Start:       time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:         endOfDay(y, m, 15, loc),
			AvailableAt: time.Date(y, m, 28, 0, 0, 0, 0, loc),
		}
	}
	return Period{
		Start:       time.Date(y, m, 16, 0, 0, 0, 0, loc),
		End:         endOfDay(y, m+1, 0, loc),
		AvailableAt: time.Date(y, m+1, 15, 0, 0, 0, 0, loc),
	}
}

// endOfDay stops at microseconds so the bound survives a postgres timestamp column.
func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Microsecond)
}

// SelectCommissions walks available commissions oldest first and takes whole rows until their
// sum reaches amount. ok is false when the rows run out first.
func SelectCommissions(available []models.AffiliateCommission, amount decimal.Decimal) (selected []models.AffiliateCommission, total decimal.Decimal, ok bool) {
	total = decimal.Zero
	for _, c := range available {
		if total.GreaterThanOrEqual(amount) {
			break
		}
		selected = append(selected, c)
		total = total.Add(c.Amount)
	}
	return selected, round2(total), total.GreaterThanOrEqual(amount)
}

type AttributionRequest struct {
	ReferredUserID uuid.UUID
	SubscriptionID uuid.UUID
	// SessionCode is the affiliate code captured in the buyer's session, if any.
	SessionCode string
}

type AffiliateSummary struct {
	Link        *models.AffiliateLink `json:"link,omitempty"`
	Pending     decimal.Decimal       `json:"pending"`
	Available   decimal.Decimal       `json:"available"`
	Withdrawn   decimal.Decimal       `json:"withdrawn"`
	Withdrawals int64                 `json:"withdrawals"`
}

type WithdrawalFilter struct {
	AffiliateID *uuid.UUID
	Status      string
	Limit       int
}

type AffiliateService struct {
	deps   Deps
	logger zerolog.Logger
}

func NewAffiliateService(deps Deps) *AffiliateService {
	deps = deps.withDefaults()
	return &AffiliateService{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "affiliate_settlement").Logger(),
	}
}

// EnsureLink returns the user's affiliate link, creating it on first request.
func (s *AffiliateService) EnsureLink(ctx context.Context, userID uuid.UUID) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user", ID: userID.String()}
			}
			return fmt.Errorf("load user: %w", err)
		}

		err := tx.First(&link, "user_id = ?", userID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load affiliate link: %w", err)
		}

		code, err := utils.GenerateUniqueAffiliateCode(tx)
		if err != nil {
			return fmt.Errorf("generate affiliate code: %w", err)
		}
		link = models.AffiliateLink{UserID: userID, Code: code, IsActive: true}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("create affiliate link: %w", err)
		}
		s.logger.Info().Str("user_id", userID.String()).Str("code", code).Msg("affiliate link created")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// TrackClick counts a visit through an active link and returns it.
func (s *AffiliateService) TrackClick(ctx context.Context, code string) (*models.AffiliateLink, error) {
	code = normalizeCode(code)
	var link models.AffiliateLink
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		if err := tx.First(&link, "code = ? AND is_active = ?", code, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "affiliate link", ID: code}
			}
			return fmt.Errorf("load affiliate link: %w", err)
		}
		if err := tx.Model(&models.AffiliateLink{}).Where("id = ?", link.ID).Update("clicks", gorm.Expr("clicks + ?", 1)).Error; err != nil {
			return fmt.Errorf("count click: %w", err)
		}
		link.Clicks++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// SetLinkActive toggles whether a link can be clicked and attributed.
func (s *AffiliateService) SetLinkActive(ctx context.Context, userID uuid.UUID, active bool) error {
	res := s.deps.DB.WithContext(ctx).Model(&models.AffiliateLink{}).Where("user_id = ?", userID).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("update affiliate link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "affiliate link for user", ID: userID.String()}
	}
	return nil
}

// Attribute records the one-time referral commission for a paid subscription. It returns
// nil without error whenever no commission is due: no referrer, self-referral, already
// attributed, a zero rate or the affiliate system switched off.
func (s *AffiliateService) Attribute(ctx context.Context, req AttributionRequest) (*models.AffiliateCommission, error) {
	cfg := s.deps.Settings.Current()
	log := s.logger.With().
		Str("referred_user_id", req.ReferredUserID.String()).
		Str("subscription_id", req.SubscriptionID.String()).
		Logger()

	if !cfg.AffiliateEnabled {
		log.Debug().Msg("affiliate system disabled, no attribution")
		return nil, nil
	}

	var created *models.AffiliateCommission
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "referred_by_code").First(&user, "id = ?", req.ReferredUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user", ID: req.ReferredUserID.String()}
			}
			return fmt.Errorf("load referred user: %w", err)
		}

		var sub models.Subscription
		if err := tx.Preload("Plan").First(&sub, "id = ?", req.SubscriptionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "subscription", ID: req.SubscriptionID.String()}
			}
			return fmt.Errorf("load subscription: %w", err)
		}
		if sub.UserID != user.ID {
			return &ValidationError{Field: "subscription_id", Message: "subscription does not belong to the referred user"}
		}

		link, err := s.resolveReferrer(tx, req.SessionCode, user.ReferredByCode)
		if err != nil {
			return err
		}
		if link == nil {
			log.Debug().Msg("no referrer")
			return nil
		}
		if link.UserID == user.ID {
			log.Info().Msg("self-referral ignored")
			return nil
		}

		var existing int64
		if err := tx.Model(&models.AffiliateCommission{}).
			Where("referred_user_id = ? AND subscription_id = ?", user.ID, sub.ID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing referral commission: %w", err)
		}
		if existing > 0 {
			log.Debug().Msg("referral commission already recorded")
			return nil
		}

		rate := sub.Plan.AffiliateCommissionRate
		if !rate.IsPositive() {
			log.Debug().Str("plan_id", sub.PlanID.String()).Msg("plan pays no affiliate commission")
			return nil
		}
		amount := round2(sub.AmountCharged.Mul(rate).Div(hundred))
		if !amount.IsPositive() {
			return nil
		}

		earned := s.deps.Now()
		period := SettlementPeriod(earned)
		commission := models.AffiliateCommission{
			AffiliateID:    link.UserID,
			ReferredUserID: user.ID,
			SubscriptionID: sub.ID,
			Amount:         amount,
			Rate:           rate,
			Status:         models.AffiliateCommissionPending,
			EarnedAt:       earned,
			AvailableAt:    period.AvailableAt,
			PeriodStart:    period.Start,
			PeriodEnd:      period.End,
		}
		if err := tx.Create(&commission).Error; err != nil {
			return fmt.Errorf("create referral commission: %w", err)
		}
		if err := tx.Model(&models.AffiliateLink{}).Where("id = ?", link.ID).Update("conversions", gorm.Expr("conversions + ?", 1)).Error; err != nil {
			return fmt.Errorf("count conversion: %w", err)
		}

		created = &commission
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created != nil {
		s.deps.Metrics.IncCommission("affiliate", models.AffiliateCommissionPending, 1)
		log.Info().
			Str("affiliate_id", created.AffiliateID.String()).
			Str("amount", created.Amount.StringFixed(2)).
			Time("available_at", created.AvailableAt).
			Msg("referral commission recorded")
	}
	return created, nil
}

// resolveReferrer prefers the session code and falls back to the stored referred-by code.
func (s *AffiliateService) resolveReferrer(tx *gorm.DB, sessionCode string, storedCode *string) (*models.AffiliateLink, error) {
	candidates := []string{sessionCode}
	if storedCode != nil {
		candidates = append(candidates, *storedCode)
	}

	for _, code := range candidates {
		code = normalizeCode(code)
		if code == "" {
			continue
		}
		var link models.AffiliateLink
		err := tx.First(&link, "code = ? AND is_active = ?", code, true).Error
		if err == nil {
			return &link, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve affiliate code: %w", err)
		}
	}
	return nil, nil
}

// ReleaseCommissions makes every pending commission whose availability date has passed
// withdrawable. Running it again without new due rows changes nothing.
func (s *AffiliateService) ReleaseCommissions(ctx context.Context) (int64, error) {
	now := s.deps.Now()
	res := s.deps.DB.WithContext(ctx).
		Model(&models.AffiliateCommission{}).
		Where("status = ? AND available_at <= ?", models.AffiliateCommissionPending, now).
		Update("status", models.AffiliateCommissionAvailable)
	if res.Error != nil {
		return 0, fmt.Errorf("release commissions: %w", res.Error)
	}

	s.deps.Metrics.AddReleased(res.RowsAffected)
	if res.RowsAffected > 0 {
		s.logger.Info().Int64("released", res.RowsAffected).Msg("affiliate commissions released")
	}
	return res.RowsAffected, nil
}

// AvailableBalance sums the user's withdrawable commissions. It is independent of the wallet.
func (s *AffiliateService) AvailableBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return sumCommissions(s.deps.DB.WithContext(ctx), userID, models.AffiliateCommissionAvailable)
}

func sumCommissions(tx *gorm.DB, affiliateID uuid.UUID, status string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&models.AffiliateCommission{}).
		Select("SUM(amount)").
		Where("affiliate_id = ? AND status = ?", affiliateID, status).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s commissions: %w", status, err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return round2(total.Decimal), nil
}

func (s *AffiliateService) Summary(ctx context.Context, userID uuid.UUID) (*AffiliateSummary, error) {
	db := s.deps.DB.WithContext(ctx)
	summary := &AffiliateSummary{}

	var link models.AffiliateLink
	err := db.First(&link, "user_id = ?", userID).Error
	switch {
	case err == nil:
		summary.Link = &link
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load affiliate link: %w", err)
	}

	if summary.Pending, err = sumCommissions(db, userID, models.AffiliateCommissionPending); err != nil {
		return nil, err
	}
	if summary.Available, err = sumCommissions(db, userID, models.AffiliateCommissionAvailable); err != nil {
		return nil, err
	}
	if summary.Withdrawn, err = sumCommissions(db, userID, models.AffiliateCommissionWithdrawn); err != nil {
		return nil, err
	}
	if err := db.Model(&models.AffiliateWithdrawal{}).Where("affiliate_id = ?", userID).Count(&summary.Withdrawals).Error; err != nil {
		return nil, fmt.Errorf("count withdrawals: %w", err)
	}
	return summary, nil
}

// RequestWithdrawal consumes whole available commissions, oldest matured first, until the
// requested amount is covered. The withdrawal records the exact rows taken and their sum,
// which can exceed the request by at most the last row taken.
func (s *AffiliateService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.AffiliateWithdrawal, error) {
	cfg := s.deps.Settings.Current()
	if !cfg.AffiliateEnabled {
		return nil, &ValidationError{Message: "affiliate withdrawals are disabled"}
	}
	amount = round2(amount)
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if amount.LessThan(cfg.MinWithdrawal) {
		return nil, &ValidationError{Field: "amount", Message: fmt.Sprintf("minimum withdrawal is %s", cfg.MinWithdrawal.StringFixed(2))}
	}

	var exists int64
	if err := s.deps.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if exists == 0 {
		return nil, &NotFoundError{Resource: "user", ID: userID.String()}
	}

	available, err := s.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(available) {
		return nil, &InsufficientFundsError{Available: available, Requested: amount}
	}

	var withdrawal models.AffiliateWithdrawal
	err = database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var rows []models.AffiliateCommission
		err := database.ForUpdate(tx).
			Where("affiliate_id = ? AND status = ?", userID, models.AffiliateCommissionAvailable).
			Order("available_at asc, id asc").
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("load available commissions: %w", err)
		}

		selected, total, ok := SelectCommissions(rows, amount)
		if !ok {
			return &InsufficientFundsError{Available: total, Requested: amount}
		}

		ids := make([]uuid.UUID, len(selected))
		for i, c := range selected {
			ids[i] = c.ID
		}

		now := s.deps.Now()
		withdrawal = models.AffiliateWithdrawal{
			AffiliateID:     userID,
			Amount:          total,
			RequestedAmount: amount,
			CommissionIDs:   ids,
			Status:          models.WithdrawalPending,
			RequestedAt:     now,
		}
		if err := tx.Create(&withdrawal).Error; err != nil {
			return fmt.Errorf("create withdrawal: %w", err)
		}

		res := tx.Model(&models.AffiliateCommission{}).
			Where("id IN ? AND status = ?", ids, models.AffiliateCommissionAvailable).
			Updates(map[string]interface{}{
				"status":        models.AffiliateCommissionWithdrawn,
				"withdrawn_at":  now,
				"withdrawal_id": withdrawal.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("mark commissions withdrawn: %w", res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return &InvalidStateError{Resource: "affiliate commissions", ID: userID.String(), State: "changed concurrently", Action: "withdraw"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncWithdrawal("affiliate", models.WithdrawalPending)
	s.deps.publish(userID, withdrawalEvent("affiliate.withdrawal.requested", &withdrawal))
	s.logger.Info().
		Str("affiliate_id", userID.String()).
		Str("requested", amount.StringFixed(2)).
		Str("amount", withdrawal.Amount.StringFixed(2)).
		Int("commissions", len(withdrawal.CommissionIDs)).
		Msg("affiliate withdrawal requested")
	return &withdrawal, nil
}

// ProcessWithdrawal acknowledges an off-ledger payout. No funds move.
func (s *AffiliateService) ProcessWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, notes string) (*models.AffiliateWithdrawal, error) {
	var withdrawal models.AffiliateWithdrawal
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		if err := loadPendingWithdrawal(tx, withdrawalID, "approve", &withdrawal); err != nil {
			return err
		}

		now := s.deps.Now()
		updates := map[string]interface{}{
			"status":       models.WithdrawalCompleted,
			"processed_by": adminID,
			"processed_at": now,
		}
		if notes = strings.TrimSpace(notes); notes != "" {
			updates["admin_notes"] = notes
			withdrawal.AdminNotes = &notes
		}
		if err := transitionWithdrawal(tx, withdrawalID, updates); err != nil {
			return err
		}

		withdrawal.Status = models.WithdrawalCompleted
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncWithdrawal("affiliate", models.WithdrawalCompleted)
	s.deps.publish(withdrawal.AffiliateID, withdrawalEvent("affiliate.withdrawal.completed", &withdrawal))
	amount := withdrawal.Amount
	s.deps.notify(withdrawal.AffiliateID, func(name string) notifications.Message {
		return notifications.AffiliateWithdrawalCompleted(name, amount)
	})
	s.logger.Info().Str("withdrawal_id", withdrawalID.String()).Str("admin_id", adminID.String()).Msg("affiliate withdrawal completed")
	return &withdrawal, nil
}

// RejectWithdrawal restores exactly the commissions the withdrawal consumed.
func (s *AffiliateService) RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, reason string) (*models.AffiliateWithdrawal, error) {
	reason = strings.TrimSpace(reason)
	var withdrawal models.AffiliateWithdrawal
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		if err := loadPendingWithdrawal(tx, withdrawalID, "reject", &withdrawal); err != nil {
			return err
		}

		now := s.deps.Now()
		if err := transitionWithdrawal(tx, withdrawalID, map[string]interface{}{
			"status":           models.WithdrawalRejected,
			"processed_by":     adminID,
			"processed_at":     now,
			"rejection_reason": reason,
		}); err != nil {
			return err
		}

		if len(withdrawal.CommissionIDs) > 0 {
			res := tx.Model(&models.AffiliateCommission{}).
				Where("id IN ? AND withdrawal_id = ? AND status = ?", withdrawal.CommissionIDs, withdrawal.ID, models.AffiliateCommissionWithdrawn).
				Updates(map[string]interface{}{
					"status":        models.AffiliateCommissionAvailable,
					"withdrawn_at":  nil,
					"withdrawal_id": nil,
				})
			if res.Error != nil {
				return fmt.Errorf("restore commissions: %w", res.Error)
			}
			if res.RowsAffected != int64(len(withdrawal.CommissionIDs)) {
				return &InvalidStateError{Resource: "withdrawal", ID: withdrawalID.String(), State: "commission set changed", Action: "reject"}
			}
		}

		withdrawal.Status = models.WithdrawalRejected
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now
		withdrawal.RejectionReason = &reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncWithdrawal("affiliate", models.WithdrawalRejected)
	s.deps.publish(withdrawal.AffiliateID, withdrawalEvent("affiliate.withdrawal.rejected", &withdrawal))
	amount := withdrawal.Amount
	s.deps.notify(withdrawal.AffiliateID, func(name string) notifications.Message {
		return notifications.AffiliateWithdrawalRejected(name, amount, reason)
	})
	s.logger.Info().
		Str("withdrawal_id", withdrawalID.String()).
		Int("restored", len(withdrawal.CommissionIDs)).
		Msg("affiliate withdrawal rejected")
	return &withdrawal, nil
}

func loadPendingWithdrawal(tx *gorm.DB, id uuid.UUID, action string, out *models.AffiliateWithdrawal) error {
	if err := database.ForUpdate(tx).First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "withdrawal", ID: id.String()}
		}
		return fmt.Errorf("load withdrawal: %w", err)
	}
	if out.Status != models.WithdrawalPending {
		return &InvalidStateError{Resource: "withdrawal", ID: id.String(), State: out.Status, Action: action}
	}
	return nil
}

func transitionWithdrawal(tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	res := tx.Model(&models.AffiliateWithdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update withdrawal: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return &InvalidStateError{Resource: "withdrawal", ID: id.String(), State: "changed concurrently", Action: "update"}
	}
	return nil
}

func (s *AffiliateService) ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]models.AffiliateWithdrawal, error) {
	q := s.deps.DB.WithContext(ctx).Model(&models.AffiliateWithdrawal{})
	if filter.AffiliateID != nil {
		q = q.Where("affiliate_id = ?", *filter.AffiliateID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > maxHistoryLimit {
		filter.Limit = defaultHistoryLimit
	}

	var withdrawals []models.AffiliateWithdrawal
	if err := q.Order("requested_at desc").Limit(filter.Limit).Find(&withdrawals).Error; err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// ListCommissions returns an affiliate's referral commissions, newest first.
func (s *AffiliateService) ListCommissions(ctx context.Context, affiliateID uuid.UUID, status string) ([]models.AffiliateCommission, error) {
	q := s.deps.DB.WithContext(ctx).Where("affiliate_id = ?", affiliateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var commissions []models.AffiliateCommission
	if err := q.Order("earned_at desc").Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("list referral commissions: %w", err)
	}
	return commissions, nil
}

type WithdrawalEvent struct {
	Type       string                      `json:"type"`
	Withdrawal *models.AffiliateWithdrawal `json:"withdrawal"`
}

func withdrawalEvent(kind string, w *models.AffiliateWithdrawal) WithdrawalEvent {
	return WithdrawalEvent{Type: kind, Withdrawal: w}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

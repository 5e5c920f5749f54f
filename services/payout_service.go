package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/notifications"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayoutFilter struct {
	InstructorID *uuid.UUID
	Status       string
}

// PayoutService handles instructor cash-outs. Funds leave the wallet when the request is
// made and come back if an admin rejects it.
type PayoutService struct {
	deps   Deps
	ledger *WalletLedger
	logger zerolog.Logger
}

func NewPayoutService(deps Deps, ledger *WalletLedger) *PayoutService {
	deps = deps.withDefaults()
	return &PayoutService{
		deps:   deps,
		ledger: ledger,
		logger: deps.Logger.With().Str("component", "instructor_payouts").Logger(),
	}
}

func (s *PayoutService) RequestPayout(ctx context.Context, instructorID uuid.UUID, amount decimal.Decimal) (*models.PayoutRequest, error) {
	amount = round2(amount)
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	var (
		request models.PayoutRequest
		entry   *models.LedgerEntry
	)
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "role").First(&user, "id = ?", instructorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "instructor", ID: instructorID.String()}
			}
			return fmt.Errorf("load instructor: %w", err)
		}
		if user.Role != models.RoleInstructor {
			return &ValidationError{Message: "only instructors can request payouts"}
		}

		request = models.PayoutRequest{
			TeacherID:   instructorID,
			Amount:      amount,
			Status:      models.PayoutPending,
			RequestedAt: s.deps.Now(),
		}
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("create payout request: %w", err)
		}

		var err error
		entry, err = s.ledger.WithTx(tx).Debit(ctx, EntryRequest{
			UserID:      instructorID,
			Amount:      amount,
			Kind:        models.KindWithdrawal,
			Description: "Payout request",
			RefID:       &request.ID,
			RefType:     "payout_request",
			Side:        models.SideInstructor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Published(entry)
	s.deps.Metrics.IncWithdrawal("payout", models.PayoutPending)
	s.logger.Info().
		Str("instructor_id", instructorID.String()).
		Str("amount", amount.StringFixed(2)).
		Msg("payout requested")
	return &request, nil
}

// ProcessPayout marks a pending request as paid out.
func (s *PayoutService) ProcessPayout(ctx context.Context, payoutID, adminID uuid.UUID, notes string) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		if err := loadPendingPayout(tx, payoutID, "process", &request); err != nil {
			return err
		}
		return s.closePayout(tx, &request, models.PayoutCompleted, adminID, notes)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncWithdrawal("payout", models.PayoutCompleted)
	amount := request.Amount
	s.deps.notify(request.TeacherID, func(name string) notifications.Message {
		return notifications.PayoutCompleted(name, amount)
	})
	s.logger.Info().Str("payout_id", payoutID.String()).Str("admin_id", adminID.String()).Msg("payout completed")
	return &request, nil
}

// RejectPayout returns the requested amount to the instructor's wallet.
func (s *PayoutService) RejectPayout(ctx context.Context, payoutID, adminID uuid.UUID, notes string) (*models.PayoutRequest, error) {
	var (
		request models.PayoutRequest
		entry   *models.LedgerEntry
	)
	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		if err := loadPendingPayout(tx, payoutID, "reject", &request); err != nil {
			return err
		}
		if err := s.closePayout(tx, &request, models.PayoutRejected, adminID, notes); err != nil {
			return err
		}

		var err error
		entry, err = s.ledger.WithTx(tx).Credit(ctx, EntryRequest{
			UserID:      request.TeacherID,
			Amount:      request.Amount,
			Kind:        models.KindWithdrawalReversal,
			Description: "Payout request rejected",
			RefID:       &request.ID,
			RefType:     "payout_request",
			Side:        models.SideInstructor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Published(entry)
	s.deps.Metrics.IncWithdrawal("payout", models.PayoutRejected)
	amount := request.Amount
	s.deps.notify(request.TeacherID, func(name string) notifications.Message {
		return notifications.PayoutRejected(name, amount, notes)
	})
	s.logger.Info().Str("payout_id", payoutID.String()).Str("admin_id", adminID.String()).Msg("payout rejected")
	return &request, nil
}

func loadPendingPayout(tx *gorm.DB, id uuid.UUID, action string, out *models.PayoutRequest) error {
	if err := database.ForUpdate(tx).First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "payout request", ID: id.String()}
		}
		return fmt.Errorf("load payout request: %w", err)
	}
	if out.Status != models.PayoutPending {
		return &InvalidStateError{Resource: "payout request", ID: id.String(), State: out.Status, Action: action}
	}
	return nil
}

func (s *PayoutService) closePayout(tx *gorm.DB, request *models.PayoutRequest, status string, adminID uuid.UUID, notes string) error {
	now := s.deps.Now()
	updates := map[string]interface{}{
		"status":       status,
		"processed_by": adminID,
		"processed_at": now,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		updates["admin_notes"] = notes
		request.AdminNotes = &notes
	}

	res := tx.Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", request.ID, models.PayoutPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update payout request: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return &InvalidStateError{Resource: "payout request", ID: request.ID.String(), State: "changed concurrently", Action: status}
	}

	request.Status = status
	request.ProcessedBy = &adminID
	request.ProcessedAt = &now
	return nil
}

func (s *PayoutService) ListPayouts(ctx context.Context, filter PayoutFilter) ([]models.PayoutRequest, error) {
	q := s.deps.DB.WithContext(ctx)
	if filter.InstructorID != nil {
		q = q.Where("teacher_id = ?", *filter.InstructorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var requests []models.PayoutRequest
	if err := q.Order("requested_at desc").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	return requests, nil
}

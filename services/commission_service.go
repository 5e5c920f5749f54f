package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/notifications"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderStatusCompleted = "completed"

// Split is the platform/seller division of one charged price.
type Split struct {
	PlatformRate   decimal.Decimal
	PlatformAmount decimal.Decimal
	SellerRate     decimal.Decimal
	SellerAmount   decimal.Decimal
}

// SplitSale divides price by a platform percentage. The seller gets the remainder so the
// two amounts always add back up to the charged price.
func SplitSale(price, platformRate decimal.Decimal) Split {
	platform := round2(price.Mul(platformRate).Div(hundred))
	return Split{
		PlatformRate:   platformRate,
		PlatformAmount: platform,
		SellerRate:     hundred.Sub(platformRate),
		SellerAmount:   round2(price).Sub(platform),
	}
}

// Settlement is the outcome of paying out one order's pending commissions.
type Settlement struct {
	OrderID     uuid.UUID           `json:"order_id"`
	Commissions []models.Commission `json:"commissions"`
	Total       decimal.Decimal     `json:"total"`
}

type CommissionService struct {
	deps   Deps
	ledger *WalletLedger
	logger zerolog.Logger
}

func NewCommissionService(deps Deps, ledger *WalletLedger) *CommissionService {
	deps = deps.withDefaults()
	return &CommissionService{
		deps:   deps,
		ledger: ledger,
		logger: deps.Logger.With().Str("component", "commission_split").Logger(),
	}
}

// Record creates one pending commission per course of a completed order. Courses without
// an owner are skipped; courses that already have a commission for this order are left alone.
func (s *CommissionService) Record(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	cfg := s.deps.Settings.Current()
	var created []models.Commission

	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items.Course").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID.String()}
			}
			return fmt.Errorf("load order: %w", err)
		}
		if order.Status != orderStatusCompleted {
			return &InvalidStateError{Resource: "order", ID: order.ID.String(), State: order.Status, Action: "record commissions for"}
		}

		for _, item := range order.Items {
			log := s.logger.With().Str("order_id", order.ID.String()).Str("course_id", item.CourseID.String()).Logger()

			if item.Course.ID == uuid.Nil || item.Course.OwnerID == nil {
				log.Warn().Msg("course has no owner, skipping commission")
				continue
			}
			ownerID := *item.Course.OwnerID

			var owner models.User
			if err := tx.Select("id").First(&owner, "id = ?", ownerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					log.Warn().Str("owner_id", ownerID.String()).Msg("course owner not found, skipping commission")
					continue
				}
				return fmt.Errorf("load course owner: %w", err)
			}

			var existing int64
			if err := tx.Model(&models.Commission{}).Where("order_id = ? AND course_id = ?", order.ID, item.CourseID).Count(&existing).Error; err != nil {
				return fmt.Errorf("check existing commission: %w", err)
			}
			if existing > 0 {
				log.Debug().Msg("commission already recorded")
				continue
			}

			tier, err := ownerTier(tx, ownerID)
			if err != nil {
				return err
			}
			rate := cfg.PlatformRateIndividual
			if tier == models.TierTeam {
				rate = cfg.PlatformRateTeam
			}

			split := SplitSale(item.ChargedPrice, rate)
			commission := models.Commission{
				OrderID:        order.ID,
				CourseID:       item.CourseID,
				InstructorID:   ownerID,
				OwnerTier:      tier,
				Price:          round2(item.ChargedPrice),
				PlatformRate:   split.PlatformRate,
				PlatformAmount: split.PlatformAmount,
				SellerRate:     split.SellerRate,
				SellerAmount:   split.SellerAmount,
				Status:         models.CommissionPending,
				CreatedAt:      s.deps.Now(),
			}
			if err := tx.Create(&commission).Error; err != nil {
				return fmt.Errorf("create commission for course %s: %w", item.CourseID, err)
			}
			created = append(created, commission)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncCommission("sale", models.CommissionPending, len(created))
	s.logger.Info().Str("order_id", orderID.String()).Int("created", len(created)).Msg("sale commissions recorded")
	return created, nil
}

func ownerTier(tx *gorm.DB, ownerID uuid.UUID) (string, error) {
	var teacher models.Teacher
	err := tx.Select("user_id", "tier").First(&teacher, "user_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TierIndividual, nil
	}
	if err != nil {
		return "", fmt.Errorf("load owner tier: %w", err)
	}
	if teacher.Tier == models.TierTeam {
		return models.TierTeam, nil
	}
	return models.TierIndividual, nil
}

// MarkPaid credits every pending commission of the order to its seller and marks it paid.
// The batch is one transaction: if any credit fails nothing is paid.
func (s *CommissionService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*Settlement, error) {
	settlement := &Settlement{OrderID: orderID, Total: decimal.Zero}
	var entries []*models.LedgerEntry

	err := database.WithTransaction(ctx, s.deps.DB, func(tx *gorm.DB) error {
		var pending []models.Commission
		err := database.ForUpdate(tx).
			Where("order_id = ? AND status = ?", orderID, models.CommissionPending).
			Order("created_at asc, id asc").
			Find(&pending).Error
		if err != nil {
			return fmt.Errorf("load pending commissions: %w", err)
		}

		ledger := s.ledger.WithTx(tx)
		for i := range pending {
			c := &pending[i]
			entry, err := ledger.Credit(ctx, EntryRequest{
				UserID:      c.InstructorID,
				Amount:      c.SellerAmount,
				Kind:        models.KindSaleCommission,
				Description: fmt.Sprintf("Sale commission for order %s", orderID),
				RefID:       &c.ID,
				RefType:     "commission",
			})
			if err != nil {
				return fmt.Errorf("credit seller for commission %s: %w", c.ID, err)
			}

			now := s.deps.Now()
			res := tx.Model(&models.Commission{}).
				Where("id = ? AND status = ?", c.ID, models.CommissionPending).
				Updates(map[string]interface{}{"status": models.CommissionPaid, "paid_at": now})
			if res.Error != nil {
				return fmt.Errorf("mark commission %s paid: %w", c.ID, res.Error)
			}
			if res.RowsAffected != 1 {
				return &InvalidStateError{Resource: "commission", ID: c.ID.String(), State: "changed concurrently", Action: "mark paid"}
			}

			c.Status = models.CommissionPaid
			c.PaidAt = &now
			entries = append(entries, entry)
			settlement.Total = settlement.Total.Add(c.SellerAmount)
		}
		settlement.Commissions = pending
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("commission settlement rolled back")
		return nil, err
	}

	s.ledger.Published(entries...)
	s.deps.Metrics.IncCommission("sale", models.CommissionPaid, len(settlement.Commissions))

	perSeller := make(map[uuid.UUID]decimal.Decimal)
	for _, c := range settlement.Commissions {
		perSeller[c.InstructorID] = perSeller[c.InstructorID].Add(c.SellerAmount)
	}
	for sellerID, total := range perSeller {
		total := total
		s.deps.notify(sellerID, func(name string) notifications.Message {
			return notifications.CommissionsSettled(name, total)
		})
	}

	return settlement, nil
}

// ListByOrder returns the commissions recorded for an order.
func (s *CommissionService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := s.deps.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at asc, id asc").Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	return commissions, nil
}

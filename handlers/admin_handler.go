package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReviewWithdrawalRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ProcessPayoutRequest struct {
	Decision   string `json:"decision" validate:"required,oneof=complete reject"`
	AdminNotes string `json:"admin_notes" validate:"max=1000"`
}

type AdjustWalletRequest struct {
	// Amount is signed: positive credits, negative debits.
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=255"`
}

type LinkStatusRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) ListAffiliateWithdrawals(c *fiber.Ctx) error {
	filter := services.WithdrawalFilter{Status: c.Query("status"), Limit: c.QueryInt("limit", 0)}
	if raw := c.Query("affiliate_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid affiliate_id")
		}
		filter.AffiliateID = &id
	}

	withdrawals, err := h.Affiliates.ListWithdrawals(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withdrawals)
}

func (h *Handler) ApproveAffiliateWithdrawal(c *fiber.Ctx) error {
	adminID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req ReviewWithdrawalRequest
	if len(c.Body()) > 0 {
		if err := parse(c, &req); err != nil {
			return err
		}
	}

	withdrawal, err := h.Affiliates.ProcessWithdrawal(c.UserContext(), id, adminID, req.Notes)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withdrawal)
}

func (h *Handler) RejectAffiliateWithdrawal(c *fiber.Ctx) error {
	adminID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req RejectWithdrawalRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	withdrawal, err := h.Affiliates.RejectWithdrawal(c.UserContext(), id, adminID, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withdrawal)
}

func (h *Handler) SetAffiliateLinkStatus(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	var req LinkStatusRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if err := h.Affiliates.SetLinkActive(c.UserContext(), userID, req.IsActive); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Affiliate link status updated successfully."})
}

func (h *Handler) ListPayoutRequests(c *fiber.Ctx) error {
	requests, err := h.Payouts.ListPayouts(c.UserContext(), services.PayoutFilter{Status: c.Query("status", models.PayoutPending)})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(requests)
}

func (h *Handler) ProcessPayoutRequest(c *fiber.Ctx) error {
	adminID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "requestId")
	if err != nil {
		return err
	}
	var req ProcessPayoutRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	var payout *models.PayoutRequest
	if req.Decision == "complete" {
		payout, err = h.Payouts.ProcessPayout(c.UserContext(), id, adminID, req.AdminNotes)
	} else {
		payout, err = h.Payouts.RejectPayout(c.UserContext(), id, adminID, req.AdminNotes)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(payout)
}

func (h *Handler) AdjustWallet(c *fiber.Ctx) error {
	adminID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	userID, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}
	var req AdjustWalletRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	if req.Amount.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be zero")
	}

	entryReq := services.EntryRequest{
		UserID:      userID,
		Amount:      req.Amount.Abs(),
		Kind:        models.KindManualAdjustment,
		Description: req.Description,
		RefID:       &adminID,
		RefType:     "admin",
	}
	var entry *models.LedgerEntry
	if req.Amount.IsPositive() {
		entry, err = h.Ledger.Credit(c.UserContext(), entryReq)
	} else {
		entry, err = h.Ledger.Debit(c.UserContext(), entryReq)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetPlatformEarnings aggregates every instructor unless instructor_id is given.
// group=day or group=week adds buckets over the requested range.
func (h *Handler) GetPlatformEarnings(c *fiber.Ctx) error {
	filter, err := statsFilter(c)
	if err != nil {
		return err
	}
	if raw := c.Query("instructor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid instructor_id")
		}
		filter.InstructorID = &id
	}

	ctx := c.UserContext()
	stats, err := h.Earnings.GetStats(ctx, filter)
	if err != nil {
		return h.fail(c, err)
	}
	resp := fiber.Map{"stats": stats}

	group := c.Query("group")
	if group == "" {
		return c.JSON(resp)
	}
	if filter.From == nil || filter.To == nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date and end_date are required when grouping")
	}
	from, to := *filter.From, filter.To.AddDate(0, 0, -1)
	filter.From, filter.To = nil, nil

	var buckets []services.Bucket
	switch group {
	case "day":
		buckets, err = h.Earnings.GetDailyData(ctx, from, to, filter)
	case "week":
		buckets, err = h.Earnings.GetWeeklyData(ctx, from, to, filter)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "group must be day or week")
	}
	if err != nil {
		return h.fail(c, err)
	}
	resp["buckets"] = buckets
	return c.JSON(resp)
}

func (h *Handler) ReleaseCommissions(c *fiber.Ctx) error {
	released, err := h.Affiliates.ReleaseCommissions(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"released": released})
}

// GenerateLedgerReport exports ledger entries in [start_date, end_date] as CSV.
func (h *Handler) GenerateLedgerReport(c *fiber.Ctx) error {
	now := h.Now()
	startDate, err := time.Parse("2006-01-02", c.Query("start_date", now.AddDate(0, -1, 0).Format("2006-01-02")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid start_date format. Use YYYY-MM-DD.")
	}
	endDate, err := time.Parse("2006-01-02", c.Query("end_date", now.Format("2006-01-02")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid end_date format. Use YYYY-MM-DD.")
	}

	var entries []models.LedgerEntry
	err = h.DB.WithContext(c.UserContext()).
		Where("created_at >= ? AND created_at < ?", startDate, endDate.AddDate(0, 0, 1)).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return h.fail(c, err)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	if err := w.Write([]string{"Entry ID", "Date", "User ID", "Kind", "Side", "Amount", "Balance Before", "Balance After", "Reference", "Description"}); err != nil {
		return h.fail(c, err)
	}
	for _, e := range entries {
		ref := ""
		if e.RefID != nil {
			ref = e.RefID.String()
			if e.RefType != nil {
				ref = *e.RefType + ":" + ref
			}
		}
		row := []string{
			strconv.FormatUint(e.ID, 10),
			e.CreatedAt.UTC().Format("2006-01-02 15:04"),
			e.UserID.String(),
			string(e.Kind),
			string(e.Side),
			e.Amount.StringFixed(2),
			e.BalanceBefore.StringFixed(2),
			e.BalanceAfter.StringFixed(2),
			ref,
			e.Description,
		}
		if err := w.Write(row); err != nil {
			return h.fail(c, err)
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"ledger_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))
	return c.Send(b.Bytes())
}

package handlers

import (
	"time"

	"github.com/anjiri1684/course_ledger/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// statsFilter reads start_date / end_date (YYYY-MM-DD, end inclusive), course_id and status.
func statsFilter(c *fiber.Ctx) (services.StatsFilter, error) {
	var filter services.StatsFilter
	if raw := c.Query("start_date"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
		}
		to := end.AddDate(0, 0, 1)
		filter.To = &to
	}
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "Invalid course_id")
		}
		filter.CourseID = &id
	}
	filter.Status = c.Query("status")
	return filter, nil
}

func (h *Handler) GetInstructorEarnings(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := statsFilter(c)
	if err != nil {
		return err
	}
	filter.InstructorID = &userID

	ctx := c.UserContext()
	stats, err := h.Earnings.GetStats(ctx, filter)
	if err != nil {
		return h.fail(c, err)
	}
	available, err := h.Earnings.GetInstructorAvailableBalance(ctx, userID)
	if err != nil {
		return h.fail(c, err)
	}
	wallet, err := h.Ledger.GetBalance(ctx, userID)
	if err != nil {
		return h.fail(c, err)
	}

	resp := fiber.Map{
		"stats":             stats,
		"available_balance": available,
		"wallet_balance":    wallet,
	}
	if code := c.Query("currency"); code != "" {
		converted, err := h.Currency.Convert(stats.SellerShare, code)
		if err != nil {
			return h.fail(c, err)
		}
		resp["seller_share_converted"] = converted
	}
	return c.JSON(resp)
}

func (h *Handler) GetInstructorMonthlyEarnings(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := statsFilter(c)
	if err != nil {
		return err
	}
	filter.InstructorID = &userID
	filter.From, filter.To = nil, nil

	year := c.QueryInt("year", h.Now().Year())
	buckets, err := h.Earnings.GetMonthlyData(c.UserContext(), year, filter)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"year": year, "months": buckets})
}

func (h *Handler) RequestPayout(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req PayoutRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	payout, err := h.Payouts.RequestPayout(c.UserContext(), userID, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(payout)
}

func (h *Handler) GetMyPayoutRequests(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	requests, err := h.Payouts.ListPayouts(c.UserContext(), services.PayoutFilter{InstructorID: &userID, Status: c.Query("status")})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(requests)
}

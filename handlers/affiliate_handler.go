package handlers

import (
	"strings"

	"github.com/anjiri1684/course_ledger/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TrackReferral counts the click and remembers the code in the visitor's session so
// registration and checkout can attribute to it later.
func (h *Handler) TrackReferral(c *fiber.Ctx) error {
	link, err := h.Affiliates.TrackClick(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}

	sess, err := h.Sessions.Get(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess.Set(sessionAffiliateCode, link.Code)
	if err := sess.Save(); err != nil {
		return h.fail(c, err)
	}

	return c.Redirect(localPath(c.Query("next")), fiber.StatusFound)
}

// localPath keeps redirects on this site: anything but a plain absolute path becomes "/".
func localPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}
	return next
}

func (h *Handler) GetAffiliateLink(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	link, err := h.Affiliates.EnsureLink(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(link)
}

func (h *Handler) GetAffiliateSummary(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.Affiliates.Summary(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) GetAffiliateCommissions(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	commissions, err := h.Affiliates.ListCommissions(c.UserContext(), userID, c.Query("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(commissions)
}

func (h *Handler) RequestAffiliateWithdrawal(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req WithdrawalRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	withdrawal, err := h.Affiliates.RequestWithdrawal(c.UserContext(), userID, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(withdrawal)
}

func (h *Handler) GetMyAffiliateWithdrawals(c *fiber.Ctx) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	withdrawals, err := h.Affiliates.ListWithdrawals(c.UserContext(), services.WithdrawalFilter{
		AffiliateID: &userID,
		Status:      c.Query("status"),
		Limit:       c.QueryInt("limit", 0),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withdrawals)
}

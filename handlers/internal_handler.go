package handlers

import (
	"github.com/anjiri1684/course_ledger/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttributionRequest struct {
	ReferredUserID string `json:"referred_user_id" validate:"required,uuid"`
	SessionCode    string `json:"session_code" validate:"omitempty,max=16"`
}

// RecordOrderCommissions is called by checkout once an order completes.
func (h *Handler) RecordOrderCommissions(c *fiber.Ctx) error {
	orderID, err := paramUUID(c, "orderId")
	if err != nil {
		return err
	}
	created, err := h.Commissions.Record(c.UserContext(), orderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order_id": orderID, "created": created})
}

func (h *Handler) SettleOrder(c *fiber.Ctx) error {
	orderID, err := paramUUID(c, "orderId")
	if err != nil {
		return err
	}
	settlement, err := h.Commissions.MarkPaid(c.UserContext(), orderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(settlement)
}

func (h *Handler) AttributeSubscription(c *fiber.Ctx) error {
	subscriptionID, err := paramUUID(c, "subscriptionId")
	if err != nil {
		return err
	}
	var body AttributionRequest
	if err := parse(c, &body); err != nil {
		return err
	}

	commission, err := h.Affiliates.Attribute(c.UserContext(), services.AttributionRequest{
		ReferredUserID: uuid.MustParse(body.ReferredUserID),
		SubscriptionID: subscriptionID,
		SessionCode:    body.SessionCode,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if commission == nil {
		return c.JSON(fiber.Map{"attributed": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attributed": true, "commission": commission})
}

package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/gofiber/fiber/v2"
)

// InternalRoutes are the hooks checkout and billing call once payment settles.
func InternalRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	internal := api.Group("/internal", middleware.Protected(secret), middleware.StaffRequired())
	internal.Post("/orders/:orderId/commissions", h.RecordOrderCommissions)
	internal.Post("/orders/:orderId/settle", h.SettleOrder)
	internal.Post("/subscriptions/:subscriptionId/attribute", h.AttributeSubscription)
}

package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/gofiber/fiber/v2"
)

func AffiliateRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	affiliate := api.Group("/affiliate", middleware.Protected(secret))
	affiliate.Get("/link", h.GetAffiliateLink)
	affiliate.Get("/summary", h.GetAffiliateSummary)
	affiliate.Get("/commissions", h.GetAffiliateCommissions)
	affiliate.Post("/withdrawals", h.RequestAffiliateWithdrawal)
	affiliate.Get("/withdrawals", h.GetMyAffiliateWithdrawals)
}

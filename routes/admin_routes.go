package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(secret), middleware.AdminRequired())

	admin.Get("/affiliate-withdrawals", h.ListAffiliateWithdrawals)
	admin.Post("/affiliate-withdrawals/:id/approve", h.ApproveAffiliateWithdrawal)
	admin.Post("/affiliate-withdrawals/:id/reject", h.RejectAffiliateWithdrawal)
	admin.Put("/affiliate-links/:userId/status", h.SetAffiliateLinkStatus)

	admin.Get("/payout-requests", h.ListPayoutRequests)
	admin.Post("/payout-requests/:requestId/process", h.ProcessPayoutRequest)

	admin.Post("/wallets/:userId/adjust", h.AdjustWallet)
	admin.Get("/earnings", h.GetPlatformEarnings)
	admin.Post("/commissions/release", h.ReleaseCommissions)

	reports := admin.Group("/reports")
	reports.Get("/ledger", h.GenerateLedgerReport)
}

package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func WalletRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	wallet := api.Group("/wallet", middleware.Protected(secret))
	wallet.Get("/balance", h.GetWalletBalance)
	wallet.Get("/history", h.GetWalletHistory)

	// the socket authenticates with its first frame, not the Authorization header
	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/wallet", websocket.New(h.ServeWalletWs))
}

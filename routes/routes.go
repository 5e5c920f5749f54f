package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/gofiber/fiber/v2"
)

// Setup mounts every route group on app.
func Setup(app *fiber.App, h *handlers.Handler, secret string) {
	PublicRoutes(app, h)
	AuthRoutes(app, h)
	WalletRoutes(app, h, secret)
	AffiliateRoutes(app, h, secret)
	InstructorRoutes(app, h, secret)
	InternalRoutes(app, h, secret)
	AdminRoutes(app, h, secret)
}

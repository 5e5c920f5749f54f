package routes

import (
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/gofiber/fiber/v2"
)

func InstructorRoutes(app *fiber.App, h *handlers.Handler, secret string) {
	api := app.Group("/api/v1")

	instructor := api.Group("/instructor", middleware.Protected(secret), middleware.InstructorRequired())
	instructor.Get("/earnings", h.GetInstructorEarnings)
	instructor.Get("/earnings/monthly", h.GetInstructorMonthlyEarnings)
	instructor.Post("/payouts", h.RequestPayout)
	instructor.Get("/payouts", h.GetMyPayoutRequests)
}

package handlers

import (
	"errors"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/anjiri1684/course_ledger/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var validate = validator.New()

// Handler serves the HTTP API on top of the ledger services.
type Handler struct {
	DB          *gorm.DB
	Ledger      *services.WalletLedger
	Commissions *services.CommissionService
	Affiliates  *services.AffiliateService
	Earnings    *services.EarningsService
	Payouts     *services.PayoutService
	Currency    *services.CurrencyConverter
	Hub         *websocket.Hub
	Sessions    *session.Store
	Settings    config.Provider
	Logger      zerolog.Logger
	Now         func() time.Time
}

// New wires every service from deps. deps.Events should already point at hub.
func New(deps services.Deps, hub *websocket.Hub, sessions *session.Store) *Handler {
	if deps.Settings == nil {
		deps.Settings = config.Static(config.Defaults())
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if sessions == nil {
		sessions = session.New()
	}
	ledger := services.NewWalletLedger(deps)
	return &Handler{
		DB:          deps.DB,
		Ledger:      ledger,
		Commissions: services.NewCommissionService(deps, ledger),
		Affiliates:  services.NewAffiliateService(deps),
		Earnings:    services.NewEarningsService(deps),
		Payouts:     services.NewPayoutService(deps, ledger),
		Currency:    services.NewCurrencyConverter(deps.Settings),
		Hub:         hub,
		Sessions:    sessions,
		Settings:    deps.Settings,
		Logger:      deps.Logger.With().Str("component", "http").Logger(),
		Now:         deps.Now,
	}
}

// fail maps service errors onto status codes with the {"error": msg} body.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var (
		notFound     *services.NotFoundError
		insufficient *services.InsufficientFundsError
		invalidState *services.InvalidStateError
		validation   *services.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound.Error()})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": insufficient.Error()})
	case errors.As(err, &invalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": invalidState.Error()})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Error()})
	}

	h.Logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// parse decodes and validates the request body into req.
func parse(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, string, error) {
	id, role, err := middleware.CurrentUser(c)
	if err != nil {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return id, role, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// ErrorHandler renders errors that escape a handler, including the fiber errors above.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("unhandled error")
			msg = "Internal server error"
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/handlers"
	"github.com/anjiri1684/course_ledger/jobs"
	"github.com/anjiri1684/course_ledger/notifications"
	"github.com/anjiri1684/course_ledger/routes"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/anjiri1684/course_ledger/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	provider := config.NewEnvProvider()
	settings := provider.Current()

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.With().Str("service", "course_ledger").Logger()

	if settings.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := database.ConnectDB(settings.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	err = database.SeedAdmin(db, database.AdminSeed{
		Email:    config.Config("ADMIN_EMAIL"),
		Password: config.Config("ADMIN_PASSWORD"),
		FullName: "Administrator",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	deps := services.Deps{
		DB:       db,
		Logger:   logger,
		Settings: provider,
		Metrics:  services.DefaultMetrics(),
		Events:   hub,
	}
	if mailer := notifications.NewBrevoService(
		config.Config("BREVO_API_KEY"),
		config.Config("BREVO_SENDER_EMAIL"),
		config.Config("BREVO_SENDER_NAME"),
		logger,
	); mailer != nil {
		deps.Mailer = mailer
	}

	h := handlers.New(deps, hub, session.New())

	var locker jobs.Locker = jobs.LocalLocker{}
	if settings.RedisURL != "" {
		client, err := jobs.ConnectRedis(ctx, settings.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		locker = jobs.NewRedisLocker(client)
	}

	c := cron.New()
	if _, err := jobs.Schedule(c, settings.ReleaseSchedule, jobs.NewReleaseJob(h.Affiliates, locker, logger)); err != nil {
		logger.Fatal().Err(err).Str("schedule", settings.ReleaseSchedule).Msg("failed to schedule commission release")
	}
	c.Start()
	defer c.Stop()
	logger.Info().Str("schedule", settings.ReleaseSchedule).Msg("commission release scheduled")

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "Course Ledger",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(logger),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app, h, settings.JWTSecret)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("port", settings.Port).Msg("server starting")
	if err := app.Listen(":" + settings.Port); err != nil {
		logger.Fatal().Err(err).Msg("server failed to start")
	}
}

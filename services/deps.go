package services

import (
	"context"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/notifications"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventPublisher pushes committed wallet and withdrawal events to connected users.
type EventPublisher interface {
	Publish(userID uuid.UUID, event interface{})
}

// Deps is what every engine is built from.
type Deps struct {
	DB       *gorm.DB
	Logger   zerolog.Logger
	Settings config.Provider
	Metrics  *Metrics
	Events   EventPublisher
	Mailer   notifications.Mailer
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Settings == nil {
		d.Settings = config.Static(config.Defaults())
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d Deps) publish(userID uuid.UUID, event interface{}) {
	if d.Events != nil {
		d.Events.Publish(userID, event)
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var hundred = decimal.NewFromInt(100)

// notify emails a user after a committed change. Failures are logged, never returned.
func (d Deps) notify(userID uuid.UUID, build func(name string) notifications.Message) {
	if d.Mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		var user models.User
		if err := d.DB.WithContext(ctx).Select("id", "full_name", "email").First(&user, "id = ?", userID).Error; err != nil {
			d.Logger.Warn().Err(err).Str("user_id", userID.String()).Msg("cannot load user for notification")
			return
		}
		msg := build(user.FullName)
		if err := d.Mailer.SendEmail(ctx, user.FullName, user.Email, msg.Subject, msg.HTML); err != nil {
			d.Logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to send notification")
		}
	}()
}

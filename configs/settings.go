package config

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Settings is the configuration surface consumed by the ledger engines.
type Settings struct {
	DatabaseURL string
	Port        string
	JWTSecret   string
	RedisURL    string
	LogLevel    string

	AffiliateEnabled       bool
	MinWithdrawal          decimal.Decimal
	PlatformRateIndividual decimal.Decimal
	PlatformRateTeam       decimal.Decimal

	BaseCurrency    string
	CurrencyRates   map[string]decimal.Decimal
	ReleaseSchedule string
}

// Provider hands out the settings for one operation.
type Provider interface {
	Current() Settings
}

// Static is a Provider over a fixed Settings value.
type Static Settings

func (s Static) Current() Settings { return Settings(s) }

// Defaults mirror the documented values: 5% individual, 10% team, 500 minimum withdrawal.
func Defaults() Settings {
	return Settings{
		Port:                   "8080",
		LogLevel:               "info",
		AffiliateEnabled:       true,
		MinWithdrawal:          decimal.NewFromInt(500),
		PlatformRateIndividual: decimal.NewFromInt(5),
		PlatformRateTeam:       decimal.NewFromInt(10),
		BaseCurrency:           "USD",
		CurrencyRates:          map[string]decimal.Decimal{},
		ReleaseSchedule:        "@every 15m",
	}
}

// EnvProvider re-reads the environment (and .env) through viper on every call.
type EnvProvider struct {
	v *viper.Viper
}

func NewEnvProvider() *EnvProvider {
	Config("DATABASE_URL") // prime .env

	d := Defaults()
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", d.Port)
	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("AFFILIATE_ENABLED", d.AffiliateEnabled)
	v.SetDefault("MIN_WITHDRAWAL", d.MinWithdrawal.String())
	v.SetDefault("PLATFORM_RATE_INDIVIDUAL", d.PlatformRateIndividual.String())
	v.SetDefault("PLATFORM_RATE_TEAM", d.PlatformRateTeam.String())
	v.SetDefault("BASE_CURRENCY", d.BaseCurrency)
	v.SetDefault("CURRENCY_RATES", "")
	v.SetDefault("RELEASE_SCHEDULE", d.ReleaseSchedule)

	return &EnvProvider{v: v}
}

func (p *EnvProvider) Current() Settings {
	d := Defaults()
	return Settings{
		DatabaseURL:            p.v.GetString("DATABASE_URL"),
		Port:                   p.v.GetString("PORT"),
		JWTSecret:              p.v.GetString("JWT_SECRET"),
		RedisURL:               p.v.GetString("REDIS_URL"),
		LogLevel:               p.v.GetString("LOG_LEVEL"),
		AffiliateEnabled:       p.v.GetBool("AFFILIATE_ENABLED"),
		MinWithdrawal:          decimalOr(p.v.GetString("MIN_WITHDRAWAL"), d.MinWithdrawal),
		PlatformRateIndividual: decimalOr(p.v.GetString("PLATFORM_RATE_INDIVIDUAL"), d.PlatformRateIndividual),
		PlatformRateTeam:       decimalOr(p.v.GetString("PLATFORM_RATE_TEAM"), d.PlatformRateTeam),
		BaseCurrency:           strings.ToUpper(p.v.GetString("BASE_CURRENCY")),
		CurrencyRates:          ParseRates(p.v.GetString("CURRENCY_RATES")),
		ReleaseSchedule:        p.v.GetString("RELEASE_SCHEDULE"),
	}
}

// ParseRates reads "KES=129.5,EUR=0.92". Malformed pairs are dropped.
func ParseRates(raw string) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil || !rate.IsPositive() {
			log.Warn().Str("pair", pair).Msg("ignoring malformed currency rate")
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates
}

func decimalOr(raw string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		log.Warn().Str("value", raw).Msg("invalid decimal setting, using default")
		return fallback
	}
	return d
}

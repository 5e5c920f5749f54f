package services

import (
	"fmt"
	"strings"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/shopspring/decimal"
)

// ConvertedAmount is an amount expressed in the base currency and in a display currency.
type ConvertedAmount struct {
	Base     decimal.Decimal `json:"base"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// CurrencyConverter converts base-currency amounts using the configured fixed rate table.
type CurrencyConverter struct {
	settings config.Provider
}

func NewCurrencyConverter(settings config.Provider) *CurrencyConverter {
	if settings == nil {
		settings = config.Static(config.Defaults())
	}
	return &CurrencyConverter{settings: settings}
}

// Convert returns amount in the currency named by code. An empty code or the base
// currency itself converts at rate 1.
func (c *CurrencyConverter) Convert(amount decimal.Decimal, code string) (ConvertedAmount, error) {
	cfg := c.settings.Current()
	code = strings.ToUpper(strings.TrimSpace(code))
	base := cfg.BaseCurrency
	if base == "" {
		base = "USD"
	}

	if code == "" || code == base {
		return ConvertedAmount{Base: round2(amount), Currency: base, Rate: decimal.NewFromInt(1), Amount: round2(amount)}, nil
	}

	rate, ok := cfg.CurrencyRates[code]
	if !ok {
		return ConvertedAmount{}, &ValidationError{Field: "currency", Message: fmt.Sprintf("no exchange rate configured for %s", code)}
	}
	return ConvertedAmount{
		Base:     round2(amount),
		Currency: code,
		Rate:     rate,
		Amount:   round2(amount.Mul(rate)),
	}, nil
}

// Currencies lists the codes Convert accepts besides the base currency.
func (c *CurrencyConverter) Currencies() []string {
	rates := c.settings.Current().CurrencyRates
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	return codes
}

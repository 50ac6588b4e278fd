package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// Display is a formatted price for one locale. Amount is the display amount
// in the display currency; the authoritative amount always stays IDR.
type Display struct {
	PriceText  string          `json:"price_text"`
	PeriodText string          `json:"period_text"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   enums.Currency  `json:"currency"`
}

// RateSource serves the cached IDR->USD conversion rate.
type RateSource interface {
	Get(ctx context.Context, key string) (string, error)
	UsdRateKey() string
}

// Resolver turns stored IDR amounts into locale-appropriate display prices.
type Resolver struct {
	rates       RateSource
	defaultRate decimal.Decimal
	logg        *logger.Logger
}

// NewResolver builds a resolver. The rate source may be nil, in which case
// the configured default rate is always used.
func NewResolver(cfg config.PricingConfig, rates RateSource, logg *logger.Logger) *Resolver {
	rate := decimal.NewFromFloat(cfg.DefaultUSDRate)
	if rate.LessThanOrEqual(decimal.Zero) {
		rate = decimal.NewFromInt(15500)
	}
	return &Resolver{rates: rates, defaultRate: rate, logg: logg}
}

// Resolve formats an IDR amount for the given locale. Conversion is a pure
// display transform.
func (r *Resolver) Resolve(ctx context.Context, amountIDR decimal.Decimal, locale enums.Locale) Display {
	if locale == enums.LocaleEN {
		rate := r.usdRate(ctx)
		usd := amountIDR.Div(rate).Round(0)
		return Display{
			PriceText:  "$" + usd.String(),
			PeriodText: "/month",
			Amount:     usd,
			Currency:   enums.CurrencyUSD,
		}
	}

	return Display{
		PriceText:  FormatIDR(amountIDR),
		PeriodText: "/bulan",
		Amount:     amountIDR,
		Currency:   enums.CurrencyIDR,
	}
}

func (r *Resolver) usdRate(ctx context.Context) decimal.Decimal {
	if r.rates == nil {
		return r.defaultRate
	}
	raw, err := r.rates.Get(ctx, r.rates.UsdRateKey())
	if err != nil {
		return r.defaultRate
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		if r.logg != nil {
			r.logg.Warn(ctx, fmt.Sprintf("invalid usd rate %q, using default", raw))
		}
		return r.defaultRate
	}
	return rate
}

// FormatIDR renders an amount as "Rp 1.234.567" with zero fraction digits.
func FormatIDR(amount decimal.Decimal) string {
	digits := amount.Round(0).String()
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	formatted := "Rp " + strings.Join(groups, ".")
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}

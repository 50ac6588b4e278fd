package catalog

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DurationInfo is one billing term offered by a product.
type DurationInfo struct {
	ID     uuid.UUID
	Code   string
	Months int
}

// PriceRow is one raw pricelist entry as delivered upstream. Amounts arrive
// as strings because legacy rows carry inconsistent numeric formatting.
type PriceRow struct {
	DurationID   *uuid.UUID
	DurationCode string
	Price        string
	Discount     string
	Prorated     bool
}

// PricePoint is the resolved price for one (package, duration) slot.
type PricePoint struct {
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	Final        decimal.Decimal `json:"final"`
	DurationCode string          `json:"duration_code"`
	Prorated     bool            `json:"prorated"`
}

// PriceIndex maps packageCode -> durationLengthMonths -> price point.
type PriceIndex map[string]map[int]PricePoint

// BuildPriceIndex resolves every pricelist row against the product's duration
// list. Rows are matched by duration id first, then by duration code against
// a duration's code or stringified length, and finally dropped into the first
// unfilled slot. The builder never fails; unmatched rows are skipped and the
// result degrades to a partial map.
func BuildPriceIndex(durations []DurationInfo, rowsByPackage map[string][]PriceRow) PriceIndex {
	index := make(PriceIndex, len(rowsByPackage))

	for packageCode, rows := range rowsByPackage {
		slots := make(map[int]PricePoint, len(durations))
		for _, row := range rows {
			duration, ok := resolveDuration(row, durations, slots)
			if !ok {
				continue
			}
			if _, taken := slots[duration.Months]; taken {
				continue
			}

			price := ParseAmount(row.Price)
			discount := ParseAmount(row.Discount)
			final := price.Sub(discount)
			if final.IsNegative() {
				final = decimal.Zero
			}

			slots[duration.Months] = PricePoint{
				Price:        price,
				Discount:     discount,
				Final:        final,
				DurationCode: duration.Code,
				Prorated:     row.Prorated,
			}
		}
		index[packageCode] = slots
	}

	return index
}

func resolveDuration(row PriceRow, durations []DurationInfo, filled map[int]PricePoint) (DurationInfo, bool) {
	if row.DurationID != nil {
		for _, d := range durations {
			if d.ID == *row.DurationID {
				return d, true
			}
		}
	}

	if code := strings.TrimSpace(row.DurationCode); code != "" {
		for _, d := range durations {
			if strings.EqualFold(d.Code, code) || strconv.Itoa(d.Months) == code {
				return d, true
			}
		}
	}

	// Last resort for rows with no usable duration reference: the first
	// slot not yet filled. See DESIGN.md on why this path still exists.
	for _, d := range durations {
		if _, taken := filled[d.Months]; !taken {
			return d, true
		}
	}

	return DurationInfo{}, false
}

// ParseAmount coerces a raw amount string into a decimal. Anything that is
// not a digit, sign, or decimal point is stripped first; unparseable input
// collapses to zero rather than erroring.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	if value, err := decimal.NewFromString(trimmed); err == nil {
		return value
	}

	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return value
}

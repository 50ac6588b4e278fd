package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricelistRow holds the IDR price of one package/duration combination.
// DurationID is nullable: legacy rows may only carry a duration code string,
// which the price index matcher resolves by code or stringified length.
type PricelistRow struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID      uuid.UUID       `gorm:"column:package_id;type:uuid;not null;index"`
	DurationID     *uuid.UUID      `gorm:"column:duration_id;type:uuid"`
	DurationCode   string          `gorm:"column:duration_code"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	Discount       decimal.Decimal `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	Prorated       bool            `gorm:"column:prorated;not null;default:false"`
	EffectiveFrom  *time.Time      `gorm:"column:effective_from"`
	EffectiveUntil *time.Time      `gorm:"column:effective_until"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

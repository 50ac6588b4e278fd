package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is a discount code. Either Amount or Percent is set, not both.
type Voucher struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string          `gorm:"column:code;not null;uniqueIndex"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null;default:0"`
	Percent    decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null;default:0"`
	UsageLimit int             `gorm:"column:usage_limit;not null;default:0"`
	UsedCount  int             `gorm:"column:used_count;not null;default:0"`
	ValidFrom  *time.Time      `gorm:"column:valid_from"`
	ValidUntil *time.Time      `gorm:"column:valid_until"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

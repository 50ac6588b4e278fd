package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// Order is a checkout attempt handed off to Midtrans Snap. Status moves
// pending -> paid|failed|expired and terminal statuses are never downgraded.
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MidtransOrderID string            `gorm:"column:midtrans_order_id;not null;uniqueIndex"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductCode     string            `gorm:"column:product_code;not null"`
	PackageCode     string            `gorm:"column:package_code;not null"`
	DurationCode    string            `gorm:"column:duration_code;not null"`
	DurationMonths  int               `gorm:"column:duration_months;not null"`
	Intent          enums.OrderIntent `gorm:"column:intent;not null;default:'purchase'"`
	Currency        enums.Currency    `gorm:"column:currency;not null;default:'IDR'"`
	GrossAmount     decimal.Decimal   `gorm:"column:gross_amount;type:numeric(14,2);not null"`
	DiscountAmount  decimal.Decimal   `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	VoucherCode     *string           `gorm:"column:voucher_code"`
	VoucherDiscount decimal.Decimal   `gorm:"column:voucher_discount;type:numeric(14,2);not null;default:0"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending';index"`
	SnapToken       *string           `gorm:"column:snap_token"`
	SnapRedirectURL *string           `gorm:"column:snap_redirect_url"`
	PollAttempts    int               `gorm:"column:poll_attempts;not null;default:0"`
	PaidAt          *time.Time        `gorm:"column:paid_at"`
	ExpiredAt       *time.Time        `gorm:"column:expired_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

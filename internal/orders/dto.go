package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// OrderView is the customer-facing order shape.
type OrderView struct {
	ID              uuid.UUID         `json:"id"`
	MidtransOrderID string            `json:"midtrans_order_id"`
	ProductCode     string            `json:"product_code"`
	PackageCode     string            `json:"package_code"`
	DurationCode    string            `json:"duration_code"`
	DurationMonths  int               `json:"duration_months"`
	Intent          enums.OrderIntent `json:"intent"`
	Currency        enums.Currency    `json:"currency"`
	GrossAmount     decimal.Decimal   `json:"gross_amount"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	VoucherCode     *string           `json:"voucher_code,omitempty"`
	VoucherDiscount decimal.Decimal   `json:"voucher_discount"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	Status          enums.OrderStatus `json:"status"`
	SnapToken       *string           `json:"snap_token,omitempty"`
	SnapRedirectURL *string           `json:"snap_redirect_url,omitempty"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// InvoiceView is the dashboard row for one paid order.
type InvoiceView struct {
	OrderID         uuid.UUID       `json:"order_id"`
	MidtransOrderID string          `json:"midtrans_order_id"`
	ProductCode     string          `json:"product_code"`
	PackageCode     string          `json:"package_code"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Currency        enums.Currency  `json:"currency"`
	PaidAt          *time.Time      `json:"paid_at"`
}

// ViewFromModel maps an order row into its API shape.
func ViewFromModel(order models.Order) OrderView {
	return OrderView{
		ID:              order.ID,
		MidtransOrderID: order.MidtransOrderID,
		ProductCode:     order.ProductCode,
		PackageCode:     order.PackageCode,
		DurationCode:    order.DurationCode,
		DurationMonths:  order.DurationMonths,
		Intent:          order.Intent,
		Currency:        order.Currency,
		GrossAmount:     order.GrossAmount,
		DiscountAmount:  order.DiscountAmount,
		VoucherCode:     order.VoucherCode,
		VoucherDiscount: order.VoucherDiscount,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		SnapToken:       order.SnapToken,
		SnapRedirectURL: order.SnapRedirectURL,
		PaidAt:          order.PaidAt,
		CreatedAt:       order.CreatedAt,
	}
}

func invoiceFromModel(order models.Order) InvoiceView {
	return InvoiceView{
		OrderID:         order.ID,
		MidtransOrderID: order.MidtransOrderID,
		ProductCode:     order.ProductCode,
		PackageCode:     order.PackageCode,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		PaidAt:          order.PaidAt,
	}
}

// NewMidtransOrderID mints the public gateway-facing order identifier.
func NewMidtransOrderID(now time.Time) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failures are effectively fatal elsewhere; fall back
		// to a time-derived suffix instead of panicking mid-checkout.
		return fmt.Sprintf("AGS-%s-%d", now.UTC().Format("20060102"), now.UnixNano()%1_000_000)
	}
	return fmt.Sprintf("AGS-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}

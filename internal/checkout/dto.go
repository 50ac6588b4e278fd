package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgcheckout "github.com/agilestore/agilestore-backend/pkg/checkout"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// SubmitInput is a checkout submission. CustomerID is uuid.Nil for guests,
// in which case the contact email drives account provisioning.
type SubmitInput struct {
	Contact     pkgcheckout.Contact
	Plan        pkgcheckout.Plan
	Intent      string
	VoucherCode string
	CustomerID  uuid.UUID
}

// SubmitResult is the Snap handoff returned to the storefront.
type SubmitResult struct {
	OrderID         uuid.UUID         `json:"order_id"`
	MidtransOrderID string            `json:"midtrans_order_id"`
	Status          enums.OrderStatus `json:"status"`
	Currency        enums.Currency    `json:"currency"`
	GrossAmount     decimal.Decimal   `json:"gross_amount"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	VoucherDiscount decimal.Decimal   `json:"voucher_discount"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	SnapToken       *string           `json:"snap_token,omitempty"`
	SnapRedirectURL *string           `json:"snap_redirect_url,omitempty"`
	AccountCreated  bool              `json:"account_created,omitempty"`
	AccessToken     string            `json:"access_token,omitempty"`
}

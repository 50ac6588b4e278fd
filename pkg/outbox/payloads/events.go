package payloads

import (
	"time"

	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent signals a checkout handed off to the payment gateway.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	MidtransOrderID string            `json:"midtrans_order_id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	ProductCode     string            `json:"product_code"`
	PackageCode     string            `json:"package_code"`
	DurationMonths  int               `json:"duration_months"`
	Intent          enums.OrderIntent `json:"intent"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
}

// OrderPaidEvent is emitted when the gateway reports settlement.
type OrderPaidEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	MidtransOrderID string            `json:"midtrans_order_id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	ProductCode     string            `json:"product_code"`
	PackageCode     string            `json:"package_code"`
	DurationMonths  int               `json:"duration_months"`
	Intent          enums.OrderIntent `json:"intent"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaidAt          time.Time         `json:"paid_at"`
}

// OrderFailedEvent is emitted when the gateway denies or cancels payment.
type OrderFailedEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	MidtransOrderID string    `json:"midtrans_order_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	GatewayStatus   string    `json:"gateway_status"`
}

// OrderExpiredEvent is emitted when the payment window lapses.
type OrderExpiredEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	MidtransOrderID string    `json:"midtrans_order_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	ExpiredAt       time.Time `json:"expired_at"`
}

// CustomerRegisteredEvent is emitted for explicit and guest-checkout signups.
type CustomerRegisteredEvent struct {
	CustomerID      uuid.UUID `json:"customer_id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	PasswordPending bool      `json:"password_pending"`
}

// PasswordResetIssuedEvent carries the one-time reset token to the mailer.
// Only the hash is stored long-term; outbox rows are pruned by retention.
type PasswordResetIssuedEvent struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SubscriptionStartedEvent is emitted when settlement creates an entitlement.
type SubscriptionStartedEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	OrderID        uuid.UUID `json:"order_id"`
	ProductCode    string    `json:"product_code"`
	PackageCode    string    `json:"package_code"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

// SubscriptionRenewedEvent is emitted when a renew order extends the term.
type SubscriptionRenewedEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	OrderID        uuid.UUID `json:"order_id"`
	ProductCode    string    `json:"product_code"`
	NewEndDate     time.Time `json:"new_end_date"`
}

// SubscriptionUpgradedEvent is emitted when an upgrade order switches packages.
type SubscriptionUpgradedEvent struct {
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	OrderID         uuid.UUID `json:"order_id"`
	ProductCode     string    `json:"product_code"`
	FromPackageCode string    `json:"from_package_code"`
	ToPackageCode   string    `json:"to_package_code"`
}

package enums

import "fmt"

// OrderStatus tracks the payment lifecycle of a storefront order.
// pending is the only non-terminal status; paid, failed and expired are
// terminal and never downgraded.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusExpired OrderStatus = "expired"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusFailed,
	OrderStatusExpired,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusExpired
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderIntent distinguishes why the customer is placing the order.
type OrderIntent string

const (
	OrderIntentPurchase OrderIntent = "purchase"
	OrderIntentRenew    OrderIntent = "renew"
	OrderIntentUpgrade  OrderIntent = "upgrade"
	OrderIntentAddon    OrderIntent = "addon"
)

var validOrderIntents = []OrderIntent{
	OrderIntentPurchase,
	OrderIntentRenew,
	OrderIntentUpgrade,
	OrderIntentAddon,
}

// String implements fmt.Stringer.
func (i OrderIntent) String() string {
	return string(i)
}

// IsValid reports whether the value is a known OrderIntent.
func (i OrderIntent) IsValid() bool {
	for _, candidate := range validOrderIntents {
		if candidate == i {
			return true
		}
	}
	return false
}

// RequiresActiveSubscription reports whether the intent only makes sense on
// top of an existing active subscription.
func (i OrderIntent) RequiresActiveSubscription() bool {
	return i == OrderIntentRenew || i == OrderIntentUpgrade || i == OrderIntentAddon
}

// ParseOrderIntent converts raw input into an OrderIntent.
func ParseOrderIntent(value string) (OrderIntent, error) {
	for _, candidate := range validOrderIntents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order intent %q", value)
}

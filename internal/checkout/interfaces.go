package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/internal/subscriptions"
	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
)

type catalogStore interface {
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	FindDurationForMonths(ctx context.Context, productCode string, months int) (*models.Duration, error)
	FindActivePriceRow(ctx context.Context, packageCode, durationCode string, at time.Time) (*models.PricelistRow, error)
}

type subscriptionGuard interface {
	CheckProduct(ctx context.Context, input subscriptions.GuardInput) (*subscriptions.GuardResult, error)
}

type voucherEngine interface {
	Evaluate(ctx context.Context, code string, gross decimal.Decimal) (decimal.Decimal, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
}

type snapGateway interface {
	CreateSnapTransaction(ctx context.Context, params midtrans.SnapTransactionParams) (*midtrans.SnapTransaction, error)
}

// customerProvisioner covers the slice of the customer service guest checkout
// needs: lookup, pending-account creation, and a fresh access token.
type customerProvisioner interface {
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	CreateGuest(ctx context.Context, tx *gorm.DB, fullName, email, phone string) (*models.Customer, error)
	IssueAccessToken(ctx context.Context, customer *models.Customer) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

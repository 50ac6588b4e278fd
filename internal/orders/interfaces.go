package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByMidtransOrderID(ctx context.Context, midtransOrderID string) (*models.Order, error)
	ListPendingForPoll(ctx context.Context, maxAttempts, limit int) ([]models.Order, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	IncrementPollAttempts(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	ListPaidByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Order, error)
	CountPaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindPackageName(ctx context.Context, productCode, packageCode string) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type gatewayStatusClient interface {
	GetTransactionStatus(ctx context.Context, orderID string) (*midtrans.TransactionStatus, error)
}

type subscriptionApplier interface {
	ApplyPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order, packageName string) error
}

package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/agilestore/agilestore-backend/internal/orders"
	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

const (
	defaultMaxPollAttempts = 5
	defaultPollBatchSize   = 50
)

type pendingOrderLister interface {
	ListPendingForPoll(ctx context.Context, maxAttempts, limit int) ([]models.Order, error)
}

type statusRefresher interface {
	RefreshStatus(ctx context.Context, orderID uuid.UUID, countAttempt bool) (*orders.OrderView, error)
}

// OrderStatusPollJobParams configure the gateway status poller.
type OrderStatusPollJobParams struct {
	Logger      *logger.Logger
	Pending     pendingOrderLister
	Orders      statusRefresher
	MaxAttempts int
	BatchSize   int
}

// NewOrderStatusPollJob builds the job that polls Midtrans for pending
// orders. Each poll consumes one of the order's attempts; orders at the cap
// are left to the webhook and manual refresh.
func NewOrderStatusPollJob(params OrderStatusPollJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending orders lister required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("status refresher required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxPollAttempts
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultPollBatchSize
	}
	return &orderStatusPollJob{
		logg:        params.Logger,
		pending:     params.Pending,
		orders:      params.Orders,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}, nil
}

type orderStatusPollJob struct {
	logg        *logger.Logger
	pending     pendingOrderLister
	orders      statusRefresher
	maxAttempts int
	batchSize   int
}

func (j *orderStatusPollJob) Name() string { return "order-status-poll" }

func (j *orderStatusPollJob) Run(ctx context.Context) error {
	pending, err := j.pending.ListPendingForPoll(ctx, j.maxAttempts, j.batchSize)
	if err != nil {
		return fmt.Errorf("list pending orders: %w", err)
	}

	var errs []error
	refreshed := 0
	for _, order := range pending {
		if _, err := j.orders.RefreshStatus(ctx, order.ID, true); err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", order.MidtransOrderID, err))
			continue
		}
		refreshed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":   len(pending),
		"refreshed": refreshed,
		"failed":    len(errs),
	})
	j.logg.Info(logCtx, "order status poll complete")
	return multierr.Combine(errs...)
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agilestore/agilestore-backend/pkg/logger"
)

const (
	defaultTokenValidity   = 24 * time.Hour
	defaultExpiryBatchSize = 100
)

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OrderExpiryJobParams configure the pending-order expiry sweep.
type OrderExpiryJobParams struct {
	Logger        *logger.Logger
	Orders        staleOrderExpirer
	TokenValidity time.Duration
	BatchSize     int
}

// NewOrderExpiryJob builds the job that expires pending orders whose Snap
// token validity window has lapsed.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("stale order expirer required")
	}
	validity := params.TokenValidity
	if validity <= 0 {
		validity = defaultTokenValidity
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &orderExpiryJob{
		logg:      params.Logger,
		orders:    params.Orders,
		validity:  validity,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg      *logger.Logger
	orders    staleOrderExpirer
	validity  time.Duration
	batchSize int
	now       func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.validity)
	expired, err := j.orders.ExpireStale(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("expire stale orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return nil
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/outbox/payloads"
	"github.com/agilestore/agilestore-backend/pkg/pagination"
)

// Service owns the order read paths and the payment status lifecycle shared
// by the manual refresh endpoint, the status poller, and the webhook.
type Service interface {
	Get(ctx context.Context, customerID, orderID uuid.UUID) (*OrderView, error)
	ListInvoices(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]InvoiceView, pagination.Meta, error)
	RefreshStatus(ctx context.Context, orderID uuid.UUID, countAttempt bool) (*OrderView, error)
	ApplyGatewayStatus(ctx context.Context, midtransOrderID, transactionStatus, fraudStatus string) (*OrderView, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway gatewayStatusClient
	subs    subscriptionApplier
	logg    *logger.Logger
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Outbox        outboxPublisher
	Gateway       gatewayStatusClient
	Subscriptions subscriptionApplier
	Logger        *logger.Logger
}

// NewService builds the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription applier is required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		gateway: params.Gateway,
		subs:    params.Subscriptions,
		logg:    params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, customerID, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.loadOwned(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	view := ViewFromModel(*order)
	return &view, nil
}

func (s *service) ListInvoices(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]InvoiceView, pagination.Meta, error) {
	if customerID == uuid.Nil {
		return nil, pagination.Meta{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	params = pagination.Normalize(params)

	total, err := s.repo.CountPaidByCustomer(ctx, customerID)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invoices")
	}
	rows, err := s.repo.ListPaidByCustomer(ctx, customerID, params.Limit(), params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	views := make([]InvoiceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, invoiceFromModel(row))
	}
	return views, pagination.BuildMeta(params, total), nil
}

// RefreshStatus queries the gateway for the order's current transaction
// status and applies it. Terminal orders short-circuit without a gateway
// call. countAttempt is set by the background poller only; manual refreshes
// do not consume poll attempts.
func (s *service) RefreshStatus(ctx context.Context, orderID uuid.UUID, countAttempt bool) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status.IsTerminal() {
		view := ViewFromModel(*order)
		return &view, nil
	}

	if countAttempt {
		if err := s.repo.IncrementPollAttempts(ctx, order.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count poll attempt")
		}
	}

	status, err := s.gateway.GetTransactionStatus(ctx, order.MidtransOrderID)
	if err != nil {
		return nil, err
	}

	return s.applyStatus(ctx, order.ID, status.TransactionStatus, status.FraudStatus)
}

// ApplyGatewayStatus is the webhook entry point: it resolves the order by
// its public id and applies the reported status idempotently.
func (s *service) ApplyGatewayStatus(ctx context.Context, midtransOrderID, transactionStatus, fraudStatus string) (*OrderView, error) {
	order, err := s.repo.FindByMidtransOrderID(ctx, midtransOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.applyStatus(ctx, order.ID, transactionStatus, fraudStatus)
}

// ExpireStale marks pending orders older than the cutoff as expired. Used
// by the expiry job once the Snap token validity window has lapsed.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.ListPendingOlderThan(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale orders")
	}

	expired := 0
	for _, order := range stale {
		if _, err := s.applyStatus(ctx, order.ID, "expire", ""); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// applyStatus performs the single authoritative status transition. The row
// is locked for the duration; terminal statuses are never downgraded, so
// concurrent webhook/poller deliveries collapse into one transition.
func (s *service) applyStatus(ctx context.Context, orderID uuid.UUID, transactionStatus, fraudStatus string) (*OrderView, error) {
	newStatus := MapGatewayStatus(transactionStatus, fraudStatus)

	var result models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}

		if order.Status.IsTerminal() || newStatus == enums.OrderStatusPending {
			result = *order
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": newStatus}
		switch newStatus {
		case enums.OrderStatusPaid:
			updates["paid_at"] = now
			order.PaidAt = &now
		case enums.OrderStatusExpired:
			updates["expired_at"] = now
			order.ExpiredAt = &now
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = newStatus

		if err := s.emitTransition(ctx, tx, order, transactionStatus); err != nil {
			return err
		}

		if newStatus == enums.OrderStatusPaid {
			packageName, err := repo.FindPackageName(ctx, order.ProductCode, order.PackageCode)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve package name")
			}
			if err := s.subs.ApplyPaidOrder(ctx, tx, order, packageName); err != nil {
				return err
			}
		}

		result = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil && result.Status == newStatus && newStatus != enums.OrderStatusPending {
		logCtx := s.logg.WithOrderID(ctx, result.MidtransOrderID)
		s.logg.Info(logCtx, fmt.Sprintf("order transitioned to %s", newStatus))
	}

	view := ViewFromModel(result)
	return &view, nil
}

func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, order *models.Order, gatewayStatus string) error {
	event := outbox.DomainEvent{
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
	}

	switch order.Status {
	case enums.OrderStatusPaid:
		event.EventType = enums.EventOrderPaid
		event.Data = payloads.OrderPaidEvent{
			OrderID:         order.ID,
			MidtransOrderID: order.MidtransOrderID,
			CustomerID:      order.CustomerID,
			ProductCode:     order.ProductCode,
			PackageCode:     order.PackageCode,
			DurationMonths:  order.DurationMonths,
			Intent:          order.Intent,
			TotalAmount:     order.TotalAmount,
			PaidAt:          derefTime(order.PaidAt),
		}
	case enums.OrderStatusFailed:
		event.EventType = enums.EventOrderFailed
		event.Data = payloads.OrderFailedEvent{
			OrderID:         order.ID,
			MidtransOrderID: order.MidtransOrderID,
			CustomerID:      order.CustomerID,
			GatewayStatus:   gatewayStatus,
		}
	case enums.OrderStatusExpired:
		event.EventType = enums.EventOrderExpired
		event.Data = payloads.OrderExpiredEvent{
			OrderID:         order.ID,
			MidtransOrderID: order.MidtransOrderID,
			CustomerID:      order.CustomerID,
			ExpiredAt:       derefTime(order.ExpiredAt),
		}
	default:
		return nil
	}

	return s.outbox.EmitIfNotExists(ctx, tx, event)
}

func (s *service) loadOwned(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// MapGatewayStatus translates a Midtrans transaction_status into the order
// lifecycle. A captured card payment under fraud review is not settled yet,
// so capture with fraud_status=challenge stays pending. Unknown statuses
// stay pending.
func MapGatewayStatus(transactionStatus, fraudStatus string) enums.OrderStatus {
	switch transactionStatus {
	case "capture":
		if strings.EqualFold(fraudStatus, "challenge") {
			return enums.OrderStatusPending
		}
		return enums.OrderStatusPaid
	case "settlement":
		return enums.OrderStatusPaid
	case "deny", "cancel":
		return enums.OrderStatusFailed
	case "expire":
		return enums.OrderStatusExpired
	default:
		return enums.OrderStatusPending
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package subscriptions

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
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/outbox/payloads"
	"github.com/agilestore/agilestore-backend/pkg/pagination"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// GuardInput identifies whose subscription to check. CustomerID wins when
// set; guests are checked by email.
type GuardInput struct {
	ProductCode string
	CustomerID  uuid.UUID
	GuestEmail  string
}

// GuardResult is the active-subscription check outcome consumed by checkout.
type GuardResult struct {
	HasActive       bool       `json:"has_active"`
	PackageName     string     `json:"package_name,omitempty"`
	PackageCode     string     `json:"package_code,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	ExistingOrderID *string    `json:"existing_order_id,omitempty"`
}

// Service exposes subscription operations.
type Service interface {
	CheckProduct(ctx context.Context, input GuardInput) (*GuardResult, error)
	List(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]SubscriptionView, pagination.Meta, error)
	ApplyPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order, packageName string) error
}

type service struct {
	repo   Repository
	outbox outboxPublisher
}

// NewService builds the subscriptions service.
func NewService(repo Repository, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	return &service{repo: repo, outbox: publisher}, nil
}

// CheckProduct reports whether the requester already owns an active
// subscription for the product. Any lookup failure aborts the caller:
// the guard fails closed, never open.
func (s *service) CheckProduct(ctx context.Context, input GuardInput) (*GuardResult, error) {
	productCode := strings.TrimSpace(input.ProductCode)
	if productCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	if input.CustomerID == uuid.Nil && strings.TrimSpace(input.GuestEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer or guest email is required")
	}

	now := time.Now().UTC()
	var (
		sub *models.Subscription
		err error
	)
	if input.CustomerID != uuid.Nil {
		sub, err = s.repo.FindActiveByCustomer(ctx, input.CustomerID, productCode, now)
	} else {
		sub, err = s.repo.FindActiveByEmail(ctx, input.GuestEmail, productCode, now)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &GuardResult{HasActive: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify subscription")
	}

	result := &GuardResult{
		HasActive:   true,
		PackageName: sub.PackageName,
		PackageCode: sub.PackageCode,
		EndDate:     &sub.EndDate,
	}

	if order, err := s.repo.FindPendingOrder(ctx, sub.CustomerID, productCode); err == nil {
		id := order.MidtransOrderID
		result.ExistingOrderID = &id
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify pending order")
	}

	return result, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]SubscriptionView, pagination.Meta, error) {
	if customerID == uuid.Nil {
		return nil, pagination.Meta{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	params = pagination.Normalize(params)

	total, err := s.repo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count subscriptions")
	}
	subs, err := s.repo.ListByCustomer(ctx, customerID, params.Limit(), params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	views := make([]SubscriptionView, 0, len(subs))
	now := time.Now().UTC()
	for _, sub := range subs {
		views = append(views, viewFromModel(sub, now))
	}
	return views, pagination.BuildMeta(params, total), nil
}

// ApplyPaidOrder writes the entitlement for a settled order inside the
// caller's transaction. Purchase and addon create a subscription; renew
// extends the current end date; upgrade swaps the package and extends.
func (s *service) ApplyPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order, packageName string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}

	repo := s.repo.WithTx(tx)
	now := time.Now().UTC()
	months := order.DurationMonths
	if months <= 0 {
		months = 1
	}

	existing, err := repo.FindActiveByCustomer(ctx, order.CustomerID, order.ProductCode, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	switch order.Intent {
	case enums.OrderIntentRenew:
		if existing == nil {
			return s.startSubscription(ctx, tx, repo, order, packageName, now, months)
		}
		newEnd := existing.EndDate.AddDate(0, months, 0)
		updates := map[string]any{"end_date": newEnd, "order_id": order.ID}
		if err := repo.Update(ctx, existing.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend subscription")
		}
		return s.emit(ctx, tx, enums.EventSubscriptionRenewed, existing.ID, payloads.SubscriptionRenewedEvent{
			SubscriptionID: existing.ID,
			CustomerID:     order.CustomerID,
			OrderID:        order.ID,
			ProductCode:    order.ProductCode,
			NewEndDate:     newEnd,
		})
	case enums.OrderIntentUpgrade:
		if existing == nil {
			return s.startSubscription(ctx, tx, repo, order, packageName, now, months)
		}
		newEnd := existing.EndDate.AddDate(0, months, 0)
		updates := map[string]any{
			"package_code": order.PackageCode,
			"package_name": packageName,
			"end_date":     newEnd,
			"order_id":     order.ID,
		}
		if err := repo.Update(ctx, existing.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upgrade subscription")
		}
		return s.emit(ctx, tx, enums.EventSubscriptionUpgraded, existing.ID, payloads.SubscriptionUpgradedEvent{
			SubscriptionID:  existing.ID,
			CustomerID:      order.CustomerID,
			OrderID:         order.ID,
			ProductCode:     order.ProductCode,
			FromPackageCode: existing.PackageCode,
			ToPackageCode:   order.PackageCode,
		})
	default:
		return s.startSubscription(ctx, tx, repo, order, packageName, now, months)
	}
}

func (s *service) startSubscription(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, packageName string, now time.Time, months int) error {
	orderID := order.ID
	sub := &models.Subscription{
		CustomerID:  order.CustomerID,
		OrderID:     &orderID,
		ProductCode: order.ProductCode,
		PackageCode: order.PackageCode,
		PackageName: packageName,
		StartDate:   now,
		EndDate:     now.AddDate(0, months, 0),
		Status:      enums.SubscriptionStatusActive,
	}
	if err := repo.Create(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return s.emit(ctx, tx, enums.EventSubscriptionStarted, sub.ID, payloads.SubscriptionStartedEvent{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		OrderID:        order.ID,
		ProductCode:    sub.ProductCode,
		PackageCode:    sub.PackageCode,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
	})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, subscriptionID uuid.UUID, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   subscriptionID,
		Version:       1,
		Data:          data,
	})
}

package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/pagination"
)

type stubRepo struct {
	active       *models.Subscription
	activeErr    error
	pendingOrder *models.Order
	pendingErr   error
	listed       []models.Subscription
	total        int64
	created      []*models.Subscription
	updates      map[uuid.UUID]map[string]any
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID, productCode string, now time.Time) (*models.Subscription, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	if s.active == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.active, nil
}

func (s *stubRepo) FindActiveByEmail(ctx context.Context, email string, productCode string, now time.Time) (*models.Subscription, error) {
	return s.FindActiveByCustomer(ctx, uuid.Nil, productCode, now)
}

func (s *stubRepo) FindPendingOrder(ctx context.Context, customerID uuid.UUID, productCode string) (*models.Order, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	if s.pendingOrder == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pendingOrder, nil
}

func (s *stubRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]models.Subscription, error) {
	return s.listed, nil
}

func (s *stubRepo) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	return s.total, nil
}

func (s *stubRepo) Create(ctx context.Context, sub *models.Subscription) error {
	sub.ID = uuid.New()
	s.created = append(s.created, sub)
	return nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[uuid.UUID]map[string]any{}
	}
	s.updates[id] = updates
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func TestCheckProduct_NoActive(t *testing.T) {
	svc, _ := NewService(&stubRepo{}, &fakeOutbox{})

	result, err := svc.CheckProduct(context.Background(), GuardInput{
		ProductCode: "NATABANYU",
		CustomerID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HasActive {
		t.Fatal("expected no active subscription")
	}
}

func TestCheckProduct_Active(t *testing.T) {
	end := time.Now().UTC().Add(30 * 24 * time.Hour)
	repo := &stubRepo{
		active: &models.Subscription{
			ID:          uuid.New(),
			CustomerID:  uuid.New(),
			ProductCode: "NATABANYU",
			PackageCode: "premium-package",
			PackageName: "Premium",
			EndDate:     end,
			Status:      enums.SubscriptionStatusActive,
		},
		pendingOrder: &models.Order{MidtransOrderID: "AGS-20260901-0001"},
	}
	svc, _ := NewService(repo, &fakeOutbox{})

	result, err := svc.CheckProduct(context.Background(), GuardInput{
		ProductCode: "NATABANYU",
		GuestEmail:  "budi@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasActive {
		t.Fatal("expected active subscription")
	}
	if result.PackageName != "Premium" || result.PackageCode != "premium-package" {
		t.Fatalf("unexpected package info %+v", result)
	}
	if result.ExistingOrderID == nil || *result.ExistingOrderID != "AGS-20260901-0001" {
		t.Fatalf("expected existing pending order id, got %+v", result.ExistingOrderID)
	}
}

func TestCheckProduct_FailsClosed(t *testing.T) {
	repo := &stubRepo{activeErr: errors.New("connection refused")}
	svc, _ := NewService(repo, &fakeOutbox{})

	_, err := svc.CheckProduct(context.Background(), GuardInput{
		ProductCode: "NATABANYU",
		CustomerID:  uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error (guard must fail closed), got %v", err)
	}
}

func TestCheckProduct_RequiresIdentity(t *testing.T) {
	svc, _ := NewService(&stubRepo{}, &fakeOutbox{})

	_, err := svc.CheckProduct(context.Background(), GuardInput{ProductCode: "NATABANYU"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestList_Pagination(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{
		listed: []models.Subscription{
			{ID: uuid.New(), ProductCode: "NATABANYU", EndDate: now.Add(time.Hour), Status: enums.SubscriptionStatusActive},
			{ID: uuid.New(), ProductCode: "OTHER", EndDate: now.Add(-time.Hour), Status: enums.SubscriptionStatusActive},
		},
		total: 12,
	}
	svc, _ := NewService(repo, &fakeOutbox{})

	views, meta, err := svc.List(context.Background(), uuid.New(), pagination.Params{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if !views[0].IsActive {
		t.Fatal("expected first subscription active")
	}
	if views[1].IsActive {
		t.Fatal("expected expired end date to report inactive")
	}
	if meta.Total != 12 || meta.LastPage != 2 || meta.CurrentPage != 2 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestApplyPaidOrder_Purchase(t *testing.T) {
	repo := &stubRepo{}
	publisher := &fakeOutbox{}
	svc, _ := NewService(repo, publisher)

	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		ProductCode:    "NATABANYU",
		PackageCode:    "premium-package",
		DurationMonths: 6,
		Intent:         enums.OrderIntentPurchase,
	}
	if err := svc.ApplyPaidOrder(context.Background(), &gorm.DB{}, order, "Premium"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one subscription created, got %d", len(repo.created))
	}
	sub := repo.created[0]
	if months := monthsBetween(sub.StartDate, sub.EndDate); months != 6 {
		t.Fatalf("expected 6-month term, got %d", months)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventSubscriptionStarted {
		t.Fatalf("expected subscription_started event, got %+v", publisher.events)
	}
}

func TestApplyPaidOrder_RenewExtends(t *testing.T) {
	end := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.Subscription{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		ProductCode: "NATABANYU",
		PackageCode: "premium-package",
		EndDate:     end,
		Status:      enums.SubscriptionStatusActive,
	}
	repo := &stubRepo{active: existing}
	publisher := &fakeOutbox{}
	svc, _ := NewService(repo, publisher)

	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     existing.CustomerID,
		ProductCode:    "NATABANYU",
		PackageCode:    "premium-package",
		DurationMonths: 1,
		Intent:         enums.OrderIntentRenew,
	}
	if err := svc.ApplyPaidOrder(context.Background(), &gorm.DB{}, order, "Premium"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updates := repo.updates[existing.ID]
	if updates == nil {
		t.Fatal("expected subscription update")
	}
	newEnd, ok := updates["end_date"].(time.Time)
	if !ok || !newEnd.Equal(end.AddDate(0, 1, 0)) {
		t.Fatalf("expected end date extended one month, got %v", updates["end_date"])
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventSubscriptionRenewed {
		t.Fatalf("expected subscription_renewed event, got %+v", publisher.events)
	}
}

func TestApplyPaidOrder_UpgradeSwapsPackage(t *testing.T) {
	existing := &models.Subscription{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		ProductCode: "NATABANYU",
		PackageCode: "basic",
		EndDate:     time.Now().UTC().Add(15 * 24 * time.Hour),
		Status:      enums.SubscriptionStatusActive,
	}
	repo := &stubRepo{active: existing}
	publisher := &fakeOutbox{}
	svc, _ := NewService(repo, publisher)

	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     existing.CustomerID,
		ProductCode:    "NATABANYU",
		PackageCode:    "premium-package",
		DurationMonths: 1,
		Intent:         enums.OrderIntentUpgrade,
	}
	if err := svc.ApplyPaidOrder(context.Background(), &gorm.DB{}, order, "Premium"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updates := repo.updates[existing.ID]
	if updates["package_code"] != "premium-package" {
		t.Fatalf("expected package swap, got %+v", updates)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventSubscriptionUpgraded {
		t.Fatalf("expected subscription_upgraded event, got %+v", publisher.events)
	}
}

func monthsBetween(start, end time.Time) int {
	months := 0
	for cursor := start.AddDate(0, 1, 0); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		months++
	}
	return months
}

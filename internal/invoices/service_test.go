package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/pdfgen"
)

type stubOrderReader struct {
	order *models.Order
}

func (s *stubOrderReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderReader) FindPackageName(ctx context.Context, productCode, packageCode string) (string, error) {
	return "Premium", nil
}

type stubCustomerReader struct {
	customer *models.Customer
}

func (s *stubCustomerReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.customer == nil || s.customer.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.customer, nil
}

type stubProductReader struct{}

func (stubProductReader) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	return &models.Product{Code: code, Name: "Natabanyu"}, nil
}

type captureRenderer struct {
	data pdfgen.InvoiceData
}

func (c *captureRenderer) Render(ctx context.Context, data pdfgen.InvoiceData) ([]byte, error) {
	c.data = data
	return []byte("%PDF-1.7"), nil
}

func paidOrder(customerID uuid.UUID) *models.Order {
	now := time.Now().UTC()
	return &models.Order{
		ID:              uuid.New(),
		MidtransOrderID: "AGS-20260901-0A1B",
		CustomerID:      customerID,
		ProductCode:     "NATABANYU",
		PackageCode:     "premium-package",
		DurationMonths:  6,
		Currency:        enums.CurrencyIDR,
		GrossAmount:     decimal.NewFromInt(249000),
		DiscountAmount:  decimal.NewFromInt(50000),
		VoucherDiscount: decimal.NewFromInt(10000),
		TotalAmount:     decimal.NewFromInt(189000),
		Status:          enums.OrderStatusPaid,
		PaidAt:          &now,
		CreatedAt:       now.Add(-time.Hour),
	}
}

func newInvoiceService(t *testing.T, order *models.Order, customer *models.Customer) (Service, *captureRenderer) {
	t.Helper()
	renderer := &captureRenderer{}
	svc, err := NewService(ServiceParams{
		Orders:    &stubOrderReader{order: order},
		Customers: &stubCustomerReader{customer: customer},
		Products:  stubProductReader{},
		Renderer:  renderer,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, renderer
}

func TestRender_PaidOrder(t *testing.T) {
	customer := &models.Customer{
		ID:       uuid.New(),
		FullName: "Budi Santoso",
		Email:    "budi@example.com",
		Locale:   enums.LocaleID,
	}
	order := paidOrder(customer.ID)
	svc, renderer := newInvoiceService(t, order, customer)

	doc, err := svc.Render(context.Background(), customer.ID, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Filename != "invoice-AGS-20260901-0A1B.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if len(doc.PDF) == 0 {
		t.Fatal("expected pdf bytes")
	}

	if renderer.data.ProductName != "Natabanyu" || renderer.data.PackageName != "Premium" {
		t.Fatalf("unexpected names %+v", renderer.data)
	}
	if renderer.data.DurationLabel != "6 bulan" {
		t.Fatalf("unexpected duration label %q", renderer.data.DurationLabel)
	}
	// Pricelist discount and voucher discount roll up into one line.
	if !renderer.data.Discount.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("unexpected discount %s", renderer.data.Discount)
	}
}

func TestRender_UnpaidOrderRejected(t *testing.T) {
	customer := &models.Customer{ID: uuid.New(), FullName: "Budi", Email: "budi@example.com"}
	order := paidOrder(customer.ID)
	order.Status = enums.OrderStatusPending
	svc, _ := newInvoiceService(t, order, customer)

	_, err := svc.Render(context.Background(), customer.ID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRender_ForeignOrderHidden(t *testing.T) {
	customer := &models.Customer{ID: uuid.New(), FullName: "Budi", Email: "budi@example.com"}
	order := paidOrder(customer.ID)
	svc, _ := newInvoiceService(t, order, customer)

	_, err := svc.Render(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDurationLabel(t *testing.T) {
	if got := durationLabel(1, enums.LocaleEN); got != "1 month" {
		t.Errorf("durationLabel(1, en) = %q", got)
	}
	if got := durationLabel(6, enums.LocaleEN); got != "6 months" {
		t.Errorf("durationLabel(6, en) = %q", got)
	}
	if got := durationLabel(6, enums.LocaleID); got != "6 bulan" {
		t.Errorf("durationLabel(6, id) = %q", got)
	}
}

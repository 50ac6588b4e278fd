package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

type stubRepo struct {
	products   []models.Product
	productErr error
	section    *models.Section
	sectionErr error
}

func (s *stubRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products, s.productErr
}

func (s *stubRepo) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	if s.productErr != nil {
		return nil, s.productErr
	}
	for i := range s.products {
		if s.products[i].Code == code {
			return &s.products[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindSectionBySlug(ctx context.Context, slug string) (*models.Section, error) {
	if s.sectionErr != nil {
		return nil, s.sectionErr
	}
	if s.section == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.section, nil
}

func (s *stubRepo) FindDurationForMonths(ctx context.Context, productCode string, months int) (*models.Duration, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindActivePriceRow(ctx context.Context, packageCode, durationCode string, at time.Time) (*models.PricelistRow, error) {
	return nil, gorm.ErrRecordNotFound
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func natabanyu() models.Product {
	productID := uuid.New()
	durationID := uuid.New()
	return models.Product{
		ID:     productID,
		Code:   "NATABANYU",
		Name:   "Natabanyu",
		NameEn: "Natabanyu EN",
		Status: enums.ProductStatusActive,
		Durations: []models.Duration{
			{ID: durationID, ProductID: productID, Code: "M1", Months: 1},
		},
		Packages: []models.Package{
			{
				ID:        uuid.New(),
				ProductID: productID,
				Code:      "premium-package",
				Name:      "Paket Premium",
				NameEn:    "Premium Package",
				Status:    enums.PackageStatusActive,
				Pricelist: []models.PricelistRow{
					{
						DurationID:   &durationID,
						DurationCode: "M1",
						Price:        decimal.NewFromInt(249000),
						Discount:     decimal.NewFromInt(50000),
					},
				},
			},
		},
	}
}

func TestServiceGet_BuildsIndex(t *testing.T) {
	repo := &stubRepo{products: []models.Product{natabanyu()}}
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	detail, err := svc.Get(context.Background(), "NATABANYU", enums.LocaleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Name != "Natabanyu" {
		t.Fatalf("unexpected localized name %q", detail.Name)
	}
	if len(detail.Packages) != 1 {
		t.Fatalf("expected one package, got %d", len(detail.Packages))
	}
	point, ok := detail.Packages[0].Prices[1]
	if !ok {
		t.Fatal("expected 1-month price point")
	}
	if !point.Final.Equal(decimal.NewFromInt(199000)) {
		t.Fatalf("unexpected final price %s", point.Final)
	}
}

func TestServiceGet_LocaleEN(t *testing.T) {
	repo := &stubRepo{products: []models.Product{natabanyu()}}
	svc, _ := NewService(repo, testLogger())

	detail, err := svc.Get(context.Background(), "NATABANYU", enums.LocaleEN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Name != "Natabanyu EN" {
		t.Fatalf("expected english name, got %q", detail.Name)
	}
	if detail.Packages[0].Name != "Premium Package" {
		t.Fatalf("expected english package name, got %q", detail.Packages[0].Name)
	}
}

func TestServiceGet_NotFound(t *testing.T) {
	svc, _ := NewService(&stubRepo{}, testLogger())

	_, err := svc.Get(context.Background(), "MISSING", enums.LocaleID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceGet_InactiveProductHidden(t *testing.T) {
	product := natabanyu()
	product.Status = enums.ProductStatusInactive
	svc, _ := NewService(&stubRepo{products: []models.Product{product}}, testLogger())

	_, err := svc.Get(context.Background(), "NATABANYU", enums.LocaleID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
}

func TestServiceSection_FailsSoft(t *testing.T) {
	svc, _ := NewService(&stubRepo{sectionErr: errors.New("db down")}, testLogger())

	view, err := svc.Section(context.Background(), "contact", enums.LocaleID)
	if err != nil {
		t.Fatalf("section lookup must fail soft, got %v", err)
	}
	if view.Slug != "contact" || view.Content != "" {
		t.Fatalf("expected empty fallback block, got %+v", view)
	}
}

func TestServiceSection_Localizes(t *testing.T) {
	repo := &stubRepo{section: &models.Section{Slug: "about", Content: "Tentang", ContentEn: "About"}}
	svc, _ := NewService(repo, testLogger())

	view, err := svc.Section(context.Background(), "about", enums.LocaleEN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Content != "About" {
		t.Fatalf("expected english content, got %q", view.Content)
	}
}

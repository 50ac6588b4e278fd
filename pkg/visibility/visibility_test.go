package visibility

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

func activeCatalog() (*models.Product, *models.Package) {
	productID := uuid.New()
	product := &models.Product{
		ID:     productID,
		Code:   "NATABANYU",
		Name:   "Natabanyu",
		Status: enums.ProductStatusActive,
	}
	pkg := &models.Package{
		ID:        uuid.New(),
		ProductID: productID,
		Code:      "basic",
		Name:      "Basic",
		Status:    enums.PackageStatusActive,
	}
	return product, pkg
}

func TestEnsurePurchasable_Active(t *testing.T) {
	product, pkg := activeCatalog()
	if err := EnsurePurchasable(PurchasabilityInput{Product: product, Package: pkg, Now: time.Now()}); err != nil {
		t.Fatalf("expected purchasable, got %v", err)
	}
}

func TestEnsurePurchasable_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *models.Product, pk *models.Package) PurchasabilityInput
	}{
		{
			name: "nil product",
			mutate: func(_ *models.Product, pk *models.Package) PurchasabilityInput {
				return PurchasabilityInput{Package: pk}
			},
		},
		{
			name: "inactive product",
			mutate: func(p *models.Product, pk *models.Package) PurchasabilityInput {
				p.Status = enums.ProductStatusInactive
				return PurchasabilityInput{Product: p, Package: pk}
			},
		},
		{
			name: "nil package",
			mutate: func(p *models.Product, _ *models.Package) PurchasabilityInput {
				return PurchasabilityInput{Product: p}
			},
		},
		{
			name: "inactive package",
			mutate: func(p *models.Product, pk *models.Package) PurchasabilityInput {
				pk.Status = enums.PackageStatusInactive
				return PurchasabilityInput{Product: p, Package: pk}
			},
		},
		{
			name: "package from another product",
			mutate: func(p *models.Product, pk *models.Package) PurchasabilityInput {
				pk.ProductID = uuid.New()
				return PurchasabilityInput{Product: p, Package: pk}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product, pkg := activeCatalog()
			err := EnsurePurchasable(tc.mutate(product, pkg))
			if err == nil {
				t.Fatal("expected error")
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
				t.Fatalf("expected not found error, got %v", err)
			}
		})
	}
}

func TestEnsurePriceEffective(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	row := &models.PricelistRow{
		PackageID:     uuid.New(),
		Price:         decimal.NewFromInt(249000),
		EffectiveFrom: &past,
	}
	if err := EnsurePriceEffective(row, now); err != nil {
		t.Fatalf("expected effective, got %v", err)
	}

	row.EffectiveFrom = &future
	if err := EnsurePriceEffective(row, now); err == nil {
		t.Fatal("expected not-yet-effective error")
	}

	row.EffectiveFrom = &past
	row.EffectiveUntil = &past
	if err := EnsurePriceEffective(row, now); err == nil {
		t.Fatal("expected expired price error")
	}

	if err := EnsurePriceEffective(nil, now); err == nil {
		t.Fatal("expected nil row error")
	}
}

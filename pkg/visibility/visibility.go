package visibility

import (
	"strings"
	"time"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

// PurchasabilityInput drives the shared checks for storefront catalog queries.
type PurchasabilityInput struct {
	Product *models.Product
	Package *models.Package
	Now     time.Time
}

// EnsurePurchasable enforces canonical rules so inactive products and
// packages never leak through storefront queries or checkout.
func EnsurePurchasable(input PurchasabilityInput) error {
	if input.Product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if input.Product.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}
	if strings.TrimSpace(input.Product.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	if input.Package == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
	}
	if input.Package.Status != enums.PackageStatusActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "package not available")
	}
	if input.Package.ProductID != input.Product.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "package does not belong to product")
	}

	return nil
}

// EnsurePriceEffective verifies that a price row is live at the given instant.
func EnsurePriceEffective(row *models.PricelistRow, now time.Time) error {
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "price not found")
	}
	if row.EffectiveFrom != nil && now.Before(*row.EffectiveFrom) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "price not yet effective")
	}
	if row.EffectiveUntil != nil && !now.Before(*row.EffectiveUntil) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "price no longer effective")
	}
	return nil
}

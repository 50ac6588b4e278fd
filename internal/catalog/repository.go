package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// Repository exposes catalog reads used by the storefront.
type Repository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	FindSectionBySlug(ctx context.Context, slug string) (*models.Section, error)
	FindDurationForMonths(ctx context.Context, productCode string, months int) (*models.Duration, error)
	FindActivePriceRow(ctx context.Context, packageCode, durationCode string, at time.Time) (*models.PricelistRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ProductStatusActive).
		Preload("Packages", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", enums.PackageStatusActive).Order("display_order ASC")
		}).
		Preload("Packages.Pricelist").
		Preload("Durations", func(db *gorm.DB) *gorm.DB {
			return db.Order("months ASC")
		}).
		Order("code ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Preload("Packages", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", enums.PackageStatusActive).Order("display_order ASC")
		}).
		Preload("Packages.Pricelist").
		Preload("Durations", func(db *gorm.DB) *gorm.DB {
			return db.Order("months ASC")
		}).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindSectionBySlug(ctx context.Context, slug string) (*models.Section, error) {
	var section models.Section
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *repository) FindDurationForMonths(ctx context.Context, productCode string, months int) (*models.Duration, error) {
	var duration models.Duration
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = durations.product_id").
		Where("products.code = ? AND durations.months = ?", productCode, months).
		First(&duration).Error
	if err != nil {
		return nil, err
	}
	return &duration, nil
}

func (r *repository) FindActivePriceRow(ctx context.Context, packageCode, durationCode string, at time.Time) (*models.PricelistRow, error) {
	var row models.PricelistRow
	err := r.db.WithContext(ctx).
		Joins("JOIN packages ON packages.id = pricelist_rows.package_id").
		Joins("LEFT JOIN durations ON durations.id = pricelist_rows.duration_id").
		Where("packages.code = ?", packageCode).
		Where("(durations.code = ? OR pricelist_rows.duration_code = ?)", durationCode, durationCode).
		Where("pricelist_rows.effective_from IS NULL OR pricelist_rows.effective_from <= ?", at).
		Where("pricelist_rows.effective_until IS NULL OR pricelist_rows.effective_until > ?", at).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

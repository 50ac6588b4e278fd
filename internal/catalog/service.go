package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// Service exposes the catalog reads behind the storefront endpoints.
type Service interface {
	List(ctx context.Context, locale enums.Locale) ([]ProductSummary, error)
	Get(ctx context.Context, code string, locale enums.Locale) (*ProductDetail, error)
	Section(ctx context.Context, slug string, locale enums.Locale) (SectionView, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, locale enums.Locale) ([]ProductSummary, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, product := range products {
		summaries = append(summaries, summaryFromModel(product, locale))
	}
	return summaries, nil
}

func (s *service) Get(ctx context.Context, code string, locale enums.Locale) (*ProductDetail, error) {
	product, err := s.repo.FindProductByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	now := time.Now().UTC()
	durations := make([]DurationInfo, 0, len(product.Durations))
	durationViews := make([]DurationView, 0, len(product.Durations))
	for _, d := range product.Durations {
		durations = append(durations, DurationInfo{ID: d.ID, Code: d.Code, Months: d.Months})
		durationViews = append(durationViews, DurationView{Code: d.Code, Months: d.Months})
	}

	rowsByPackage := make(map[string][]PriceRow, len(product.Packages))
	for _, pkg := range product.Packages {
		rows := make([]PriceRow, 0, len(pkg.Pricelist))
		for _, row := range pkg.Pricelist {
			if row.EffectiveFrom != nil && now.Before(*row.EffectiveFrom) {
				continue
			}
			if row.EffectiveUntil != nil && !now.Before(*row.EffectiveUntil) {
				continue
			}
			rows = append(rows, PriceRow{
				DurationID:   row.DurationID,
				DurationCode: row.DurationCode,
				Price:        row.Price.String(),
				Discount:     row.Discount.String(),
				Prorated:     row.Prorated,
			})
		}
		rowsByPackage[pkg.Code] = rows
	}

	index := BuildPriceIndex(durations, rowsByPackage)

	packages := make([]PackageView, 0, len(product.Packages))
	for _, pkg := range product.Packages {
		packages = append(packages, PackageView{
			Code:         pkg.Code,
			Name:         localized(pkg.Name, pkg.NameEn, locale),
			Description:  localized(pkg.Description, pkg.DescriptionEn, locale),
			DisplayOrder: pkg.DisplayOrder,
			Prices:       index[pkg.Code],
		})
	}

	return &ProductDetail{
		Code:        product.Code,
		Name:        localized(product.Name, product.NameEn, locale),
		Description: localized(product.Description, product.DescriptionEn, locale),
		Durations:   durationViews,
		Packages:    packages,
	}, nil
}

// Section loads a CMS block. Missing or unreadable sections degrade to an
// empty block so content lookups never break page rendering.
func (s *service) Section(ctx context.Context, slug string, locale enums.Locale) (SectionView, error) {
	section, err := s.repo.FindSectionBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("section lookup failed for %q: %v", slug, err))
		}
		return SectionView{Slug: slug}, nil
	}
	return SectionView{
		Slug:    section.Slug,
		Content: localized(section.Content, section.ContentEn, locale),
	}, nil
}

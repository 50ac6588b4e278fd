package catalog

import (
	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// ProductSummary is the storefront listing shape.
type ProductSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DurationView is one selectable billing term.
type DurationView struct {
	Code   string `json:"code"`
	Months int    `json:"months"`
}

// PackageView is one pricing tier with its resolved price slots.
type PackageView struct {
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	DisplayOrder int                `json:"display_order"`
	Prices       map[int]PricePoint `json:"prices"`
}

// ProductDetail is the full product payload the storefront renders.
type ProductDetail struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Durations   []DurationView `json:"durations"`
	Packages    []PackageView  `json:"packages"`
}

// SectionView is a localized CMS content block.
type SectionView struct {
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

func localized(id, en string, locale enums.Locale) string {
	if locale == enums.LocaleEN && en != "" {
		return en
	}
	return id
}

func summaryFromModel(product models.Product, locale enums.Locale) ProductSummary {
	return ProductSummary{
		Code:        product.Code,
		Name:        localized(product.Name, product.NameEn, locale),
		Description: localized(product.Description, product.DescriptionEn, locale),
	}
}

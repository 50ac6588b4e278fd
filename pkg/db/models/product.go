package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// Product is a sellable SaaS product in the storefront catalog.
type Product struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	NameEn        string              `gorm:"column:name_en"`
	Description   string              `gorm:"column:description"`
	DescriptionEn string              `gorm:"column:description_en"`
	Status        enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Packages  []Package  `gorm:"foreignKey:ProductID"`
	Durations []Duration `gorm:"foreignKey:ProductID"`
}

// Package is a pricing tier of a product.
type Package struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Code          string              `gorm:"column:code;not null"`
	Name          string              `gorm:"column:name;not null"`
	NameEn        string              `gorm:"column:name_en"`
	Description   string              `gorm:"column:description"`
	DescriptionEn string              `gorm:"column:description_en"`
	DisplayOrder  int                 `gorm:"column:display_order;not null;default:0"`
	Status        enums.PackageStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Pricelist []PricelistRow `gorm:"foreignKey:PackageID"`
}

// Duration is a billing term offered for a product, e.g. "M1" for one month.
type Duration struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Code      string    `gorm:"column:code;not null"`
	Months    int       `gorm:"column:months;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package enums

import "fmt"

// ProductStatus controls storefront visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// PackageStatus controls whether a package is offered for sale.
type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// String implements fmt.Stringer.
func (s PackageStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PackageStatus.
func (s PackageStatus) IsValid() bool {
	return s == PackageStatusActive || s == PackageStatusInactive
}

// ParsePackageStatus converts raw input into a PackageStatus.
func ParsePackageStatus(value string) (PackageStatus, error) {
	switch PackageStatus(value) {
	case PackageStatusActive:
		return PackageStatusActive, nil
	case PackageStatusInactive:
		return PackageStatusInactive, nil
	}
	return "", fmt.Errorf("invalid package status %q", value)
}

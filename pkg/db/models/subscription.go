package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// Subscription is the entitlement written when an order settles. A
// subscription counts as active while status is active and EndDate is in
// the future.
type Subscription struct {
	ID          uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	ProductCode string                   `gorm:"column:product_code;not null;index"`
	PackageCode string                   `gorm:"column:package_code;not null"`
	PackageName string                   `gorm:"column:package_name;not null"`
	StartDate   time.Time                `gorm:"column:start_date;not null"`
	EndDate     time.Time                `gorm:"column:end_date;not null"`
	Status      enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
)

// SubscriptionView is the dashboard shape for one subscription.
type SubscriptionView struct {
	ID          uuid.UUID                `json:"id"`
	ProductCode string                   `json:"product_code"`
	PackageCode string                   `json:"package_code"`
	PackageName string                   `json:"package_name"`
	StartDate   time.Time                `json:"start_date"`
	EndDate     time.Time                `json:"end_date"`
	Status      enums.SubscriptionStatus `json:"status"`
	IsActive    bool                     `json:"is_active"`
}

func viewFromModel(sub models.Subscription, now time.Time) SubscriptionView {
	return SubscriptionView{
		ID:          sub.ID,
		ProductCode: sub.ProductCode,
		PackageCode: sub.PackageCode,
		PackageName: sub.PackageName,
		StartDate:   sub.StartDate,
		EndDate:     sub.EndDate,
		Status:      sub.Status,
		IsActive:    sub.Status == enums.SubscriptionStatusActive && sub.EndDate.After(now),
	}
}

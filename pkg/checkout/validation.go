package checkout

import (
	"strings"

	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

// Contact carries the buyer identity submitted with a checkout.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Plan identifies what is being bought.
type Plan struct {
	ProductCode    string `json:"product_code"`
	PackageCode    string `json:"package_code"`
	DurationMonths int    `json:"duration_months"`
}

// FieldViolation exposes the data returned to callers when validation fails.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidateSubmission ensures every contact and plan field a checkout needs is
// present. An order is placeable iff all six fields are non-empty.
func ValidateSubmission(contact Contact, plan Plan) error {
	var violations []FieldViolation

	for field, value := range map[string]string{
		"contact.name":  contact.Name,
		"contact.email": contact.Email,
		"contact.phone": contact.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			violations = append(violations, FieldViolation{Field: field, Reason: "required"})
		}
	}
	if strings.TrimSpace(plan.ProductCode) == "" {
		violations = append(violations, FieldViolation{Field: "plan.product_code", Reason: "required"})
	}
	if strings.TrimSpace(plan.PackageCode) == "" {
		violations = append(violations, FieldViolation{Field: "plan.package_code", Reason: "required"})
	}
	if plan.DurationMonths <= 0 {
		violations = append(violations, FieldViolation{Field: "plan.duration_months", Reason: "must be positive"})
	}

	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "checkout submission incomplete").WithDetails(map[string]any{
		"violations": violations,
	})
}

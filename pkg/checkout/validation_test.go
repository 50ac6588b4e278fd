package checkout

import (
	"testing"

	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

func TestValidateSubmission_Complete(t *testing.T) {
	contact := Contact{Name: "Budi Santoso", Email: "budi@example.com", Phone: "+628123456789"}
	plan := Plan{ProductCode: "NATABANYU", PackageCode: "basic", DurationMonths: 1}

	if err := ValidateSubmission(contact, plan); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateSubmission_MissingFields(t *testing.T) {
	cases := []struct {
		name    string
		contact Contact
		plan    Plan
		field   string
	}{
		{
			name:    "missing name",
			contact: Contact{Email: "a@b.c", Phone: "1"},
			plan:    Plan{ProductCode: "P", PackageCode: "B", DurationMonths: 1},
			field:   "contact.name",
		},
		{
			name:    "missing email",
			contact: Contact{Name: "A", Phone: "1"},
			plan:    Plan{ProductCode: "P", PackageCode: "B", DurationMonths: 1},
			field:   "contact.email",
		},
		{
			name:    "missing phone",
			contact: Contact{Name: "A", Email: "a@b.c"},
			plan:    Plan{ProductCode: "P", PackageCode: "B", DurationMonths: 1},
			field:   "contact.phone",
		},
		{
			name:    "missing product",
			contact: Contact{Name: "A", Email: "a@b.c", Phone: "1"},
			plan:    Plan{PackageCode: "B", DurationMonths: 1},
			field:   "plan.product_code",
		},
		{
			name:    "missing package",
			contact: Contact{Name: "A", Email: "a@b.c", Phone: "1"},
			plan:    Plan{ProductCode: "P", DurationMonths: 1},
			field:   "plan.package_code",
		},
		{
			name:    "missing duration",
			contact: Contact{Name: "A", Email: "a@b.c", Phone: "1"},
			plan:    Plan{ProductCode: "P", PackageCode: "B"},
			field:   "plan.duration_months",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSubmission(tc.contact, tc.plan)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := pkgerrors.As(err)
			if typed == nil {
				t.Fatalf("expected typed error, got %T", err)
			}
			if typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected code %s, got %s", pkgerrors.CodeValidation, typed.Code())
			}
			details, ok := typed.Details().(map[string]any)
			if !ok {
				t.Fatalf("expected details map, got %T", typed.Details())
			}
			violations, ok := details["violations"].([]FieldViolation)
			if !ok {
				t.Fatalf("expected violations slice, got %T", details["violations"])
			}
			found := false
			for _, v := range violations {
				if v.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected violation for %s, got %+v", tc.field, violations)
			}
		})
	}
}

func TestValidateSubmission_WhitespaceOnly(t *testing.T) {
	contact := Contact{Name: "  ", Email: "a@b.c", Phone: "1"}
	plan := Plan{ProductCode: "P", PackageCode: "B", DurationMonths: 1}

	if err := ValidateSubmission(contact, plan); err == nil {
		t.Fatal("expected whitespace-only name to fail")
	}
}

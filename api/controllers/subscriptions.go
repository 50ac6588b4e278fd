package controllers

import (
	"net/http"
	"strings"

	"github.com/agilestore/agilestore-backend/api/middleware"
	"github.com/agilestore/agilestore-backend/api/responses"
	subsvc "github.com/agilestore/agilestore-backend/internal/subscriptions"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/pagination"
)

// ListSubscriptions returns the customer's subscriptions, active first.
func ListSubscriptions(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := middleware.CustomerIDFromContext(r.Context())
		params := pagination.FromQuery(r.URL.Query())

		rows, meta, err := svc.List(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows, "meta": meta})
	}
}

// CheckSubscription reports whether the caller already holds an active
// subscription for a product. Guests pass their email as a query parameter.
func CheckSubscription(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productCode := strings.TrimSpace(r.URL.Query().Get("product_code"))
		if productCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_code required"))
			return
		}

		input := subsvc.GuardInput{
			ProductCode: productCode,
			CustomerID:  middleware.CustomerIDFromContext(r.Context()),
			GuestEmail:  strings.TrimSpace(r.URL.Query().Get("email")),
		}
		result, err := svc.CheckProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"

	"github.com/agilestore/agilestore-backend/api/middleware"
	"github.com/agilestore/agilestore-backend/api/responses"
	"github.com/agilestore/agilestore-backend/api/validators"
	checkoutsvc "github.com/agilestore/agilestore-backend/internal/checkout"
	pkgcheckout "github.com/agilestore/agilestore-backend/pkg/checkout"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

type submitOrderRequest struct {
	Contact     pkgcheckout.Contact `json:"contact"`
	Plan        pkgcheckout.Plan    `json:"plan"`
	Intent      string              `json:"intent"`
	VoucherCode string              `json:"voucher_code"`
}

// SubmitOrder runs checkout: price the plan, create the order, and hand the
// caller a Snap payment session. Works for guests and logged-in customers.
// The intent comes from the body and defaults to purchase.
func SubmitOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return submitOrder(svc, logg, "")
}

// SubmitOrderIntent pins the checkout intent for the dedicated
// renew/upgrade/addon routes, overriding whatever the body carries.
func SubmitOrderIntent(svc checkoutsvc.Service, logg *logger.Logger, intent enums.OrderIntent) http.HandlerFunc {
	return submitOrder(svc, logg, intent)
}

func submitOrder(svc checkoutsvc.Service, logg *logger.Logger, forced enums.OrderIntent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload.Contact.Name = validators.SanitizeString(payload.Contact.Name, 120)
		payload.Contact.Email = validators.SanitizeString(payload.Contact.Email, 254)
		payload.Contact.Phone = validators.SanitizeString(payload.Contact.Phone, 32)

		intent := payload.Intent
		if forced != "" {
			intent = string(forced)
		}

		result, err := svc.Submit(r.Context(), checkoutsvc.SubmitInput{
			Contact:     payload.Contact,
			Plan:        payload.Plan,
			Intent:      intent,
			VoucherCode: payload.VoucherCode,
			CustomerID:  middleware.CustomerIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

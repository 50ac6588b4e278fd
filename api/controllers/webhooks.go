package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/agilestore/agilestore-backend/api/responses"
	midtranswebhook "github.com/agilestore/agilestore-backend/internal/webhooks/midtrans"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// MidtransWebhook receives payment notifications from Midtrans. The service
// verifies the signature, so the route stays unauthenticated.
func MidtransWebhook(svc *midtranswebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notification midtranswebhook.Notification
		if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification body"))
			return
		}

		order, err := svc.Handle(r.Context(), notification)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"order_id": notification.OrderID,
			"status":   string(order.Status),
		})
	}
}

package midtranswebhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/agilestore/agilestore-backend/internal/orders"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// Notification is the payment notification Midtrans posts to the webhook.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

type signatureVerifier interface {
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

type orderStatusApplier interface {
	ApplyGatewayStatus(ctx context.Context, midtransOrderID, transactionStatus, fraudStatus string) (*orders.OrderView, error)
}

// Service verifies and applies Midtrans payment notifications.
type Service struct {
	verifier signatureVerifier
	orders   orderStatusApplier
	logg     *logger.Logger
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	Verifier signatureVerifier
	Orders   orderStatusApplier
	Logger   *logger.Logger
}

// NewService builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("signature verifier is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order status applier is required")
	}
	return &Service{
		verifier: params.Verifier,
		orders:   params.Orders,
		logg:     params.Logger,
	}, nil
}

// Handle validates the notification and applies the reported status. The
// underlying transition is idempotent, so redelivered notifications are safe.
func (s *Service) Handle(ctx context.Context, notification Notification) (*orders.OrderView, error) {
	if err := validate(notification); err != nil {
		return nil, err
	}

	if !s.verifier.VerifySignature(
		notification.OrderID,
		notification.StatusCode,
		notification.GrossAmount,
		notification.SignatureKey,
	) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid signature")
	}

	view, err := s.orders.ApplyGatewayStatus(ctx, notification.OrderID, notification.TransactionStatus, notification.FraudStatus)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, notification.OrderID)
		s.logg.Info(logCtx, fmt.Sprintf("webhook applied %s", notification.TransactionStatus))
	}
	return view, nil
}

func validate(notification Notification) error {
	missing := []string{}
	if strings.TrimSpace(notification.OrderID) == "" {
		missing = append(missing, "order_id")
	}
	if strings.TrimSpace(notification.StatusCode) == "" {
		missing = append(missing, "status_code")
	}
	if strings.TrimSpace(notification.GrossAmount) == "" {
		missing = append(missing, "gross_amount")
	}
	if strings.TrimSpace(notification.SignatureKey) == "" {
		missing = append(missing, "signature_key")
	}
	if strings.TrimSpace(notification.TransactionStatus) == "" {
		missing = append(missing, "transaction_status")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "incomplete notification").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

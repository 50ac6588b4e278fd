package midtranswebhook

import (
	"context"
	"testing"

	"github.com/agilestore/agilestore-backend/internal/orders"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

type stubVerifier struct {
	valid bool
}

func (s stubVerifier) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return s.valid
}

type stubApplier struct {
	applied []appliedStatus
}

type appliedStatus struct {
	transaction string
	fraud       string
}

func (s *stubApplier) ApplyGatewayStatus(ctx context.Context, midtransOrderID, transactionStatus, fraudStatus string) (*orders.OrderView, error) {
	s.applied = append(s.applied, appliedStatus{transaction: transactionStatus, fraud: fraudStatus})
	return &orders.OrderView{
		MidtransOrderID: midtransOrderID,
		Status:          orders.MapGatewayStatus(transactionStatus, fraudStatus),
	}, nil
}

func notification(status string) Notification {
	return Notification{
		OrderID:           "AGS-20260901-0A1B",
		StatusCode:        "200",
		GrossAmount:       "199000.00",
		SignatureKey:      "sig",
		TransactionStatus: status,
	}
}

func newWebhookService(t *testing.T, valid bool) (*Service, *stubApplier) {
	t.Helper()
	applier := &stubApplier{}
	svc, err := NewService(ServiceParams{
		Verifier: stubVerifier{valid: valid},
		Orders:   applier,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, applier
}

func TestHandle_Settlement(t *testing.T) {
	svc, applier := newWebhookService(t, true)

	view, err := svc.Handle(context.Background(), notification("settlement"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", view.Status)
	}
	if len(applier.applied) != 1 || applier.applied[0].transaction != "settlement" {
		t.Fatalf("unexpected applied statuses %v", applier.applied)
	}
}

func TestHandle_InvalidSignature(t *testing.T) {
	svc, applier := newWebhookService(t, false)

	_, err := svc.Handle(context.Background(), notification("settlement"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(applier.applied) != 0 {
		t.Fatal("invalid signature must not touch the order")
	}
}

func TestHandle_CaptureUnderFraudChallenge(t *testing.T) {
	svc, applier := newWebhookService(t, true)

	n := notification("capture")
	n.FraudStatus = "challenge"
	view, err := svc.Handle(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != enums.OrderStatusPending {
		t.Fatalf("challenged capture must stay pending, got %s", view.Status)
	}
	if applier.applied[0].fraud != "challenge" {
		t.Fatalf("expected fraud status forwarded, got %+v", applier.applied[0])
	}
}

func TestHandle_IncompleteNotification(t *testing.T) {
	svc, _ := newWebhookService(t, true)

	n := notification("settlement")
	n.SignatureKey = ""
	_, err := svc.Handle(context.Background(), n)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

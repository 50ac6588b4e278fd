package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sethvargo/go-retry"

	"github.com/agilestore/agilestore-backend/pkg/config"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errServerKeyRequired  = errors.New("midtrans server key is required")
	errInvalidMidtransEnv = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired     = errors.New("midtrans logger is required")
)

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type statusAPI interface {
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

// Client wraps the Midtrans SDK with centralized auth, logging, retries, and
// error mapping.
type Client struct {
	snapClient  snapAPI
	coreClient  statusAPI
	serverKey   string
	clientKey   string
	environment string
	logger      *logger.Logger
}

// SnapTransactionParams is the subset of the Snap create-transaction request
// the storefront needs.
type SnapTransactionParams struct {
	OrderID     string
	GrossAmount int64
	FirstName   string
	Email       string
	Phone       string
	ItemName    string
	ExpiryHours int
}

// SnapTransaction is the Snap handoff returned to the storefront client.
type SnapTransaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// TransactionStatus mirrors the fields of the status API the order lifecycle
// cares about.
type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
}

// NewClient initializes the Midtrans wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	sdkEnv := midtrans.Sandbox
	if env == productionEnv {
		sdkEnv = midtrans.Production
	}
	if cfg.HTTPTimeout > 0 {
		midtrans.DefaultGoHttpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	var snapClient snap.Client
	snapClient.New(serverKey, sdkEnv)
	var coreClient coreapi.Client
	coreClient.New(serverKey, sdkEnv)

	c := &Client{
		snapClient:  snapClient,
		coreClient:  coreClient,
		serverKey:   serverKey,
		clientKey:   strings.TrimSpace(cfg.ClientKey),
		environment: env,
		logger:      logg,
	}

	logg.Info(ctx, fmt.Sprintf("midtrans client initialized (%s)", env))
	return c, nil
}

// Environment reports the normalized Midtrans environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// ClientKey returns the publishable key embedded by the Snap widget.
func (c *Client) ClientKey() string {
	if c == nil {
		return ""
	}
	return c.clientKey
}

// CreateSnapTransaction requests a Snap token for the order.
func (c *Client) CreateSnapTransaction(ctx context.Context, params SnapTransactionParams) (*SnapTransaction, error) {
	if strings.TrimSpace(params.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if params.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  params.OrderID,
			GrossAmt: params.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: params.FirstName,
			Email: params.Email,
			Phone: params.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    params.OrderID,
				Name:  params.ItemName,
				Price: params.GrossAmount,
				Qty:   1,
			},
		},
	}
	if params.ExpiryHours > 0 {
		req.Expiry = &snap.ExpiryDetails{
			Unit:     "hours",
			Duration: int64(params.ExpiryHours),
		}
	}

	c.log(ctx, "request", "create_snap_transaction", map[string]any{
		"midtrans_order_id": params.OrderID,
		"gross_amount":      params.GrossAmount,
	})

	var resp *snap.Response
	err := c.withRetry(ctx, func() *midtrans.Error {
		var sdkErr *midtrans.Error
		resp, sdkErr = c.snapClient.CreateTransaction(req)
		return sdkErr
	})
	if err != nil {
		c.log(ctx, "error", "create_snap_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}
	if resp == nil || resp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "midtrans returned an empty snap token")
	}

	c.log(ctx, "response", "create_snap_transaction", map[string]any{
		"midtrans_order_id": params.OrderID,
	})
	return &SnapTransaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// GetTransactionStatus looks up the current gateway status of an order.
func (c *Client) GetTransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	c.log(ctx, "request", "get_transaction_status", map[string]any{"midtrans_order_id": orderID})

	var resp *coreapi.TransactionStatusResponse
	err := c.withRetry(ctx, func() *midtrans.Error {
		var sdkErr *midtrans.Error
		resp, sdkErr = c.coreClient.CheckTransaction(orderID)
		return sdkErr
	})
	if err != nil {
		c.log(ctx, "error", "get_transaction_status", map[string]any{"error": err.Error()})
		return nil, err
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "midtrans returned an empty status response")
	}

	status := &TransactionStatus{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		PaymentType:       resp.PaymentType,
		TransactionTime:   resp.TransactionTime,
		SettlementTime:    resp.SettlementTime,
	}

	c.log(ctx, "response", "get_transaction_status", map[string]any{
		"midtrans_order_id":  orderID,
		"transaction_status": status.TransactionStatus,
	})
	return status, nil
}

// VerifySignature checks a webhook signature_key:
// sha512(order_id + status_code + gross_amount + server_key).
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	expected := SignaturePayload(orderID, statusCode, grossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signatureKey))) == 1
}

// SignaturePayload computes the hex sha512 digest Midtrans signs webhooks with.
func SignaturePayload(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// withRetry re-issues the SDK call on network errors and 5xx responses. The
// SDK calls do not take a context, so cancellation is honored between attempts.
func (c *Client) withRetry(ctx context.Context, call func() *midtrans.Error) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		sdkErr := call()
		if sdkErr == nil {
			return nil
		}
		mapped := mapSDKError(sdkErr)
		if sdkErr.StatusCode == 0 || sdkErr.StatusCode >= 500 {
			return retry.RetryableError(mapped)
		}
		return mapped
	})
}

func mapSDKError(sdkErr *midtrans.Error) error {
	message := strings.TrimSpace(sdkErr.Message)
	if message == "" {
		message = "midtrans request rejected"
	}

	switch {
	case sdkErr.StatusCode == 0 || sdkErr.StatusCode >= 500:
		if raw := sdkErr.GetRawError(); raw != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, raw, "midtrans unreachable")
		}
		return pkgerrors.New(pkgerrors.CodeDependency, message)
	case sdkErr.StatusCode == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case sdkErr.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case sdkErr.StatusCode == http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMidtransEnv
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("midtrans %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("midtrans %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "key", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

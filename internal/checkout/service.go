package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/internal/orders"
	"github.com/agilestore/agilestore-backend/internal/subscriptions"
	pkgcheckout "github.com/agilestore/agilestore-backend/pkg/checkout"
	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/midtrans"
	"github.com/agilestore/agilestore-backend/pkg/outbox"
	"github.com/agilestore/agilestore-backend/pkg/outbox/payloads"
	"github.com/agilestore/agilestore-backend/pkg/visibility"
)

// Service orchestrates a checkout submission end to end: validation, the
// active-subscription guard, server-side pricing, order creation, and the
// Snap handoff.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

type service struct {
	catalog       catalogStore
	guard         subscriptionGuard
	vouchers      voucherEngine
	customers     customerProvisioner
	orders        orders.Repository
	tx            txRunner
	outbox        outboxPublisher
	gateway       snapGateway
	tokenValidity time.Duration
	logg          *logger.Logger
}

// ServiceParams bundles the checkout service dependencies.
type ServiceParams struct {
	Catalog       catalogStore
	Guard         subscriptionGuard
	Vouchers      voucherEngine
	Customers     customerProvisioner
	Orders        orders.Repository
	Tx            txRunner
	Outbox        outboxPublisher
	Gateway       snapGateway
	TokenValidity time.Duration
	Logger        *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("subscription guard is required")
	}
	if params.Vouchers == nil {
		return nil, fmt.Errorf("voucher engine is required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer provisioner is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("snap gateway is required")
	}
	validity := params.TokenValidity
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	return &service{
		catalog:       params.Catalog,
		guard:         params.Guard,
		vouchers:      params.Vouchers,
		customers:     params.Customers,
		orders:        params.Orders,
		tx:            params.Tx,
		outbox:        params.Outbox,
		gateway:       params.Gateway,
		tokenValidity: validity,
		logg:          params.Logger,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	intent := enums.OrderIntentPurchase
	if trimmed := strings.TrimSpace(input.Intent); trimmed != "" {
		parsed, err := enums.ParseOrderIntent(trimmed)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order intent").
				WithDetails(map[string]any{"intent": trimmed})
		}
		intent = parsed
	}

	if err := pkgcheckout.ValidateSubmission(input.Contact, input.Plan); err != nil {
		return nil, err
	}

	product, pkg, err := s.loadSelection(ctx, input.Plan)
	if err != nil {
		return nil, err
	}

	duration, err := s.catalog.FindDurationForMonths(ctx, product.Code, input.Plan.DurationMonths)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration not offered for this product").
				WithDetails(map[string]any{"duration_months": input.Plan.DurationMonths})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve duration")
	}

	guard, err := s.guard.CheckProduct(ctx, subscriptions.GuardInput{
		ProductCode: product.Code,
		CustomerID:  input.CustomerID,
		GuestEmail:  input.Contact.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := checkIntent(intent, guard); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row, err := s.catalog.FindActivePriceRow(ctx, pkg.Code, duration.Code, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no active price for this selection")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve price")
	}
	if err := visibility.EnsurePriceEffective(row, now); err != nil {
		return nil, err
	}

	gross := row.Price
	discount := row.Discount
	payable := gross.Sub(discount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	voucherDiscount, err := s.vouchers.Evaluate(ctx, input.VoucherCode, payable)
	if err != nil {
		return nil, err
	}
	total := payable.Sub(voucherDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	var (
		order          models.Order
		accountCreated bool
		customer       *models.Customer
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customerID := input.CustomerID
		if customerID == uuid.Nil {
			resolved, created, err := s.resolveGuest(ctx, tx, input.Contact)
			if err != nil {
				return err
			}
			customer = resolved
			customerID = resolved.ID
			accountCreated = created
		}

		if voucherDiscount.IsPositive() {
			if err := s.vouchers.Redeem(ctx, tx, input.VoucherCode); err != nil {
				return err
			}
		}

		order = models.Order{
			MidtransOrderID: orders.NewMidtransOrderID(now),
			CustomerID:      customerID,
			ProductCode:     product.Code,
			PackageCode:     pkg.Code,
			DurationCode:    duration.Code,
			DurationMonths:  duration.Months,
			Intent:          intent,
			Currency:        enums.CurrencyIDR,
			GrossAmount:     gross,
			DiscountAmount:  discount,
			VoucherDiscount: voucherDiscount,
			TotalAmount:     total,
			Status:          enums.OrderStatusPending,
		}
		if code := strings.TrimSpace(input.VoucherCode); code != "" {
			order.VoucherCode = &code
		}
		if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:         order.ID,
				MidtransOrderID: order.MidtransOrderID,
				CustomerID:      order.CustomerID,
				ProductCode:     order.ProductCode,
				PackageCode:     order.PackageCode,
				DurationMonths:  order.DurationMonths,
				Intent:          order.Intent,
				TotalAmount:     order.TotalAmount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// The order exists before the gateway call: if Snap fails the order stays
	// pending and the expiry job reclaims it.
	snap, err := s.gateway.CreateSnapTransaction(ctx, midtrans.SnapTransactionParams{
		OrderID:     order.MidtransOrderID,
		GrossAmount: total.IntPart(),
		FirstName:   input.Contact.Name,
		Email:       input.Contact.Email,
		Phone:       input.Contact.Phone,
		ItemName:    fmt.Sprintf("%s %s (%d bulan)", product.Name, pkg.Name, duration.Months),
		ExpiryHours: int(s.tokenValidity.Hours()),
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{
		"snap_token":        snap.Token,
		"snap_redirect_url": snap.RedirectURL,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store snap token")
	}

	result := &SubmitResult{
		OrderID:         order.ID,
		MidtransOrderID: order.MidtransOrderID,
		Status:          order.Status,
		Currency:        order.Currency,
		GrossAmount:     gross,
		DiscountAmount:  discount,
		VoucherDiscount: voucherDiscount,
		TotalAmount:     total,
		SnapToken:       &snap.Token,
		SnapRedirectURL: &snap.RedirectURL,
		AccountCreated:  accountCreated,
	}

	if accountCreated && customer != nil {
		token, err := s.customers.IssueAccessToken(ctx, customer)
		if err != nil {
			// The order and account are committed; a token failure only
			// costs the customer an extra login.
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("guest access token not issued: %v", err))
			}
		} else {
			result.AccessToken = token
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.MidtransOrderID)
		s.logg.Info(logCtx, "checkout handed off to snap")
	}
	return result, nil
}

func (s *service) loadSelection(ctx context.Context, plan pkgcheckout.Plan) (*models.Product, *models.Package, error) {
	product, err := s.catalog.FindProductByCode(ctx, plan.ProductCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var pkg *models.Package
	for i := range product.Packages {
		if strings.EqualFold(product.Packages[i].Code, plan.PackageCode) {
			pkg = &product.Packages[i]
			break
		}
	}

	if err := visibility.EnsurePurchasable(visibility.PurchasabilityInput{
		Product: product,
		Package: pkg,
		Now:     time.Now().UTC(),
	}); err != nil {
		return nil, nil, err
	}
	return product, pkg, nil
}

// resolveGuest finds or provisions the customer account behind a guest
// checkout. A registered account with a password blocks the guest path so
// orders never attach to an account the caller cannot prove they own.
func (s *service) resolveGuest(ctx context.Context, tx *gorm.DB, contact pkgcheckout.Contact) (*models.Customer, bool, error) {
	existing, err := s.customers.FindByEmail(ctx, contact.Email)
	if err == nil {
		if !existing.PasswordPending {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists, please log in").
				WithDetails(map[string]any{"email": contact.Email})
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up customer")
	}

	created, err := s.customers.CreateGuest(ctx, tx, contact.Name, contact.Email, contact.Phone)
	if err != nil {
		return nil, false, err
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCustomerRegistered,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   created.ID,
		Version:       1,
		Data: payloads.CustomerRegisteredEvent{
			CustomerID:      created.ID,
			Email:           created.Email,
			FullName:        created.FullName,
			PasswordPending: true,
		},
	}); err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// checkIntent enforces the purchase/renew/upgrade/addon rules against the
// guard result.
func checkIntent(intent enums.OrderIntent, guard *subscriptions.GuardResult) error {
	if intent == enums.OrderIntentPurchase && guard.HasActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "an active subscription already covers this product").
			WithDetails(map[string]any{
				"guard":        guard,
				"alternatives": []string{string(enums.OrderIntentRenew), string(enums.OrderIntentUpgrade)},
			})
	}
	if intent.RequiresActiveSubscription() && !guard.HasActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s requires an active subscription", intent))
	}
	return nil
}

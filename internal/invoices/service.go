package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	"github.com/agilestore/agilestore-backend/pkg/enums"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
	"github.com/agilestore/agilestore-backend/pkg/pdfgen"
)

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindPackageName(ctx context.Context, productCode, packageCode string) (string, error)
}

type customerReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type productReader interface {
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
}

// Document is a rendered invoice ready for download.
type Document struct {
	Filename string
	PDF      []byte
}

// Service renders downloadable invoices for paid orders.
type Service interface {
	Render(ctx context.Context, customerID, orderID uuid.UUID) (*Document, error)
}

type service struct {
	orders    orderReader
	customers customerReader
	products  productReader
	renderer  pdfgen.InvoiceRenderer
	logg      *logger.Logger
}

// ServiceParams bundles the invoice service dependencies.
type ServiceParams struct {
	Orders    orderReader
	Customers customerReader
	Products  productReader
	Renderer  pdfgen.InvoiceRenderer
	Logger    *logger.Logger
}

// NewService builds the invoices service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader is required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers reader is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products reader is required")
	}
	if params.Renderer == nil {
		return nil, fmt.Errorf("invoice renderer is required")
	}
	return &service{
		orders:    params.Orders,
		customers: params.Customers,
		products:  params.Products,
		renderer:  params.Renderer,
		logg:      params.Logger,
	}, nil
}

func (s *service) Render(ctx context.Context, customerID, orderID uuid.UUID) (*Document, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoices are available for paid orders only")
	}

	customer, err := s.customers.FindByID(ctx, order.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	productName := order.ProductCode
	if product, err := s.products.FindProductByCode(ctx, order.ProductCode); err == nil {
		productName = product.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	packageName, err := s.orders.FindPackageName(ctx, order.ProductCode, order.PackageCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve package name")
	}

	pdf, err := s.renderer.Render(ctx, pdfgen.InvoiceData{
		InvoiceNumber: order.MidtransOrderID,
		CustomerName:  customer.FullName,
		CustomerEmail: customer.Email,
		ProductName:   productName,
		PackageName:   packageName,
		DurationLabel: durationLabel(order.DurationMonths, customer.Locale),
		GrossAmount:   order.GrossAmount,
		Discount:      order.DiscountAmount.Add(order.VoucherDiscount),
		TotalAmount:   order.TotalAmount,
		Currency:      string(order.Currency),
		IssuedAt:      order.CreatedAt,
		PaidAt:        derefTime(order.PaidAt),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.MidtransOrderID), "invoice rendered")
	}
	return &Document{
		Filename: fmt.Sprintf("invoice-%s.pdf", order.MidtransOrderID),
		PDF:      pdf,
	}, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func durationLabel(months int, locale enums.Locale) string {
	if locale == enums.LocaleEN {
		if months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", months)
	}
	return fmt.Sprintf("%d bulan", months)
}

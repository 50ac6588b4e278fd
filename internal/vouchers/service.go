package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agilestore/agilestore-backend/pkg/db/models"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
)

// Repository exposes voucher persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	IncrementUsage(ctx context.Context, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a voucher repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = LOWER(?)", code).
		First(&voucher).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) IncrementUsage(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("LOWER(code) = LOWER(?)", code).
		Where("usage_limit = 0 OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "voucher usage limit reached")
	}
	return nil
}

// Service validates and redeems voucher codes. The discount is always
// recomputed server-side from the stored voucher, never taken from the
// client.
type Service interface {
	Evaluate(ctx context.Context, code string, gross decimal.Decimal) (decimal.Decimal, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
}

type service struct {
	repo Repository
}

// NewService builds the voucher service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository is required")
	}
	return &service{repo: repo}, nil
}

// Evaluate returns the discount a voucher grants on a gross amount. The
// discount never exceeds the gross amount.
func (s *service) Evaluate(ctx context.Context, code string, gross decimal.Decimal) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return decimal.Zero, nil
	}

	voucher, err := s.repo.FindByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "voucher not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	now := time.Now().UTC()
	if voucher.ValidFrom != nil && now.Before(*voucher.ValidFrom) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "voucher not yet valid")
	}
	if voucher.ValidUntil != nil && !now.Before(*voucher.ValidUntil) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "voucher expired")
	}
	if voucher.UsageLimit > 0 && voucher.UsedCount >= voucher.UsageLimit {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "voucher usage limit reached")
	}

	discount := voucher.Amount
	if discount.IsZero() && voucher.Percent.IsPositive() {
		discount = gross.Mul(voucher.Percent).Div(decimal.NewFromInt(100)).Round(2)
	}
	if discount.GreaterThan(gross) {
		discount = gross
	}
	return discount, nil
}

// Redeem burns one use of the voucher inside the caller's transaction.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil
	}
	return s.repo.WithTx(tx).IncrementUsage(ctx, trimmed)
}

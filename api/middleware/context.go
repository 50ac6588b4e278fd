package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/agilestore/agilestore-backend/pkg/enums"
)

type contextKey string

const (
	ctxCustomerID contextKey = "customer_id"
	ctxAccessID   contextKey = "access_id"
	ctxLocale     contextKey = "locale"
)

// CustomerIDFromContext returns the authenticated customer id, or uuid.Nil.
func CustomerIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCustomerID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// AccessIDFromContext returns the JWT session id, or "".
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// LocaleFromContext returns the resolved display locale, defaulting to id.
func LocaleFromContext(ctx context.Context) enums.Locale {
	if ctx == nil {
		return enums.LocaleID
	}
	if v, ok := ctx.Value(ctxLocale).(enums.Locale); ok {
		return v
	}
	return enums.LocaleID
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithLocale injects the display locale into the context.
func WithLocale(ctx context.Context, locale enums.Locale) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLocale, locale)
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agilestore/agilestore-backend/api/middleware"
	"github.com/agilestore/agilestore-backend/api/responses"
	"github.com/agilestore/agilestore-backend/internal/catalog"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// ListProducts returns the storefront catalog in the request locale.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		products, err := svc.List(r.Context(), locale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns a single product with its packages and price matrix.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product code required"))
			return
		}

		locale := middleware.LocaleFromContext(r.Context())
		product, err := svc.Get(r.Context(), code, locale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

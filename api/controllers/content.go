package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agilestore/agilestore-backend/api/middleware"
	"github.com/agilestore/agilestore-backend/api/responses"
	"github.com/agilestore/agilestore-backend/api/validators"
	"github.com/agilestore/agilestore-backend/internal/content"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// GetSection returns a localized content section by slug.
func GetSection(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "key"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "section key required"))
			return
		}

		locale := middleware.LocaleFromContext(r.Context())
		section, err := svc.Section(r.Context(), slug, locale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, section)
	}
}

// TranslateBatch proxies a batch of UI strings to the translation backend.
func TranslateBatch(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload content.TranslateBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TranslateBatch(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

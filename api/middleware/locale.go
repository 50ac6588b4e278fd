package middleware

import (
	"net/http"

	"github.com/agilestore/agilestore-backend/pkg/enums"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// Cookie names checked for the display locale, most specific first. The two
// aliases are kept for storefront clients that predate the rename.
var localeCookies = []string{"agile_lang", "lang", "agile.lang"}

// Locale resolves the display locale from the request cookies and seeds it
// into the context. Runs before auth so anonymous requests get a locale too;
// an authenticated customer's stored preference overrides it later.
func Locale(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := enums.LocaleID
			for _, name := range localeCookies {
				cookie, err := r.Cookie(name)
				if err != nil || !enums.Locale(cookie.Value).IsValid() {
					continue
				}
				locale = enums.ParseLocale(cookie.Value)
				break
			}

			ctx := WithLocale(r.Context(), locale)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"locale": string(locale)})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

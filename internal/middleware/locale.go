package middleware

import (
	"context"
	"net/http"

	"github.com/terramo-esg/terramo/internal/utils"
)

type localeKey struct{}

// DefaultLocale is reported when a request carries no negotiated locale.
const DefaultLocale = "en"

// Locale negotiates the response language for error and notice messages:
// ?lang= wins over Accept-Language, and fallback covers everything else.
// An unsupported fallback is replaced by DefaultLocale.
func Locale(fallback string) func(http.Handler) http.Handler {
	fallback = utils.DetermineLocale(fallback, "", utils.SupportedLocales, DefaultLocale)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"),
				utils.SupportedLocales, fallback)
			w.Header().Set("Content-Language", loc)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey{}, loc)))
		})
	}
}

// LocaleFromContext returns the locale chosen by Locale.
func LocaleFromContext(ctx context.Context) string {
	if loc, ok := ctx.Value(localeKey{}).(string); ok {
		return loc
	}
	return DefaultLocale
}

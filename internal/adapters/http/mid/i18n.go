// Package mid provides HTTP middleware implementations for request processing.
// It includes middleware for internationalization (i18n) that handles locale detection
// from cookies, query parameters, and headers.
package mid

import (
	"net/http"
	"time"

	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/invopop/ctxi18n"
)

const (
	langCookie    = "lang"
	defaultLocale = "en"
)

// I18n is middleware that sets the request context with a locale based on cookies, query parameters, or headers.
// Unknown languages fall back to English.
func I18n(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var lang string

		if c, err := r.Cookie(langCookie); err == nil {
			lang = c.Value
		}

		if q := r.URL.Query().Get("lang"); q != "" {
			lang = q
		}

		if lang == "" {
			lang = r.Header.Get("Accept-Language")
		}

		ctx, err := ctxi18n.WithLocale(r.Context(), lang)
		if err != nil || ctx == nil {
			utils.Logger.Debug("falling back to default locale", "lang", lang, "err", err)
			ctx, err = ctxi18n.WithLocale(r.Context(), defaultLocale)
			if err != nil || ctx == nil {
				utils.Logger.Error("failed to set locale", "lang", defaultLocale, "err", err)
				ctx = r.Context()
			}
		}

		if r.URL.Query().Has("lang") {
			if l := ctxi18n.Locale(ctx); l != nil {
				http.SetCookie(w, &http.Cookie{
					Name:     langCookie,
					Value:    l.Code().String(),
					Path:     "/",
					HttpOnly: false,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				})
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package config

import (
	"sync"

	"github.com/OliveiraNt/infralens/locales"
	"github.com/invopop/ctxi18n"
)

var (
	i18nOnce sync.Once
	i18nErr  error
)

// InitI18n loads the embedded locales with English as the fallback. It is safe
// to call more than once.
func InitI18n() error {
	i18nOnce.Do(func() {
		i18nErr = ctxi18n.LoadWithDefault(locales.Content, "en")
	})
	return i18nErr
}

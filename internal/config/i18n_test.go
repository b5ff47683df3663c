package config_test

import (
	"context"
	"testing"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/invopop/ctxi18n"
	"github.com/invopop/ctxi18n/i18n"
	"github.com/stretchr/testify/require"
)

func TestInitI18n(t *testing.T) {
	require.NoError(t, config.InitI18n())
	require.NoError(t, config.InitI18n())

	ctx, err := ctxi18n.WithLocale(context.Background(), "pt-BR")
	require.NoError(t, err)
	require.NotEqual(t, "health.healthy", i18n.T(ctx, "health.healthy"))

	en, err := ctxi18n.WithLocale(context.Background(), "en")
	require.NoError(t, err)
	require.NotEqual(t, i18n.T(en, "health.healthy"), i18n.T(ctx, "health.healthy"))
}

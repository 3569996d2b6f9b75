package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "SHUTDOWN_TIMEOUT_SECONDS", "STOREFRONT_URL", "CORS_ALLOWED_ORIGINS", "CART_COOKIE_NAME"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.StorefrontURL)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, "cart", cfg.CartCookieName)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("HTTP_CLIENT_TIMEOUT_SECONDS", "nope")
	t.Setenv("STOREFRONT_URL", "https://shop.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, "https://shop.example.com", cfg.StorefrontURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STOREFRONT_DOTENV_PROBE=loaded\n"), 0o600))
	t.Setenv("STOREFRONT_DOTENV_PROBE", "")
	os.Unsetenv("STOREFRONT_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("STOREFRONT_DOTENV_PROBE"))
}

func TestLoadTheme(t *testing.T) {
	theme, err := LoadTheme("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme(), theme)

	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
money_format: "€{{amount_with_space_separator}}"
enable_history_state: false
free_shipping_threshold: 5000
strings:
  sold_out: "Épuisé"
`), 0o600))

	theme, err = LoadTheme(path)
	require.NoError(t, err)
	assert.Equal(t, "€{{amount_with_space_separator}}", theme.MoneyFormat)
	assert.False(t, theme.EnableHistoryState)
	assert.Equal(t, int64(5000), theme.FreeShippingThreshold)
	assert.Equal(t, "Épuisé", theme.Strings.SoldOut)
	assert.Equal(t, "Add to cart", theme.Strings.AddToCart)

	_, err = LoadTheme(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

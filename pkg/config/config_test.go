package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("STRIPE_PRICE_IDS", "Basic=price_b, pro=price_p ,malo")
	t.Setenv("RETRY_INITIAL_INTERVAL_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "price_b", cfg.Stripe.GetPriceID("basic"))
	assert.Equal(t, "price_p", cfg.Stripe.GetPriceID("PRO"))
	assert.Empty(t, cfg.Stripe.GetPriceID("enterprise"))
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval)
}

func TestLoad_RetryInvalido(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Timezone(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", cfg.App.Location.String())

	t.Setenv("APP_TIMEZONE", "Europe/Madrid")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", cfg.App.Location.String())

	t.Setenv("APP_TIMEZONE", "Marte/Olympus")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DBName: "tienda", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/tienda?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat_USDIngles(t *testing.T) {
	got := Format(decimal.RequireFromString("1234.5"), "usd", "en-US")
	assert.Equal(t, "USD 1,234.50", got)
}

func TestFormat_Espanol(t *testing.T) {
	got := Format(decimal.RequireFromString("1234567.5"), "USD", "es")
	assert.Contains(t, got, "USD ")
	assert.Contains(t, got, ",50")
}

func TestFormat_FallbackMonedaInvalida(t *testing.T) {
	got := Format(decimal.NewFromInt(10), "???", "en-US")
	assert.Contains(t, got, "COP")
}

func TestQuantity(t *testing.T) {
	f := NewFormatter("USD", "en-US")
	assert.Equal(t, "3", f.Quantity(decimal.NewFromInt(3)))
	assert.Equal(t, "2.50", f.Quantity(decimal.RequireFromString("2.5")))
}

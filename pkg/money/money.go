// Package money formatea importes según moneda e idioma para recibos y reportes.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter formatea importes en una moneda y locale fijos.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
	scale   int
}

// NewFormatter construye un formateador. Código o locale inválidos caen a COP / es-CO.
func NewFormatter(currencyCode, locale string) *Formatter {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		unit = currency.MustParseISO("COP")
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("es-CO")
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Formatter{unit: unit, printer: message.NewPrinter(tag), scale: scale}
}

// Format devuelve "COP 1.234,50" (separadores según el locale).
func (f *Formatter) Format(amount decimal.Decimal) string {
	v, _ := amount.Round(int32(f.scale)).Float64()
	return f.unit.String() + " " + f.printer.Sprintf("%.*f", f.scale, v)
}

// Quantity formatea cantidades sin moneda, con hasta 2 decimales.
func (f *Formatter) Quantity(q decimal.Decimal) string {
	if q.Equal(q.Truncate(0)) {
		return f.printer.Sprintf("%d", q.IntPart())
	}
	v, _ := q.Round(2).Float64()
	return f.printer.Sprintf("%.2f", v)
}

// Format atajo sin reutilizar el formateador.
func Format(amount decimal.Decimal, currencyCode, locale string) string {
	return NewFormatter(currencyCode, locale).Format(amount)
}

// Package sales reglas de cálculo de una venta (sin dependencias de infraestructura).
package sales

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line entrada de cálculo por línea.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // descuento absoluto de la línea
}

// Subtotal de la línea: cantidad × precio − descuento, redondeado a 2.
func (l Line) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice).Sub(l.Discount).Round(2)
}

// Totals resultado del cálculo de la venta.
type Totals struct {
	Subtotal decimal.Decimal // suma de subtotales de línea
	Discount decimal.Decimal // descuento global
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute calcula subtotal, impuesto y total. taxRate es porcentaje (19 = 19%)
// y se aplica sobre la base subtotal − descuento global.
func Compute(lines []Line, discount, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	base := subtotal.Sub(discount)
	tax := base.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal: subtotal,
		Discount: discount.Round(2),
		Tax:      tax,
		Total:    base.Add(tax).Round(2),
	}
}

// Change vuelto a entregar; cero si lo pagado no cubre el total.
func Change(total, paid decimal.Decimal) decimal.Decimal {
	if paid.LessThanOrEqual(total) {
		return decimal.Zero
	}
	return paid.Sub(total).Round(2)
}

package inventory

import "github.com/shopspring/decimal"

// CostCalculator costo promedio ponderado tras una entrada (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Un stock actual <= 0 no aporta al promedio: el nuevo costo es el de la entrada.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual.IsNegative() {
		stockActual = decimal.Zero
	}
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoActual
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, 4)
}

// ApplyDelta devuelve el nuevo stock y si el resultado es válido (nunca negativo).
func ApplyDelta(current, delta decimal.Decimal) (decimal.Decimal, bool) {
	next := current.Add(delta)
	return next, !next.IsNegative()
}

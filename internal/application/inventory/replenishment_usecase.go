package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

const lowStockScanLimit = 500

// LowStockUseCase lista productos con cantidad <= stock mínimo y sugiere cuánto pedir.
type LowStockUseCase struct {
	inventoryRepo repository.InventoryRepository
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewLowStockUseCase construye el caso de uso. analyticsRepo puede ser nil (sin ranking por ventas).
func NewLowStockUseCase(inventoryRepo repository.InventoryRepository, analyticsRepo repository.AnalyticsRepository) *LowStockUseCase {
	return &LowStockUseCase{inventoryRepo: inventoryRepo, analyticsRepo: analyticsRepo, now: time.Now}
}

// LowStock devuelve las filas bajo mínimo con cantidad sugerida (MinStock*1.5 - actual) y prioridad:
// primero mayor volumen vendido en 90 días, luego mayor déficit relativo al mínimo.
// warehouseID vacío considera todos los almacenes.
func (uc *LowStockUseCase) LowStock(ctx context.Context, tenantID, warehouseID string) ([]dto.LowStockDTO, error) {
	items, _, err := uc.inventoryRepo.List(ctx, repository.InventoryFilter{
		TenantID:     tenantID,
		WarehouseID:  warehouseID,
		LowStockOnly: true,
		Limit:        lowStockScanLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []dto.LowStockDTO{}, nil
	}

	unitsByProduct := map[string]decimal.Decimal{}
	if uc.analyticsRepo != nil {
		end := uc.now()
		top, err := uc.analyticsRepo.TopProducts(ctx, tenantID, end.AddDate(0, 0, -90), end, lowStockScanLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range top {
			unitsByProduct[p.ProductID] = p.UnitsSold
		}
	}

	factor := decimal.NewFromFloat(1.5)
	out := make([]dto.LowStockDTO, 0, len(items))
	for _, it := range items {
		suggested := it.MinStock.Mul(factor).Sub(it.Quantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		out = append(out, dto.LowStockDTO{
			ProductID:         it.ProductID,
			SKU:               it.SKU,
			ProductName:       it.ProductName,
			WarehouseID:       it.WarehouseID,
			WarehouseName:     it.WarehouseName,
			CurrentStock:      it.Quantity,
			MinStock:          it.MinStock,
			SuggestedOrderQty: suggested.Ceil(),
			EstimatedCost:     suggested.Ceil().Mul(it.Cost).Round(2),
			UnitsSold90Days:   unitsByProduct[it.ProductID],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.UnitsSold90Days.Equal(b.UnitsSold90Days) {
			return a.UnitsSold90Days.GreaterThan(b.UnitsSold90Days)
		}
		return deficitRatio(a).GreaterThan(deficitRatio(b))
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

// deficitRatio fracción del mínimo que falta: 1 = sin stock.
func deficitRatio(d dto.LowStockDTO) decimal.Decimal {
	if !d.MinStock.IsPositive() {
		return decimal.Zero
	}
	return d.MinStock.Sub(d.CurrentStock).Div(d.MinStock)
}

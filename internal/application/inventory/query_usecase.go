package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// QueryUseCase consultas de inventario (sin transacción).
type QueryUseCase struct {
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	inventoryRepo repository.InventoryRepository
	movementRepo  repository.MovementRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	inventoryRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
) *QueryUseCase {
	return &QueryUseCase{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
	}
}

// GetProductStock cantidades del producto por almacén, consultadas en paralelo, más el total.
func (uc *QueryUseCase) GetProductStock(ctx context.Context, tenantID, productID string) (*dto.ProductStockResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	warehouses, err := uc.warehouseRepo.List(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}

	stocks := make([]dto.WarehouseStock, len(warehouses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, wh := range warehouses {
		g.Go(func() error {
			line, err := uc.inventoryRepo.Get(gctx, tenantID, wh.ID, productID)
			if err != nil {
				return err
			}
			qty := decimal.Zero
			if line != nil {
				qty = line.Quantity
			}
			stocks[i] = dto.WarehouseStock{WarehouseID: wh.ID, WarehouseName: wh.Name, Quantity: qty}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, s := range stocks {
		total = total.Add(s.Quantity)
	}
	return &dto.ProductStockResponse{ProductID: productID, Warehouses: stocks, Total: total}, nil
}

// ListInventory inventario paginado, opcionalmente filtrado por almacén o bajo mínimo.
func (uc *QueryUseCase) ListInventory(ctx context.Context, tenantID string, in dto.InventoryFilterRequest) (*dto.InventoryListResponse, error) {
	in.DefaultPage()
	items, total, err := uc.inventoryRepo.List(ctx, repository.InventoryFilter{
		TenantID:     tenantID,
		WarehouseID:  in.WarehouseID,
		Search:       in.Search,
		LowStockOnly: in.LowStockOnly,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.InventoryItemResponse{
			WarehouseID:   it.WarehouseID,
			WarehouseName: it.WarehouseName,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			SKU:           it.SKU,
			Quantity:      it.Quantity,
			MinStock:      it.MinStock,
			LowStock:      it.Quantity.LessThanOrEqual(it.MinStock),
			UpdatedAt:     it.UpdatedAt,
		})
	}
	return &dto.InventoryListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// ListMovements historial de movimientos con filtros de producto, almacén, tipo y rango de fechas.
// To es inclusivo (se toma hasta el final del día).
func (uc *QueryUseCase) ListMovements(ctx context.Context, tenantID string, in dto.MovementFilterRequest) (*dto.MovementListResponse, error) {
	in.DefaultPage()
	f := repository.MovementFilter{
		TenantID:    tenantID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        in.Type,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	var err error
	if f.From, f.To, err = ParseDateRange(in.From, in.To); err != nil {
		return nil, err
	}

	movs, total, err := uc.movementRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// ParseDateRange convierte fechas YYYY-MM-DD (vacías = sin límite). El fin queda exclusivo al día siguiente.
func ParseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: fecha inicial %q", domain.ErrInvalidInput, from)
		}
		start = &t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: fecha final %q", domain.ErrInvalidInput, to)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	return start, end, nil
}

// ToMovementResponse mapea la entidad al DTO.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		UnitCost:      m.UnitCost,
		Reference:     m.Reference,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

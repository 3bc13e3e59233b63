package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// ProductUseCase casos de uso de productos. El costo se recalcula con entradas de inventario;
// el stock solo cambia vía movimientos (Update con Stock genera ajustes).
type ProductUseCase struct {
	repos    repository.Repositories
	txRunner TxRunner
	limits   LimitChecker
	locker   inventory.StockLocker
}

// NewProductUseCase construye el caso de uso. limits y locker pueden ser nil.
func NewProductUseCase(repos repository.Repositories, txRunner TxRunner, limits LimitChecker, locker inventory.StockLocker) *ProductUseCase {
	return &ProductUseCase{repos: repos, txRunner: txRunner, limits: limits, locker: locker}
}

// Create crea un producto tras validar el tope del plan, el SKU único y las referencias.
func (uc *ProductUseCase) Create(ctx context.Context, tenantID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.Price.IsNegative() || in.Cost.IsNegative() || in.MinStock.IsNegative() {
		return nil, fmt.Errorf("%w: precio, costo y stock mínimo no pueden ser negativos", domain.ErrInvalidInput)
	}
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, tenantID, entity.ResourceProducts); err != nil {
			return nil, err
		}
	}
	sku := strings.TrimSpace(in.SKU)
	existing, err := uc.repos.Products.GetBySKU(ctx, tenantID, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, sku)
	}
	if err := uc.checkRefs(ctx, tenantID, in.CategoryID, in.UnitID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &entity.Product{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		CategoryID:  emptyToNil(in.CategoryID),
		UnitID:      emptyToNil(in.UnitID),
		SKU:         sku,
		Barcode:     strings.TrimSpace(in.Barcode),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Cost:        in.Cost,
		MinStock:    in.MinStock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repos.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	out := toProductResponse(p)
	return &out, nil
}

// GetByID producto de la organización.
func (uc *ProductUseCase) GetByID(ctx context.Context, tenantID, id string) (*dto.ProductResponse, error) {
	p, err := uc.repos.Products.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := toProductResponse(p)
	return &out, nil
}

// Update actualiza los campos enviados. Si in.Stock trae cantidades, las fija por almacén con
// movimientos de ajuste en la misma transacción que la edición del producto.
func (uc *ProductUseCase) Update(ctx context.Context, tenantID, userID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.repos.Products.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}

	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku != p.SKU {
			other, err := uc.repos.Products.GetBySKU(ctx, tenantID, sku)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, fmt.Errorf("%w: SKU %s", domain.ErrDuplicate, sku)
			}
			p.SKU = sku
		}
	}
	if err := uc.checkRefs(ctx, tenantID, in.CategoryID, in.UnitID); err != nil {
		return nil, err
	}
	if in.Barcode != nil {
		p.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.CategoryID != nil {
		p.CategoryID = emptyToNil(in.CategoryID)
	}
	if in.UnitID != nil {
		p.UnitID = emptyToNil(in.UnitID)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
		}
		p.Price = *in.Price
	}
	if in.MinStock != nil {
		if in.MinStock.IsNegative() {
			return nil, fmt.Errorf("%w: stock mínimo negativo", domain.ErrInvalidInput)
		}
		p.MinStock = *in.MinStock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	keys := make([]string, 0, len(in.Stock))
	seen := map[string]bool{}
	for _, s := range in.Stock {
		if s.Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: cantidad negativa en almacén %s", domain.ErrInvalidInput, s.WarehouseID)
		}
		if seen[s.WarehouseID] {
			return nil, fmt.Errorf("%w: almacén repetido %s", domain.ErrInvalidInput, s.WarehouseID)
		}
		seen[s.WarehouseID] = true
		wh, err := uc.repos.Warehouses.GetByID(ctx, tenantID, s.WarehouseID)
		if err != nil {
			return nil, err
		}
		if wh == nil {
			return nil, fmt.Errorf("%w: almacén %s", domain.ErrNotFound, s.WarehouseID)
		}
		keys = append(keys, inventory.LockKey(tenantID, s.WarehouseID, p.ID))
	}
	if uc.locker != nil && len(keys) > 0 {
		release, err := uc.locker.Acquire(ctx, keys)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	// Mismo orden de bloqueo que los movimientos: producto y luego almacenes por ID.
	targets := append([]dto.StockSetting(nil), in.Stock...)
	sort.Slice(targets, func(i, j int) bool { return targets[i].WarehouseID < targets[j].WarehouseID })

	now := time.Now()
	p.UpdatedAt = now
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		locked, err := inventory.LockProducts(ctx, repos, tenantID, p.ID)
		if err != nil {
			return err
		}
		p.Cost = locked[p.ID].Cost
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		for _, s := range targets {
			target := s.Quantity
			if _, err := inventory.ApplyStockChange(ctx, repos, inventory.StockChange{
				TenantID:    tenantID,
				WarehouseID: s.WarehouseID,
				ProductID:   p.ID,
				Type:        entity.MovementAjuste,
				SetTo:       &target,
				UnitCost:    p.Cost,
				Notes:       "edición de producto",
				UserID:      userID,
			}, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toProductResponse(p)
	return &out, nil
}

// Delete elimina el producto; si tiene ventas solo lo desactiva para conservar el historial.
func (uc *ProductUseCase) Delete(ctx context.Context, tenantID, id string) (*dto.DeleteProductResponse, error) {
	p, err := uc.repos.Products.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	hasSales, err := uc.repos.Products.HasSales(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if hasSales {
		if err := uc.repos.Products.SetActive(ctx, tenantID, id, false); err != nil {
			return nil, err
		}
		return &dto.DeleteProductResponse{Deactivated: true}, nil
	}
	if err := uc.repos.Products.Delete(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return &dto.DeleteProductResponse{Deleted: true}, nil
}

// List productos paginados con búsqueda por nombre, SKU o código de barras.
func (uc *ProductUseCase) List(ctx context.Context, tenantID string, in dto.ProductFilterRequest) (*dto.ProductListResponse, error) {
	in.DefaultPage()
	list, total, err := uc.repos.Products.List(ctx, repository.ProductFilter{
		TenantID:   tenantID,
		Search:     strings.TrimSpace(in.Search),
		CategoryID: in.CategoryID,
		ActiveOnly: in.ActiveOnly,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// checkRefs categoría y unidad deben existir en la organización ("" = quitar referencia).
func (uc *ProductUseCase) checkRefs(ctx context.Context, tenantID string, categoryID, unitID *string) error {
	if id := emptyToNil(categoryID); id != nil {
		c, err := uc.repos.Categories.GetByID(ctx, tenantID, *id)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("%w: categoría %s", domain.ErrNotFound, *id)
		}
	}
	if id := emptyToNil(unitID); id != nil {
		u, err := uc.repos.Units.GetByID(ctx, tenantID, *id)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("%w: unidad %s", domain.ErrNotFound, *id)
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		UnitID:      p.UnitID,
		Price:       p.Price,
		Cost:        p.Cost,
		MinStock:    p.MinStock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos de inventario de forma transaccional
// (entrada, salida, ajuste, transferencia) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	locker        StockLocker
	now           func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. locker puede ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	locker StockLocker,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		locker:        locker,
		now:           time.Now,
	}
}

// MovementInput entrada para registrar un movimiento de inventario.
// Para entrada/salida/ajuste: ProductID, WarehouseID, Type, Quantity; UnitCost opcional en entrada
// (por defecto el costo actual del producto). En ajuste Quantity es la cantidad absoluta resultante.
// Para transferencia: ProductID, FromWarehouseID, ToWarehouseID, Quantity.
type MovementInput struct {
	TenantID        string
	UserID          string
	ProductID       string
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Type            string
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	Reference       string
	Notes           string
}

// RegisterMovement valida, toma el lock distribuido (si hay), abre la transacción,
// aplica la lógica según tipo y hace Commit o Rollback. Devuelve los movimientos creados.
// El producto se vuelve a leer con bloqueo dentro de la transacción: el costo promedio se
// calcula siempre sobre el valor confirmado por la última entrada.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in MovementInput) ([]*entity.Movement, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	existing, err := uc.productRepo.GetByID(ctx, in.TenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	warehouses := []string{in.WarehouseID}
	if in.Type == entity.MovementTransferencia {
		warehouses = []string{in.FromWarehouseID, in.ToWarehouseID}
	}
	keys := make([]string, 0, len(warehouses))
	for _, id := range warehouses {
		wh, err := uc.warehouseRepo.GetByID(ctx, in.TenantID, id)
		if err != nil {
			return nil, err
		}
		if wh == nil {
			return nil, fmt.Errorf("%w: almacén %s", domain.ErrNotFound, id)
		}
		keys = append(keys, LockKey(in.TenantID, id, in.ProductID))
	}

	release, err := acquire(ctx, uc.locker, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	var created []*entity.Movement
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		locked, err := LockProducts(ctx, repos, in.TenantID, in.ProductID)
		if err != nil {
			return err
		}
		product := locked[in.ProductID]
		var txErr error
		switch in.Type {
		case entity.MovementEntrada:
			created, txErr = uc.doEntrada(ctx, repos, product, in, now)
		case entity.MovementSalida:
			created, txErr = uc.doSalida(ctx, repos, product, in, now)
		case entity.MovementAjuste:
			created, txErr = uc.doAjuste(ctx, repos, product, in, now)
		case entity.MovementTransferencia:
			created, txErr = uc.doTransferencia(ctx, repos, product, in, now)
		default:
			txErr = domain.ErrInvalidInput
		}
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateMovement(in MovementInput) error {
	if in.TenantID == "" || in.ProductID == "" {
		return domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementEntrada, entity.MovementSalida:
		if in.WarehouseID == "" || !in.Quantity.IsPositive() {
			return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
		}
		if in.Type == entity.MovementEntrada && in.UnitCost != nil && in.UnitCost.IsNegative() {
			return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
		}
	case entity.MovementAjuste:
		if in.WarehouseID == "" || in.Quantity.IsNegative() {
			return fmt.Errorf("%w: la cantidad del ajuste no puede ser negativa", domain.ErrInvalidInput)
		}
	case entity.MovementTransferencia:
		if in.FromWarehouseID == "" || in.ToWarehouseID == "" || in.FromWarehouseID == in.ToWarehouseID {
			return fmt.Errorf("%w: almacenes de origen y destino inválidos", domain.ErrInvalidInput)
		}
		if !in.Quantity.IsPositive() {
			return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	return nil
}

// doEntrada: recalcula costo promedio ponderado sobre el stock total (CostCalculator), actualiza el
// costo del producto y suma stock en el almacén.
func (uc *RegisterMovementUseCase) doEntrada(ctx context.Context, repos repository.Repositories, product *entity.Product, in MovementInput, now time.Time) ([]*entity.Movement, error) {
	unitCost := product.Cost
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	if _, err := repos.Inventory.GetForUpdate(ctx, in.TenantID, in.WarehouseID, in.ProductID); err != nil {
		return nil, err
	}
	total, err := repos.Inventory.TotalForProduct(ctx, in.TenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	newCost := inventory.CostCalculator(total, product.Cost, in.Quantity, unitCost)
	if err := repos.Products.UpdateCost(ctx, in.TenantID, in.ProductID, newCost); err != nil {
		return nil, err
	}
	mov, err := ApplyStockChange(ctx, repos, StockChange{
		TenantID:    in.TenantID,
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementEntrada,
		Delta:       in.Quantity,
		UnitCost:    unitCost,
		Reference:   in.Reference,
		Notes:       in.Notes,
		UserID:      in.UserID,
	}, now)
	if err != nil {
		return nil, err
	}
	return []*entity.Movement{mov}, nil
}

// doSalida: verifica StockActual >= CantidadSolicitada y resta al costo promedio actual.
func (uc *RegisterMovementUseCase) doSalida(ctx context.Context, repos repository.Repositories, product *entity.Product, in MovementInput, now time.Time) ([]*entity.Movement, error) {
	mov, err := ApplyStockChange(ctx, repos, StockChange{
		TenantID:    in.TenantID,
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementSalida,
		Delta:       in.Quantity.Neg(),
		UnitCost:    product.Cost,
		Reference:   in.Reference,
		Notes:       in.Notes,
		UserID:      in.UserID,
	}, now)
	if err != nil {
		return nil, err
	}
	return []*entity.Movement{mov}, nil
}

// doAjuste: fija la cantidad absoluta; el movimiento registra la diferencia.
func (uc *RegisterMovementUseCase) doAjuste(ctx context.Context, repos repository.Repositories, product *entity.Product, in MovementInput, now time.Time) ([]*entity.Movement, error) {
	target := in.Quantity
	mov, err := ApplyStockChange(ctx, repos, StockChange{
		TenantID:    in.TenantID,
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementAjuste,
		SetTo:       &target,
		UnitCost:    product.Cost,
		Reference:   in.Reference,
		Notes:       in.Notes,
		UserID:      in.UserID,
	}, now)
	if err != nil {
		return nil, err
	}
	return []*entity.Movement{mov}, nil
}

// doTransferencia: resta del almacén origen y suma en destino en la misma transacción; dos movimientos
// con la misma referencia. Las filas se bloquean en orden estable para evitar interbloqueos.
func (uc *RegisterMovementUseCase) doTransferencia(ctx context.Context, repos repository.Repositories, product *entity.Product, in MovementInput, now time.Time) ([]*entity.Movement, error) {
	first, second := in.FromWarehouseID, in.ToWarehouseID
	if second < first {
		first, second = second, first
	}
	for _, wh := range []string{first, second} {
		if _, err := repos.Inventory.GetForUpdate(ctx, in.TenantID, wh, in.ProductID); err != nil {
			return nil, err
		}
	}

	ref := in.Reference
	if ref == "" {
		ref = "TR-" + uuid.New().String()[:8]
	}
	out, err := ApplyStockChange(ctx, repos, StockChange{
		TenantID:    in.TenantID,
		WarehouseID: in.FromWarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementTransferencia,
		Delta:       in.Quantity.Neg(),
		UnitCost:    product.Cost,
		Reference:   ref,
		Notes:       in.Notes,
		UserID:      in.UserID,
	}, now)
	if err != nil {
		return nil, err
	}
	inMov, err := ApplyStockChange(ctx, repos, StockChange{
		TenantID:    in.TenantID,
		WarehouseID: in.ToWarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementTransferencia,
		Delta:       in.Quantity,
		UnitCost:    product.Cost,
		Reference:   ref,
		Notes:       in.Notes,
		UserID:      in.UserID,
	}, now)
	if err != nil {
		return nil, err
	}
	return []*entity.Movement{out, inMov}, nil
}

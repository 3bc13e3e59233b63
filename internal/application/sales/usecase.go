// Package sales casos de uso del punto de venta: registrar, anular, consultar y emitir recibos.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/event"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	domainsales "github.com/jhoicas/Tienda-api/internal/domain/sales"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

var maxTaxRate = decimal.NewFromInt(100)

// SaleUseCase casos de uso de ventas.
type SaleUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	saleRepo      repository.SaleRepository
	limits        LimitChecker
	locker        inventory.StockLocker
	publisher     EventPublisher
	log           *logger.Logger
	now           func() time.Time
}

// Deps dependencias opcionales del caso de uso.
type Deps struct {
	Limits    LimitChecker          // nil = sin tope de ventas
	Locker    inventory.StockLocker // nil = solo bloqueo de fila en BD
	Publisher EventPublisher        // nil = no se publican eventos
	Log       *logger.Logger
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	saleRepo repository.SaleRepository,
	deps Deps,
) *SaleUseCase {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &SaleUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		saleRepo:      saleRepo,
		limits:        deps.Limits,
		locker:        deps.Locker,
		publisher:     deps.Publisher,
		log:           log.Component("sales"),
		now:           time.Now,
	}
}

type pricedItem struct {
	product *entity.Product
	line    domainsales.Line
}

// CreateSale registra la venta completa en una sola transacción: cabecera con consecutivo,
// líneas, descuento de inventario por línea (SELECT FOR UPDATE) y movimientos tipo venta.
// Un faltante de stock en cualquier línea revierte todo (ErrInsufficientStock).
// El tope mensual se verifica con la fila del consecutivo ya bloqueada, así las ventas
// concurrentes de una organización lo evalúan de a una.
// Tras el commit publica sale.created; un fallo al publicar solo se registra en el log.
func (uc *SaleUseCase) CreateSale(ctx context.Context, tenantID, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene productos", domain.ErrInvalidInput)
	}
	if !entity.ValidPaymentMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, in.PaymentMethod)
	}
	if in.Discount.IsNegative() || in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(maxTaxRate) {
		return nil, fmt.Errorf("%w: descuento o impuesto fuera de rango", domain.ErrInvalidInput)
	}

	wh, err := uc.warehouseRepo.GetByID(ctx, tenantID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || !wh.Active {
		return nil, fmt.Errorf("%w: almacén", domain.ErrNotFound)
	}

	items, err := uc.priceItems(ctx, tenantID, in.Items)
	if err != nil {
		return nil, err
	}
	lines := make([]domainsales.Line, len(items))
	for i, it := range items {
		lines[i] = it.line
	}
	totals := domainsales.Compute(lines, in.Discount, in.TaxRate)
	if in.Discount.GreaterThan(totals.Subtotal) {
		return nil, fmt.Errorf("%w: el descuento supera el subtotal", domain.ErrInvalidInput)
	}

	paid := totals.Total
	if in.AmountPaid != nil {
		paid = *in.AmountPaid
	}
	if in.PaymentMethod == entity.PaymentCash && in.AmountPaid == nil {
		return nil, fmt.Errorf("%w: monto pagado requerido en efectivo", domain.ErrInvalidInput)
	}
	if paid.LessThan(totals.Total) {
		return nil, fmt.Errorf("%w: el monto pagado no cubre el total", domain.ErrInvalidInput)
	}

	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, inventory.LockKey(tenantID, wh.ID, it.product.ID))
	}
	release, err := uc.acquire(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		WarehouseID:   wh.ID,
		UserID:        userID,
		CustomerName:  in.CustomerName,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		AmountPaid:    paid,
		Change:        domainsales.Change(totals.Total, paid),
		Status:        entity.SaleStatusCompleted,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	details := make([]*entity.SaleDetail, 0, len(items))

	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		number, err := repos.Sales.NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		sale.Number = number
		if uc.limits != nil {
			if err := uc.limits.CheckLimit(ctx, tenantID, entity.ResourceSalesMonth); err != nil {
				return err
			}
		}
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.product.ID)
		}
		locked, err := inventory.LockProducts(ctx, repos, tenantID, ids...)
		if err != nil {
			return err
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		for _, it := range items {
			product := locked[it.product.ID]
			if !product.Active {
				return fmt.Errorf("%w: producto inactivo %s", domain.ErrInvalidInput, product.SKU)
			}
			d := &entity.SaleDetail{
				ID:          uuid.New().String(),
				SaleID:      sale.ID,
				ProductID:   it.product.ID,
				ProductName: it.product.Name,
				Quantity:    it.line.Quantity,
				UnitPrice:   it.line.UnitPrice,
				Discount:    it.line.Discount,
				Subtotal:    it.line.Subtotal(),
			}
			if err := repos.Sales.CreateDetail(ctx, d); err != nil {
				return err
			}
			if _, err := inventory.ApplyStockChange(ctx, repos, inventory.StockChange{
				TenantID:    tenantID,
				WarehouseID: wh.ID,
				ProductID:   it.product.ID,
				Type:        entity.MovementVenta,
				Delta:       it.line.Quantity.Neg(),
				UnitCost:    product.Cost,
				Reference:   number,
				UserID:      userID,
			}, now); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, it.product.Name)
				}
				return err
			}
			details = append(details, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("tenant_id", tenantID).Str("sale_id", sale.ID).Str("number", sale.Number).
		Str("total", sale.Total.String()).Msg("venta registrada")
	uc.publish(ctx, saleEvent(event.SaleCreated, sale, details, now))

	out := ToSaleResponse(sale, details)
	return &out, nil
}

// priceItems carga cada producto (debe existir, pertenecer a la organización y estar activo)
// y arma la línea de cálculo; el precio por defecto es el del producto.
func (uc *SaleUseCase) priceItems(ctx context.Context, tenantID string, reqItems []dto.SaleItemRequest) ([]pricedItem, error) {
	out := make([]pricedItem, 0, len(reqItems))
	for _, it := range reqItems {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cantidad debe ser mayor que cero", domain.ErrInvalidInput)
		}
		if it.Discount.IsNegative() {
			return nil, fmt.Errorf("%w: descuento de línea negativo", domain.ErrInvalidInput)
		}
		p, err := uc.productRepo.GetByID(ctx, tenantID, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: producto inactivo %s", domain.ErrInvalidInput, p.SKU)
		}
		price := p.Price
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				return nil, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
			}
			price = *it.UnitPrice
		}
		line := domainsales.Line{Quantity: it.Quantity, UnitPrice: price, Discount: it.Discount}
		if line.Subtotal().IsNegative() {
			return nil, fmt.Errorf("%w: el descuento supera el valor de la línea", domain.ErrInvalidInput)
		}
		out = append(out, pricedItem{product: p, line: line})
	}
	return out, nil
}

// CancelSale anula una venta completada: devuelve el stock con movimientos tipo devolucion
// y marca la venta como anulada, todo en una transacción.
func (uc *SaleUseCase) CancelSale(ctx context.Context, tenantID, userID, saleID, reason string) (*dto.SaleResponse, error) {
	existing, err := uc.saleRepo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	pre, err := uc.saleRepo.ListDetails(ctx, saleID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(pre))
	for _, d := range pre {
		keys = append(keys, inventory.LockKey(tenantID, existing.WarehouseID, d.ProductID))
	}
	release, err := uc.acquire(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	now := uc.now()
	var (
		sale    *entity.Sale
		details []*entity.SaleDetail
	)
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		s, err := repos.Sales.GetForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.Status != entity.SaleStatusCompleted {
			return fmt.Errorf("%w: la venta %s ya está %s", domain.ErrConflict, s.Number, s.Status)
		}
		ds, err := repos.Sales.ListDetails(ctx, s.ID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(ds))
		for _, d := range ds {
			ids = append(ids, d.ProductID)
		}
		if _, err := inventory.LockProducts(ctx, repos, tenantID, ids...); err != nil {
			return err
		}
		for _, d := range ds {
			if _, err := inventory.ApplyStockChange(ctx, repos, inventory.StockChange{
				TenantID:    tenantID,
				WarehouseID: s.WarehouseID,
				ProductID:   d.ProductID,
				Type:        entity.MovementDevolucion,
				Delta:       d.Quantity,
				Reference:   s.Number,
				Notes:       reason,
				UserID:      userID,
			}, now); err != nil {
				return err
			}
		}
		s.Status = entity.SaleStatusCanceled
		s.CancelReason = reason
		s.UpdatedAt = now
		if err := repos.Sales.UpdateStatus(ctx, s); err != nil {
			return err
		}
		sale, details = s, ds
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("tenant_id", tenantID).Str("sale_id", sale.ID).Str("number", sale.Number).Msg("venta anulada")
	ev := saleEvent(event.SaleCancelled, sale, details, now)
	ev.UserID = userID
	ev.Reason = reason
	uc.publish(ctx, ev)

	out := ToSaleResponse(sale, details)
	return &out, nil
}

// GetSale venta con sus líneas.
func (uc *SaleUseCase) GetSale(ctx context.Context, tenantID, saleID string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	details, err := uc.saleRepo.ListDetails(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	out := ToSaleResponse(sale, details)
	return &out, nil
}

// ListSales ventas paginadas con filtros de fecha, almacén, estado y vendedor.
func (uc *SaleUseCase) ListSales(ctx context.Context, tenantID string, in dto.SaleFilterRequest) (*dto.SaleListResponse, error) {
	in.DefaultPage()
	from, to, err := inventory.ParseDateRange(in.From, in.To)
	if err != nil {
		return nil, err
	}
	sales, total, err := uc.saleRepo.List(ctx, repository.SaleFilter{
		TenantID:    tenantID,
		WarehouseID: in.WarehouseID,
		UserID:      in.UserID,
		Status:      in.Status,
		From:        from,
		To:          to,
		Limit:       in.Limit,
		Offset:      in.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, ToSaleResponse(s, nil))
	}
	return &dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

func (uc *SaleUseCase) acquire(ctx context.Context, keys []string) (func(), error) {
	if uc.locker == nil || len(keys) == 0 {
		return func() {}, nil
	}
	return uc.locker.Acquire(ctx, keys)
}

// publish es best effort: la venta ya está confirmada.
func (uc *SaleUseCase) publish(ctx context.Context, ev event.SaleEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", ev.EventType).Str("sale_id", ev.SaleID).Msg("no se pudo publicar el evento de venta")
	}
}

func saleEvent(eventType string, s *entity.Sale, details []*entity.SaleDetail, now time.Time) event.SaleEvent {
	items := make([]event.SaleItem, 0, len(details))
	for _, d := range details {
		items = append(items, event.SaleItem{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	return event.SaleEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		TenantID:    s.TenantID,
		SaleID:      s.ID,
		Number:      s.Number,
		WarehouseID: s.WarehouseID,
		UserID:      s.UserID,
		Total:       s.Total,
		Items:       items,
		OccurredAt:  now,
	}
}

// ToSaleResponse mapea la venta y sus líneas al DTO.
func ToSaleResponse(s *entity.Sale, details []*entity.SaleDetail) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:            s.ID,
		Number:        s.Number,
		WarehouseID:   s.WarehouseID,
		UserID:        s.UserID,
		CustomerName:  s.CustomerName,
		PaymentMethod: s.PaymentMethod,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Tax:           s.Tax,
		Total:         s.Total,
		AmountPaid:    s.AmountPaid,
		Change:        s.Change,
		Status:        s.Status,
		Notes:         s.Notes,
		CancelReason:  s.CancelReason,
		CreatedAt:     s.CreatedAt,
	}
	for _, d := range details {
		out.Items = append(out.Items, dto.SaleDetailResponse{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Discount:    d.Discount,
			Subtotal:    d.Subtotal,
		})
	}
	return out
}

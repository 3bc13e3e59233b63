package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
)

// InventoryHandler maneja movimientos y consultas de inventario.
type InventoryHandler struct {
	movements *inventory.RegisterMovementUseCase
	query     *inventory.QueryUseCase
	lowStock  *inventory.LowStockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements *inventory.RegisterMovementUseCase, query *inventory.QueryUseCase, lowStock *inventory.LowStockUseCase) *InventoryHandler {
	return &InventoryHandler{movements: movements, query: query, lowStock: lowStock}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  entrada, salida, ajuste (cantidad absoluta) o transferencia entre almacenes.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	created, err := h.movements.RegisterMovement(c.UserContext(), inventory.MovementInput{
		TenantID:        GetTenantID(c),
		UserID:          GetUserID(c),
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		Reference:       in.Reference,
		Notes:           in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(created))
	for _, m := range created {
		out = append(out, inventory.ToMovementResponse(m))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List inventario por almacén y producto.
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var in dto.InventoryFilterRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.query.ListInventory(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListMovements historial de movimientos.
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var in dto.MovementFilterRequest
	if err := bindQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.query.ListMovements(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LowStock productos en o bajo el stock mínimo con cantidad sugerida.
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.lowStock.LowStock(c.UserContext(), GetTenantID(c), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

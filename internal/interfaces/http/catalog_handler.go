package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
)

// CatalogHandler categorías y unidades de medida.
type CatalogHandler struct {
	categories *usecase.CategoryUseCase
	units      *usecase.UnitUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(categories *usecase.CategoryUseCase, units *usecase.UnitUseCase) *CatalogHandler {
	return &CatalogHandler{categories: categories, units: units}
}

// ListCategories godoc
// @Summary      Listar categorías
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "Texto a buscar en el nombre"
// @Success      200  {array}  dto.CategoryResponse
// @Router       /api/categories [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.categories.List(c.UserContext(), GetTenantID(c), c.Query("search"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCategory crea una categoría.
// @Router       /api/categories [post]
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.categories.Create(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateCategory actualiza nombre y descripción.
// @Router       /api/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var in dto.CategoryRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.categories.Update(c.UserContext(), GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteCategory elimina la categoría; 409 REFERENCE_IN_USE si tiene productos.
// @Router       /api/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), GetTenantID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUnits unidades de medida de la organización.
// @Router       /api/units [get]
func (h *CatalogHandler) ListUnits(c *fiber.Ctx) error {
	out, err := h.units.List(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateUnit crea una unidad.
// @Router       /api/units [post]
func (h *CatalogHandler) CreateUnit(c *fiber.Ctx) error {
	var in dto.UnitRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.units.Create(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateUnit actualiza la unidad.
// @Router       /api/units/{id} [put]
func (h *CatalogHandler) UpdateUnit(c *fiber.Ctx) error {
	var in dto.UnitRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.units.Update(c.UserContext(), GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteUnit elimina la unidad.
// @Router       /api/units/{id} [delete]
func (h *CatalogHandler) DeleteUnit(c *fiber.Ctx) error {
	if err := h.units.Delete(c.UserContext(), GetTenantID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

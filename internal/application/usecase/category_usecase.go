package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// CategoryUseCase CRUD de categorías.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

func (uc *CategoryUseCase) Create(ctx context.Context, tenantID string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	now := time.Now()
	c := &entity.Category{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	out := toCategoryResponse(c)
	return &out, nil
}

func (uc *CategoryUseCase) Update(ctx context.Context, tenantID, id string, in dto.CategoryRequest) (*dto.CategoryResponse, error) {
	c, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	out := toCategoryResponse(c)
	return &out, nil
}

// Delete falla con ErrReferenceInUse si hay productos en la categoría.
func (uc *CategoryUseCase) Delete(ctx context.Context, tenantID, id string) error {
	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *CategoryUseCase) List(ctx context.Context, tenantID, search string) ([]dto.CategoryResponse, error) {
	list, err := uc.repo.List(ctx, tenantID, search)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	return out, nil
}

func toCategoryResponse(c *entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

// UnitUseCase CRUD de unidades de medida.
type UnitUseCase struct {
	repo repository.UnitRepository
}

// NewUnitUseCase construye el caso de uso.
func NewUnitUseCase(repo repository.UnitRepository) *UnitUseCase {
	return &UnitUseCase{repo: repo}
}

func (uc *UnitUseCase) Create(ctx context.Context, tenantID string, in dto.UnitRequest) (*dto.UnitResponse, error) {
	now := time.Now()
	u := &entity.Unit{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(in.Name),
		Abbreviation: strings.TrimSpace(in.Abbreviation),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return &dto.UnitResponse{ID: u.ID, Name: u.Name, Abbreviation: u.Abbreviation}, nil
}

func (uc *UnitUseCase) Update(ctx context.Context, tenantID, id string, in dto.UnitRequest) (*dto.UnitResponse, error) {
	u, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Abbreviation = strings.TrimSpace(in.Abbreviation)
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return &dto.UnitResponse{ID: u.ID, Name: u.Name, Abbreviation: u.Abbreviation}, nil
}

// Delete falla con ErrReferenceInUse si algún producto usa la unidad.
func (uc *UnitUseCase) Delete(ctx context.Context, tenantID, id string) error {
	return uc.repo.Delete(ctx, tenantID, id)
}

func (uc *UnitUseCase) List(ctx context.Context, tenantID string) ([]dto.UnitResponse, error) {
	list, err := uc.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UnitResponse, 0, len(list))
	for _, u := range list {
		out = append(out, dto.UnitResponse{ID: u.ID, Name: u.Name, Abbreviation: u.Abbreviation})
	}
	return out, nil
}

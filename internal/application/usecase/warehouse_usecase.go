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

// WarehouseUseCase casos de uso CRUD para almacenes.
type WarehouseUseCase struct {
	repo     repository.WarehouseRepository
	txRunner TxRunner
	limits   LimitChecker
}

// NewWarehouseUseCase construye el caso de uso. limits puede ser nil.
func NewWarehouseUseCase(repo repository.WarehouseRepository, txRunner TxRunner, limits LimitChecker) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, txRunner: txRunner, limits: limits}
}

// Create crea un almacén. Si es principal, los demás dejan de serlo.
func (uc *WarehouseUseCase) Create(ctx context.Context, tenantID string, in dto.WarehouseRequest) (*dto.WarehouseResponse, error) {
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, tenantID, entity.ResourceWarehouses); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	w := &entity.Warehouse{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(in.Name),
		Address:   in.Address,
		Phone:     in.Phone,
		IsMain:    in.IsMain,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if w.IsMain {
			if err := clearMain(ctx, repos.Warehouses, tenantID, w.ID, now); err != nil {
				return err
			}
		}
		return repos.Warehouses.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	out := toWarehouseResponse(w)
	return &out, nil
}

// GetByID obtiene un almacén de la organización.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, tenantID, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	out := toWarehouseResponse(w)
	return &out, nil
}

// Update reemplaza los datos del almacén.
func (uc *WarehouseUseCase) Update(ctx context.Context, tenantID, id string, in dto.WarehouseRequest) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	w.Name = strings.TrimSpace(in.Name)
	w.Address = in.Address
	w.Phone = in.Phone
	w.IsMain = in.IsMain
	if in.Active != nil {
		w.Active = *in.Active
	}
	w.UpdatedAt = now
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if w.IsMain {
			if err := clearMain(ctx, repos.Warehouses, tenantID, w.ID, now); err != nil {
				return err
			}
		}
		return repos.Warehouses.Update(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	out := toWarehouseResponse(w)
	return &out, nil
}

// List almacenes de la organización.
func (uc *WarehouseUseCase) List(ctx context.Context, tenantID string, activeOnly bool) ([]dto.WarehouseResponse, error) {
	list, err := uc.repo.List(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		out = append(out, toWarehouseResponse(w))
	}
	return out, nil
}

// Delete falla con ErrReferenceInUse si el almacén tiene ventas o movimientos.
func (uc *WarehouseUseCase) Delete(ctx context.Context, tenantID, id string) error {
	w, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if w == nil {
		return domain.ErrNotFound
	}
	return uc.repo.Delete(ctx, tenantID, id)
}

func clearMain(ctx context.Context, repo repository.WarehouseRepository, tenantID, keepID string, now time.Time) error {
	list, err := repo.List(ctx, tenantID, false)
	if err != nil {
		return err
	}
	for _, other := range list {
		if other.ID == keepID || !other.IsMain {
			continue
		}
		other.IsMain = false
		other.UpdatedAt = now
		if err := repo.Update(ctx, other); err != nil {
			return err
		}
	}
	return nil
}

func toWarehouseResponse(w *entity.Warehouse) dto.WarehouseResponse {
	return dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Address:   w.Address,
		Phone:     w.Phone,
		IsMain:    w.IsMain,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
	}
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// NewRepositories construye todos los repositorios sobre el mismo Querier (pool o tx).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Tenants:       NewTenantRepository(q),
		TenantUsers:   NewTenantUserRepository(q),
		PlanLimits:    NewPlanLimitRepository(q),
		Subscriptions: NewSubscriptionRepository(q),
		AuthUsers:     NewAuthUserRepository(q),
		Profiles:      NewProfileRepository(q),
		UserRoles:     NewUserRoleRepository(q),
		Categories:    NewCategoryRepository(q),
		Units:         NewUnitRepository(q),
		Products:      NewProductRepository(q),
		Warehouses:    NewWarehouseRepository(q),
		Inventory:     NewInventoryRepository(q),
		Movements:     NewMovementRepository(q),
		Sales:         NewSaleRepository(q),
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

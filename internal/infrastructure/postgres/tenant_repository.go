package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var (
	_ repository.TenantRepository       = (*TenantRepo)(nil)
	_ repository.TenantUserRepository   = (*TenantUserRepo)(nil)
	_ repository.PlanLimitRepository    = (*PlanLimitRepo)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)
)

// TenantRepo implementación de TenantRepository sobre PostgreSQL.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

const tenantColumns = `id, name, slug, status, plan_id, created_at, updated_at`

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.PlanID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persiste una organización.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, status, plan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Slug, t.Status, t.PlanID, t.CreatedAt, t.UpdatedAt)
	return wrap("insert tenant", err)
}

// GetByID obtiene una organización; nil si no existe.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get tenant", err)
	}
	return t, nil
}

// GetBySlug obtiene una organización por slug; nil si no existe.
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error) {
	t, err := scanTenant(r.q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get tenant by slug", err)
	}
	return t, nil
}

// GetByIDs obtiene varias organizaciones en una sola consulta.
func (r *TenantRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Tenant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ANY($1::uuid[]) ORDER BY name`, ids)
	if err != nil {
		return nil, wrap("list tenants", err)
	}
	defer rows.Close()
	var out []*entity.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, wrap("scan tenant", err)
		}
		out = append(out, t)
	}
	return out, wrap("list tenants", rows.Err())
}

// UpdatePlan cambia el plan de la organización.
func (r *TenantRepo) UpdatePlan(ctx context.Context, id, planID string) error {
	_, err := r.q.Exec(ctx, `UPDATE tenants SET plan_id = $2, updated_at = now() WHERE id = $1`, id, planID)
	return wrap("update tenant plan", err)
}

// TenantUserRepo membresías sobre PostgreSQL.
type TenantUserRepo struct {
	q Querier
}

// NewTenantUserRepository construye el adaptador de membresías.
func NewTenantUserRepository(q Querier) *TenantUserRepo {
	return &TenantUserRepo{q: q}
}

func scanTenantUser(row pgx.Row) (*entity.TenantUser, error) {
	var m entity.TenantUser
	if err := row.Scan(&m.TenantID, &m.UserID, &m.Role, &m.IsDefault, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *TenantUserRepo) list(ctx context.Context, query string, arg string) ([]*entity.TenantUser, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, wrap("list tenant users", err)
	}
	defer rows.Close()
	var out []*entity.TenantUser
	for rows.Next() {
		m, err := scanTenantUser(rows)
		if err != nil {
			return nil, wrap("scan tenant user", err)
		}
		out = append(out, m)
	}
	return out, wrap("list tenant users", rows.Err())
}

// Add agrega una membresía.
func (r *TenantUserRepo) Add(ctx context.Context, m *entity.TenantUser) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tenant_users (tenant_id, user_id, role, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.TenantID, m.UserID, m.Role, m.IsDefault, m.CreatedAt)
	return wrap("insert tenant user", err)
}

// Get devuelve la membresía o nil.
func (r *TenantUserRepo) Get(ctx context.Context, tenantID, userID string) (*entity.TenantUser, error) {
	m, err := scanTenantUser(r.q.QueryRow(ctx, `
		SELECT tenant_id, user_id, role, is_default, created_at
		FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get tenant user", err)
	}
	return m, nil
}

// ListByUser membresías del usuario; la por defecto primero, luego por antigüedad.
func (r *TenantUserRepo) ListByUser(ctx context.Context, userID string) ([]*entity.TenantUser, error) {
	return r.list(ctx, `
		SELECT tenant_id, user_id, role, is_default, created_at
		FROM tenant_users WHERE user_id = $1
		ORDER BY is_default DESC, created_at`, userID)
}

// ListByTenant miembros de la organización.
func (r *TenantUserRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.TenantUser, error) {
	return r.list(ctx, `
		SELECT tenant_id, user_id, role, is_default, created_at
		FROM tenant_users WHERE tenant_id = $1
		ORDER BY created_at`, tenantID)
}

// CountByTenant cantidad de miembros.
func (r *TenantUserRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM tenant_users WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, wrap("count tenant users", err)
}

// UpdateRole cambia el rol de la membresía.
func (r *TenantUserRepo) UpdateRole(ctx context.Context, tenantID, userID, role string) error {
	_, err := r.q.Exec(ctx, `UPDATE tenant_users SET role = $3 WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID, role)
	return wrap("update tenant user role", err)
}

// SetDefault deja una sola membresía por defecto para el usuario.
func (r *TenantUserRepo) SetDefault(ctx context.Context, userID, tenantID string) error {
	_, err := r.q.Exec(ctx, `UPDATE tenant_users SET is_default = (tenant_id = $2) WHERE user_id = $1`, userID, tenantID)
	return wrap("set default tenant", err)
}

// Remove elimina la membresía.
func (r *TenantUserRepo) Remove(ctx context.Context, tenantID, userID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	return wrap("delete tenant user", err)
}

// PlanLimitRepo lectura de plan_limits.
type PlanLimitRepo struct {
	q Querier
}

// NewPlanLimitRepository construye el adaptador.
func NewPlanLimitRepository(q Querier) *PlanLimitRepo {
	return &PlanLimitRepo{q: q}
}

// Get devuelve los topes del plan o nil si no está definido.
func (r *PlanLimitRepo) Get(ctx context.Context, planID string) (*entity.PlanLimit, error) {
	var p entity.PlanLimit
	err := r.q.QueryRow(ctx, `
		SELECT plan_id, max_products, max_users, max_warehouses, max_sales_per_month
		FROM plan_limits WHERE plan_id = $1`, planID).
		Scan(&p.PlanID, &p.MaxProducts, &p.MaxUsers, &p.MaxWarehouses, &p.MaxSalesPerMonth)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get plan limits", err)
	}
	return &p, nil
}

// SubscriptionRepo suscripciones sobre PostgreSQL.
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador.
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

const subscriptionColumns = `id, tenant_id, plan_id, status, stripe_customer_id, stripe_subscription_id, current_period_end, created_at, updated_at`

func (r *SubscriptionRepo) getOne(ctx context.Context, where string, arg string) (*entity.Subscription, error) {
	var s entity.Subscription
	err := r.q.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, arg).Scan(
		&s.ID, &s.TenantID, &s.PlanID, &s.Status, &s.StripeCustomerID, &s.StripeSubscriptionID,
		&s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get subscription", err)
	}
	return &s, nil
}

// GetByTenant suscripción de la organización o nil.
func (r *SubscriptionRepo) GetByTenant(ctx context.Context, tenantID string) (*entity.Subscription, error) {
	return r.getOne(ctx, `tenant_id = $1`, tenantID)
}

// GetByStripeSubscriptionID busca por id de suscripción de Stripe.
func (r *SubscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*entity.Subscription, error) {
	return r.getOne(ctx, `stripe_subscription_id = $1`, stripeSubID)
}

// Upsert inserta o actualiza la suscripción de la organización.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *entity.Subscription) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO subscriptions (id, tenant_id, plan_id, status, stripe_customer_id, stripe_subscription_id, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = now()`,
		s.ID, s.TenantID, s.PlanID, s.Status, s.StripeCustomerID, s.StripeSubscriptionID, s.CurrentPeriodEnd)
	return wrap("upsert subscription", err)
}

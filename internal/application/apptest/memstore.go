// Package apptest repositorios en memoria para pruebas de casos de uso.
// Store.Run copia el estado, ejecuta la función y solo publica los cambios si no hubo error,
// de modo que las pruebas verifican el rollback igual que con PostgreSQL.
package apptest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

type data struct {
	tenants    map[string]entity.Tenant
	members    map[string]entity.TenantUser // tenant|user
	limits     map[string]entity.PlanLimit
	subs       map[string]entity.Subscription // por tenant
	authUsers  map[string]entity.AuthUser
	profiles   map[string]entity.Profile
	roles      map[string]entity.UserRole // tenant|user
	categories map[string]entity.Category
	units      map[string]entity.Unit
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	inventory  map[string]entity.InventoryLine // tenant|warehouse|product
	movements  []entity.Movement
	sales      map[string]entity.Sale
	details    []entity.SaleDetail
	seq        map[string]int
}

func newData() *data {
	return &data{
		tenants:    map[string]entity.Tenant{},
		members:    map[string]entity.TenantUser{},
		limits:     map[string]entity.PlanLimit{},
		subs:       map[string]entity.Subscription{},
		authUsers:  map[string]entity.AuthUser{},
		profiles:   map[string]entity.Profile{},
		roles:      map[string]entity.UserRole{},
		categories: map[string]entity.Category{},
		units:      map[string]entity.Unit{},
		products:   map[string]entity.Product{},
		warehouses: map[string]entity.Warehouse{},
		inventory:  map[string]entity.InventoryLine{},
		sales:      map[string]entity.Sale{},
		seq:        map[string]int{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		tenants:    cloneMap(d.tenants),
		members:    cloneMap(d.members),
		limits:     cloneMap(d.limits),
		subs:       cloneMap(d.subs),
		authUsers:  cloneMap(d.authUsers),
		profiles:   cloneMap(d.profiles),
		roles:      cloneMap(d.roles),
		categories: cloneMap(d.categories),
		units:      cloneMap(d.units),
		products:   cloneMap(d.products),
		warehouses: cloneMap(d.warehouses),
		inventory:  cloneMap(d.inventory),
		movements:  append([]entity.Movement(nil), d.movements...),
		sales:      cloneMap(d.sales),
		details:    append([]entity.SaleDetail(nil), d.details...),
		seq:        cloneMap(d.seq),
	}
}

func key(parts ...string) string { return strings.Join(parts, "|") }

// Store base de datos en memoria. El valor cero no es usable: usar NewStore.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	d    *data

	// FailOn fuerza un error en la operación indicada ("Movements.Create", "Sales.CreateDetail"...).
	FailOn map[string]error
	// Commits cuenta transacciones confirmadas.
	Commits int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{d: newData(), FailOn: map[string]error{}}
}

// view acceso a un estado: el compartido (con lock) o la copia de una transacción (sin lock).
type view struct {
	s    *Store
	d    func() *data
	lock bool
}

func (v *view) do(op string, fn func(d *data) error) error {
	if v.lock {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	if err := v.s.FailOn[op]; err != nil {
		return err
	}
	return fn(v.d())
}

func (s *Store) repos(v *view) repository.Repositories {
	return repository.Repositories{
		Tenants:       &tenantRepo{v},
		TenantUsers:   &tenantUserRepo{v},
		PlanLimits:    &planLimitRepo{v},
		Subscriptions: &subscriptionRepo{v},
		AuthUsers:     &authUserRepo{v},
		Profiles:      &profileRepo{v},
		UserRoles:     &userRoleRepo{v},
		Categories:    &categoryRepo{v},
		Units:         &unitRepo{v},
		Products:      &productRepo{v},
		Warehouses:    &warehouseRepo{v},
		Inventory:     &inventoryRepo{v},
		Movements:     &movementRepo{v},
		Sales:         &saleRepo{v},
	}
}

// Repos repositorios sobre el estado compartido (equivalente al pool).
func (s *Store) Repos() repository.Repositories {
	return s.repos(&view{s: s, d: func() *data { return s.d }, lock: true})
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	tx := s.d.clone()
	s.mu.Unlock()

	if err := fn(s.repos(&view{s: s, d: func() *data { return tx }})); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = tx
	s.Commits++
	s.mu.Unlock()
	return nil
}

// Snapshot accesores de lectura para aserciones.

// Stock cantidad actual de un producto en un almacén.
func (s *Store) Stock(tenantID, warehouseID, productID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.inventory[key(tenantID, warehouseID, productID)].Quantity
}

// Movements movimientos registrados, en orden de inserción.
func (s *Store) Movements() []entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Movement(nil), s.d.movements...)
}

// Sales ventas registradas.
func (s *Store) Sales() []entity.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Sale, 0, len(s.d.sales))
	for _, v := range s.d.sales {
		out = append(out, v)
	}
	return out
}

// Details detalles de venta registrados.
func (s *Store) Details() []entity.SaleDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.SaleDetail(nil), s.d.details...)
}

// Seed helpers: insertan directamente en el estado compartido.

func (s *Store) SeedTenant(t entity.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.tenants[t.ID] = t
}

func (s *Store) SeedMember(m entity.TenantUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.members[key(m.TenantID, m.UserID)] = m
}

func (s *Store) SeedPlanLimit(l entity.PlanLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.limits[l.PlanID] = l
}

func (s *Store) SeedAuthUser(u entity.AuthUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.authUsers[u.ID] = u
}

func (s *Store) SeedProfile(p entity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.profiles[p.ID] = p
}

func (s *Store) SeedRole(r entity.UserRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.roles[key(r.TenantID, r.UserID)] = r
}

func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.products[p.ID] = p
}

func (s *Store) SeedWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.warehouses[w.ID] = w
}

func (s *Store) SeedStock(tenantID, warehouseID, productID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.inventory[key(tenantID, warehouseID, productID)] = entity.InventoryLine{
		TenantID: tenantID, WarehouseID: warehouseID, ProductID: productID, Quantity: qty,
	}
}

func (s *Store) SeedSale(sale entity.Sale, details ...entity.SaleDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.sales[sale.ID] = sale
	s.d.details = append(s.d.details, details...)
}

// Product lectura directa de un producto.
func (s *Store) Product(id string) (entity.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.d.products[id]
	return p, ok
}

// Profile lectura directa de un perfil.
func (s *Store) Profile(id string) (entity.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.d.profiles[id]
	return p, ok
}

// Role lectura directa de un rol.
func (s *Store) Role(tenantID, userID string) (entity.UserRole, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.d.roles[key(tenantID, userID)]
	return r, ok
}

// Subscription lectura directa de la suscripción de una organización.
func (s *Store) Subscription(tenantID string) (entity.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.d.subs[tenantID]
	return sub, ok
}

// Tenant lectura directa de una organización.
func (s *Store) Tenant(id string) (entity.Tenant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.d.tenants[id]
	return t, ok
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---- tenancy ----

type tenantRepo struct{ v *view }

func (r *tenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	return r.v.do("Tenants.Create", func(d *data) error {
		for _, other := range d.tenants {
			if other.Slug == t.Slug {
				return domain.ErrDuplicate
			}
		}
		d.tenants[t.ID] = *t
		return nil
	})
}

func (r *tenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	var out *entity.Tenant
	err := r.v.do("Tenants.GetByID", func(d *data) error {
		if t, ok := d.tenants[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *tenantRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Tenant, error) {
	var out []*entity.Tenant
	err := r.v.do("Tenants.GetByIDs", func(d *data) error {
		for _, id := range ids {
			if t, ok := d.tenants[id]; ok {
				out = append(out, &t)
			}
		}
		return nil
	})
	return out, err
}

func (r *tenantRepo) GetBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	var out *entity.Tenant
	err := r.v.do("Tenants.GetBySlug", func(d *data) error {
		for _, t := range d.tenants {
			if t.Slug == slug {
				out = &t
			}
		}
		return nil
	})
	return out, err
}

func (r *tenantRepo) UpdatePlan(_ context.Context, id, planID string) error {
	return r.v.do("Tenants.UpdatePlan", func(d *data) error {
		t, ok := d.tenants[id]
		if !ok {
			return domain.ErrNotFound
		}
		t.PlanID = planID
		d.tenants[id] = t
		return nil
	})
}

type tenantUserRepo struct{ v *view }

func (r *tenantUserRepo) Add(_ context.Context, m *entity.TenantUser) error {
	return r.v.do("TenantUsers.Add", func(d *data) error {
		k := key(m.TenantID, m.UserID)
		if _, ok := d.members[k]; ok {
			return domain.ErrDuplicate
		}
		d.members[k] = *m
		return nil
	})
}

func (r *tenantUserRepo) Get(_ context.Context, tenantID, userID string) (*entity.TenantUser, error) {
	var out *entity.TenantUser
	err := r.v.do("TenantUsers.Get", func(d *data) error {
		if m, ok := d.members[key(tenantID, userID)]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *tenantUserRepo) list(op string, match func(entity.TenantUser) bool) ([]*entity.TenantUser, error) {
	var out []*entity.TenantUser
	err := r.v.do(op, func(d *data) error {
		for _, m := range d.members {
			if match(m) {
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return key(out[i].TenantID, out[i].UserID) < key(out[j].TenantID, out[j].UserID) })
	return out, err
}

func (r *tenantUserRepo) ListByUser(_ context.Context, userID string) ([]*entity.TenantUser, error) {
	return r.list("TenantUsers.ListByUser", func(m entity.TenantUser) bool { return m.UserID == userID })
}

func (r *tenantUserRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.TenantUser, error) {
	return r.list("TenantUsers.ListByTenant", func(m entity.TenantUser) bool { return m.TenantID == tenantID })
}

func (r *tenantUserRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	ms, err := r.ListByTenant(ctx, tenantID)
	return len(ms), err
}

func (r *tenantUserRepo) UpdateRole(_ context.Context, tenantID, userID, role string) error {
	return r.v.do("TenantUsers.UpdateRole", func(d *data) error {
		k := key(tenantID, userID)
		m, ok := d.members[k]
		if !ok {
			return domain.ErrNotFound
		}
		m.Role = role
		d.members[k] = m
		return nil
	})
}

func (r *tenantUserRepo) SetDefault(_ context.Context, userID, tenantID string) error {
	return r.v.do("TenantUsers.SetDefault", func(d *data) error {
		for k, m := range d.members {
			if m.UserID == userID {
				m.IsDefault = m.TenantID == tenantID
				d.members[k] = m
			}
		}
		return nil
	})
}

func (r *tenantUserRepo) Remove(_ context.Context, tenantID, userID string) error {
	return r.v.do("TenantUsers.Remove", func(d *data) error {
		k := key(tenantID, userID)
		if _, ok := d.members[k]; !ok {
			return domain.ErrNotFound
		}
		delete(d.members, k)
		return nil
	})
}

type planLimitRepo struct{ v *view }

func (r *planLimitRepo) Get(_ context.Context, planID string) (*entity.PlanLimit, error) {
	var out *entity.PlanLimit
	err := r.v.do("PlanLimits.Get", func(d *data) error {
		if l, ok := d.limits[planID]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

type subscriptionRepo struct{ v *view }

func (r *subscriptionRepo) GetByTenant(_ context.Context, tenantID string) (*entity.Subscription, error) {
	var out *entity.Subscription
	err := r.v.do("Subscriptions.GetByTenant", func(d *data) error {
		if s, ok := d.subs[tenantID]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *subscriptionRepo) GetByStripeSubscriptionID(_ context.Context, id string) (*entity.Subscription, error) {
	var out *entity.Subscription
	err := r.v.do("Subscriptions.GetByStripeSubscriptionID", func(d *data) error {
		for _, s := range d.subs {
			if s.StripeSubscriptionID == id {
				out = &s
			}
		}
		return nil
	})
	return out, err
}

func (r *subscriptionRepo) Upsert(_ context.Context, s *entity.Subscription) error {
	return r.v.do("Subscriptions.Upsert", func(d *data) error {
		d.subs[s.TenantID] = *s
		return nil
	})
}

// ---- identity ----

type authUserRepo struct{ v *view }

func (r *authUserRepo) Create(_ context.Context, u *entity.AuthUser) error {
	return r.v.do("AuthUsers.Create", func(d *data) error {
		for _, other := range d.authUsers {
			if strings.EqualFold(other.Email, u.Email) {
				return domain.ErrEmailAlreadyExists
			}
		}
		u.Email = strings.ToLower(u.Email)
		d.authUsers[u.ID] = *u
		return nil
	})
}

func (r *authUserRepo) GetByID(_ context.Context, id string) (*entity.AuthUser, error) {
	var out *entity.AuthUser
	err := r.v.do("AuthUsers.GetByID", func(d *data) error {
		if u, ok := d.authUsers[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *authUserRepo) GetByEmail(_ context.Context, email string) (*entity.AuthUser, error) {
	var out *entity.AuthUser
	err := r.v.do("AuthUsers.GetByEmail", func(d *data) error {
		for _, u := range d.authUsers {
			if strings.EqualFold(u.Email, email) {
				out = &u
			}
		}
		return nil
	})
	return out, err
}

func (r *authUserRepo) ListAll(_ context.Context) ([]*entity.AuthUser, error) {
	var out []*entity.AuthUser
	err := r.v.do("AuthUsers.ListAll", func(d *data) error {
		for _, u := range d.authUsers {
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *authUserRepo) ListByTenant(_ context.Context, tenantID string) ([]*entity.AuthUser, error) {
	var out []*entity.AuthUser
	err := r.v.do("AuthUsers.ListByTenant", func(d *data) error {
		for _, m := range d.members {
			if m.TenantID != tenantID {
				continue
			}
			if u, ok := d.authUsers[m.UserID]; ok {
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type profileRepo struct{ v *view }

func (r *profileRepo) Create(_ context.Context, p *entity.Profile) error {
	return r.v.do("Profiles.Create", func(d *data) error {
		if _, ok := d.profiles[p.ID]; ok {
			return domain.ErrDuplicate
		}
		d.profiles[p.ID] = *p
		return nil
	})
}

func (r *profileRepo) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	var out *entity.Profile
	err := r.v.do("Profiles.GetByID", func(d *data) error {
		if p, ok := d.profiles[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *profileRepo) Update(_ context.Context, p *entity.Profile) error {
	return r.v.do("Profiles.Update", func(d *data) error {
		if _, ok := d.profiles[p.ID]; !ok {
			return domain.ErrNotFound
		}
		d.profiles[p.ID] = *p
		return nil
	})
}

func (r *profileRepo) ListOrphanIDs(_ context.Context, tenantID string) ([]string, error) {
	var out []string
	err := r.v.do("Profiles.ListOrphanIDs", func(d *data) error {
		for _, role := range d.roles {
			if role.TenantID != tenantID {
				continue
			}
			if _, ok := d.profiles[role.UserID]; !ok {
				continue
			}
			if _, ok := d.authUsers[role.UserID]; !ok {
				out = append(out, role.UserID)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

type userRoleRepo struct{ v *view }

func (r *userRoleRepo) Get(_ context.Context, tenantID, userID string) (*entity.UserRole, error) {
	var out *entity.UserRole
	err := r.v.do("UserRoles.Get", func(d *data) error {
		if ur, ok := d.roles[key(tenantID, userID)]; ok {
			out = &ur
		}
		return nil
	})
	return out, err
}

func (r *userRoleRepo) Create(_ context.Context, ur *entity.UserRole) error {
	return r.v.do("UserRoles.Create", func(d *data) error {
		k := key(ur.TenantID, ur.UserID)
		if _, ok := d.roles[k]; ok {
			return domain.ErrDuplicate
		}
		d.roles[k] = *ur
		return nil
	})
}

func (r *userRoleRepo) UpdateRole(_ context.Context, tenantID, userID, role string) error {
	return r.v.do("UserRoles.UpdateRole", func(d *data) error {
		k := key(tenantID, userID)
		ur, ok := d.roles[k]
		if !ok {
			return domain.ErrNotFound
		}
		ur.Role = role
		d.roles[k] = ur
		return nil
	})
}

func (r *userRoleRepo) Delete(_ context.Context, tenantID, userID string) error {
	return r.v.do("UserRoles.Delete", func(d *data) error {
		delete(d.roles, key(tenantID, userID))
		return nil
	})
}

func (r *userRoleRepo) ListWithName(_ context.Context, tenantID string) ([]*entity.UserRoleWithName, error) {
	var out []*entity.UserRoleWithName
	err := r.v.do("UserRoles.ListWithName", func(d *data) error {
		for _, ur := range d.roles {
			if ur.TenantID != tenantID {
				continue
			}
			p := d.profiles[ur.UserID]
			out = append(out, &entity.UserRoleWithName{
				UserID: ur.UserID, TenantID: ur.TenantID, Role: ur.Role,
				FullName: p.FullName, Email: p.Email, CreatedAt: ur.CreatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, err
}

// ---- catálogo ----

type categoryRepo struct{ v *view }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.v.do("Categories.Create", func(d *data) error {
		for _, o := range d.categories {
			if o.TenantID == c.TenantID && strings.EqualFold(o.Name, c.Name) {
				return domain.ErrDuplicate
			}
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.v.do("Categories.GetByID", func(d *data) error {
		if c, ok := d.categories[id]; ok && c.TenantID == tenantID {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	return r.v.do("Categories.Update", func(d *data) error {
		if o, ok := d.categories[c.ID]; !ok || o.TenantID != c.TenantID {
			return domain.ErrNotFound
		}
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.v.do("Categories.Delete", func(d *data) error {
		if o, ok := d.categories[id]; !ok || o.TenantID != tenantID {
			return domain.ErrNotFound
		}
		for _, p := range d.products {
			if p.CategoryID != nil && *p.CategoryID == id {
				return domain.ErrReferenceInUse
			}
		}
		delete(d.categories, id)
		return nil
	})
}

func (r *categoryRepo) List(_ context.Context, tenantID, search string) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.v.do("Categories.List", func(d *data) error {
		for _, c := range d.categories {
			if c.TenantID == tenantID && (search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search))) {
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type unitRepo struct{ v *view }

func (r *unitRepo) Create(_ context.Context, u *entity.Unit) error {
	return r.v.do("Units.Create", func(d *data) error {
		d.units[u.ID] = *u
		return nil
	})
}

func (r *unitRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Unit, error) {
	var out *entity.Unit
	err := r.v.do("Units.GetByID", func(d *data) error {
		if u, ok := d.units[id]; ok && u.TenantID == tenantID {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *unitRepo) Update(_ context.Context, u *entity.Unit) error {
	return r.v.do("Units.Update", func(d *data) error {
		if o, ok := d.units[u.ID]; !ok || o.TenantID != u.TenantID {
			return domain.ErrNotFound
		}
		d.units[u.ID] = *u
		return nil
	})
}

func (r *unitRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.v.do("Units.Delete", func(d *data) error {
		if o, ok := d.units[id]; !ok || o.TenantID != tenantID {
			return domain.ErrNotFound
		}
		for _, p := range d.products {
			if p.UnitID != nil && *p.UnitID == id {
				return domain.ErrReferenceInUse
			}
		}
		delete(d.units, id)
		return nil
	})
}

func (r *unitRepo) List(_ context.Context, tenantID string) ([]*entity.Unit, error) {
	var out []*entity.Unit
	err := r.v.do("Units.List", func(d *data) error {
		for _, u := range d.units {
			if u.TenantID == tenantID {
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

type productRepo struct{ v *view }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.do("Products.Create", func(d *data) error {
		for _, o := range d.products {
			if o.TenantID == p.TenantID && o.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		d.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do("Products.GetByID", func(d *data) error {
		if p, ok := d.products[id]; ok && p.TenantID == tenantID {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate las transacciones del Store ya son serializadas: equivale a GetByID sobre la copia.
func (r *productRepo) GetForUpdate(_ context.Context, tenantID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do("Products.GetForUpdate", func(d *data) error {
		if p, ok := d.products[id]; ok && p.TenantID == tenantID {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(_ context.Context, tenantID, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do("Products.GetBySKU", func(d *data) error {
		for _, p := range d.products {
			if p.TenantID == tenantID && p.SKU == sku {
				out = &p
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.v.do("Products.Update", func(d *data) error {
		cur, ok := d.products[p.ID]
		if !ok || cur.TenantID != p.TenantID {
			return domain.ErrNotFound
		}
		for _, o := range d.products {
			if o.ID != p.ID && o.TenantID == p.TenantID && o.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		// El costo solo cambia con UpdateCost, igual que en PostgreSQL.
		next := *p
		next.Cost = cur.Cost
		d.products[p.ID] = next
		return nil
	})
}

func (r *productRepo) UpdateCost(_ context.Context, tenantID, id string, cost decimal.Decimal) error {
	return r.v.do("Products.UpdateCost", func(d *data) error {
		p, ok := d.products[id]
		if !ok || p.TenantID != tenantID {
			return domain.ErrNotFound
		}
		p.Cost = cost
		d.products[id] = p
		return nil
	})
}

func (r *productRepo) SetActive(_ context.Context, tenantID, id string, active bool) error {
	return r.v.do("Products.SetActive", func(d *data) error {
		p, ok := d.products[id]
		if !ok || p.TenantID != tenantID {
			return domain.ErrNotFound
		}
		p.Active = active
		d.products[id] = p
		return nil
	})
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	var all []*entity.Product
	err := r.v.do("Products.List", func(d *data) error {
		s := strings.ToLower(f.Search)
		for _, p := range d.products {
			if p.TenantID != f.TenantID || (f.ActiveOnly && !p.Active) {
				continue
			}
			if f.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
				continue
			}
			if s != "" && !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(strings.ToLower(p.SKU), s) && p.Barcode != f.Search {
				continue
			}
			all = append(all, &p)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, f.Limit, f.Offset), len(all), err
}

func (r *productRepo) Count(_ context.Context, tenantID string) (int, error) {
	n := 0
	err := r.v.do("Products.Count", func(d *data) error {
		for _, p := range d.products {
			if p.TenantID == tenantID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *productRepo) HasSales(_ context.Context, tenantID, id string) (bool, error) {
	found := false
	err := r.v.do("Products.HasSales", func(d *data) error {
		for _, det := range d.details {
			if det.ProductID == id && d.sales[det.SaleID].TenantID == tenantID {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *productRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.v.do("Products.Delete", func(d *data) error {
		if p, ok := d.products[id]; !ok || p.TenantID != tenantID {
			return domain.ErrNotFound
		}
		delete(d.products, id)
		for k, line := range d.inventory {
			if line.ProductID == id {
				delete(d.inventory, k)
			}
		}
		return nil
	})
}

type warehouseRepo struct{ v *view }

func (r *warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.v.do("Warehouses.Create", func(d *data) error {
		d.warehouses[w.ID] = *w
		return nil
	})
}

func (r *warehouseRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.v.do("Warehouses.GetByID", func(d *data) error {
		if w, ok := d.warehouses[id]; ok && w.TenantID == tenantID {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.v.do("Warehouses.Update", func(d *data) error {
		if o, ok := d.warehouses[w.ID]; !ok || o.TenantID != w.TenantID {
			return domain.ErrNotFound
		}
		d.warehouses[w.ID] = *w
		return nil
	})
}

func (r *warehouseRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.v.do("Warehouses.Delete", func(d *data) error {
		if o, ok := d.warehouses[id]; !ok || o.TenantID != tenantID {
			return domain.ErrNotFound
		}
		for _, s := range d.sales {
			if s.WarehouseID == id {
				return domain.ErrReferenceInUse
			}
		}
		delete(d.warehouses, id)
		return nil
	})
}

func (r *warehouseRepo) List(_ context.Context, tenantID string, activeOnly bool) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.v.do("Warehouses.List", func(d *data) error {
		for _, w := range d.warehouses {
			if w.TenantID == tenantID && (!activeOnly || w.Active) {
				out = append(out, &w)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *warehouseRepo) Count(ctx context.Context, tenantID string) (int, error) {
	ws, err := r.List(ctx, tenantID, false)
	return len(ws), err
}

// ---- inventario ----

type inventoryRepo struct{ v *view }

func (r *inventoryRepo) Get(_ context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error) {
	var out *entity.InventoryLine
	err := r.v.do("Inventory.Get", func(d *data) error {
		if l, ok := d.inventory[key(tenantID, warehouseID, productID)]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *inventoryRepo) GetForUpdate(_ context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error) {
	var out *entity.InventoryLine
	err := r.v.do("Inventory.GetForUpdate", func(d *data) error {
		k := key(tenantID, warehouseID, productID)
		l, ok := d.inventory[k]
		if !ok {
			l = entity.InventoryLine{TenantID: tenantID, WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}
			d.inventory[k] = l
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *inventoryRepo) Upsert(_ context.Context, line *entity.InventoryLine) error {
	return r.v.do("Inventory.Upsert", func(d *data) error {
		if line.Quantity.IsNegative() {
			return domain.ErrInvalidInput
		}
		d.inventory[key(line.TenantID, line.WarehouseID, line.ProductID)] = *line
		return nil
	})
}

func (r *inventoryRepo) TotalForProduct(_ context.Context, tenantID, productID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.v.do("Inventory.TotalForProduct", func(d *data) error {
		for _, l := range d.inventory {
			if l.TenantID == tenantID && l.ProductID == productID {
				total = total.Add(l.Quantity)
			}
		}
		return nil
	})
	return total, err
}

func (r *inventoryRepo) List(_ context.Context, f repository.InventoryFilter) ([]*repository.InventoryItem, int, error) {
	var all []*repository.InventoryItem
	err := r.v.do("Inventory.List", func(d *data) error {
		for _, l := range d.inventory {
			if l.TenantID != f.TenantID || (f.WarehouseID != "" && l.WarehouseID != f.WarehouseID) {
				continue
			}
			p := d.products[l.ProductID]
			if f.LowStockOnly && (!p.Active || l.Quantity.GreaterThan(p.MinStock)) {
				continue
			}
			if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
				continue
			}
			all = append(all, &repository.InventoryItem{
				WarehouseID: l.WarehouseID, WarehouseName: d.warehouses[l.WarehouseID].Name,
				ProductID: l.ProductID, ProductName: p.Name, SKU: p.SKU,
				Quantity: l.Quantity, MinStock: p.MinStock, Cost: p.Cost, UpdatedAt: l.UpdatedAt,
			})
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool {
		return key(all[i].ProductName, all[i].WarehouseName) < key(all[j].ProductName, all[j].WarehouseName)
	})
	return page(all, f.Limit, f.Offset), len(all), err
}

type movementRepo struct{ v *view }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.v.do("Movements.Create", func(d *data) error {
		d.movements = append(d.movements, *m)
		return nil
	})
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	var all []*entity.Movement
	err := r.v.do("Movements.List", func(d *data) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			m := d.movements[i]
			if m.TenantID != f.TenantID ||
				(f.ProductID != "" && m.ProductID != f.ProductID) ||
				(f.WarehouseID != "" && m.WarehouseID != f.WarehouseID) ||
				(f.Type != "" && m.Type != f.Type) ||
				(f.From != nil && m.CreatedAt.Before(*f.From)) ||
				(f.To != nil && !m.CreatedAt.Before(*f.To)) {
				continue
			}
			all = append(all, &m)
		}
		return nil
	})
	return page(all, f.Limit, f.Offset), len(all), err
}

// ---- ventas ----

type saleRepo struct{ v *view }

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.v.do("Sales.Create", func(d *data) error {
		d.sales[s.ID] = *s
		return nil
	})
}

func (r *saleRepo) CreateDetail(_ context.Context, det *entity.SaleDetail) error {
	return r.v.do("Sales.CreateDetail", func(d *data) error {
		if _, ok := d.sales[det.SaleID]; !ok {
			return domain.ErrReferenceInUse
		}
		d.details = append(d.details, *det)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.v.do("Sales.GetByID", func(d *data) error {
		if s, ok := d.sales[id]; ok && s.TenantID == tenantID {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *saleRepo) ListDetails(_ context.Context, saleID string) ([]*entity.SaleDetail, error) {
	var out []*entity.SaleDetail
	err := r.v.do("Sales.ListDetails", func(d *data) error {
		for _, det := range d.details {
			if det.SaleID == saleID {
				det.ProductName = d.products[det.ProductID].Name
				out = append(out, &det)
			}
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) UpdateStatus(_ context.Context, s *entity.Sale) error {
	return r.v.do("Sales.UpdateStatus", func(d *data) error {
		cur, ok := d.sales[s.ID]
		if !ok || cur.TenantID != s.TenantID {
			return domain.ErrNotFound
		}
		cur.Status = s.Status
		cur.CancelReason = s.CancelReason
		cur.UpdatedAt = s.UpdatedAt
		d.sales[s.ID] = cur
		return nil
	})
}

func (r *saleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	var all []*entity.Sale
	err := r.v.do("Sales.List", func(d *data) error {
		for _, s := range d.sales {
			if s.TenantID != f.TenantID ||
				(f.WarehouseID != "" && s.WarehouseID != f.WarehouseID) ||
				(f.UserID != "" && s.UserID != f.UserID) ||
				(f.Status != "" && s.Status != f.Status) ||
				(f.From != nil && s.CreatedAt.Before(*f.From)) ||
				(f.To != nil && !s.CreatedAt.Before(*f.To)) {
				continue
			}
			all = append(all, &s)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	return page(all, f.Limit, f.Offset), len(all), err
}

func (r *saleRepo) NextNumber(_ context.Context, tenantID string) (string, error) {
	var out string
	err := r.v.do("Sales.NextNumber", func(d *data) error {
		d.seq[tenantID]++
		out = fmt.Sprintf("V-%06d", d.seq[tenantID])
		return nil
	})
	return out, err
}

func (r *saleRepo) CountSince(_ context.Context, tenantID string, since time.Time) (int, error) {
	n := 0
	err := r.v.do("Sales.CountSince", func(d *data) error {
		for _, s := range d.sales {
			if s.TenantID == tenantID && s.Status == entity.SaleStatusCompleted && !s.CreatedAt.Before(since) {
				n++
			}
		}
		return nil
	})
	return n, err
}

package repository

// Repositories agrupa los puertos de persistencia atados a una misma conexión o transacción.
type Repositories struct {
	Tenants       TenantRepository
	TenantUsers   TenantUserRepository
	PlanLimits    PlanLimitRepository
	Subscriptions SubscriptionRepository
	AuthUsers     AuthUserRepository
	Profiles      ProfileRepository
	UserRoles     UserRoleRepository
	Categories    CategoryRepository
	Units         UnitRepository
	Products      ProductRepository
	Warehouses    WarehouseRepository
	Inventory     InventoryRepository
	Movements     MovementRepository
	Sales         SaleRepository
}

package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Tienda-api/internal/application/analytics"
	"github.com/jhoicas/Tienda-api/internal/application/auth"
	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	TenancyUC    *tenancy.UseCase
	BillingUC    *billing.UseCase // nil sin Stripe
	SyncUsersUC  *usecase.SyncUsersUseCase
	UserUC       *usecase.UserUseCase
	CategoryUC   *usecase.CategoryUseCase
	UnitUC       *usecase.UnitUseCase
	ProductUC    *usecase.ProductUseCase
	WarehouseUC  *usecase.WarehouseUseCase
	MovementUC   *inventory.RegisterMovementUseCase
	InventoryQry *inventory.QueryUseCase
	LowStockUC   *inventory.LowStockUseCase
	SaleUC       *sales.SaleUseCase
	ReceiptUC    *sales.ReceiptUseCase
	AnalyticsUC  *analytics.UseCase
	JWTSecret    string
	Revocations  RevocationChecker // nil sin Redis
	// Ping verifica las dependencias para /health (BD). nil siempre responde ok.
	Ping func(ctx context.Context) error
}

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name        string
	CORSOrigins string
	Log         *logger.Logger
}

// NewApp crea la aplicación Fiber. El logger va antes de recover para registrar también los panics.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ErrorHandler: ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(requestid.New())
	app.Use(RequestLogger(cfg.Log))
	app.Use(recover.New())
	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", health(deps.Ping))

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/signup", authHandler.SignUp)
	api.Post("/auth/signin", authHandler.SignIn)

	// Webhook de pagos (público, firmado)
	api.Post("/webhooks/stripe", NewWebhookHandler(deps.BillingUC).Stripe)

	// Rutas protegidas (requieren Bearer Token)
	authed := AuthMiddleware(deps.JWTSecret, deps.Revocations)
	api.Post("/auth/signout", authed, authHandler.SignOut)
	api.Get("/auth/me", authed, authHandler.Me)

	tenantHandler := NewTenantHandler(deps.TenancyUC, deps.BillingUC, deps.SyncUsersUC)
	api.Get("/tenants", authed, tenantHandler.List)
	api.Post("/tenants", authed, tenantHandler.Create)
	api.Post("/tenants/switch", authed, tenantHandler.Switch)
	api.Get("/tenants/current", authed, tenantHandler.Current)
	api.Post("/functions/create-checkout", authed, tenantHandler.CreateCheckout)

	// Rutas de la organización activa: membresía verificada en cada petición. Cada recurso
	// monta su propio grupo para que una ruta desconocida bajo /api siga dando 404.
	tenantScope := RequireTenant(deps.TenancyUC)
	scoped := func(prefix string, extra ...fiber.Handler) fiber.Router {
		return api.Group(prefix, append([]fiber.Handler{authed, tenantScope}, extra...)...)
	}
	admin := RequireRole(entity.RoleAdmin)
	stockWriter := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	api.Get("/tenants/subscription", authed, tenantScope, tenantHandler.Subscription)
	api.Post("/functions/sync-users", authed, tenantScope, admin, tenantHandler.SyncUsers)

	users := scoped("/users", admin)
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id/role", userHandler.UpdateRole)
	users.Delete("/:id", userHandler.Remove)

	catalogHandler := NewCatalogHandler(deps.CategoryUC, deps.UnitUC)
	categories := scoped("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/", stockWriter, catalogHandler.CreateCategory)
	categories.Put("/:id", stockWriter, catalogHandler.UpdateCategory)
	categories.Delete("/:id", stockWriter, catalogHandler.DeleteCategory)

	units := scoped("/units")
	units.Get("/", catalogHandler.ListUnits)
	units.Post("/", stockWriter, catalogHandler.CreateUnit)
	units.Put("/:id", stockWriter, catalogHandler.UpdateUnit)
	units.Delete("/:id", stockWriter, catalogHandler.DeleteUnit)

	warehouses := scoped("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Post("/", stockWriter, warehouseHandler.Create)
	warehouses.Put("/:id", stockWriter, warehouseHandler.Update)
	warehouses.Delete("/:id", stockWriter, warehouseHandler.Delete)

	products := scoped("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.InventoryQry)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock", productHandler.Stock)
	products.Post("/", stockWriter, productHandler.Create)
	products.Put("/:id", stockWriter, productHandler.Update)
	products.Delete("/:id", stockWriter, productHandler.Delete)

	inv := scoped("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MovementUC, deps.InventoryQry, deps.LowStockUC)
	inv.Get("/", inventoryHandler.List)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/movements", stockWriter, inventoryHandler.ListMovements)
	inv.Post("/movements", stockWriter, inventoryHandler.RegisterMovement)

	salesGroup := scoped("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC, deps.ReceiptUC)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)
	salesGroup.Post("/:id/cancel", admin, saleHandler.Cancel)

	an := scoped("/analytics")
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsUC)
	an.Get("/dashboard", analyticsHandler.Dashboard)
	an.Get("/sales-by-day", analyticsHandler.SalesByDay)
	an.Get("/top-products", analyticsHandler.TopProducts)
	an.Get("/by-category", analyticsHandler.ByCategory)
	an.Get("/by-warehouse", analyticsHandler.ByWarehouse)
	an.Get("/by-payment-method", analyticsHandler.ByPaymentMethod)
	an.Get("/non-selling", analyticsHandler.NonSelling)
}

func health(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.Locals(localError, err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

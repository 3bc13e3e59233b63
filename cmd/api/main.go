package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/Tienda-api/internal/application/analytics"
	"github.com/jhoicas/Tienda-api/internal/application/auth"
	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/cache"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/events"
	infrapdf "github.com/jhoicas/Tienda-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Tienda-api/internal/infrastructure/storage"
	infrastripe "github.com/jhoicas/Tienda-api/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/Tienda-api/internal/interfaces/http"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/logger"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

const tenantCacheTTL = 12 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repos := postgres.NewRepositories(pool)
	txRunner := postgres.NewTxRunner(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)

	// Redis es opcional: sin él la organización activa se resuelve en BD, el stock solo se
	// bloquea por fila y el logout no revoca tokens.
	var (
		tenantCache tenancy.TenantCache
		stockLocker inventory.StockLocker
		blacklist   *cache.TokenBlacklist
		revocations httpRouter.RevocationChecker
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		tenantCache = cache.NewTenantCache(rdb, tenantCacheTTL)
		stockLocker = cache.NewStockLocker(rdb, cfg.Redis.LockTTL)
		blacklist = cache.NewTokenBlacklist(rdb)
		revocations = blacklist
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: sin caché de organización ni revocación de tokens")
	}

	var publisher sales.EventPublisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Fatal().Err(err).Msg("productor Kafka")
		}
		defer kp.Close()
		publisher = kp
	}

	var archive sales.ReceiptArchive
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Archive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("almacenamiento S3")
		}
		archive = s3
	}

	issuer := jwt.Issuer{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, ExpMinutes: cfg.JWT.Expiration}
	retryCfg := retry.Config{MaxAttempts: cfg.Retry.MaxAttempts, InitialInterval: cfg.Retry.InitialInterval}

	tenancyUC := tenancy.NewUseCase(repos, txRunner, tenantCache, issuer, retryCfg, log)
	limits := tenancy.NewLimitService(repos)

	var authBlacklist auth.TokenBlacklist
	if blacklist != nil {
		authBlacklist = blacklist
	}
	authUC := auth.NewAuthUseCase(repos.AuthUsers, repos.Profiles, txRunner, tenancyUC, authBlacklist, issuer)

	// Sin Stripe configurado las rutas de pago responden 503.
	var billingUC *billing.UseCase
	if gateway, err := infrastripe.NewGateway(cfg.Stripe, log); err == nil {
		billingUC = billing.NewUseCase(repos, txRunner, tenancyUC, gateway, cfg.Stripe.PriceIDs, log)
	} else {
		log.Warn().Err(err).Msg("pagos deshabilitados")
	}

	saleUC := sales.NewSaleUseCase(txRunner, repos.Products, repos.Warehouses, repos.Sales, sales.Deps{
		Limits:    limits,
		Locker:    stockLocker,
		Publisher: publisher,
		Log:       log,
	})
	receiptUC := sales.NewReceiptUseCase(
		repos.Sales, repos.Tenants, repos.Warehouses, repos.Profiles,
		infrapdf.NewReceiptGenerator(cfg.App.Currency, cfg.App.Locale), archive, log,
	)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	})
	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		TenancyUC:    tenancyUC,
		BillingUC:    billingUC,
		SyncUsersUC:  usecase.NewSyncUsersUseCase(repos, log),
		UserUC:       usecase.NewUserUseCase(repos, txRunner, limits),
		CategoryUC:   usecase.NewCategoryUseCase(repos.Categories),
		UnitUC:       usecase.NewUnitUseCase(repos.Units),
		ProductUC:    usecase.NewProductUseCase(repos, txRunner, limits, stockLocker),
		WarehouseUC:  usecase.NewWarehouseUseCase(repos.Warehouses, txRunner, limits),
		MovementUC:   inventory.NewRegisterMovementUseCase(txRunner, repos.Products, repos.Warehouses, stockLocker),
		InventoryQry: inventory.NewQueryUseCase(repos.Products, repos.Warehouses, repos.Inventory, repos.Movements),
		LowStockUC:   inventory.NewLowStockUseCase(repos.Inventory, analyticsRepo),
		SaleUC:       saleUC,
		ReceiptUC:    receiptUC,
		AnalyticsUC:  analytics.NewUseCase(analyticsRepo, cfg.App.Location),
		JWTSecret:    cfg.JWT.Secret,
		Revocations:  revocations,
		Ping:         pool.Ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

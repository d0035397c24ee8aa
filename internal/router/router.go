package router

import (
	"time"

	"soderia/internal/config"
	"soderia/internal/handler"
	"soderia/internal/middleware"
	"soderia/internal/model"
	"soderia/internal/repository"
	"soderia/internal/service"
	"soderia/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	cashRepo := repository.NewCashRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	catalogSvc := service.NewCatalogService(productRepo, rdb)
	ledgerSvc := service.NewLedgerService(ledgerRepo, clientRepo)
	clientSvc := service.NewClientService(clientRepo, orderRepo, ledgerRepo, ledgerSvc, dispatcher)
	orderSvc := service.NewOrderService(orderRepo, clientRepo, catalogSvc)
	deliverySvc := service.NewDeliveryService(deliveryRepo, orderRepo)
	settlementSvc := service.NewSettlementService(orderRepo, ledgerSvc, cashRepo)
	cashSvc := service.NewCashService(cashRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientSvc, ledgerSvc)
	productsH := handler.NewProductsHandler(catalogSvc)
	ordersH := handler.NewOrdersHandler(orderSvc, settlementSvc)
	deliveriesH := handler.NewDeliveriesHandler(deliverySvc)
	cashH := handler.NewCashHandler(cashSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleDriver, model.RoleSecretaria)
	backOffice := middleware.RequireRole(model.RoleAdmin, model.RoleSecretaria)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		// Clientes — everyone reads, back office writes, admin deletes
		v1.GET("/clientes", anyRole, clientsH.List)
		v1.GET("/clientes/deudores", anyRole, clientsH.Debtors)
		v1.GET("/clientes/:id", anyRole, clientsH.Get)
		v1.GET("/clientes/:id/movimientos", anyRole, clientsH.History)
		v1.GET("/clientes/:id/envases", anyRole, clientsH.ContainerHistory)
		v1.GET("/clientes/:id/resumen", backOffice, clientsH.Statement)
		v1.POST("/clientes", backOffice, clientsH.Register)
		v1.PUT("/clientes/:id", backOffice, clientsH.Update)
		v1.POST("/clientes/:id/pagos", anyRole, clientsH.RegisterPayment)
		v1.POST("/clientes/:id/cargos", backOffice, clientsH.RegisterCharge)
		v1.POST("/clientes/:id/resumen/enviar", backOffice, clientsH.SendStatement)
		v1.POST("/clientes/:id/conciliar", backOffice, clientsH.Reconcile)
		v1.POST("/clientes/:id/desbloquear", adminOnly, clientsH.ReleaseHold)
		v1.PATCH("/clientes/:id/desactivar", backOffice, clientsH.Deactivate)
		v1.DELETE("/clientes/:id", adminOnly, clientsH.Delete)

		// Pedidos — drivers deliver; back office manages the lifecycle
		v1.GET("/pedidos", anyRole, ordersH.List)
		v1.GET("/pedidos/:id", anyRole, ordersH.Get)
		v1.POST("/pedidos", backOffice, ordersH.Create)
		v1.POST("/pedidos/:id/items", backOffice, ordersH.AddItem)
		v1.POST("/pedidos/:id/confirmar", backOffice, ordersH.Confirm)
		v1.POST("/pedidos/:id/cancelar", backOffice, ordersH.Cancel)
		v1.POST("/pedidos/:id/entregar", anyRole, ordersH.Deliver)
		v1.DELETE("/pedidos/:id", backOffice, ordersH.Delete)

		// Repartos
		v1.GET("/repartos", anyRole, deliveriesH.List)
		v1.GET("/repartos/:id", anyRole, deliveriesH.Get)
		v1.GET("/repartos/:id/progreso", anyRole, deliveriesH.Progress)
		v1.POST("/repartos", backOffice, deliveriesH.Create)
		v1.DELETE("/repartos/:id/pedidos/:pedido_id", backOffice, deliveriesH.DetachOrder)
		v1.DELETE("/repartos/:id", backOffice, deliveriesH.Delete)

		// Caja
		caja := v1.Group("/caja", backOffice)
		{
			caja.POST("/movimiento", cashH.RegisterMovement)
			caja.GET("/movimientos", cashH.ListByDate)
			caja.GET("/saldo", cashH.Balance)
		}

		// Productos — everyone reads (drivers check prices), admin writes
		v1.GET("/productos", anyRole, productsH.List)
		prods := v1.Group("/productos", adminOnly)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		// Usuarios — admin only, except the drivers listing used when
		// assigning repartos
		v1.GET("/usuarios/choferes", backOffice, usersH.Drivers)
		usuarios := v1.Group("/usuarios", adminOnly)
		{
			usuarios.POST("", usersH.Create)
			usuarios.GET("", usersH.List)
			usuarios.PUT("/:id", usersH.Update)
			usuarios.DELETE("/:id", usersH.Deactivate)
			usuarios.PATCH("/:id/reactivar", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

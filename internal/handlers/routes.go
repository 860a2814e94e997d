package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pos-engine/internal/events"
	"pos-engine/internal/middleware"
	"pos-engine/internal/models"
	"pos-engine/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// maxRequestBody bounds every request body. Backup imports are the largest.
const maxRequestBody = maxBackupUpload

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Services    *services.ServiceContainer
	AuthService *middleware.AuthService
	Hub         *events.Hub
	Logger      *logrus.Logger

	// HealthCheck reports whether storage is reachable
	HealthCheck func(ctx context.Context) error

	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	SlowRequest       time.Duration
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	logger := config.Logger
	svc := config.Services

	authHandler := NewAuthHandler(svc.User, config.AuthService, logger)
	catalogHandler := NewCatalogHandler(svc.Catalog, logger)
	partyHandler := NewPartyHandler(svc.Party, logger)
	cartHandler := NewCartHandler(svc.Cart, logger)
	saleHandler := NewSaleHandler(svc.Sale, logger)
	shiftHandler := NewShiftHandler(svc.Shift, logger)
	shopHandler := NewShopHandler(svc.Shop, logger)
	userHandler := NewUserHandler(svc.User, logger)
	backupHandler := NewBackupHandler(svc.Backup, logger)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		health := models.HealthCheck{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   Version,
			Services:  map[string]string{"database": "ok"},
			Uptime:    time.Since(started).Round(time.Second).String(),
		}
		if config.Hub != nil {
			health.Services["events"] = "ok"
		}

		status := http.StatusOK
		if config.HealthCheck != nil {
			if err := config.HealthCheck(c.Request.Context()); err != nil {
				health.Status = "unhealthy"
				health.Services["database"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, health)
	})

	authenticate := middleware.Authentication(config.AuthService, logger)
	require := func(perms ...models.Permission) gin.HandlerFunc {
		return middleware.RequirePermission(logger, perms...)
	}

	v1 := router.Group("/api/v1")
	{
		// Authentication routes (no auth required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/users", authHandler.ListLoginUsers)
			auth.GET("/me", authenticate, authHandler.GetCurrentUser)
		}

		// Protected API routes
		api := v1.Group("")
		api.Use(authenticate)
		{
			if config.Hub != nil {
				api.GET("/events/ws", NewEventsHandler(config.Hub).Subscribe)
			}

			// Catalog reads are open to every signed-in user so the till can
			// render the menu.
			api.GET("/products", catalogHandler.ListProducts)
			api.GET("/products/low-stock", catalogHandler.GetLowStock)
			api.GET("/products/barcode/:barcode", catalogHandler.GetProductByBarcode)
			api.GET("/products/:id", catalogHandler.GetProduct)
			api.GET("/recipes", catalogHandler.ListRecipes)
			api.GET("/recipes/:id", catalogHandler.GetRecipe)
			api.GET("/categories", catalogHandler.ListCategories)
			api.GET("/addons", catalogHandler.ListAddons)
			api.GET("/addon-groups", catalogHandler.ListAddonGroups)

			catalog := api.Group("", require(models.PermManageCatalog))
			{
				catalog.POST("/products", catalogHandler.CreateProduct)
				catalog.PUT("/products/:id", catalogHandler.UpdateProduct)
				catalog.DELETE("/products/:id", catalogHandler.DeleteProduct)
				catalog.POST("/products/:id/stock", catalogHandler.AdjustStock)

				catalog.POST("/recipes", catalogHandler.CreateRecipe)
				catalog.PUT("/recipes/:id", catalogHandler.UpdateRecipe)
				catalog.DELETE("/recipes/:id", catalogHandler.DeleteRecipe)

				catalog.POST("/categories", catalogHandler.CreateCategory)
				catalog.PUT("/categories/:id", catalogHandler.UpdateCategory)
				catalog.DELETE("/categories/:id", catalogHandler.DeleteCategory)

				catalog.POST("/addons", catalogHandler.CreateAddon)
				catalog.PUT("/addons/:id", catalogHandler.UpdateAddon)
				catalog.DELETE("/addons/:id", catalogHandler.DeleteAddon)

				catalog.POST("/addon-groups", catalogHandler.CreateAddonGroup)
				catalog.PUT("/addon-groups/:id", catalogHandler.UpdateAddonGroup)
				catalog.DELETE("/addon-groups/:id", catalogHandler.DeleteAddonGroup)
			}

			// Customers are picked at checkout, so selling is enough to look
			// them up and add new ones.
			customers := api.Group("/customers", require(models.PermSell))
			{
				customers.GET("", partyHandler.ListCustomers)
				customers.POST("", partyHandler.CreateCustomer)
				customers.GET("/:id", partyHandler.GetCustomer)
			}

			parties := api.Group("", require(models.PermManageParties))
			{
				parties.PUT("/customers/:id", partyHandler.UpdateCustomer)
				parties.DELETE("/customers/:id", partyHandler.DeleteCustomer)

				parties.POST("/suppliers", partyHandler.CreateSupplier)
				parties.GET("/suppliers", partyHandler.ListSuppliers)
				parties.GET("/suppliers/:id", partyHandler.GetSupplier)
				parties.PUT("/suppliers/:id", partyHandler.UpdateSupplier)
				parties.DELETE("/suppliers/:id", partyHandler.DeleteSupplier)

				parties.POST("/payments", partyHandler.AddPayment)
				parties.GET("/payments", partyHandler.ListPayments)
			}

			purchases := api.Group("/purchases", require(models.PermManagePurchases))
			{
				purchases.POST("", partyHandler.AddPurchase)
				purchases.GET("", partyHandler.ListPurchases)
				purchases.GET("/:id", partyHandler.GetPurchase)
			}

			cart := api.Group("/cart", require(models.PermSell))
			{
				cart.GET("", cartHandler.GetCart)
				cart.DELETE("", cartHandler.ClearCart)
				cart.POST("/items", cartHandler.AddItem)
				cart.PUT("/items/:item_id", cartHandler.UpdateItem)
				cart.DELETE("/items/:item_id", cartHandler.RemoveItem)
				cart.PUT("/checkout", cartHandler.SetCheckout)
			}

			sales := api.Group("/sales", require(models.PermSell))
			{
				sales.GET("/preview", saleHandler.PreviewSale)
				sales.POST("", saleHandler.ProcessSale)
				sales.GET("", saleHandler.ListSales)
				sales.GET("/:id", saleHandler.GetSale)
				sales.POST("/:id/cancel", require(models.PermCancelSale), saleHandler.CancelSale)
			}

			shifts := api.Group("", require(models.PermManageShift))
			{
				shifts.POST("/shifts/start", shiftHandler.StartShift)
				shifts.POST("/shifts/end", shiftHandler.EndShift)
				shifts.GET("/shifts/active", shiftHandler.GetActiveShift)
				shifts.POST("/expenses", shiftHandler.AddExpense)
			}

			reports := api.Group("/shifts", require(models.PermViewReports))
			{
				reports.GET("", shiftHandler.ListShifts)
				reports.GET("/:id", shiftHandler.GetShiftReport)
			}

			api.GET("/shop", shopHandler.GetShopInfo)
			api.PUT("/shop", require(models.PermManageSettings), shopHandler.SaveShopInfo)

			users := api.Group("/users", require(models.PermManageUsers))
			{
				users.POST("", userHandler.CreateUser)
				users.GET("", userHandler.ListUsers)
				users.GET("/:id", userHandler.GetUser)
				users.PATCH("/:id", userHandler.UpdateUser)
				users.DELETE("/:id", userHandler.DeleteUser)
			}

			backups := api.Group("/backups", require(models.PermBackup))
			{
				backups.POST("", backupHandler.Export)
				backups.GET("", backupHandler.List)
				backups.POST("/import", backupHandler.Import)
				backups.GET("/:key", backupHandler.Download)
			}
		}
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	logger := config.Logger
	slow := config.SlowRequest
	if slow <= 0 {
		slow = time.Second
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(config.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(maxRequestBody))
	router.Use(middleware.ContentTypeValidation())
	router.Use(middleware.RequestValidation())
	router.Use(middleware.RateLimiter(config.RequestsPerSecond, config.Burst, logger))
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PerformanceMonitor(slow, logger))
	router.Use(middleware.AuditLogger(logger))
}

// NewRouter builds a gin engine with middleware and routes installed
func NewRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, config)
	SetupRoutes(router, config)
	return router
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/cache"
	"github.com/GTDGit/gtd_admin/internal/config"
	"github.com/GTDGit/gtd_admin/internal/handler"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/middleware"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/worker"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// main is the entrypoint of the catalog admin console backend.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("api", cfg.API.BaseURL).Msg("starting admin console")

	// 3. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Session store and catalog API client
	tokenStore := cache.NewTokenStore(redisClient, cfg.Session.TTL)
	verifier := auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	apiClient := catalogapi.NewClient(catalogapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Debug:   !cfg.IsProduction(),
	}, auth.NewSessionTokenProvider(tokenStore))

	// 5. Initialize services
	productSvc := service.NewProductService(apiClient)
	categorySvc := service.NewCategoryService(apiClient)
	brandSvc := service.NewBrandService(apiClient)
	orderSvc := service.NewOrderService(apiClient)
	userSvc := service.NewUserService(apiClient)
	adminSvc := service.NewAdminService(apiClient)
	dashboardSvc := service.NewDashboardService(productSvc, orderSvc, userSvc)

	// 6. Initialize handlers
	registry := listview.NewRegistry()
	limits := handler.ListConfig{DefaultLimit: cfg.List.DefaultLimit, MaxLimit: cfg.List.MaxLimit}
	rateLimiter := middleware.NewInvalidAuthRateLimiter(5, time.Minute)

	handlers := &Handlers{
		Health:    handler.NewHealthHandler(redisClient, registry),
		Session:   handler.NewSessionHandler(tokenStore, verifier, registry, rateLimiter, handler.SessionOptions{Secure: cfg.IsProduction(), MaxAge: int(cfg.Session.TTL.Seconds())}),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Product:   handler.NewProductHandler(productSvc, registry, limits),
		Category:  handler.NewCategoryHandler(categorySvc, registry, limits),
		Brand:     handler.NewBrandHandler(brandSvc, registry, limits),
		Order:     handler.NewOrderHandler(orderSvc, registry, limits),
		User:      handler.NewUserHandler(userSvc, registry, limits),
		Admin:     handler.NewAdminHandler(adminSvc, registry, limits),
		Settings:  handler.NewSettingsHandler(limits),
	}

	// 7. Initialize middleware
	authMw := middleware.NewAuthMiddleware(tokenStore, verifier, rateLimiter)

	// 8. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewSessionSweepWorker(registry, cfg.Session.IdleAfter, cfg.Session.SweepInterval).Start(ctx)
	go rateLimiter.Cleanup(ctx, 5*time.Minute)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Session   *handler.SessionHandler
	Dashboard *handler.DashboardHandler
	Product   *handler.ProductHandler
	Category  *handler.CategoryHandler
	Brand     *handler.BrandHandler
	Order     *handler.OrderHandler
	User      *handler.UserHandler
	Admin     *handler.AdminHandler
	Settings  *handler.SettingsHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", handlers.Health.GetHealth)

	// Session routes
	router.POST("/session", handlers.Session.SignIn)
	session := router.Group("/session")
	session.Use(authMiddleware.Handle())
	{
		session.PUT("", handlers.Session.Refresh)
		session.DELETE("", handlers.Session.SignOut)
		session.GET("/me", handlers.Session.Me)
	}

	// Console routes (session + role gate)
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Handle())
	{
		admin.GET("", middleware.RequirePermission(""), handlers.Dashboard.GetDashboard)

		handlers.Product.Register(admin.Group("/products", middleware.RequirePermission(models.PermManageProducts)))
		handlers.Category.Register(admin.Group("/categories", middleware.RequirePermission(models.PermManageCategories)))
		handlers.Brand.Register(admin.Group("/brands", middleware.RequirePermission(models.PermManageBrands)))
		handlers.Order.Register(admin.Group("/orders", middleware.RequirePermission(models.PermManageOrders)))
		handlers.User.Register(admin.Group("/users", middleware.RequirePermission(models.PermManageUsers)))
		handlers.Admin.Register(admin.Group("/admins", middleware.RequirePermission(models.PermManageAdmins)))

		admin.GET("/settings", middleware.RequirePermission(models.PermManageSettings), handlers.Settings.GetSettings)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

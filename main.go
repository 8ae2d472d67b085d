package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/loyalty-rewards-api/config"
	"github.com/kendall-kelly/loyalty-rewards-api/controllers"
	"github.com/kendall-kelly/loyalty-rewards-api/middleware"
	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/kendall-kelly/loyalty-rewards-api/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raulk/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Args are the command line flags. Everything else is configured through the environment.
type Args struct {
	Port        string `arg:"--port" help:"port to listen on, overrides PORT"`
	MigrateOnly bool   `arg:"--migrate-only" help:"run database migrations and exit"`
}

func main() {
	var args Args
	arg.MustParse(&args)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if args.Port != "" {
		cfg.Port = args.Port
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	logger.Info("Starting Loyalty Rewards API server...")

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")
	if args.MigrateOnly {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger.Named("realtime"))
	initServices(ctx, cfg, db, hub, dashboardCache(ctx, cfg, logger), logger)

	router, err := setupRouter(cfg, hub, logger)
	if err != nil {
		logger.Fatal("Failed to set up router", zap.Error(err))
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	logger.Info("Server is running", zap.String("addr", "http://localhost"+server.Addr))
	if err := serve(ctx, server, shutdownTimeout); err != nil {
		logger.Fatal("Server stopped with an error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

const shutdownTimeout = 10 * time.Second

// serve runs server until ctx is cancelled, then drains in-flight requests
// for at most timeout
func serve(ctx context.Context, server *http.Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// dashboardCache connects to Redis when REDIS_URL is set. A nil cache makes
// every dashboard request hit the database.
func dashboardCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) services.DashboardCache {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, dashboard caching disabled")
		return nil
	}

	client, err := services.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, dashboard caching disabled", zap.Error(err))
		return nil
	}
	logger.Info("Dashboard cache connected", zap.Duration("ttl", cfg.DashboardCacheTTL))
	return services.NewRedisDashboardCache(client, cfg.DashboardCacheTTL)
}

// initServices builds the service instances and wires change events between them
func initServices(ctx context.Context, cfg *config.Config, db *gorm.DB, hub *realtime.Hub, cache services.DashboardCache, logger *zap.Logger) {
	opts := services.Options{Clock: clock.New(), Publisher: hub, Logger: logger}

	services.SetOrderService(services.NewOrderService(db, cfg.MilestoneThreshold, opts))
	services.SetCustomerService(services.NewCustomerService(db, opts))
	services.SetFoodService(services.NewFoodService(db, opts))
	services.SetSearchSequencer(services.NewSearchSequencer(opts.Clock))

	dashboard := services.NewDashboardService(db, cache, services.DashboardSettings{
		UnitPrice:          cfg.RevenueUnitPrice,
		RetentionWindow:    cfg.RetentionWindow(),
		SeparateZeroOrders: cfg.SeparateZeroOrderBucket,
	}, opts)
	services.SetDashboardService(dashboard)
	hub.Subscribe(dashboard.ChangeListener())

	services.SetReportService(nil)
	if cfg.AWSS3Bucket == "" {
		logger.Info("AWS_S3_BUCKET not set, report export disabled")
		return
	}
	s3Service, err := services.InitS3Service(ctx)
	if err != nil {
		logger.Warn("Failed to initialize S3, report export disabled", zap.Error(err))
		return
	}
	services.SetReportService(services.InitReportService(s3Service, opts.Clock))
	logger.Info("Report export enabled", zap.String("bucket", cfg.AWSS3Bucket))
}

// setupRouter builds the gin engine with the middleware stack and every route
func setupRouter(cfg *config.Config, hub *realtime.Hub, logger *zap.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		cors.New(corsConfig(cfg)),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}

	api := v1.Group("")
	if cfg.AuthEnabled() {
		ensureValidToken, err := middleware.EnsureValidToken(cfg)
		if err != nil {
			return nil, err
		}
		api.Use(ensureValidToken)
	}
	controllers.RegisterRoutes(api, cfg, hub)

	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, services.SessionHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 || lo.Contains(cfg.CORSAllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Loyalty Rewards API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database not initialized",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

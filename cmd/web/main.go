package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/ecoleta/ecoleta-web/config"
	"github.com/ecoleta/ecoleta-web/internal/cache"
	"github.com/ecoleta/ecoleta-web/internal/handlers"
	"github.com/ecoleta/ecoleta-web/internal/middleware"
	"github.com/ecoleta/ecoleta-web/internal/models"
	"github.com/ecoleta/ecoleta-web/internal/services"
	"github.com/ecoleta/ecoleta-web/internal/web"
	"github.com/ecoleta/ecoleta-web/pkg/geography"
	"github.com/ecoleta/ecoleta-web/pkg/httpclient"
	"github.com/ecoleta/ecoleta-web/pkg/logger"
	"github.com/ecoleta/ecoleta-web/pkg/metrics"
	"github.com/ecoleta/ecoleta-web/pkg/objectstore"
	"github.com/ecoleta/ecoleta-web/pkg/profiling"
	"github.com/ecoleta/ecoleta-web/pkg/registry"
	"github.com/ecoleta/ecoleta-web/pkg/tracing"
)

// formOverhead is the room left for text fields on top of the image limit
const formOverhead = 64 * 1024

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Ecoleta web",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	tracerShutdown, err := tracing.InitTracer(cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.Start(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.RecordInfrastructureMetrics()

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Upstream clients
	httpClient := httpclient.NewStandardClient(cfg.UpstreamTimeout())
	geographyCache := cache.NewGeographyCache(
		geography.NewClient(cfg.Upstreams.GeographyURL, httpClient),
		cfg.GeographyCacheTTL(),
	)
	itemCache := cache.NewItemCache(
		registry.NewClient(cfg.Upstreams.RegistryURL, httpClient),
		cfg.ItemsCacheTTL(),
	)

	// Warming is best effort: pages fall through to the upstream while the cache is cold
	if geographyCache.Enabled() {
		go func() {
			if err := geographyCache.Initialize(appCtx); err != nil {
				logger.Warn("Geography cache warmup failed", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("Geography cache is DISABLED - every page load queries the geography API")
	}

	go func() {
		if err := itemCache.Initialize(appCtx); err != nil {
			logger.Warn("Item cache warmup failed", zap.Error(err))
		}
	}()

	uploads, err := newUploadStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	// Services and handlers
	registrationService := services.NewRegistrationService(itemCache, geographyCache, uploads)

	mapSettings := models.MapSettings{
		TileURL:     cfg.Map.TileURL,
		Attribution: cfg.Map.Attribution,
		Zoom:        cfg.Map.Zoom,
	}
	homeHandler := handlers.NewHomeHandler()
	registerHandler := handlers.NewRegisterHandler(registrationService, mapSettings, cfg.Uploads.MaxBytes)
	uploadHandler := handlers.NewUploadHandler(registrationService)
	apiHandler := handlers.NewAPIHandler(registrationService, cfg.Uploads.MaxBytes)

	geographyReady := geographyCache.IsReady
	if !geographyCache.Enabled() {
		geographyReady = func() bool { return false }
	}
	healthHandler := handlers.NewHealthHandler(geographyReady)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// the pages post to themselves, so the site's own origin is always allowed
	allowedOrigins := append([]string{cfg.Server.BaseURL}, cfg.Server.AllowedOrigins...)
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	tmpl, err := web.Templates()
	if err != nil {
		logger.Fatal("Failed to parse templates", zap.Error(err))
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", web.Static())

	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	submitRateLimiter := middleware.NewRateLimiter(appCtx, 0.1, 5)   // 1 submission per 10s, burst of 5
	maxBody := cfg.Uploads.MaxBytes + formOverhead

	registerPageRoutes(router, generalRateLimiter, submitRateLimiter, maxBody, homeHandler, registerHandler, uploadHandler)

	// Operational endpoints
	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Healthcheck)
	api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	registerAPIRoutes(v1, generalRateLimiter, submitRateLimiter, maxBody, apiHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second, // image uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newUploadStore picks the bucket when one is configured, otherwise keeps staged images in memory
func newUploadStore(cfg *config.Config) (services.UploadStore, error) {
	if !cfg.UploadStorageEnabled() {
		logger.Info("Staging uploads in memory", zap.Duration("ttl", cfg.UploadTTL()))
		return cache.NewUploadCache(cfg.UploadTTL()), nil
	}

	store, err := objectstore.NewStorageClient(cfg.UploadStorage, cfg.UploadTTL())
	if err != nil {
		return nil, err
	}
	logger.Info("Staging uploads in object storage",
		zap.String("bucket", cfg.UploadStorage.BucketName),
		zap.Duration("ttl", cfg.UploadTTL()),
	)
	return store, nil
}

// registerPageRoutes registers the server-rendered pages
func registerPageRoutes(
	router *gin.Engine,
	generalRateLimiter, submitRateLimiter *middleware.RateLimiter,
	maxBody int64,
	homeHandler *handlers.HomeHandler,
	registerHandler *handlers.RegisterHandler,
	uploadHandler *handlers.UploadHandler,
) {
	router.GET("/", homeHandler.Home)
	router.GET("/register", generalRateLimiter.Middleware(), registerHandler.Page)
	router.POST("/register", submitRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(maxBody), registerHandler.Submit)
	router.GET("/register/uploads/:token", generalRateLimiter.Middleware(), uploadHandler.Preview)
}

// registerAPIRoutes registers the JSON endpoints used by the page script
func registerAPIRoutes(
	group *gin.RouterGroup,
	generalRateLimiter, submitRateLimiter *middleware.RateLimiter,
	maxBody int64,
	apiHandler *handlers.APIHandler,
) {
	group.GET("/items", generalRateLimiter.Middleware(), apiHandler.GetItems)
	group.GET("/states", generalRateLimiter.Middleware(), apiHandler.GetStates)
	group.GET("/states/:uf/cities", generalRateLimiter.Middleware(), apiHandler.GetCities)
	group.POST("/points", submitRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(maxBody), apiHandler.CreatePoint)
}

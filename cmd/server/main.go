package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/thirdeye/overseer/internal/config"
	"github.com/thirdeye/overseer/internal/database"
	"github.com/thirdeye/overseer/internal/eyes"
	"github.com/thirdeye/overseer/internal/httpapi"
	"github.com/thirdeye/overseer/internal/jobs"
	"github.com/thirdeye/overseer/internal/logging"
	"github.com/thirdeye/overseer/internal/overseer"
	"github.com/thirdeye/overseer/internal/pipelinebus"
	"github.com/thirdeye/overseer/internal/provider"
	"github.com/thirdeye/overseer/internal/quota"
	"github.com/thirdeye/overseer/internal/security"
	"github.com/thirdeye/overseer/internal/services"
	"github.com/thirdeye/overseer/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logging.Init()

	log.Println("starting Third Eye overseer...")

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("configuration loaded (port: %s)", cfg.Port)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to relational database: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		log.Fatalf("failed to initialize relational schema: %v", err)
	}
	log.Printf("relational store ready (driver: %s)", db.Driver())

	mongoDB, err := database.NewMongoDB(cfg.MongoURL)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	ctx := context.Background()
	if err := mongoDB.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize mongodb indexes: %v", err)
	}
	defer mongoDB.Close(context.Background())
	log.Println("mongodb connected and indexed")

	if cfg.ServerSecret == "" {
		if strings.ToLower(os.Getenv("ENVIRONMENT")) == "production" {
			log.Fatal("SERVER_SECRET is required in production. Generate with: openssl rand -hex 32")
		}
		log.Println("SERVER_SECRET not set - using an ephemeral development secret")
		cfg.ServerSecret = "development-only-secret"
	}

	registry := eyes.NewRegistry(cfg.EyeTimeout)
	capStore, err := loadEyeCatalog(cfg.EyeCatalogPath)
	if err != nil {
		log.Fatalf("failed to load eye catalog: %v", err)
	}
	eyes.RegisterCatalog(registry, capStore)
	log.Printf("eye registry populated from %s", cfg.EyeCatalogPath)

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if err := eyes.WatchCatalog(watchCtx, cfg.EyeCatalogPath, capStore, registry, logging.WithSession("", "")); err != nil {
		log.Printf("eye catalog hot-reload disabled: %v", err)
	}

	providerClient := provider.New(cfg.ProviderEndpoint, cfg.ProviderAPIKey, cfg.ProviderModel, cfg.ProviderTimeout)
	router := provider.NewRouter(providerClient)
	healthChecker := provider.NewHealthChecker(providerClient, cfg.ProviderHealthTTL)

	bus := pipelinebus.New()
	metrics := services.InitMetrics()
	bus.OnDrop(func(sessionID string) {
		metrics.PipelineEventsDropped.WithLabelValues(sessionID).Inc()
	})

	ov := overseer.New(registry, router, bus, cfg.RoutingPrompt, cfg.ProviderTimeout, logging.WithSession("", ""))

	sessions := session.New(cfg.SessionTTL)

	quotaManager := newQuotaManager(cfg)
	keyLimiter := quota.NewKeyLimiter()
	admitter := quota.NewAdmitter(quotaManager, keyLimiter)
	tenantLimits := quota.NewTenantLimitStore()

	apiKeys := services.NewAPIKeyService(mongoDB)
	accounts := services.NewAdminAccountService(mongoDB)
	adminSessions := security.NewAdminSessionStore()
	csrfGuard := security.NewCSRFGuard(cfg.ServerSecret)
	auditLog := database.NewAuditLog(db)

	scheduler, err := jobs.New(logging.WithSession("", ""))
	if err != nil {
		log.Fatalf("failed to create job scheduler: %v", err)
	}
	reclamation := jobs.NewReclamationLoop(sessions, adminSessions, logging.WithSession("", ""))
	if err := scheduler.Every("reclamation-loop", cfg.ReclamationInterval, func(ctx context.Context) {
		reclamation.Run(ctx)
	}); err != nil {
		log.Fatalf("failed to schedule reclamation loop: %v", err)
	}
	if janitor := jobs.NewQuotaJanitor(quotaManager, logging.WithSession("", "")); janitor != nil {
		if err := scheduler.Every("quota-janitor", cfg.QuotaWindow, func(ctx context.Context) {
			janitor.Run(ctx)
		}); err != nil {
			log.Fatalf("failed to schedule quota janitor: %v", err)
		}
	}
	healthJob := jobs.NewProviderHealthChecker(healthChecker, metrics.ProviderHealthy, logging.WithSession("", ""))
	if err := scheduler.Every("provider-health-checker", cfg.ProviderHealthTTL, func(ctx context.Context) {
		healthJob.Run(ctx)
	}); err != nil {
		log.Fatalf("failed to schedule provider health checker: %v", err)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	deps := &httpapi.Dependencies{
		Config:         cfg,
		Log:            logging.WithSession("", ""),
		Overseer:       ov,
		Sessions:       sessions,
		Bus:            bus,
		Admitter:       admitter,
		QuotaManager:   quotaManager,
		TenantLimits:   tenantLimits,
		APIKeys:        apiKeys,
		Accounts:       accounts,
		Metrics:        metrics,
		AdminSessions:  adminSessions,
		CSRF:           csrfGuard,
		ProviderHealth: healthChecker,
		Mongo:          mongoDB,
		RelationalDB:   db,
		AuditLog:       auditLog,
	}

	app := fiber.New(fiber.Config{
		AppName:      "Third Eye overseer",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    4 * 1024 * 1024, // 4MB: envelopes carry draft text, not binaries
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prom := fiberprometheus.New("third_eye")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
		log.Println("ALLOWED_ORIGINS not set, using development default")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-API-Key,X-CSRF-Token",
		AllowCredentials: allowedOrigins != "*",
	}))

	httpapi.RegisterRoutes(app, deps)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down...")
		cancelWatch()
		if err := app.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}()

	log.Printf("server ready on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// loadEyeCatalog reads the catalog from path, falling back to the
// compiled-in default catalog when no file is configured or present.
func loadEyeCatalog(path string) (*eyes.CapabilityStore, error) {
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			parsed, err := eyes.ParseCatalog(data)
			if err != nil {
				return nil, err
			}
			return eyes.NewCapabilityStore(parsed), nil
		}
	}
	parsed, err := eyes.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return eyes.NewCapabilityStore(parsed), nil
}

// newQuotaManager picks the sliding-window implementation backing the
// tenant side of admission: Redis when configured, in-memory otherwise.
// A bare-memory deployment loses quota state across a restart; that
// tradeoff is accepted rather than forcing Redis as a hard dependency.
func newQuotaManager(cfg *config.Config) quota.Manager {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set - quota tracking is in-memory only")
		return quota.NewMemoryManager(cfg.QuotaWindow)
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, falling back to in-memory quota tracking: %v", err)
		return quota.NewMemoryManager(cfg.QuotaWindow)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, falling back to in-memory quota tracking: %v", err)
		return quota.NewMemoryManager(cfg.QuotaWindow)
	}
	log.Println("quota tracking backed by redis")
	return quota.NewRedisManager(client, cfg.QuotaWindow)
}

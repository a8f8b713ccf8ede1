package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"assurance-claims/internal/adapters/fleet"
	"assurance-claims/internal/adapters/http/handlers"
	"assurance-claims/internal/adapters/http/middleware"
	"assurance-claims/internal/adapters/http/routes"
	"assurance-claims/internal/adapters/persistence/memory"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/config"
	"assurance-claims/internal/core/services"
	"assurance-claims/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	_ "assurance-claims/docs" // Swagger docs
)

// @title Assurance Claims API
// @version 1.0
// @description Insurance policy and claim (constat) lifecycle API

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// stores are the persistence backends selected by DB_DRIVER
type stores struct {
	policies  repositories.PolicyRepository
	claims    repositories.ClaimRepository
	audit     repositories.AuditRepository
	sequencer repositories.ClaimSequencer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	healthChecks := map[string]handlers.HealthChecker{}

	var db *gorm.DB
	var st stores
	if cfg.Database.Driver == config.DriverMemory {
		log.Println("⚠️ Using in-memory storage, data is lost on restart")
		st = stores{
			policies:  memory.NewPolicyStore(),
			claims:    memory.NewClaimStore(),
			audit:     memory.NewAuditStore(),
			sequencer: memory.NewClaimSequencer(),
		}
	} else {
		db, err = config.ConnectDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer config.CloseDatabase(db)

		st = stores{
			policies:  repositories.NewPolicyRepository(db),
			claims:    repositories.NewClaimRepository(db),
			audit:     repositories.NewAuditRepository(db),
			sequencer: repositories.NewClaimSequencer(db),
		}
		healthChecks["database"] = func(context.Context) error { return config.DatabaseHealth(db) }
	}

	if cfg.SeedDemoData && cfg.IsDev() {
		if err := config.NewSeeder(st.policies).Run(ctx); err != nil {
			log.Printf("⚠️ Warning: Failed to seed demo data: %v", err)
		}
	}

	redisClient, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("❌ Failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		st.sequencer = repositories.NewRedisClaimSequencer(redisClient, st.claims.HighestClaimSequence)
		healthChecks["redis"] = redisClient.Health
		log.Println("✅ Claim numbers allocated from Redis")
	}

	var assets services.AssetLookup
	if cfg.Fleet.BaseURL != "" {
		assets = fleet.NewClient(cfg.Fleet.BaseURL, cfg.Fleet.Timeout)
	} else {
		log.Println("⚠️ FLEET_SERVICE_URL not set, vehicle checks disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []services.Option{
		services.WithMetrics(metrics.New(registry)),
		services.WithNotifier(services.NewNotificationService(cfg.Notify.LineToken)),
		services.WithAuditTrail(st.audit),
	}
	policyService := services.NewPolicyService(st.policies, assets, opts...)
	claimService := services.NewClaimService(st.claims, st.policies, st.sequencer, assets, opts...)

	cronService := services.NewCronService(policyService, cfg.Scheduler.PolicyReconcileCron)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer cronService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Assurance Claims API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)

	routes.Setup(app, routes.Dependencies{
		Config:        cfg,
		PolicyService: policyService,
		ClaimService:  claimService,
		HealthChecks:  healthChecks,
		Gatherer:      registry,
	})

	go gracefulShutdown(app)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}

package routes

import (
	"time"

	"assurance-claims/internal/adapters/http/handlers"
	"assurance-claims/internal/adapters/http/middleware"
	"assurance-claims/internal/config"
	"assurance-claims/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the routes are built from
type Dependencies struct {
	Config        *config.Config
	PolicyService *services.PolicyService
	ClaimService  *services.ClaimService
	HealthChecks  map[string]handlers.HealthChecker
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Config.AppMode, deps.HealthChecks)
	policyHandler := handlers.NewPolicyHandler(deps.PolicyService)
	claimHandler := handlers.NewClaimHandler(deps.ClaimService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(deps.Config.JWT.Secret)

	setupPolicyRoutes(apiV1.Group("/policies"), policyHandler, auth)
	setupClaimRoutes(apiV1.Group("/claims"), claimHandler, auth)
}

// setupPolicyRoutes configures insurance policy routes
func setupPolicyRoutes(router fiber.Router, handler *handlers.PolicyHandler, auth fiber.Handler) {
	// Public lookup used by the fleet service
	router.Get("/vehicle/:vehicleId", middleware.CacheControl(30*time.Second), handler.GetVehicleInsurance)

	router.Use(auth, middleware.NoCacheHeaders())

	router.Post("/", handler.Create)
	router.Get("/", middleware.StaffOnly(), handler.List)
	router.Get("/me", handler.ListMine)
	router.Get("/expiring", middleware.StaffOnly(), handler.ListExpiring)
	router.Get("/expiring/:days", middleware.StaffOnly(), handler.ListExpiring)
	router.Post("/reconcile-expired", middleware.AdminOnly(), middleware.StrictRateLimiter(), handler.ReconcileExpired)

	// Ownership is checked by the service
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Put("/:id/approve", middleware.StaffOnly(), handler.Approve)
	router.Put("/:id/cancel", handler.Cancel)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
	router.Get("/:id/history", middleware.StaffOnly(), handler.History)
}

// setupClaimRoutes configures claim routes
func setupClaimRoutes(router fiber.Router, handler *handlers.ClaimHandler, auth fiber.Handler) {
	router.Use(auth, middleware.NoCacheHeaders())

	router.Post("/", handler.Create)
	router.Get("/", middleware.StaffOnly(), handler.List)
	router.Get("/me", handler.ListMine)

	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Put("/:id/submit", handler.Submit)
	router.Put("/:id/review", middleware.StaffOnly(), handler.Review)
	router.Put("/:id/fraud-detection", middleware.ClaimAdjusters(), handler.EvaluateFraud)
	router.Put("/:id/payment", middleware.ClaimAdjusters(), middleware.StrictRateLimiter(), handler.ProcessPayment)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
	router.Get("/:id/history", middleware.StaffOnly(), handler.History)
}

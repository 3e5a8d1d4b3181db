package api

import (
	"restaurantai/docs"
	"restaurantai/internal/api/handlers"
	"restaurantai/pkg/auth"
	"restaurantai/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Pipeline  *handlers.PipelineHandler
	Catalog   *handlers.CatalogHandler
	Leads     *handlers.LeadsHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))

	// registers the OpenAPI document served below
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", handlers.Health)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	dashboard := protected.Group("/dashboard")
	dashboard.Get("", h.Dashboard.GetDashboard)
	dashboard.Get("/metrics", h.Dashboard.GetMetrics)
	dashboard.Get("/legacy", h.Dashboard.GetLegacyDashboard)

	pipeline := protected.Group("/pipeline")
	pipeline.Post("/run", h.Pipeline.Run)
	pipeline.Post("/reprocess", h.Pipeline.Reprocess)

	catalog := protected.Group("/catalog")
	catalog.Get("", h.Catalog.GetCatalog)
	catalog.Post("/tags", h.Catalog.AddTag)
	catalog.Get("/pending", h.Catalog.ListPending)
	catalog.Delete("/pending/:tag", h.Catalog.DismissPending)

	leads := protected.Group("/leads")
	leads.Post("/run", h.Leads.RunLeads)
	leads.Get("", h.Leads.ListLeads)
	leads.Get("/export", h.Leads.ExportLeads)
	leads.Post("/:id/approve", h.Leads.ApproveLead)

	return app
}

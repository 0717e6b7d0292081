package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fypdesk/fyp-api/internal/config"
	"github.com/fypdesk/fyp-api/internal/handler"
	"github.com/fypdesk/fyp-api/internal/middleware"
	"github.com/fypdesk/fyp-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	DepartmentHandler   *handler.DepartmentHandler
	StudentHandler      *handler.StudentHandler
	StaffHandler        *handler.StaffHandler
	GroupHandler        *handler.GroupHandler
	ProposalHandler     *handler.ProposalHandler
	DocumentHandler     *handler.DocumentHandler
	DefenseHandler      *handler.DefenseHandler
	ResultsHandler      *handler.ResultsHandler
	NotificationHandler *handler.NotificationHandler
	TokenHandler        *handler.TokenHandler
	DashboardHandler    *handler.DashboardHandler
	AuditHandler        *handler.AuditHandler
	SettingsHandler     *handler.SettingsHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth", middleware.RateLimit("auth", 10, 0)))
	}
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.TokenHandler != nil {
		// redeem is reachable without a bearer token; external examiners
		// have no account
		external := api.Group("/external/tokens", middleware.RateLimit("external", 20, 0))
		tokenAdmin := api.Group("/tokens", jwtMiddleware, middleware.RequireAuth(),
			middleware.RequireRole("coordinator", "superadmin"))
		deps.TokenHandler.Register(external, tokenAdmin)
	}

	authed := api.Group("", jwtMiddleware, middleware.RequireAuth())

	student := func(r fiber.Router) fiber.Router { return r.Group("", middleware.RequireRole("student")) }
	supervisor := func(r fiber.Router) fiber.Router { return r.Group("", middleware.RequireRole("supervisor")) }
	coordinator := func(r fiber.Router) fiber.Router {
		return r.Group("", middleware.RequireRole("coordinator", "superadmin"))
	}
	reviewer := func(r fiber.Router) fiber.Router {
		return r.Group("", middleware.RequireRole("coordinator", "committee", "superadmin"))
	}
	admin := func(r fiber.Router) fiber.Router {
		return r.Group("", middleware.RequireRole("coordinator", "hod", "superadmin"))
	}

	if deps.DepartmentHandler != nil {
		departments := authed.Group("/departments")
		deps.DepartmentHandler.Register(departments, admin(departments))
	}
	if deps.StudentHandler != nil {
		students := authed.Group("/students")
		deps.StudentHandler.Register(students, admin(students))
	}
	if deps.StaffHandler != nil {
		staff := authed.Group("/staff")
		deps.StaffHandler.Register(staff, admin(staff))
	}

	if deps.GroupHandler != nil {
		groups := authed.Group("/groups")
		deps.GroupHandler.Register(groups, student(groups), supervisor(groups), coordinator(groups))
	}
	if deps.ProposalHandler != nil {
		proposals := authed.Group("/proposals")
		deps.ProposalHandler.Register(proposals, student(proposals), reviewer(proposals))
	}
	if deps.DocumentHandler != nil {
		documents := authed.Group("/documents")
		deps.DocumentHandler.Register(documents, student(documents), supervisor(documents), coordinator(documents))
	}
	if deps.DefenseHandler != nil {
		defenses := authed.Group("/defenses")
		evaluator := defenses.Group("", middleware.RequireRole("evaluator", "supervisor", "committee"))
		deps.DefenseHandler.Register(defenses, coordinator(defenses), evaluator)
	}
	if deps.ResultsHandler != nil {
		results := authed.Group("/results", middleware.RequireStaff())
		deps.ResultsHandler.Register(results, coordinator(results), supervisor(results))
	}
	if deps.NotificationHandler != nil {
		notifications := authed.Group("/notifications")
		deps.NotificationHandler.Register(notifications, coordinator(notifications))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(student(authed.Group("/student")))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(admin(authed.Group("/audit")))
	}
	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(admin(authed.Group("/settings")))
	}
}

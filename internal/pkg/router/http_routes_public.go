package router

import (
	"github.com/fundfox/FundFox/app/controllers"
	"github.com/fundfox/FundFox/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/about", loggedInMiddleware, controllers.HandleAbout)
	app.Get("/contact", loggedInMiddleware, controllers.HandleContact)

	// Live campaign progress (server-sent events)
	app.Get("/campaigns/:uuid/progress", loggedInMiddleware, controllers.HandleCampaignProgressStream)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Payment provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/cardstream", controllers.HandleCardstreamWebhook)
}

package router

import (
	"strings"
	"time"

	"github.com/fundfox/FundFox/app/controllers"
	"github.com/fundfox/FundFox/internal/pkg/env"
	"github.com/fundfox/FundFox/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// API requests and gateway webhooks authenticate differently
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)

	// Auth
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)
	group.Post("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	// Public campaign pages
	group.Get("/campaigns", loggedInMiddleware, controllers.HandleCampaignDiscover)
	group.Get("/c/:slug", loggedInMiddleware, controllers.HandleCampaignShow)

	// Campaign management (owner)
	group.Get("/campaigns/create", middleware.RequireAuth, controllers.HandleCampaignCreate)
	group.Post("/campaigns/create", middleware.RequireAuth, controllers.HandleCampaignCreate)
	group.Get("/campaigns/edit/:uuid", middleware.RequireAuth, controllers.HandleCampaignEdit)
	group.Post("/campaigns/edit/:uuid", middleware.RequireAuth, controllers.HandleCampaignEdit)
	group.Post("/campaigns/submit/:uuid", middleware.RequireAuth, controllers.HandleCampaignSubmit)
	group.Post("/campaigns/pause/:uuid", middleware.RequireAuth, controllers.HandleCampaignPause)
	group.Post("/campaigns/resume/:uuid", middleware.RequireAuth, controllers.HandleCampaignResume)
	group.Post("/campaigns/cancel/:uuid", middleware.RequireAuth, controllers.HandleCampaignCancel)
	group.Post("/campaigns/cover/:uuid", middleware.RequireAuth, controllers.HandleCampaignCoverUpload)

	// Comments
	group.Post("/c/:slug/comments", middleware.RequireAuth, controllers.HandleCommentCreate)
	group.Post("/comments/delete/:id", middleware.RequireAuth, controllers.HandleCommentDelete)

	// Impact-story updates
	group.Get("/c/:slug/updates/new", middleware.RequireAuth, controllers.HandleUpdateCreate)
	group.Post("/c/:slug/updates/new", middleware.RequireAuth, controllers.HandleUpdateCreate)
	group.Get("/updates/edit/:id", middleware.RequireAuth, controllers.HandleUpdateEdit)
	group.Post("/updates/edit/:id", middleware.RequireAuth, controllers.HandleUpdateEdit)
	group.Post("/updates/delete/:id", middleware.RequireAuth, controllers.HandleUpdateDelete)

	// Campaign reports (guest allowed)
	group.Get("/c/:slug/report", loggedInMiddleware, controllers.HandleCampaignReport)
	group.Post("/c/:slug/report", loggedInMiddleware, controllers.HandleCampaignReport)

	// User area
	group.Get("/user/dashboard", middleware.RequireAuth, controllers.HandleUserDashboard)
	group.Get("/user/campaigns", middleware.RequireAuth, controllers.HandleUserCampaigns)
	group.Get("/user/donations", middleware.RequireAuth, controllers.HandleUserDonations)
	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Post("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Get("/user/notifications", middleware.RequireAuth, controllers.HandleNotifications)
	group.Post("/user/notifications/read/:id", middleware.RequireAuth, controllers.HandleNotificationRead)
	group.Post("/user/notifications/read-all", middleware.RequireAuth, controllers.HandleNotificationsReadAll)
}

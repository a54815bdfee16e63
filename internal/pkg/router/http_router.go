package router

import (
	"log"

	"github.com/fundfox/FundFox/app/controllers"
	"github.com/fundfox/FundFox/internal/pkg/database"
	"github.com/fundfox/FundFox/internal/pkg/donations"
	"github.com/fundfox/FundFox/internal/pkg/middleware"
	"github.com/fundfox/FundFox/internal/pkg/oauth"
	"github.com/fundfox/FundFox/internal/pkg/payments"
	"github.com/fundfox/FundFox/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize admin controller with repositories
	controllers.InitializeAdminController()

	// Wire the donation intake service against the payment gateway
	gateway, err := payments.NewClientFromEnv()
	if err != nil {
		log.Fatalf("payment gateway setup failed: %v", err)
	}
	controllers.InitializeDonationController(donations.NewServiceFromDB(database.GetDB(), gateway))

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context,
	// handlers read it via usercontext.GetUserContext(c)
	return c.Next()
}

package router

import (
	"github.com/fundfox/FundFox/app/controllers"
	"github.com/fundfox/FundFox/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// Campaign moderation
	adminGroup.Get("/moderation", controllers.HandleAdminModerationQueue)
	adminGroup.Post("/moderation/approve/:uuid", controllers.HandleAdminCampaignApprove)
	adminGroup.Post("/moderation/reject/:uuid", controllers.HandleAdminCampaignReject)

	// Abuse reports
	adminGroup.Get("/reports", controllers.HandleAdminReports)
	adminGroup.Post("/reports/:id/resolve", controllers.HandleAdminReportResolve)

	// User management
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Post("/users/status/:id", controllers.HandleAdminUserStatus)
}

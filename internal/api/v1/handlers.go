package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/fundfox/FundFox/app/controllers"
	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/middleware"
)

// Pong is the ping response payload
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the public JSON API described in
// public/docs/v1/openapi.yml.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	// Public campaign resources
	router.Get("/campaigns", s.ListCampaigns)
	router.Get("/campaigns/:uuid", s.GetCampaign)

	// Donation intake, session authenticated
	router.Post("/donations", middleware.RequireAPISessionAuth, s.PostDonation)
	router.Post("/donations/recurring/:subscription/cancel", middleware.RequireAPISessionAuth, s.PostRecurringCancel)
	router.Post("/payments/intent", middleware.RequireAPISessionAuth, s.PostPaymentIntent)

	// Notification badge
	router.Get("/notifications/unread", middleware.RequireAPISessionAuth, s.GetUnreadCount)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// ListCampaigns returns active campaigns as JSON, newest first
func (s *APIServer) ListCampaigns(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaigns, err := repo.ListByStatus(models.CampaignStatusActive, (page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not load campaigns",
		})
	}
	total, _ := repo.CountByStatus(models.CampaignStatusActive)

	return c.JSON(fiber.Map{
		"campaigns": campaigns,
		"page":      page,
		"total":     total,
	})
}

// GetCampaign returns one campaign by its public UUID
func (s *APIServer) GetCampaign(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "campaign not found",
		})
	}
	if campaign.Status == models.CampaignStatusDraft || campaign.Status == models.CampaignStatusPending {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "campaign not found",
		})
	}

	return c.JSON(fiber.Map{"campaign": campaign})
}

// PostDonation starts a donation for the authenticated user
func (s *APIServer) PostDonation(c *fiber.Ctx) error {
	return controllers.HandleAPIDonationCreate(c)
}

// PostPaymentIntent creates an unconfirmed payment intent for a campaign
func (s *APIServer) PostPaymentIntent(c *fiber.Ctx) error {
	return controllers.HandleAPIPaymentIntentCreate(c)
}

// PostRecurringCancel cancels a recurring donation of the authenticated user
func (s *APIServer) PostRecurringCancel(c *fiber.Ctx) error {
	return controllers.HandleAPIRecurringCancel(c)
}

// GetUnreadCount returns the unread notification count for the badge
func (s *APIServer) GetUnreadCount(c *fiber.Ctx) error {
	return controllers.HandleAPIUnreadCount(c)
}

package controllers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/app/repository"
	"github.com/fundfox/FundFox/internal/pkg/donations"
	"github.com/fundfox/FundFox/internal/pkg/mail"
	"github.com/fundfox/FundFox/internal/pkg/payments"
	"github.com/fundfox/FundFox/internal/pkg/realtime"
	"github.com/fundfox/FundFox/internal/pkg/statistics"
	"github.com/fundfox/FundFox/internal/pkg/usercontext"
)

var donationService *donations.Service

// InitializeDonationController wires the donation intake service. Must be
// called once during router setup before any donation route is served.
func InitializeDonationController(svc *donations.Service) {
	donationService = svc
}

// donationCreateRequest is the JSON body of the donation intake endpoint.
type donationCreateRequest struct {
	CampaignID      uint   `json:"campaign_id"`
	Amount          int64  `json:"amount"` // minor units
	Currency        string `json:"currency"`
	IsRecurring     bool   `json:"is_recurring"`
	Frequency       string `json:"frequency"`
	PaymentMethodID string `json:"payment_method_id"`
	Anonymous       bool   `json:"anonymous"`
	Message         string `json:"message"`
}

// HandleAPIDonationCreate starts a donation. For one-time donations the
// payment is confirmed immediately; recurring donations create a gateway
// subscription whose first cycle is charged right away. The response carries
// the client secret the browser needs to finish authentication if required.
func HandleAPIDonationCreate(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)

	var req donationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "request body could not be parsed",
		})
	}

	result, err := donationService.CreateDonation(c.Context(), donations.IntakeInput{
		DonorID:         uctx.UserID,
		CampaignID:      req.CampaignID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		IsRecurring:     req.IsRecurring,
		Frequency:       req.Frequency,
		PaymentMethodID: req.PaymentMethodID,
		Anonymous:       req.Anonymous,
		Message:         req.Message,
	})
	if err != nil {
		return respondDonationError(c, err)
	}

	if result.LedgerApplied {
		afterLedgerApplied(result.Donation, result.CampaignCompleted)
	}

	resp := fiber.Map{
		"donation":      result.Donation,
		"client_secret": result.ClientSecret,
	}
	if result.RecurringDonation != nil {
		resp["recurring_donation"] = result.RecurringDonation
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// paymentIntentRequest is the JSON body of the standalone intent endpoint.
type paymentIntentRequest struct {
	CampaignID uint   `json:"campaign_id"`
	Amount     int64  `json:"amount"` // minor units
	Currency   string `json:"currency"`
}

// HandleAPIPaymentIntentCreate creates an unconfirmed payment intent for a
// campaign. The browser confirms the charge with the gateway directly and the
// webhook reconciles the outcome.
func HandleAPIPaymentIntentCreate(c *fiber.Ctx) error {
	var req paymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "request body could not be parsed",
		})
	}

	result, err := donationService.CreateIntent(c.Context(), donations.IntentInput{
		CampaignID: req.CampaignID,
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		return respondDonationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_intent_id": result.PaymentIntentID,
		"client_secret":     result.ClientSecret,
		"amount":            result.Amount,
		"currency":          result.Currency,
		"campaign":          result.Campaign,
	})
}

// HandleAPIRecurringCancel cancels a recurring donation owned by the caller.
func HandleAPIRecurringCancel(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	subscriptionRef := c.Params("subscription")

	recurring, err := donationService.CancelRecurring(c.Context(), uctx.UserID, subscriptionRef)
	if err != nil {
		return respondDonationError(c, err)
	}

	return c.JSON(fiber.Map{
		"recurring_donation": recurring,
	})
}

// HandleUserDonations renders the donor's donation history and active
// recurring donations.
func HandleUserDonations(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	repo := repository.GetGlobalFactory().GetDonationRepository()

	dons, err := repo.GetByDonorID(uctx.UserID, 0, 100)
	if err != nil {
		log.Printf("failed to load donations for user %d: %v", uctx.UserID, err)
	}
	recurring, err := repo.GetRecurringByDonorID(uctx.UserID)
	if err != nil {
		log.Printf("failed to load recurring donations for user %d: %v", uctx.UserID, err)
	}

	return renderPage(c, "user/donations", fiber.Map{
		"Title":     "My donations",
		"Donations": dons,
		"Recurring": recurring,
	})
}

// respondDonationError maps service errors onto API status codes. Gateway
// declines pass their message through so the donor sees what the card issuer
// reported.
func respondDonationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, donations.ErrAmountOutOfRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "amount_out_of_range",
			"message": err.Error(),
		})
	case errors.Is(err, donations.ErrInvalidFrequency):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_frequency",
			"message": err.Error(),
		})
	case errors.Is(err, donations.ErrCampaignNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "campaign_not_found",
			"message": err.Error(),
		})
	case errors.Is(err, donations.ErrCampaignNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "campaign_not_active",
			"message": err.Error(),
		})
	case errors.Is(err, donations.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": err.Error(),
		})
	case errors.Is(err, donations.ErrNotSubscriptionOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": err.Error(),
		})
	default:
		if apiErr, ok := payments.IsGatewayError(err); ok {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":   "payment_failed",
				"message": apiErr.Message,
			})
		}
		log.Printf("donation request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "something went wrong",
		})
	}
}

// afterLedgerApplied runs the side effects of a confirmed donation: live
// progress broadcast, owner notification and the cached platform statistics.
func afterLedgerApplied(donation *models.Donation, campaignCompleted bool) {
	if donation == nil {
		return
	}

	repos := repository.GetGlobalRepositories()
	campaign, err := repos.Campaign.GetByID(donation.CampaignID)
	if err != nil {
		log.Printf("failed to load campaign %d after donation %d: %v", donation.CampaignID, donation.ID, err)
		return
	}

	realtime.PublishProgress(realtime.ProgressEvent{
		CampaignID:    campaign.ID,
		CurrentAmount: campaign.CurrentAmount,
		GoalAmount:    campaign.GoalAmount,
		DonorCount:    campaign.DonorCount,
		Completed:     campaignCompleted,
	})

	content := fmt.Sprintf("Your campaign \"%s\" received a new donation.", campaign.Title)
	if campaignCompleted {
		content = fmt.Sprintf("Your campaign \"%s\" reached its goal!", campaign.Title)
	}
	notification := &models.Notification{
		UserID:      campaign.OwnerID,
		Type:        "donation",
		Content:     content,
		ReferenceID: donation.ID,
	}
	if err := repos.Notification.Create(notification); err != nil {
		log.Printf("failed to create donation notification: %v", err)
	}

	go sendDonationReceipt(donation, campaign)

	go func() {
		if err := statistics.UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		}
	}()
}

// sendDonationReceipt mails a receipt to the donor. Failures are logged only.
func sendDonationReceipt(donation *models.Donation, campaign *models.Campaign) {
	if donation.DonorID == 0 {
		return
	}
	donor, err := repository.GetGlobalFactory().GetUserRepository().GetByID(donation.DonorID)
	if err != nil {
		log.Printf("failed to load donor %d for receipt: %v", donation.DonorID, err)
		return
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for your donation of %.2f %s to \"%s\".\nPayment reference: %s\n\nThe FundFox team",
		donor.Name,
		float64(donation.Amount)/100,
		strings.ToUpper(donation.Currency),
		campaign.Title,
		donation.PaymentReference,
	)
	if err := mail.SendMail(donor.Email, "Your donation receipt", body); err != nil {
		log.Printf("failed to send donation receipt to user %d: %v", donor.ID, err)
	}
}

package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/FundFox/internal/pkg/donations"
	"github.com/fundfox/FundFox/internal/pkg/env"
	"github.com/fundfox/FundFox/internal/pkg/payments"
)

const signatureHeader = "Cardstream-Signature"

// HandleCardstreamWebhook receives payment gateway notifications. Every event
// is persisted before processing so that redelivered events are acknowledged
// without being applied twice.
func HandleCardstreamWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get(signatureHeader)
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")

	event, err := payments.ConstructEvent(payload, signature, secret)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			log.Printf("webhook rejected: invalid signature")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_signature",
				"message": "webhook signature verification failed",
			})
		}
		log.Printf("webhook rejected: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_payload",
			"message": "webhook payload could not be parsed",
		})
	}

	created, stored, err := donationService.RecordWebhookEvent(c.Context(), donations.WebhookEventInput{
		Provider:        "cardstream",
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("failed to persist webhook event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "event could not be stored",
		})
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		// redelivery of an event we already applied cleanly
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}
	// A journaled event whose first attempt failed is processed again on
	// redelivery; the event handlers tolerate replays.

	result, err := donationService.ProcessEvent(c.Context(), event)
	if markErr := donationService.MarkWebhookProcessed(c.Context(), stored.ID, err); markErr != nil {
		log.Printf("failed to mark webhook event %d processed: %v", stored.ID, markErr)
	}
	if err != nil {
		log.Printf("webhook event %s (%s) failed: %v", event.ID, event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "processing_failed",
			"message": "event processing failed",
		})
	}

	if result.LedgerApplied {
		afterLedgerApplied(result.Donation, result.CampaignCompleted)
	}

	return c.JSON(fiber.Map{"received": true})
}

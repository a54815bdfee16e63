package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/internal/pkg/donations"
	"github.com/fundfox/FundFox/internal/pkg/payments"
)

func TestCardstreamWebhookRejectsBadSignature(t *testing.T) {
	app := fiber.New()
	app.Post("/webhooks/cardstream", HandleCardstreamWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cardstream",
		strings.NewReader(`{"id":"evt_1","type":"payment_intent.succeeded"}`))
	req.Header.Set(signatureHeader, "deadbeef")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCardstreamWebhookRejectsMissingSignature(t *testing.T) {
	app := fiber.New()
	app.Post("/webhooks/cardstream", HandleCardstreamWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cardstream",
		strings.NewReader(`{"id":"evt_1","type":"payment_intent.succeeded"}`))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// journalFake covers the webhook journal and the failure-path donation write.
// Methods outside the redelivery flow are not expected to be called.
type journalFake struct {
	events       map[string]*models.PaymentWebhookEvent
	nextID       uint
	failAttempts int
	failCalls    int
}

func newJournalFake(failAttempts int) *journalFake {
	return &journalFake{
		events:       make(map[string]*models.PaymentWebhookEvent),
		failAttempts: failAttempts,
	}
}

func (f *journalFake) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, event, nil
}

func (f *journalFake) MarkWebhookProcessed(id uint, processingError string) error {
	for _, stored := range f.events {
		if stored.ID == id {
			now := time.Now()
			stored.ProcessedAt = &now
			stored.ProcessingError = processingError
		}
	}
	return nil
}

func (f *journalFake) FailDonation(ref string) (int64, error) {
	f.failCalls++
	if f.failCalls <= f.failAttempts {
		return 0, errors.New("connection reset")
	}
	return 1, nil
}

func (f *journalFake) GetCampaignByID(id uint) (*models.Campaign, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *journalFake) MarkCampaignCompleted(id uint) (bool, error) { return false, nil }

func (f *journalFake) GetUserByID(id uint) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *journalFake) SaveUserPaymentCustomerID(userID uint, customerID string) error { return nil }

func (f *journalFake) CreateDonation(d *models.Donation) error { return nil }

func (f *journalFake) GetDonationByPaymentReference(ref string) (*models.Donation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *journalFake) CompleteDonation(ref string, fallback *models.Donation) (*models.Donation, bool, error) {
	return nil, false, gorm.ErrRecordNotFound
}

func (f *journalFake) CreateRecurringDonation(rd *models.RecurringDonation) error { return nil }

func (f *journalFake) GetRecurringBySubscriptionReference(ref string) (*models.RecurringDonation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *journalFake) CancelSubscription(subRef string) (int64, error) { return 0, nil }

// A transient processing failure returns 500 so the gateway redelivers. The
// redelivered event is journaled already but must be processed again, not
// acknowledged as a clean duplicate.
func TestCardstreamWebhookRedeliveryAfterFailure(t *testing.T) {
	const secret = "whsec_test"
	t.Setenv("PAYMENT_WEBHOOK_SECRET", secret)

	repo := newJournalFake(1)
	InitializeDonationController(donations.NewService(repo, nil))

	app := fiber.New()
	app.Post("/webhooks/cardstream", HandleCardstreamWebhook)

	payload := []byte(`{"id":"evt_fail_1","type":"payment_intent.payment_failed","data":{"id":"pi_9"}}`)
	deliver := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/cardstream", bytes.NewReader(payload))
		req.Header.Set(signatureHeader, payments.SignPayload(payload, secret))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := deliver()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, repo.failCalls)
	stored := repo.events["cardstream:evt_fail_1"]
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.ProcessingError)

	resp = deliver()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, repo.failCalls, "redelivery must reprocess the failed event")
	assert.Empty(t, stored.ProcessingError)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["received"])
	assert.Nil(t, body["duplicate"])

	resp = deliver()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, repo.failCalls, "a cleanly processed event is not applied again")

	body = map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["duplicate"])
}

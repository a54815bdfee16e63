package donations

import (
	"errors"

	"github.com/fundfox/FundFox/app/models"
)

// Donation amount bounds in minor units (1.00 to 10,000.00 currency units).
const (
	MinDonationMinor int64 = 100
	MaxDonationMinor int64 = 1000000
)

// Validation and lookup errors surfaced to the intake endpoint.
var (
	ErrAmountOutOfRange     = errors.New("donation amount must be between 1 and 10000")
	ErrInvalidFrequency     = errors.New("frequency must be monthly, quarterly or annually")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignNotActive    = errors.New("campaign is not accepting donations")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotSubscriptionOwner = errors.New("subscription does not belong to this user")
)

// IntakeInput is the validated request for a new donation.
type IntakeInput struct {
	DonorID         uint
	CampaignID      uint
	Amount          int64 // minor units
	Currency        string
	IsRecurring     bool
	Frequency       string
	PaymentMethodID string
	Anonymous       bool
	Message         string
}

// IntentInput requests a standalone, unconfirmed payment intent.
type IntentInput struct {
	CampaignID uint
	Amount     int64 // minor units
	Currency   string
}

// IntentResult carries the client-side confirmation handle for an intent.
type IntentResult struct {
	PaymentIntentID string
	ClientSecret    string
	Amount          int64
	Currency        string
	Campaign        *models.Campaign
}

// IntakeResult is returned to the caller so the browser can confirm the
// payment with the gateway client-side.
type IntakeResult struct {
	Donation          *models.Donation
	RecurringDonation *models.RecurringDonation
	ClientSecret      string
	LedgerApplied     bool
	CampaignCompleted bool
}

// EventResult describes what processing a webhook event changed locally.
type EventResult struct {
	Ignored           bool
	Donation          *models.Donation
	LedgerApplied     bool
	CampaignID        uint
	CampaignCompleted bool
	CancelledCount    int64
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

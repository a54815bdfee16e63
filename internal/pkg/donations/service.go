package donations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/internal/pkg/payments"
	"gorm.io/gorm"
)

// Metadata keys attached to gateway objects so webhook events can be linked
// back to local records even when the intake-time DB write was lost.
const (
	MetaCampaignID = "campaign_id"
	MetaDonorID    = "donor_id"
	MetaFrequency  = "frequency"
	MetaAnonymous  = "anonymous"
)

// Service orchestrates donation intake against the payment gateway and
// reconciles gateway webhook events with donation records and the campaign
// ledger.
type Service struct {
	repo    Repository
	gateway payments.Client
}

// NewService creates a donation service from an injected repository and
// gateway client.
func NewService(repo Repository, gateway payments.Client) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a donation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway payments.Client) *Service {
	return NewService(NewRepository(db), gateway)
}

func frequencyToInterval(frequency string) string {
	switch frequency {
	case models.FrequencyMonthly:
		return payments.IntervalMonth
	case models.FrequencyQuarterly:
		return payments.IntervalQuarter
	case models.FrequencyAnnually:
		return payments.IntervalYear
	default:
		return ""
	}
}

// CreateDonation validates the request, ensures the donor is linked to a
// gateway customer and requests a payment intent (one-time) or subscription
// (recurring). No local state is mutated when the gateway call fails.
func (s *Service) CreateDonation(ctx context.Context, in IntakeInput) (*IntakeResult, error) {
	if in.Amount < MinDonationMinor || in.Amount > MaxDonationMinor {
		return nil, ErrAmountOutOfRange
	}
	if in.IsRecurring && !models.IsValidFrequency(in.Frequency) {
		return nil, ErrInvalidFrequency
	}

	campaign, err := s.repo.GetCampaignByID(in.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	if !campaign.IsAcceptingDonations() {
		return nil, ErrCampaignNotActive
	}

	donor, err := s.repo.GetUserByID(in.DonorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = campaign.Currency
	}

	customerID, err := s.ensureCustomer(ctx, donor)
	if err != nil {
		return nil, err
	}

	if in.IsRecurring {
		return s.createRecurring(ctx, in, customerID, currency)
	}
	return s.createOneTime(ctx, in, customerID, currency)
}

// CreateIntent requests an unconfirmed payment intent for a campaign. The
// browser confirms the charge client-side and the outcome arrives through the
// reconciliation webhook, where the intent metadata links it back to the
// campaign.
func (s *Service) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	if in.Amount < MinDonationMinor || in.Amount > MaxDonationMinor {
		return nil, ErrAmountOutOfRange
	}

	campaign, err := s.repo.GetCampaignByID(in.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	if !campaign.IsAcceptingDonations() {
		return nil, ErrCampaignNotActive
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = campaign.Currency
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.PaymentIntentParams{
		Amount:   in.Amount,
		Currency: currency,
		Metadata: map[string]string{
			MetaCampaignID: strconv.FormatUint(uint64(in.CampaignID), 10),
		},
	})
	if err != nil {
		return nil, err
	}

	return &IntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Campaign:        campaign,
	}, nil
}

// ensureCustomer resolves or lazily creates the gateway customer for a donor.
// The external reference is created once and reused on every later donation.
func (s *Service) ensureCustomer(ctx context.Context, donor *models.User) (string, error) {
	if donor.HasPaymentCustomer() {
		return donor.PaymentCustomerID, nil
	}

	customer, err := s.gateway.CreateCustomer(ctx, payments.CustomerParams{
		Email: donor.Email,
		Name:  donor.Name,
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveUserPaymentCustomerID(donor.ID, customer.ID); err != nil {
		return "", err
	}
	donor.PaymentCustomerID = customer.ID
	return customer.ID, nil
}

func (s *Service) createOneTime(ctx context.Context, in IntakeInput, customerID, currency string) (*IntakeResult, error) {
	intent, err := s.gateway.CreatePaymentIntent(ctx, payments.PaymentIntentParams{
		Amount:          in.Amount,
		Currency:        currency,
		CustomerID:      customerID,
		PaymentMethodID: in.PaymentMethodID,
		Confirm:         true,
		Metadata: map[string]string{
			MetaCampaignID: strconv.FormatUint(uint64(in.CampaignID), 10),
			MetaDonorID:    strconv.FormatUint(uint64(in.DonorID), 10),
			MetaAnonymous:  strconv.FormatBool(in.Anonymous),
		},
	})
	if err != nil {
		return nil, err
	}

	donation := &models.Donation{
		Amount:           in.Amount,
		Currency:         currency,
		DonorID:          in.DonorID,
		CampaignID:       in.CampaignID,
		PaymentReference: intent.ID,
		Status:           models.DonationStatusPending,
		Anonymous:        in.Anonymous,
		Message:          in.Message,
	}
	if err := s.repo.CreateDonation(donation); err != nil {
		// The donor may already be charged at this point; the webhook
		// fallback path reconstructs the record from intent metadata.
		log.Printf("donation intake: local write failed for intent %s: %v", intent.ID, err)
		return nil, err
	}

	result := &IntakeResult{
		Donation:     donation,
		ClientSecret: intent.ClientSecret,
	}
	if intent.Status == payments.IntentStatusSucceeded {
		if err := s.completeByReference(intent.ID, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Service) createRecurring(ctx context.Context, in IntakeInput, customerID, currency string) (*IntakeResult, error) {
	sub, err := s.gateway.CreateSubscription(ctx, payments.SubscriptionParams{
		CustomerID:      customerID,
		PaymentMethodID: in.PaymentMethodID,
		Amount:          in.Amount,
		Currency:        currency,
		Interval:        frequencyToInterval(in.Frequency),
		Metadata: map[string]string{
			MetaCampaignID: strconv.FormatUint(uint64(in.CampaignID), 10),
			MetaDonorID:    strconv.FormatUint(uint64(in.DonorID), 10),
			MetaFrequency:  in.Frequency,
			MetaAnonymous:  strconv.FormatBool(in.Anonymous),
		},
	})
	if err != nil {
		return nil, err
	}

	recurring := &models.RecurringDonation{
		Amount:                in.Amount,
		Currency:              currency,
		DonorID:               in.DonorID,
		CampaignID:            in.CampaignID,
		SubscriptionReference: sub.ID,
		Frequency:             in.Frequency,
		Status:                models.RecurringStatusActive,
	}
	if err := s.repo.CreateRecurringDonation(recurring); err != nil {
		log.Printf("donation intake: local write failed for subscription %s: %v", sub.ID, err)
		return nil, err
	}

	result := &IntakeResult{RecurringDonation: recurring}

	// The first billing cycle's charge is expanded on the subscription; every
	// later cycle arrives via invoice.payment_succeeded webhooks.
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		intent := sub.LatestInvoice.PaymentIntent
		donation := &models.Donation{
			Amount:                in.Amount,
			Currency:              currency,
			DonorID:               in.DonorID,
			CampaignID:            in.CampaignID,
			PaymentReference:      intent.ID,
			SubscriptionReference: sub.ID,
			Status:                models.DonationStatusPending,
			IsRecurring:           true,
			Frequency:             in.Frequency,
			Anonymous:             in.Anonymous,
			Message:               in.Message,
		}
		if err := s.repo.CreateDonation(donation); err != nil {
			log.Printf("donation intake: local write failed for intent %s: %v", intent.ID, err)
			return nil, err
		}
		result.Donation = donation
		result.ClientSecret = intent.ClientSecret

		if intent.Status == payments.IntentStatusSucceeded {
			if err := s.completeByReference(intent.ID, result); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// completeByReference runs the shared guarded completion path and folds the
// outcome into the intake result. Because the webhook handler uses the same
// payment-reference key and status guard, a later replay of the confirmation
// can never double-count this donation.
func (s *Service) completeByReference(ref string, result *IntakeResult) error {
	donation, applied, err := s.repo.CompleteDonation(ref, nil)
	if err != nil {
		return err
	}
	result.Donation = donation
	result.LedgerApplied = applied
	if applied {
		completed, err := s.repo.MarkCampaignCompleted(donation.CampaignID)
		if err != nil {
			log.Printf("donations: campaign completion check failed for campaign %d: %v", donation.CampaignID, err)
		}
		result.CampaignCompleted = completed
	}
	return nil
}

// CancelRecurring cancels a donor's subscription at the gateway and locally.
func (s *Service) CancelRecurring(ctx context.Context, userID uint, subscriptionRef string) (*models.RecurringDonation, error) {
	recurring, err := s.repo.GetRecurringBySubscriptionReference(subscriptionRef)
	if err != nil {
		return nil, err
	}
	if recurring.DonorID != userID {
		return nil, ErrNotSubscriptionOwner
	}

	if _, err := s.gateway.CancelSubscription(ctx, subscriptionRef); err != nil {
		return nil, err
	}
	if _, err := s.repo.CancelSubscription(subscriptionRef); err != nil {
		return nil, err
	}
	recurring.Status = models.RecurringStatusCancelled
	return recurring, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ProcessEvent applies an authenticated gateway event to local state. It is
// safe to invoke more than once for the same event: donation lookups are keyed
// on the external payment reference with update-if-exists/create-if-absent
// semantics, and the ledger increment is guarded by the status transition.
func (s *Service) ProcessEvent(ctx context.Context, event payments.Event) (*EventResult, error) {
	switch event.Type {
	case payments.EventPaymentIntentSucceeded:
		return s.handleIntentSucceeded(event)
	case payments.EventPaymentIntentFailed:
		return s.handleIntentFailed(event)
	case payments.EventInvoicePaymentSucceeded:
		return s.handleInvoicePaid(ctx, event)
	case payments.EventInvoicePaymentFailed:
		var invoice payments.Invoice
		if err := json.Unmarshal(event.Data, &invoice); err != nil {
			return nil, fmt.Errorf("invalid invoice payload: %w", err)
		}
		log.Printf("donations: recurring charge failed for subscription %s (invoice %s)", invoice.SubscriptionID, invoice.ID)
		return &EventResult{}, nil
	case payments.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	case payments.EventSubscriptionUpdated:
		var sub payments.Subscription
		if err := json.Unmarshal(event.Data, &sub); err != nil {
			return nil, fmt.Errorf("invalid subscription payload: %w", err)
		}
		log.Printf("donations: subscription %s updated to status %s", sub.ID, sub.Status)
		return &EventResult{}, nil
	default:
		// unknown event types are acknowledged so the gateway stops
		// redelivering them
		log.Printf("donations: ignoring unhandled event type %s", event.Type)
		return &EventResult{Ignored: true}, nil
	}
}

func (s *Service) handleIntentSucceeded(event payments.Event) (*EventResult, error) {
	var intent payments.PaymentIntent
	if err := json.Unmarshal(event.Data, &intent); err != nil {
		return nil, fmt.Errorf("invalid payment intent payload: %w", err)
	}
	if intent.ID == "" {
		return nil, errors.New("payment intent id missing from event")
	}

	var fallback *models.Donation
	if _, err := s.repo.GetDonationByPaymentReference(intent.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// intake's write failed or raced this event; rebuild from metadata
		fallback = donationFromIntentMetadata(&intent)
		if fallback == nil {
			log.Printf("donations: no record and no usable metadata for intent %s", intent.ID)
			return &EventResult{Ignored: true}, nil
		}
		if fallback.IsRecurring {
			// recurring cycles are reconciled through their invoice event,
			// which carries the subscription linkage
			return &EventResult{}, nil
		}
	}

	return s.completeAndSettle(intent.ID, fallback)
}

func (s *Service) handleIntentFailed(event payments.Event) (*EventResult, error) {
	var intent payments.PaymentIntent
	if err := json.Unmarshal(event.Data, &intent); err != nil {
		return nil, fmt.Errorf("invalid payment intent payload: %w", err)
	}
	if intent.ID == "" {
		return nil, errors.New("payment intent id missing from event")
	}

	count, err := s.repo.FailDonation(intent.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		log.Printf("donations: no pending donation to fail for intent %s", intent.ID)
	}
	return &EventResult{}, nil
}

func (s *Service) handleInvoicePaid(ctx context.Context, event payments.Event) (*EventResult, error) {
	var invoice payments.Invoice
	if err := json.Unmarshal(event.Data, &invoice); err != nil {
		return nil, fmt.Errorf("invalid invoice payload: %w", err)
	}
	if invoice.SubscriptionID == "" {
		return nil, errors.New("subscription id missing from invoice event")
	}

	recurring, err := s.repo.GetRecurringBySubscriptionReference(invoice.SubscriptionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// no local linkage; retrieve the subscription and rebuild it from
		// gateway metadata
		recurring, err = s.recoverRecurringFromGateway(ctx, invoice.SubscriptionID)
		if err != nil {
			return nil, err
		}
	}

	// every billing cycle produces a new donation keyed by the cycle's own
	// payment reference, so redelivered invoice events cannot double-count
	ref := invoice.ID
	if invoice.PaymentIntent != nil && invoice.PaymentIntent.ID != "" {
		ref = invoice.PaymentIntent.ID
	}
	amount := invoice.AmountPaid
	if amount <= 0 {
		amount = recurring.Amount
	}

	fallback := &models.Donation{
		Amount:                amount,
		Currency:              recurring.Currency,
		DonorID:               recurring.DonorID,
		CampaignID:            recurring.CampaignID,
		SubscriptionReference: invoice.SubscriptionID,
		Status:                models.DonationStatusPending,
		IsRecurring:           true,
		Frequency:             recurring.Frequency,
	}
	return s.completeAndSettle(ref, fallback)
}

func (s *Service) handleSubscriptionDeleted(event payments.Event) (*EventResult, error) {
	var sub payments.Subscription
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return nil, fmt.Errorf("invalid subscription payload: %w", err)
	}
	if sub.ID == "" {
		return nil, errors.New("subscription id missing from event")
	}

	count, err := s.repo.CancelSubscription(sub.ID)
	if err != nil {
		return nil, err
	}
	return &EventResult{CancelledCount: count}, nil
}

func (s *Service) completeAndSettle(ref string, fallback *models.Donation) (*EventResult, error) {
	donation, applied, err := s.repo.CompleteDonation(ref, fallback)
	if err != nil {
		return nil, err
	}

	result := &EventResult{
		Donation:      donation,
		LedgerApplied: applied,
		CampaignID:    donation.CampaignID,
	}
	if applied {
		completed, err := s.repo.MarkCampaignCompleted(donation.CampaignID)
		if err != nil {
			log.Printf("donations: campaign completion check failed for campaign %d: %v", donation.CampaignID, err)
		}
		result.CampaignCompleted = completed
	}
	return result, nil
}

// recoverRecurringFromGateway rebuilds a missing local subscription linkage
// from the gateway's subscription metadata.
func (s *Service) recoverRecurringFromGateway(ctx context.Context, subscriptionRef string) (*models.RecurringDonation, error) {
	sub, err := s.gateway.GetSubscription(ctx, subscriptionRef)
	if err != nil {
		return nil, err
	}

	campaignID, err1 := parseUintMeta(sub.Metadata[MetaCampaignID])
	donorID, err2 := parseUintMeta(sub.Metadata[MetaDonorID])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("subscription %s carries no usable linkage metadata", subscriptionRef)
	}

	recurring := &models.RecurringDonation{
		Amount:                sub.Amount,
		Currency:              sub.Currency,
		DonorID:               donorID,
		CampaignID:            campaignID,
		SubscriptionReference: sub.ID,
		Frequency:             sub.Metadata[MetaFrequency],
		Status:                models.RecurringStatusActive,
	}
	if err := s.repo.CreateRecurringDonation(recurring); err != nil {
		return nil, err
	}
	return recurring, nil
}

func donationFromIntentMetadata(intent *payments.PaymentIntent) *models.Donation {
	campaignID, err1 := parseUintMeta(intent.Metadata[MetaCampaignID])
	donorID, err2 := parseUintMeta(intent.Metadata[MetaDonorID])
	if err1 != nil || err2 != nil {
		return nil
	}
	return &models.Donation{
		Amount:      intent.Amount,
		Currency:    intent.Currency,
		DonorID:     donorID,
		CampaignID:  campaignID,
		Status:      models.DonationStatusPending,
		Anonymous:   intent.Metadata[MetaAnonymous] == "true",
		IsRecurring: intent.Metadata[MetaFrequency] != "",
		Frequency:   intent.Metadata[MetaFrequency],
	}
}

func parseUintMeta(raw string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("zero id")
	}
	return uint(v), nil
}

package donations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fundfox/FundFox/app/models"
	"github.com/fundfox/FundFox/internal/pkg/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepository reproduces the guarded completion semantics of the GORM
// repository in memory so service behavior can be tested without a database.
type fakeRepository struct {
	campaigns       map[uint]*models.Campaign
	users           map[uint]*models.User
	donations       map[string]*models.Donation // keyed by PaymentReference
	recurring       map[string]*models.RecurringDonation
	webhookEvents   map[string]*models.PaymentWebhookEvent
	nextID          uint
	failCreateCount int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		campaigns:     make(map[uint]*models.Campaign),
		users:         make(map[uint]*models.User),
		donations:     make(map[string]*models.Donation),
		recurring:     make(map[string]*models.RecurringDonation),
		webhookEvents: make(map[string]*models.PaymentWebhookEvent),
	}
}

func (f *fakeRepository) GetCampaignByID(id uint) (*models.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeRepository) MarkCampaignCompleted(id uint) (bool, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return false, nil
	}
	if c.Status == models.CampaignStatusActive && c.CurrentAmount >= c.GoalAmount {
		c.Status = models.CampaignStatusCompleted
		return true, nil
	}
	return false, nil
}

func (f *fakeRepository) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeRepository) SaveUserPaymentCustomerID(userID uint, customerID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PaymentCustomerID = customerID
	return nil
}

func (f *fakeRepository) CreateDonation(d *models.Donation) error {
	if f.failCreateCount > 0 {
		f.failCreateCount--
		return errors.New("simulated write failure")
	}
	if _, exists := f.donations[d.PaymentReference]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	d.ID = f.nextID
	f.donations[d.PaymentReference] = d
	return nil
}

func (f *fakeRepository) GetDonationByPaymentReference(ref string) (*models.Donation, error) {
	d, ok := f.donations[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeRepository) CompleteDonation(ref string, fallback *models.Donation) (*models.Donation, bool, error) {
	d, ok := f.donations[ref]
	if !ok {
		if fallback == nil {
			return nil, false, gorm.ErrRecordNotFound
		}
		fallback.PaymentReference = ref
		f.nextID++
		fallback.ID = f.nextID
		f.donations[ref] = fallback
		d = fallback
	}
	if !d.CanTransitionTo(models.DonationStatusCompleted) {
		return d, false, nil
	}
	d.Status = models.DonationStatusCompleted
	now := time.Now()
	d.CompletedAt = &now
	if c, ok := f.campaigns[d.CampaignID]; ok {
		c.CurrentAmount += d.Amount
		c.DonorCount++
	}
	return d, true, nil
}

func (f *fakeRepository) FailDonation(ref string) (int64, error) {
	d, ok := f.donations[ref]
	if !ok || d.Status != models.DonationStatusPending {
		return 0, nil
	}
	d.Status = models.DonationStatusFailed
	return 1, nil
}

func (f *fakeRepository) CreateRecurringDonation(rd *models.RecurringDonation) error {
	if _, exists := f.recurring[rd.SubscriptionReference]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	rd.ID = f.nextID
	f.recurring[rd.SubscriptionReference] = rd
	return nil
}

func (f *fakeRepository) GetRecurringBySubscriptionReference(ref string) (*models.RecurringDonation, error) {
	rd, ok := f.recurring[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rd, nil
}

func (f *fakeRepository) CancelSubscription(subRef string) (int64, error) {
	var count int64
	if rd, ok := f.recurring[subRef]; ok {
		rd.Status = models.RecurringStatusCancelled
		now := time.Now()
		rd.CancelledAt = &now
	}
	for _, d := range f.donations {
		if d.SubscriptionReference == subRef && d.Status == models.DonationStatusPending {
			d.Status = models.DonationStatusCancelled
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.webhookEvents[key]; ok {
		return false, existing, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.webhookEvents[key] = event
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.webhookEvents {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeGateway returns canned gateway objects and records call counts.
type fakeGateway struct {
	intentStatus    string
	intentCalls     int
	customerCalls   int
	cancelCalls     int
	subscription    payments.Subscription
	subscriptionErr error
	intentErr       error
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, params payments.CustomerParams) (payments.Customer, error) {
	g.customerCalls++
	return payments.Customer{ID: "cus_test_1", Email: params.Email, Name: params.Name}, nil
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, params payments.PaymentIntentParams) (payments.PaymentIntent, error) {
	g.intentCalls++
	if g.intentErr != nil {
		return payments.PaymentIntent{}, g.intentErr
	}
	status := g.intentStatus
	if status == "" {
		status = payments.IntentStatusSucceeded
	}
	return payments.PaymentIntent{
		ID:           fmt.Sprintf("pi_test_%d", g.intentCalls),
		Amount:       params.Amount,
		Currency:     params.Currency,
		Status:       status,
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.intentCalls),
		CustomerID:   params.CustomerID,
		Metadata:     params.Metadata,
	}, nil
}

func (g *fakeGateway) GetPaymentIntent(ctx context.Context, id string) (payments.PaymentIntent, error) {
	return payments.PaymentIntent{ID: id}, nil
}

func (g *fakeGateway) CreateSubscription(ctx context.Context, params payments.SubscriptionParams) (payments.Subscription, error) {
	if g.subscriptionErr != nil {
		return payments.Subscription{}, g.subscriptionErr
	}
	g.intentCalls++
	status := g.intentStatus
	if status == "" {
		status = payments.IntentStatusSucceeded
	}
	return payments.Subscription{
		ID:         "sub_test_1",
		CustomerID: params.CustomerID,
		Status:     "active",
		Amount:     params.Amount,
		Currency:   params.Currency,
		Interval:   params.Interval,
		Metadata:   params.Metadata,
		LatestInvoice: &payments.Invoice{
			ID:             "in_test_1",
			SubscriptionID: "sub_test_1",
			AmountPaid:     params.Amount,
			Currency:       params.Currency,
			PaymentIntent: &payments.PaymentIntent{
				ID:           fmt.Sprintf("pi_test_%d", g.intentCalls),
				Amount:       params.Amount,
				Currency:     params.Currency,
				Status:       status,
				ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.intentCalls),
			},
		},
	}, nil
}

func (g *fakeGateway) GetSubscription(ctx context.Context, id string) (payments.Subscription, error) {
	if g.subscriptionErr != nil {
		return payments.Subscription{}, g.subscriptionErr
	}
	sub := g.subscription
	sub.ID = id
	return sub, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, id string) (payments.Subscription, error) {
	g.cancelCalls++
	return payments.Subscription{ID: id, Status: "canceled"}, nil
}

func testFixture() (*fakeRepository, *fakeGateway, *Service) {
	repo := newFakeRepository()
	repo.campaigns[1] = &models.Campaign{
		ID:            1,
		Title:         "Clean Water for Loma Alta",
		GoalAmount:    500000,
		CurrentAmount: 0,
		Currency:      "usd",
		Status:        models.CampaignStatusActive,
	}
	repo.users[7] = &models.User{
		ID:    7,
		Name:  "Dana Donor",
		Email: "dana@example.com",
	}
	gateway := &fakeGateway{}
	return repo, gateway, NewService(repo, gateway)
}

func intentEvent(t *testing.T, eventType string, intent payments.PaymentIntent) payments.Event {
	t.Helper()
	data, err := json.Marshal(intent)
	require.NoError(t, err)
	return payments.Event{ID: "evt_" + intent.ID, Type: eventType, Data: data}
}

func invoiceEvent(t *testing.T, eventType string, invoice payments.Invoice) payments.Event {
	t.Helper()
	data, err := json.Marshal(invoice)
	require.NoError(t, err)
	return payments.Event{ID: "evt_" + invoice.ID, Type: eventType, Data: data}
}

func TestCreateDonationSingleLedgerIncrement(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusSucceeded

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          2500,
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Donation)
	assert.True(t, result.LedgerApplied)
	assert.Equal(t, models.DonationStatusCompleted, result.Donation.Status)
	assert.Equal(t, int64(2500), repo.campaigns[1].CurrentAmount)
	assert.Equal(t, int64(1), repo.campaigns[1].DonorCount)

	// replaying the gateway confirmation must not increment again
	eventResult, err := svc.ProcessEvent(context.Background(), intentEvent(t, payments.EventPaymentIntentSucceeded, payments.PaymentIntent{
		ID:     result.Donation.PaymentReference,
		Amount: 2500,
	}))
	require.NoError(t, err)
	assert.False(t, eventResult.LedgerApplied)
	assert.Equal(t, int64(2500), repo.campaigns[1].CurrentAmount)
	assert.Equal(t, int64(1), repo.campaigns[1].DonorCount)
}

func TestCreateDonationAsyncConfirmation(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusRequiresAction

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          10000,
		PaymentMethodID: "pm_card_3ds",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DonationStatusPending, result.Donation.Status)
	assert.False(t, result.LedgerApplied)
	assert.NotEmpty(t, result.ClientSecret)
	assert.Equal(t, int64(0), repo.campaigns[1].CurrentAmount)

	eventResult, err := svc.ProcessEvent(context.Background(), intentEvent(t, payments.EventPaymentIntentSucceeded, payments.PaymentIntent{
		ID:     result.Donation.PaymentReference,
		Amount: 10000,
	}))
	require.NoError(t, err)
	assert.True(t, eventResult.LedgerApplied)
	assert.Equal(t, int64(10000), repo.campaigns[1].CurrentAmount)
}

func TestFailedPaymentLeavesLedgerUntouched(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusProcessing

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          5000,
		PaymentMethodID: "pm_card_declined",
	})
	require.NoError(t, err)

	eventResult, err := svc.ProcessEvent(context.Background(), intentEvent(t, payments.EventPaymentIntentFailed, payments.PaymentIntent{
		ID: result.Donation.PaymentReference,
	}))
	require.NoError(t, err)
	assert.False(t, eventResult.LedgerApplied)
	assert.Equal(t, models.DonationStatusFailed, result.Donation.Status)
	assert.Equal(t, int64(0), repo.campaigns[1].CurrentAmount)
	assert.Equal(t, int64(0), repo.campaigns[1].DonorCount)
}

func TestDuplicateWebhookCountedOnce(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusProcessing

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          7500,
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)

	event := intentEvent(t, payments.EventPaymentIntentSucceeded, payments.PaymentIntent{
		ID:     result.Donation.PaymentReference,
		Amount: 7500,
	})
	for i := 0; i < 3; i++ {
		_, err := svc.ProcessEvent(context.Background(), event)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(7500), repo.campaigns[1].CurrentAmount)
	assert.Equal(t, int64(1), repo.campaigns[1].DonorCount)
}

func TestWebhookReconstructsLostDonation(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusProcessing
	repo.failCreateCount = 1

	_, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          3000,
		PaymentMethodID: "pm_card_visa",
	})
	require.Error(t, err)
	assert.Empty(t, repo.donations)

	// the gateway charged anyway; metadata carries the linkage back
	eventResult, err := svc.ProcessEvent(context.Background(), intentEvent(t, payments.EventPaymentIntentSucceeded, payments.PaymentIntent{
		ID:       "pi_test_1",
		Amount:   3000,
		Currency: "usd",
		Metadata: map[string]string{MetaCampaignID: "1", MetaDonorID: "7"},
	}))
	require.NoError(t, err)
	assert.True(t, eventResult.LedgerApplied)
	require.NotNil(t, eventResult.Donation)
	assert.Equal(t, uint(7), eventResult.Donation.DonorID)
	assert.Equal(t, int64(3000), repo.campaigns[1].CurrentAmount)
}

func TestAmountBounds(t *testing.T) {
	_, _, svc := testFixture()

	for _, amount := range []int64{0, 99, 1000001, -500} {
		_, err := svc.CreateDonation(context.Background(), IntakeInput{
			DonorID: 7, CampaignID: 1, Amount: amount,
		})
		assert.ErrorIs(t, err, ErrAmountOutOfRange, "amount %d", amount)
	}

	for _, amount := range []int64{100, 1000000} {
		_, err := svc.CreateDonation(context.Background(), IntakeInput{
			DonorID: 7, CampaignID: 1, Amount: amount, PaymentMethodID: "pm_card_visa",
		})
		assert.NoError(t, err, "amount %d", amount)
	}
}

func TestNonActiveCampaignRejected(t *testing.T) {
	repo, _, svc := testFixture()

	for _, status := range []string{
		models.CampaignStatusDraft,
		models.CampaignStatusPending,
		models.CampaignStatusPaused,
		models.CampaignStatusCompleted,
		models.CampaignStatusCancelled,
		models.CampaignStatusRejected,
	} {
		repo.campaigns[1].Status = status
		_, err := svc.CreateDonation(context.Background(), IntakeInput{
			DonorID: 7, CampaignID: 1, Amount: 2500, PaymentMethodID: "pm_card_visa",
		})
		assert.ErrorIs(t, err, ErrCampaignNotActive, "status %s", status)
	}
}

func TestExpiredCampaignRejected(t *testing.T) {
	repo, _, svc := testFixture()
	past := time.Now().Add(-24 * time.Hour)
	repo.campaigns[1].EndDate = &past

	_, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID: 7, CampaignID: 1, Amount: 2500, PaymentMethodID: "pm_card_visa",
	})
	assert.ErrorIs(t, err, ErrCampaignNotActive)
}

func TestUnknownCampaign(t *testing.T) {
	_, _, svc := testFixture()

	_, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID: 7, CampaignID: 99, Amount: 2500, PaymentMethodID: "pm_card_visa",
	})
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestGatewayCustomerCreatedOnce(t *testing.T) {
	repo, gateway, svc := testFixture()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateDonation(context.Background(), IntakeInput{
			DonorID: 7, CampaignID: 1, Amount: 2500, PaymentMethodID: "pm_card_visa",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, gateway.customerCalls)
	assert.Equal(t, "cus_test_1", repo.users[7].PaymentCustomerID)
}

func TestGatewayErrorLeavesNoLocalState(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentErr = &payments.APIError{
		Type: "card_error", Code: "card_declined", Message: "Your card was declined.", Status: 402,
	}

	_, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID: 7, CampaignID: 1, Amount: 2500, PaymentMethodID: "pm_card_declined",
	})
	require.Error(t, err)
	apiErr, ok := payments.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "card_declined", apiErr.Code)
	assert.Empty(t, repo.donations)
	assert.Equal(t, int64(0), repo.campaigns[1].CurrentAmount)
}

func TestCampaignCompletesOnGoalReached(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusSucceeded
	repo.campaigns[1].GoalAmount = 4000

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID: 7, CampaignID: 1, Amount: 5000, PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)
	assert.True(t, result.CampaignCompleted)
	assert.Equal(t, models.CampaignStatusCompleted, repo.campaigns[1].Status)
}

func TestRecurringIntakeFirstCycle(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusSucceeded

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:         7,
		CampaignID:      1,
		Amount:          2000,
		IsRecurring:     true,
		Frequency:       models.FrequencyMonthly,
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)
	require.NotNil(t, result.RecurringDonation)
	assert.Equal(t, "sub_test_1", result.RecurringDonation.SubscriptionReference)
	require.NotNil(t, result.Donation)
	assert.True(t, result.Donation.IsRecurring)
	assert.True(t, result.LedgerApplied)
	assert.Equal(t, int64(2000), repo.campaigns[1].CurrentAmount)
}

func TestRecurringRequiresValidFrequency(t *testing.T) {
	_, _, svc := testFixture()

	_, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID: 7, CampaignID: 1, Amount: 2000, IsRecurring: true, Frequency: "weekly",
	})
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestInvoiceCycleCountedOnce(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusSucceeded

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:     7,
		CampaignID:  1,
		Amount:      2000,
		IsRecurring: true,
		Frequency:   models.FrequencyMonthly,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), repo.campaigns[1].CurrentAmount)

	// the gateway delivers both the intent confirmation and the invoice for
	// the same first cycle; both share the intent's payment reference
	cycle := invoiceEvent(t, payments.EventInvoicePaymentSucceeded, payments.Invoice{
		ID:             "in_test_1",
		SubscriptionID: "sub_test_1",
		AmountPaid:     2000,
		PaymentIntent:  &payments.PaymentIntent{ID: result.Donation.PaymentReference},
	})
	for i := 0; i < 2; i++ {
		eventResult, err := svc.ProcessEvent(context.Background(), cycle)
		require.NoError(t, err)
		assert.False(t, eventResult.LedgerApplied)
	}
	assert.Equal(t, int64(2000), repo.campaigns[1].CurrentAmount)

	// a genuinely new cycle increments exactly once
	next := invoiceEvent(t, payments.EventInvoicePaymentSucceeded, payments.Invoice{
		ID:             "in_test_2",
		SubscriptionID: "sub_test_1",
		AmountPaid:     2000,
		PaymentIntent:  &payments.PaymentIntent{ID: "pi_cycle_2"},
	})
	eventResult, err := svc.ProcessEvent(context.Background(), next)
	require.NoError(t, err)
	assert.True(t, eventResult.LedgerApplied)
	assert.Equal(t, int64(4000), repo.campaigns[1].CurrentAmount)

	_, err = svc.ProcessEvent(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), repo.campaigns[1].CurrentAmount)
}

func TestInvoiceRecoversSubscriptionFromGateway(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.subscription = payments.Subscription{
		Amount:   1500,
		Currency: "usd",
		Metadata: map[string]string{
			MetaCampaignID: "1",
			MetaDonorID:    "7",
			MetaFrequency:  models.FrequencyMonthly,
		},
	}

	eventResult, err := svc.ProcessEvent(context.Background(), invoiceEvent(t, payments.EventInvoicePaymentSucceeded, payments.Invoice{
		ID:             "in_lost_1",
		SubscriptionID: "sub_lost_1",
		AmountPaid:     1500,
		PaymentIntent:  &payments.PaymentIntent{ID: "pi_lost_1"},
	}))
	require.NoError(t, err)
	assert.True(t, eventResult.LedgerApplied)
	assert.Equal(t, int64(1500), repo.campaigns[1].CurrentAmount)

	rd, err := repo.GetRecurringBySubscriptionReference("sub_lost_1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), rd.CampaignID)
	assert.Equal(t, uint(7), rd.DonorID)
}

func TestSubscriptionDeletedCancelsPendingOnly(t *testing.T) {
	repo, gateway, svc := testFixture()
	gateway.intentStatus = payments.IntentStatusSucceeded

	result, err := svc.CreateDonation(context.Background(), IntakeInput{
		DonorID:     7,
		CampaignID:  1,
		Amount:      2000,
		IsRecurring: true,
		Frequency:   models.FrequencyMonthly,
	})
	require.NoError(t, err)
	completedRef := result.Donation.PaymentReference

	// a second cycle is still awaiting confirmation when the donor cancels
	pending := &models.Donation{
		Amount:                2000,
		DonorID:               7,
		CampaignID:            1,
		PaymentReference:      "pi_pending_cycle",
		SubscriptionReference: "sub_test_1",
		Status:                models.DonationStatusPending,
		IsRecurring:           true,
	}
	require.NoError(t, repo.CreateDonation(pending))

	data, err := json.Marshal(payments.Subscription{ID: "sub_test_1", Status: "canceled"})
	require.NoError(t, err)
	eventResult, err := svc.ProcessEvent(context.Background(), payments.Event{
		ID: "evt_sub_del", Type: payments.EventSubscriptionDeleted, Data: data,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), eventResult.CancelledCount)

	assert.Equal(t, models.DonationStatusCancelled, repo.donations["pi_pending_cycle"].Status)
	assert.Equal(t, models.DonationStatusCompleted, repo.donations[completedRef].Status)
	assert.Equal(t, models.RecurringStatusCancelled, repo.recurring["sub_test_1"].Status)
	// the ledger keeps completed cycles
	assert.Equal(t, int64(2000), repo.campaigns[1].CurrentAmount)
}

func TestCancelRecurringOwnership(t *testing.T) {
	repo, gateway, svc := testFixture()
	require.NoError(t, repo.CreateRecurringDonation(&models.RecurringDonation{
		DonorID: 7, CampaignID: 1, SubscriptionReference: "sub_test_1",
		Amount: 2000, Frequency: models.FrequencyMonthly, Status: models.RecurringStatusActive,
	}))

	_, err := svc.CancelRecurring(context.Background(), 99, "sub_test_1")
	assert.ErrorIs(t, err, ErrNotSubscriptionOwner)
	assert.Equal(t, 0, gateway.cancelCalls)

	rd, err := svc.CancelRecurring(context.Background(), 7, "sub_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.RecurringStatusCancelled, rd.Status)
	assert.Equal(t, 1, gateway.cancelCalls)
}

func TestUnknownEventIgnored(t *testing.T) {
	_, _, svc := testFixture()

	result, err := svc.ProcessEvent(context.Background(), payments.Event{
		ID: "evt_x", Type: "charge.refunded", Data: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.True(t, result.Ignored)
}

func TestRecordWebhookEventDeduplication(t *testing.T) {
	_, _, svc := testFixture()
	in := WebhookEventInput{
		Provider:        models.PaymentProviderCardstream,
		ProviderEventID: "evt_abc",
		EventType:       payments.EventPaymentIntentSucceeded,
		PayloadJSON:     `{"id":"evt_abc"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEventHashFallback(t *testing.T) {
	_, _, svc := testFixture()
	in := WebhookEventInput{
		Provider:    models.PaymentProviderCardstream,
		PayloadJSON: `{"type":"payment_intent.succeeded"}`,
	}

	created, event, err := svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.ProviderEventID, "hash:")

	created, _, err = svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateIntentStandalone(t *testing.T) {
	repo, gateway, svc := testFixture()

	result, err := svc.CreateIntent(context.Background(), IntentInput{
		CampaignID: 1,
		Amount:     25000,
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_1", result.PaymentIntentID)
	assert.Equal(t, "pi_test_1_secret", result.ClientSecret)
	assert.Equal(t, int64(25000), result.Amount)
	assert.Equal(t, "usd", result.Currency, "currency defaults to the campaign's")
	assert.Equal(t, uint(1), result.Campaign.ID)
	assert.Equal(t, 1, gateway.intentCalls)

	// no local writes until the gateway confirms the charge
	assert.Empty(t, repo.donations)
}

func TestCreateIntentValidation(t *testing.T) {
	repo, _, svc := testFixture()
	repo.campaigns[2] = &models.Campaign{
		ID:       2,
		Status:   models.CampaignStatusPaused,
		Currency: "usd",
	}

	_, err := svc.CreateIntent(context.Background(), IntentInput{CampaignID: 1, Amount: 99})
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = svc.CreateIntent(context.Background(), IntentInput{CampaignID: 99, Amount: 25000})
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = svc.CreateIntent(context.Background(), IntentInput{CampaignID: 2, Amount: 25000})
	assert.ErrorIs(t, err, ErrCampaignNotActive)
}

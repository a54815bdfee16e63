package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresSecretKey(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)

	client, err := NewClient(WithSecretKey("sk_test_123"))
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestCreatePaymentIntentRequest(t *testing.T) {
	var gotAuth, gotVersion, gotContentType string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment_intents", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Cardstream-Version")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "pi_123",
			"amount": 2500,
			"currency": "usd",
			"status": "succeeded",
			"client_secret": "pi_123_secret",
			"metadata": {"campaign_id": "42"}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL))
	require.NoError(t, err)

	intent, err := client.CreatePaymentIntent(context.Background(), PaymentIntentParams{
		Amount:          2500,
		Currency:        "usd",
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_card_visa",
		Confirm:         true,
		Metadata:        map[string]string{"campaign_id": "42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "2024-06-20", gotVersion)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "2500", gotForm["amount"][0])
	assert.Equal(t, "true", gotForm["confirm"][0])
	assert.Equal(t, "42", gotForm["metadata[campaign_id]"][0])

	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, IntentStatusSucceeded, intent.Status)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	assert.Equal(t, "42", intent.Metadata["campaign_id"])
}

func TestCreateSubscriptionExpandsFirstInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "latest_invoice.payment_intent", r.PostForm["expand[]"][0])
		assert.Equal(t, "month", r.PostForm["interval"][0])

		w.Write([]byte(`{
			"id": "sub_1",
			"status": "active",
			"amount": 2000,
			"currency": "usd",
			"interval": "month",
			"latest_invoice": {
				"id": "in_1",
				"subscription": "sub_1",
				"amount_paid": 2000,
				"payment_intent": {"id": "pi_1", "status": "succeeded", "client_secret": "pi_1_secret"}
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL))
	require.NoError(t, err)

	sub, err := client.CreateSubscription(context.Background(), SubscriptionParams{
		CustomerID: "cus_1",
		Amount:     2000,
		Currency:   "usd",
		Interval:   IntervalMonth,
	})
	require.NoError(t, err)
	require.NotNil(t, sub.LatestInvoice)
	require.NotNil(t, sub.LatestInvoice.PaymentIntent)
	assert.Equal(t, "pi_1", sub.LatestInvoice.PaymentIntent.ID)
	assert.Equal(t, "pi_1_secret", sub.LatestInvoice.PaymentIntent.ClientSecret)
}

func TestCancelSubscriptionUsesDelete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		w.Write([]byte(`{"id": "sub_1", "status": "canceled"}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL))
	require.NoError(t, err)

	sub, err := client.CancelSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)
}

func TestAPIErrorPassThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "code": "card_declined", "message": "Your card was declined."}}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreatePaymentIntent(context.Background(), PaymentIntentParams{Amount: 2500, Currency: "usd"})
	require.Error(t, err)

	apiErr, ok := IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "card_declined", apiErr.Code)
	assert.Equal(t, "Your card was declined.", apiErr.Message)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"type": "api_error", "code": "unavailable", "message": "Temporarily unavailable."}}`))
			return
		}
		w.Write([]byte(`{"id": "cus_1", "email": "dana@example.com"}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL), WithRetry())
	require.NoError(t, err)

	customer, err := client.CreateCustomer(context.Background(), CustomerParams{Email: "dana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", customer.ID)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "code": "parameter_invalid", "message": "Invalid currency."}}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL), WithRetry())
	require.NoError(t, err)

	_, err = client.CreatePaymentIntent(context.Background(), PaymentIntentParams{Amount: 2500, Currency: "zzz"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNoRetryWithoutOption(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"type": "api_error", "code": "unavailable", "message": "Temporarily unavailable."}}`))
	}))
	defer server.Close()

	client, err := NewClient(WithSecretKey("sk_test_123"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreateCustomer(context.Background(), CustomerParams{Email: "dana@example.com"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"id":"pi_1"}}`)
	secret := "whsec_test_secret"
	sig := SignPayload(payload, secret)

	assert.True(t, VerifyWebhookSignature(payload, sig, secret))
	assert.True(t, VerifyWebhookSignature(payload, strings.ToUpper(sig), secret))
	assert.True(t, VerifyWebhookSignature(payload, "  "+sig+"\n", secret))

	assert.False(t, VerifyWebhookSignature(payload, sig, "whsec_other"))
	assert.False(t, VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), sig, secret))
	assert.False(t, VerifyWebhookSignature(payload, "", secret))
	assert.False(t, VerifyWebhookSignature(payload, sig, ""))
	assert.False(t, VerifyWebhookSignature(payload, "not-hex!", secret))
}

func TestConstructEvent(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"id":"pi_1","amount":2500}}`)
	secret := "whsec_test_secret"

	event, err := ConstructEvent(payload, SignPayload(payload, secret), secret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventPaymentIntentSucceeded, event.Type)
	assert.Contains(t, string(event.Data), "pi_1")

	_, err = ConstructEvent(payload, "deadbeef", secret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	garbage := []byte(`not json`)
	_, err = ConstructEvent(garbage, SignPayload(garbage, secret), secret)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

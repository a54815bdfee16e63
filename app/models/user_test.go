package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestCreateUserDefaults(t *testing.T) {
	user, err := CreateUser("jane", "jane@example.com", "secret-pass")
	require.NoError(t, err)

	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_INACTIVE, user.Status)
	assert.True(t, CheckPasswordHash("secret-pass", user.Password))
	assert.False(t, user.IsActive())
}

func TestGenerateActivationToken(t *testing.T) {
	u := &User{}
	require.NoError(t, u.GenerateActivationToken())

	require.NotEmpty(t, u.ActivationToken)
	require.NotNil(t, u.ActivationSentAt)

	prev := u.ActivationToken
	require.NoError(t, u.GenerateActivationToken())
	assert.NotEqual(t, prev, u.ActivationToken)
}

func TestHasPaymentCustomer(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasPaymentCustomer())

	u.PaymentCustomerID = "cus_123"
	assert.True(t, u.HasPaymentCustomer())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDonationStatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{DonationStatusPending, DonationStatusCompleted, true},
		{DonationStatusPending, DonationStatusFailed, true},
		{DonationStatusPending, DonationStatusCancelled, true},
		{DonationStatusFailed, DonationStatusCompleted, true},
		{DonationStatusFailed, DonationStatusPending, false},
		{DonationStatusCompleted, DonationStatusFailed, false},
		{DonationStatusCompleted, DonationStatusPending, false},
		{DonationStatusCancelled, DonationStatusCompleted, false},
		{DonationStatusCompleted, DonationStatusCompleted, false},
	}

	for _, tt := range tests {
		d := &Donation{Status: tt.from}
		assert.Equal(t, tt.allowed, d.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsValidFrequency(t *testing.T) {
	assert.True(t, IsValidFrequency(FrequencyMonthly))
	assert.True(t, IsValidFrequency(FrequencyQuarterly))
	assert.True(t, IsValidFrequency(FrequencyAnnually))

	assert.False(t, IsValidFrequency(""))
	assert.False(t, IsValidFrequency("weekly"))
	assert.False(t, IsValidFrequency("Monthly"))
}

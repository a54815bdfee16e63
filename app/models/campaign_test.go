package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCampaignIsAcceptingDonations(t *testing.T) {
	c := &Campaign{Status: CampaignStatusActive}
	assert.True(t, c.IsAcceptingDonations())

	for _, status := range []string{
		CampaignStatusDraft,
		CampaignStatusPending,
		CampaignStatusCompleted,
		CampaignStatusPaused,
		CampaignStatusCancelled,
		CampaignStatusRejected,
	} {
		c.Status = status
		assert.False(t, c.IsAcceptingDonations(), "status %s must not accept donations", status)
	}
}

func TestCampaignIsAcceptingDonations_EndDate(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	c := &Campaign{Status: CampaignStatusActive, EndDate: &past}
	assert.False(t, c.IsAcceptingDonations())

	c.EndDate = &future
	assert.True(t, c.IsAcceptingDonations())
}

func TestCampaignGoalReached(t *testing.T) {
	c := &Campaign{GoalAmount: 50000, CurrentAmount: 49999}
	assert.False(t, c.GoalReached())

	c.CurrentAmount = 50000
	assert.True(t, c.GoalReached())

	c.CurrentAmount = 60000
	assert.True(t, c.GoalReached())
}

func TestCampaignPercentFunded(t *testing.T) {
	c := &Campaign{GoalAmount: 20000, CurrentAmount: 5000}
	assert.InDelta(t, 25.0, c.PercentFunded(), 0.001)

	c.GoalAmount = 0
	assert.Equal(t, 0.0, c.PercentFunded())
}

func TestCampaignStatusTransitions(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{CampaignStatusDraft, CampaignStatusPending, true},
		{CampaignStatusDraft, CampaignStatusActive, false},
		{CampaignStatusPending, CampaignStatusActive, true},
		{CampaignStatusPending, CampaignStatusRejected, true},
		{CampaignStatusRejected, CampaignStatusPending, true},
		{CampaignStatusActive, CampaignStatusPaused, true},
		{CampaignStatusActive, CampaignStatusCompleted, true},
		{CampaignStatusActive, CampaignStatusCancelled, true},
		{CampaignStatusPaused, CampaignStatusActive, true},
		{CampaignStatusCompleted, CampaignStatusActive, false},
		{CampaignStatusCancelled, CampaignStatusActive, false},
		{CampaignStatusActive, CampaignStatusDraft, false},
	}

	for _, tt := range tests {
		c := &Campaign{Status: tt.from}
		assert.Equal(t, tt.allowed, c.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

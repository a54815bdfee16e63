package models

import (
	"time"

	"gorm.io/gorm"
)

// Donation status lifecycle. Transitions are monotonic: pending may move to
// completed, failed or cancelled exactly once; completed is terminal.
const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
	DonationStatusCancelled = "cancelled"
)

// Donation frequencies for recurring gifts.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
)

// Donation is one donation attempt and its lifecycle status. PaymentReference
// holds the gateway payment-intent (or invoice payment) id and carries a unique
// index: it is the idempotency key the reconciliation handler dedupes on.
type Donation struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Amount                int64          `gorm:"not null" json:"amount"` // minor units
	Currency              string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	DonorID               uint           `gorm:"not null;index" json:"donor_id"`
	Donor                 User           `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	CampaignID            uint           `gorm:"not null;index" json:"campaign_id"`
	Campaign              Campaign       `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	PaymentReference      string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"payment_reference"`
	SubscriptionReference string         `gorm:"type:varchar(191);default:'';index" json:"subscription_reference,omitempty"`
	Status                string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsRecurring           bool           `gorm:"default:false" json:"is_recurring"`
	Frequency             string         `gorm:"type:varchar(20);default:''" json:"frequency,omitempty"`
	Anonymous             bool           `gorm:"default:false" json:"anonymous"`
	Message               string         `gorm:"type:text" json:"message,omitempty"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt           *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanTransitionTo enforces legal donation status transitions.
func (d *Donation) CanTransitionTo(status string) bool {
	if d.Status == status {
		return false
	}
	switch d.Status {
	case DonationStatusPending:
		return status == DonationStatusCompleted || status == DonationStatusFailed || status == DonationStatusCancelled
	case DonationStatusFailed:
		// a retried payment on the same intent may still succeed
		return status == DonationStatusCompleted
	default:
		// completed and cancelled are terminal
		return false
	}
}

// IsValidFrequency reports whether f is an accepted recurrence interval.
func IsValidFrequency(f string) bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	default:
		return false
	}
}

// RecurringDonation tracks a gateway subscription for repeated gifts. Each
// successful billing cycle creates a new Donation row linked back through
// SubscriptionReference; this row is never mutated by individual charges.
type RecurringDonation struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Amount                int64          `gorm:"not null" json:"amount"` // minor units per cycle
	Currency              string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	DonorID               uint           `gorm:"not null;index" json:"donor_id"`
	Donor                 User           `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	CampaignID            uint           `gorm:"not null;index" json:"campaign_id"`
	Campaign              Campaign       `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	SubscriptionReference string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"subscription_reference"`
	Frequency             string         `gorm:"type:varchar(20);not null" json:"frequency"`
	Status                string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	NextBillingAt         *time.Time     `gorm:"type:timestamp;default:null" json:"next_billing_at,omitempty"`
	CancelledAt           *time.Time     `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// Recurring donation subscription states mirrored from the gateway.
const (
	RecurringStatusActive    = "active"
	RecurringStatusPastDue   = "past_due"
	RecurringStatusCancelled = "cancelled"
)

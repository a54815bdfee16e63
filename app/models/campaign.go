package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign lifecycle. A campaign starts as a draft, is submitted for review
// (pending), and only accepts donations while active.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusPending   = "pending"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusPaused    = "paused"
	CampaignStatusCancelled = "cancelled"
	CampaignStatusRejected  = "rejected"
)

// Campaign is a fundraising campaign. CurrentAmount is the campaign ledger:
// it is only ever mutated through atomic SQL increments driven by confirmed
// donations and never decremented.
type Campaign struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Title         string         `gorm:"type:varchar(200)" json:"title" validate:"required,min=5,max=200"`
	Slug          string         `gorm:"type:varchar(220);uniqueIndex" json:"slug"`
	Description   string         `gorm:"type:text" json:"description" validate:"required,min=20"`
	Story         string         `gorm:"type:longtext" json:"story"`
	CoverImageURL string         `gorm:"type:varchar(255);default:''" json:"cover_image_url"`
	GoalAmount    int64          `gorm:"not null" json:"goal_amount" validate:"required,gt=0"` // minor units
	CurrentAmount int64          `gorm:"not null;default:0" json:"current_amount"`
	Currency      string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency" validate:"oneof=usd eur gbp"`
	Status        string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status" validate:"oneof=draft pending active completed paused cancelled rejected"`
	OwnerID       uint           `gorm:"not null;index" json:"owner_id"`
	Owner         User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty" validate:"-"`
	EndDate       *time.Time     `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	DonorCount    int64          `gorm:"not null;default:0" json:"donor_count"`
	ViewCount     int64          `gorm:"not null;default:0" json:"view_count"`
	RejectReason  string         `gorm:"type:text" json:"reject_reason,omitempty"`
	VerifiedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	VerifiedByID  *uint          `json:"-"`
	VerifiedBy    *User          `gorm:"foreignKey:VerifiedByID" json:"-" validate:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Campaign) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// BeforeCreate assigns the public UUID.
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	return nil
}

// IsAcceptingDonations reports whether new donations may be made.
func (c *Campaign) IsAcceptingDonations() bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if c.EndDate != nil && time.Now().After(*c.EndDate) {
		return false
	}
	return true
}

// GoalReached reports whether the ledger has reached the campaign goal.
func (c *Campaign) GoalReached() bool {
	return c.CurrentAmount >= c.GoalAmount
}

// PercentFunded returns funding progress in percent, capped at 100.
func (c *Campaign) PercentFunded() float64 {
	if c.GoalAmount <= 0 {
		return 0
	}
	pct := float64(c.CurrentAmount) / float64(c.GoalAmount) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// CanTransitionTo enforces the campaign lifecycle
// draft -> pending -> active -> completed/paused/cancelled.
func (c *Campaign) CanTransitionTo(status string) bool {
	switch c.Status {
	case CampaignStatusDraft:
		return status == CampaignStatusPending || status == CampaignStatusCancelled
	case CampaignStatusPending:
		return status == CampaignStatusActive || status == CampaignStatusRejected || status == CampaignStatusCancelled
	case CampaignStatusActive:
		return status == CampaignStatusCompleted || status == CampaignStatusPaused || status == CampaignStatusCancelled
	case CampaignStatusPaused:
		return status == CampaignStatusActive || status == CampaignStatusCancelled
	case CampaignStatusRejected:
		return status == CampaignStatusPending
	default:
		// completed and cancelled are terminal
		return false
	}
}

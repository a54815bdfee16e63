package donations

import (
	"time"

	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the donation service.
type Repository interface {
	GetCampaignByID(id uint) (*models.Campaign, error)
	MarkCampaignCompleted(id uint) (bool, error)
	GetUserByID(id uint) (*models.User, error)
	SaveUserPaymentCustomerID(userID uint, customerID string) error
	CreateDonation(d *models.Donation) error
	GetDonationByPaymentReference(ref string) (*models.Donation, error)
	CompleteDonation(ref string, fallback *models.Donation) (*models.Donation, bool, error)
	FailDonation(ref string) (int64, error)
	CreateRecurringDonation(rd *models.RecurringDonation) error
	GetRecurringBySubscriptionReference(ref string) (*models.RecurringDonation, error)
	CancelSubscription(subRef string) (int64, error)
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a donation repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCampaignByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// MarkCampaignCompleted flips an active campaign to completed once its ledger
// reached the goal. The WHERE guard makes concurrent calls race-free.
func (r *gormRepository) MarkCampaignCompleted(id uint) (bool, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ? AND current_amount >= goal_amount", id, models.CampaignStatusActive).
		Update("status", models.CampaignStatusCompleted)
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SaveUserPaymentCustomerID(userID uint, customerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("payment_customer_id", customerID).Error
}

func (r *gormRepository) CreateDonation(d *models.Donation) error {
	return r.db.Create(d).Error
}

func (r *gormRepository) GetDonationByPaymentReference(ref string) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.Where("payment_reference = ?", ref).First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

// CompleteDonation performs the guarded pending->completed transition and the
// campaign ledger increment in one transaction. The unique payment_reference
// index plus the status guard make the operation idempotent: replaying the
// same confirmation (intake path and webhook path, or a redelivered webhook)
// increments the ledger exactly once. When no donation row exists yet and a
// fallback is supplied, the row is reconstructed from event metadata first.
func (r *gormRepository) CompleteDonation(ref string, fallback *models.Donation) (*models.Donation, bool, error) {
	var donation models.Donation
	applied := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if fallback != nil {
			fallback.PaymentReference = ref
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "payment_reference"}},
				DoNothing: true,
			}).Create(fallback).Error; err != nil {
				return err
			}
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_reference = ?", ref).
			First(&donation).Error; err != nil {
			return err
		}

		if !donation.CanTransitionTo(models.DonationStatusCompleted) {
			// already completed (replay) or cancelled; leave ledger untouched
			return nil
		}

		now := time.Now()
		res := tx.Model(&models.Donation{}).
			Where("payment_reference = ? AND status <> ?", ref, models.DonationStatusCompleted).
			Updates(map[string]interface{}{
				"status":       models.DonationStatusCompleted,
				"completed_at": &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		donation.Status = models.DonationStatusCompleted
		donation.CompletedAt = &now

		if err := tx.Model(&models.Campaign{}).
			Where("id = ?", donation.CampaignID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", donation.Amount),
				"donor_count":    gorm.Expr("donor_count + ?", 1),
			}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &donation, applied, nil
}

// FailDonation marks a pending donation as failed. Completed donations are
// never demoted, so the guard only matches pending rows.
func (r *gormRepository) FailDonation(ref string) (int64, error) {
	res := r.db.Model(&models.Donation{}).
		Where("payment_reference = ? AND status = ?", ref, models.DonationStatusPending).
		Update("status", models.DonationStatusFailed)
	return res.RowsAffected, res.Error
}

func (r *gormRepository) CreateRecurringDonation(rd *models.RecurringDonation) error {
	return r.db.Create(rd).Error
}

func (r *gormRepository) GetRecurringBySubscriptionReference(ref string) (*models.RecurringDonation, error) {
	var rd models.RecurringDonation
	if err := r.db.Where("subscription_reference = ?", ref).First(&rd).Error; err != nil {
		return nil, err
	}
	return &rd, nil
}

// CancelSubscription marks the recurring donation cancelled and cancels the
// pending donations tied to it. Completed donations are untouched.
func (r *gormRepository) CancelSubscription(subRef string) (int64, error) {
	var cancelled int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.RecurringDonation{}).
			Where("subscription_reference = ? AND status <> ?", subRef, models.RecurringStatusCancelled).
			Updates(map[string]interface{}{
				"status":       models.RecurringStatusCancelled,
				"cancelled_at": &now,
			}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Donation{}).
			Where("subscription_reference = ? AND status = ?", subRef, models.DonationStatusPending).
			Update("status", models.DonationStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		cancelled = res.RowsAffected
		return nil
	})
	return cancelled, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

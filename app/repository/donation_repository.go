package repository

import (
	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// donationRepository implements the DonationRepository interface. It is
// read-only: donation lifecycle writes happen in the donations service where
// the ledger guarantees live.
type donationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository instance
func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

// GetByID retrieves a donation by its ID
func (r *donationRepository) GetByID(id uint) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.Preload("Donor").Preload("Campaign").First(&donation, id).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// GetByCampaignID retrieves donations for a campaign with pagination
func (r *donationRepository) GetByCampaignID(campaignID uint, offset, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("Donor").
		Where("campaign_id = ?", campaignID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&donations).Error
	return donations, err
}

// GetCompletedByCampaignID retrieves confirmed donations for the public donor wall
func (r *donationRepository) GetCompletedByCampaignID(campaignID uint, offset, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("Donor").
		Where("campaign_id = ? AND status = ?", campaignID, models.DonationStatusCompleted).
		Offset(offset).Limit(limit).
		Order("completed_at DESC").
		Find(&donations).Error
	return donations, err
}

// GetByDonorID retrieves a donor's donation history
func (r *donationRepository) GetByDonorID(donorID uint, offset, limit int) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.Preload("Campaign").
		Where("donor_id = ?", donorID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&donations).Error
	return donations, err
}

// GetRecurringByDonorID retrieves a donor's recurring donation subscriptions
func (r *donationRepository) GetRecurringByDonorID(donorID uint) ([]models.RecurringDonation, error) {
	var recurring []models.RecurringDonation
	err := r.db.Preload("Campaign").
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&recurring).Error
	return recurring, err
}

// CountCompleted returns the number of confirmed donations platform-wide
func (r *donationRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.db.Model(&models.Donation{}).
		Where("status = ?", models.DonationStatusCompleted).
		Count(&count).Error
	return count, err
}

// SumCompleted returns the total confirmed donation volume in minor units
func (r *donationRepository) SumCompleted() (int64, error) {
	var total int64
	err := r.db.Model(&models.Donation{}).
		Where("status = ?", models.DonationStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// CountCompletedByCampaignID returns the number of confirmed donations for a campaign
func (r *donationRepository) CountCompletedByCampaignID(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Donation{}).
		Where("campaign_id = ? AND status = ?", campaignID, models.DonationStatusCompleted).
		Count(&count).Error
	return count, err
}

// GetDistinctDonorIDs returns the unique registered donors of a campaign
func (r *donationRepository) GetDistinctDonorIDs(campaignID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Donation{}).
		Where("campaign_id = ? AND status = ? AND donor_id > 0", campaignID, models.DonationStatusCompleted).
		Distinct("donor_id").
		Pluck("donor_id", &ids).Error
	return ids, err
}

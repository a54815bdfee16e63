package repository

import (
	"time"

	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// campaignRepository implements the CampaignRepository interface
type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository instance
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create creates a new campaign in the database
func (r *campaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by its ID
func (r *campaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Preload("Owner").First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByUUID retrieves a campaign by its public UUID
func (r *campaignRepository) GetByUUID(uuid string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Preload("Owner").Where("uuid = ?", uuid).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetBySlug retrieves a campaign by its slug
func (r *campaignRepository) GetBySlug(slug string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Preload("Owner").Where("slug = ?", slug).First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByOwnerID retrieves all campaigns belonging to a user
func (r *campaignRepository) GetByOwnerID(ownerID uint) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// Update updates an existing campaign
func (r *campaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// UpdateStatus moves a campaign from one status to another. The WHERE guard
// keeps concurrent moderation actions from clobbering each other.
func (r *campaignRepository) UpdateStatus(id uint, from, to string) (bool, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// Delete soft-deletes a campaign by ID
func (r *campaignRepository) Delete(id uint) error {
	return r.db.Delete(&models.Campaign{}, id).Error
}

// ListByStatus retrieves campaigns by status with pagination
func (r *campaignRepository) ListByStatus(status string, offset, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Preload("Owner").
		Where("status = ?", status).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// CountByStatus returns the number of campaigns in a status
func (r *campaignRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Campaign{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Search finds active campaigns matching the query in title or description
func (r *campaignRepository) Search(query string, offset, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	like := "%" + query + "%"
	err := r.db.Where("status = ? AND (title LIKE ? OR description LIKE ?)", models.CampaignStatusActive, like, like).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// GetActiveEndingSoon returns active campaigns ordered by nearest end date
func (r *campaignRepository) GetActiveEndingSoon(limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("status = ? AND end_date IS NOT NULL AND end_date > ?", models.CampaignStatusActive, time.Now()).
		Order("end_date ASC").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

// GetTopFunded returns active campaigns with the highest funding ratio
func (r *campaignRepository) GetTopFunded(limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("status = ?", models.CampaignStatusActive).
		Order("current_amount * 100 / goal_amount DESC").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

// GetRecent returns the most recently activated campaigns
func (r *campaignRepository) GetRecent(limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("status = ?", models.CampaignStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

// AddViewCount increments a campaign's view counter atomically
func (r *campaignRepository) AddViewCount(id uint, delta int64) error {
	return r.db.Model(&models.Campaign{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
}

// SlugExists reports whether a slug is already taken
func (r *campaignRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Campaign{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// ExpireEnded pauses active campaigns whose end date has passed so they stop
// accepting donations. Returns the number of campaigns affected.
func (r *campaignRepository) ExpireEnded(now time.Time) (int64, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.CampaignStatusActive, now).
		Update("status", models.CampaignStatusPaused)
	return res.RowsAffected, res.Error
}

package repository

import (
	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// campaignUpdateRepository implements the CampaignUpdateRepository interface
type campaignUpdateRepository struct {
	db *gorm.DB
}

// NewCampaignUpdateRepository creates a new campaign update repository instance
func NewCampaignUpdateRepository(db *gorm.DB) CampaignUpdateRepository {
	return &campaignUpdateRepository{db: db}
}

// Create creates a new impact-story update
func (r *campaignUpdateRepository) Create(update *models.CampaignUpdate) error {
	return r.db.Create(update).Error
}

// GetByID retrieves an update by its ID
func (r *campaignUpdateRepository) GetByID(id uint) (*models.CampaignUpdate, error) {
	var update models.CampaignUpdate
	err := r.db.Preload("Author").First(&update, id).Error
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// GetByCampaignID retrieves all updates for a campaign, latest first
func (r *campaignUpdateRepository) GetByCampaignID(campaignID uint) ([]models.CampaignUpdate, error) {
	var updates []models.CampaignUpdate
	err := r.db.Preload("Author").
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&updates).Error
	return updates, err
}

// Update updates an existing impact-story update
func (r *campaignUpdateRepository) Update(update *models.CampaignUpdate) error {
	return r.db.Save(update).Error
}

// Delete soft-deletes an update by ID
func (r *campaignUpdateRepository) Delete(id uint) error {
	return r.db.Delete(&models.CampaignUpdate{}, id).Error
}

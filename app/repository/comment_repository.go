package repository

import (
	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create creates a new comment
func (r *commentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetByID retrieves a comment by its ID
func (r *commentRepository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("User").First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetByCampaignID retrieves comments for a campaign with pagination
func (r *commentRepository) GetByCampaignID(campaignID uint, offset, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("User").
		Where("campaign_id = ?", campaignID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// CountByCampaignID returns the number of comments on a campaign
func (r *commentRepository) CountByCampaignID(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("campaign_id = ?", campaignID).Count(&count).Error
	return count, err
}

// Delete soft-deletes a comment by ID
func (r *commentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Comment{}, id).Error
}

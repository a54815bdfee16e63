package repository

import (
	"time"

	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create files a new campaign report
func (r *reportRepository) Create(report *models.CampaignReport) error {
	return r.db.Create(report).Error
}

// GetByID retrieves a report by its ID
func (r *reportRepository) GetByID(id uint) (*models.CampaignReport, error) {
	var report models.CampaignReport
	err := r.db.Preload("Campaign").Preload("Reporter").First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByStatus retrieves reports by status with pagination
func (r *reportRepository) GetByStatus(status string, offset, limit int) ([]models.CampaignReport, error) {
	var reports []models.CampaignReport
	err := r.db.Preload("Campaign").
		Where("status = ?", status).
		Offset(offset).Limit(limit).
		Order("created_at ASC").
		Find(&reports).Error
	return reports, err
}

// CountByStatus returns the number of reports in a status
func (r *reportRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.CampaignReport{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Resolve closes an open report with the given outcome status
func (r *reportRepository) Resolve(id uint, resolvedBy uint, status string) error {
	now := time.Now()
	return r.db.Model(&models.CampaignReport{}).
		Where("id = ? AND status = ?", id, models.ReportStatusOpen).
		Updates(map[string]any{
			"status":         status,
			"resolved_by_id": resolvedBy,
			"resolved_at":    now,
		}).Error
}

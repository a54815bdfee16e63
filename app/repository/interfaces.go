package repository

import (
	"time"

	"github.com/fundfox/FundFox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// CampaignRepository defines the interface for campaign-related database operations
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	GetByUUID(uuid string) (*models.Campaign, error)
	GetBySlug(slug string) (*models.Campaign, error)
	GetByOwnerID(ownerID uint) ([]models.Campaign, error)
	Update(campaign *models.Campaign) error
	UpdateStatus(id uint, from, to string) (bool, error)
	Delete(id uint) error
	ListByStatus(status string, offset, limit int) ([]models.Campaign, error)
	CountByStatus(status string) (int64, error)
	Search(query string, offset, limit int) ([]models.Campaign, error)
	GetActiveEndingSoon(limit int) ([]models.Campaign, error)
	GetTopFunded(limit int) ([]models.Campaign, error)
	GetRecent(limit int) ([]models.Campaign, error)
	AddViewCount(id uint, delta int64) error
	SlugExists(slug string) (bool, error)
	ExpireEnded(now time.Time) (int64, error)
}

// DonationRepository defines the interface for donation listing and stats.
// Donation lifecycle writes go through the donations service, not here.
type DonationRepository interface {
	GetByID(id uint) (*models.Donation, error)
	GetByCampaignID(campaignID uint, offset, limit int) ([]models.Donation, error)
	GetCompletedByCampaignID(campaignID uint, offset, limit int) ([]models.Donation, error)
	GetByDonorID(donorID uint, offset, limit int) ([]models.Donation, error)
	GetRecurringByDonorID(donorID uint) ([]models.RecurringDonation, error)
	CountCompleted() (int64, error)
	SumCompleted() (int64, error)
	CountCompletedByCampaignID(campaignID uint) (int64, error)
	GetDistinctDonorIDs(campaignID uint) ([]uint, error)
}

// CommentRepository defines the interface for comment-related database operations
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id uint) (*models.Comment, error)
	GetByCampaignID(campaignID uint, offset, limit int) ([]models.Comment, error)
	CountByCampaignID(campaignID uint) (int64, error)
	Delete(id uint) error
}

// CampaignUpdateRepository defines the interface for impact-story updates
type CampaignUpdateRepository interface {
	Create(update *models.CampaignUpdate) error
	GetByID(id uint) (*models.CampaignUpdate, error)
	GetByCampaignID(campaignID uint) ([]models.CampaignUpdate, error)
	Update(update *models.CampaignUpdate) error
	Delete(id uint) error
}

// ReportRepository defines the interface for campaign abuse reports
type ReportRepository interface {
	Create(report *models.CampaignReport) error
	GetByID(id uint) (*models.CampaignReport, error)
	GetByStatus(status string, offset, limit int) ([]models.CampaignReport, error)
	CountByStatus(status string) (int64, error)
	Resolve(id uint, resolvedBy uint, status string) error
}

// NotificationRepository defines the interface for user notifications
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnreadByUserID(userID uint) (int64, error)
	MarkRead(id uint, userID uint) error
	MarkAllRead(userID uint) error
}

// Repositories holds all repository instances
type Repositories struct {
	User           UserRepository
	Campaign       CampaignRepository
	Donation       DonationRepository
	Comment        CommentRepository
	CampaignUpdate CampaignUpdateRepository
	Report         ReportRepository
	Notification   NotificationRepository
}

// NewRepositories creates all repositories from a single DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Campaign:       NewCampaignRepository(db),
		Donation:       NewDonationRepository(db),
		Comment:        NewCommentRepository(db),
		CampaignUpdate: NewCampaignUpdateRepository(db),
		Report:         NewReportRepository(db),
		Notification:   NewNotificationRepository(db),
	}
}

package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CampaignUpdate is an impact-story update posted by the campaign owner to
// keep supporters informed about how funds are used.
type CampaignUpdate struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CampaignID uint           `gorm:"not null;index" json:"campaign_id"`
	Campaign   Campaign       `gorm:"foreignKey:CampaignID" json:"campaign,omitempty" validate:"-"`
	AuthorID   uint           `gorm:"not null;index" json:"author_id"`
	Author     User           `gorm:"foreignKey:AuthorID" json:"author,omitempty" validate:"-"`
	Title      string         `gorm:"type:varchar(200)" json:"title" validate:"required,min=3,max=200"`
	Content    string         `gorm:"type:longtext" json:"content" validate:"required,min=10"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *CampaignUpdate) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

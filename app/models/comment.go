package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index" json:"user_id"`
	User       User           `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
	CampaignID uint           `gorm:"index" json:"campaign_id"`
	Campaign   Campaign       `gorm:"foreignKey:CampaignID" json:"campaign,omitempty" validate:"-"`
	Content    string         `gorm:"type:text" json:"content" validate:"required,min=1,max=2000"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ProviderAccount links a social login identity to a local user.
type ProviderAccount struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"-"`
	Provider       string         `gorm:"type:varchar(50);not null;index:ux_provider_accounts_identity,unique,priority:1" json:"provider"`
	ProviderUserID string         `gorm:"type:varchar(191);not null;index:ux_provider_accounts_identity,unique,priority:2" json:"provider_user_id"`
	AccessToken    string         `gorm:"type:text" json:"-"`
	RefreshToken   string         `gorm:"type:text" json:"-"`
	ExpiresAt      *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// CampaignReport is a fraud/abuse report filed against a campaign. Guests may
// file reports, so ReporterID is nullable and the client IP is kept for abuse
// handling.
type CampaignReport struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CampaignID   uint           `gorm:"not null;index" json:"campaign_id"`
	Campaign     Campaign       `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	ReporterID   *uint          `gorm:"index" json:"reporter_id,omitempty"`
	Reporter     *User          `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason       string         `gorm:"type:varchar(50);not null" json:"reason"`
	Details      string         `gorm:"type:text" json:"details"`
	Status       string         `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ReporterIPv4 string         `gorm:"type:varchar(15);default:null" json:"-"`
	ReporterIPv6 string         `gorm:"type:varchar(45);default:null" json:"-"`
	ResolvedByID *uint          `json:"-"`
	ResolvedBy   *User          `gorm:"foreignKey:ResolvedByID" json:"-"`
	ResolvedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

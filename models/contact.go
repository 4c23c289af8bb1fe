package models

import (
	"gorm.io/gorm"
)

// Contact statuses
const (
	ContactStatusNew       = "new"
	ContactStatusQualified = "qualified"
	ContactStatusCallback  = "callback"
	ContactStatusDoNotCall = "do_not_call"
)

// Contact represents a person to be called within a campaign
type Contact struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`

	Name  string  `gorm:"not null" json:"name"`
	Phone string  `gorm:"not null" json:"phone"`
	Email *string `json:"email,omitempty"`

	// Metadata
	Source string `gorm:"default:'manual'" json:"source"` // manual, csv, api
	Status string `gorm:"default:'new'" json:"status"`    // new, qualified, callback, do_not_call
	Other  string `gorm:"type:text" json:"other"`

	// Relations
	Campaign Campaign `json:"-"`
	Calls    []Call   `gorm:"foreignKey:ContactID" json:"calls,omitempty"`
}

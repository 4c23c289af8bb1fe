package models

import (
	"time"

	"gorm.io/gorm"
)

// Field types accepted for campaign qualification forms
const (
	FieldTypeText     = "text"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeTextarea = "textarea"
	FieldTypeSelect   = "select"
)

// Campaign represents an outreach campaign with its own contacts,
// qualification form and assigned staff
type Campaign struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Scheduling
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// Owner reference, cleared if the user is removed
	ResponsibleID *uint `gorm:"index" json:"responsible_id"`

	// Relations
	Responsible *User          `gorm:"foreignKey:ResponsibleID;constraint:OnDelete:SET NULL" json:"responsible,omitempty"`
	Fields      []CampaignField `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
	Assignments []CampaignUser  `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	Contacts    []Contact       `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"contacts,omitempty"`
}

// CampaignField is a campaign-scoped custom question answered during
// call qualification
type CampaignField struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`

	Label      string   `gorm:"not null" json:"label"`
	FieldType  string   `gorm:"not null;default:'text'" json:"type"` // text, number, date, textarea, select
	Options    []string `gorm:"type:jsonb;serializer:json" json:"options,omitempty"`
	IsRequired bool     `gorm:"default:false" json:"required"`
	Position   int      `gorm:"default:0" json:"position"`

	// Relations
	Campaign Campaign             `json:"-"`
	Values   []QualificationValue `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"-"`
}

// ValidFieldType reports whether t is one of the supported field types
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeTextarea, FieldTypeSelect:
		return true
	}
	return false
}

// CampaignUser joins a user to a campaign with the role they held at
// assignment time. The role snapshot is deliberately not updated when the
// user's global role changes later.
type CampaignUser struct {
	gorm.Model
	CampaignID uint `gorm:"not null;uniqueIndex:idx_campaign_user" json:"campaign_id"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_campaign_user" json:"user_id"`

	RoleInCampaign string    `json:"role_in_campaign"`
	AssignedAt     time.Time `json:"assigned_at"`

	// Relations
	Campaign Campaign `json:"-"`
	User     User     `json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Call lifecycle statuses. A call moves IN_PROGRESS -> ENDED exactly once;
// an abandoned call simply stays IN_PROGRESS.
const (
	CallInProgress = "IN_PROGRESS"
	CallEnded      = "ENDED"
)

// QualificationQualified is the default qualification outcome. The outcome
// set is open so campaigns can define their own dispositions
// (NOT_INTERESTED, CALLBACK, ...).
const QualificationQualified = "QUALIFIE"

// Call is one recorded attempt between an agent and a contact
type Call struct {
	gorm.Model
	CampaignID uint `gorm:"not null;index" json:"campaign_id"`
	AgentID    uint `gorm:"not null;index" json:"agent_id"`
	ContactID  uint `gorm:"not null;index" json:"contact_id"`

	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // whole seconds, end - start

	Status        string  `gorm:"not null;default:'IN_PROGRESS'" json:"status"` // IN_PROGRESS, ENDED
	RecordingPath *string `json:"recording_path,omitempty"`

	// Relations
	Campaign            Campaign             `json:"-"`
	Agent               User                 `gorm:"foreignKey:AgentID" json:"-"`
	Contact             Contact              `json:"-"`
	Qualification       *CallQualification   `gorm:"foreignKey:CallID;constraint:OnDelete:CASCADE" json:"qualification,omitempty"`
	QualificationValues []QualificationValue `gorm:"foreignKey:CallID;constraint:OnDelete:CASCADE" json:"qualification_values,omitempty"`
}

// CallQualification holds the agent-submitted outcome of a call, one row
// per call enforced by the unique index on call_id
type CallQualification struct {
	gorm.Model
	CallID uint `gorm:"not null;uniqueIndex" json:"call_id"`

	Status      string    `gorm:"not null" json:"status"`
	QualifiedAt time.Time `gorm:"not null" json:"qualified_at"`

	// Relations
	Call Call `json:"-"`
}

// QualificationValue stores one answer to a campaign field for a call,
// unique per (call, field) pair
type QualificationValue struct {
	gorm.Model
	CallID  uint `gorm:"not null;uniqueIndex:idx_call_field" json:"call_id"`
	FieldID uint `gorm:"not null;uniqueIndex:idx_call_field" json:"field_id"`

	Value string `gorm:"type:text" json:"value"`

	// Relations
	Call  Call          `json:"-"`
	Field CampaignField `gorm:"foreignKey:FieldID" json:"-"`
}

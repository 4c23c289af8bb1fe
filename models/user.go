package models

import (
	"gorm.io/gorm"
)

// Role labels stored on User.Role and snapshotted into assignments
const (
	RoleAgent      = "agent"
	RoleSupervisor = "supervisor"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
)

// Agent availability statuses
const (
	AgentAvailable = "AVAILABLE"
	AgentOnCall    = "ON_CALL"
	AgentPaused    = "PAUSED"
	AgentOffline   = "OFFLINE"
)

// User represents a staff account (agent, supervisor, manager or admin)
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Account status
	Role         string `gorm:"default:'agent'" json:"role"`    // agent, supervisor, manager, admin
	Status       string `gorm:"default:'active'" json:"status"` // active, inactive
	TokenVersion int    `gorm:"default:0" json:"-"`

	// Relations
	Assignments []CampaignUser `gorm:"foreignKey:UserID" json:"assignments,omitempty"`
	Calls       []Call         `gorm:"foreignKey:AgentID" json:"calls,omitempty"`
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == "active"
}

// HasRole reports whether the user's role is one of the given labels
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// FullName joins first and last name for display
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AgentStatus tracks an agent's current availability, one row per agent
type AgentStatus struct {
	gorm.Model
	AgentID uint   `gorm:"not null;uniqueIndex" json:"agent_id"`
	Status  string `gorm:"default:'AVAILABLE'" json:"status"` // AVAILABLE, ON_CALL, PAUSED, OFFLINE

	// Relations
	Agent User `gorm:"foreignKey:AgentID" json:"-"`
}

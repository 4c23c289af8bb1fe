package utils

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"zanova/models"
)

// AssignmentService manages campaign staff assignments. Uniqueness per
// (campaign, user) is enforced by the composite index on campaign_users,
// not only by the pre-insert check.
type AssignmentService struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAssignmentService(db *gorm.DB, logger *log.Logger) *AssignmentService {
	return &AssignmentService{
		DB:     db,
		Logger: logger,
	}
}

// Assign adds a user to a campaign, snapshotting their current role label.
// The snapshot stays as-is if the user's global role changes later.
func (as *AssignmentService) Assign(campaignID, userID uint) (*models.CampaignUser, error) {
	var campaign models.Campaign
	if err := as.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	var user models.User
	if err := as.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var existing int64
	if err := as.DB.Model(&models.CampaignUser{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyAssigned
	}

	assignment := models.CampaignUser{
		CampaignID:     campaign.ID,
		UserID:         user.ID,
		RoleInCampaign: user.Role,
		AssignedAt:     time.Now(),
	}
	if err := as.DB.Create(&assignment).Error; err != nil {
		// A concurrent assign can slip past the pre-check; the unique
		// index reports it as a duplicate key.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	as.Logger.Printf("user %d assigned to campaign %d as %s", user.ID, campaign.ID, assignment.RoleInCampaign)
	return &assignment, nil
}

// Unassign removes an assignment by id. The row is deleted for real, not
// soft-deleted, so the (campaign, user) pair can be assigned again later
// without tripping the unique index.
func (as *AssignmentService) Unassign(assignmentID uint) error {
	res := as.DB.Unscoped().Delete(&models.CampaignUser{}, assignmentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	as.Logger.Printf("assignment %d removed", assignmentID)
	return nil
}

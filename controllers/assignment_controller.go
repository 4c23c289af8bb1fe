package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/models"
	"zanova/utils"
)

type AssignmentController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Service *utils.AssignmentService
}

func NewAssignmentController(db *gorm.DB, logger *log.Logger) *AssignmentController {
	return &AssignmentController{
		DB:      db,
		Logger:  logger,
		Service: utils.NewAssignmentService(db, logger),
	}
}

// ListAssignments returns the staff assigned to a campaign
func (ac *AssignmentController) ListAssignments(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := ac.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	var assignments []models.CampaignUser
	if err := ac.DB.Preload("User").
		Where("campaign_id = ?", campaign.ID).
		Find(&assignments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch assignments",
		})
	}

	data := make([]fiber.Map, 0, len(assignments))
	for _, assignment := range assignments {
		data = append(data, fiber.Map{
			"id":               assignment.ID,
			"user_id":          assignment.UserID,
			"name":             assignment.User.FullName(),
			"role_in_campaign": assignment.RoleInCampaign,
			"assigned_at":      assignment.AssignedAt,
		})
	}

	return c.JSON(data)
}

// AssignUser puts a user on a campaign
func (ac *AssignmentController) AssignUser(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	assignment, err := ac.Service.Assign(uint(campaignID), uint(userID))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrCampaignNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		case errors.Is(err, utils.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		case errors.Is(err, utils.ErrAlreadyAssigned):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "This user is already assigned to this campaign",
			})
		}
		utils.LogError(err, "assign_user_failed", map[string]interface{}{
			"campaign_id": campaignID,
			"user_id":     userID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"id":     assignment.ID,
	})
}

// UnassignUser removes an assignment by id
func (ac *AssignmentController) UnassignUser(c *fiber.Ctx) error {
	assignmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment id",
		})
	}

	if err := ac.Service.Unassign(uint(assignmentID)); err != nil {
		if errors.Is(err, utils.ErrAssignmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignment not found",
			})
		}
		utils.LogError(err, "unassign_user_failed", map[string]interface{}{"assignment_id": assignmentID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove assignment",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zanova/models"
	"zanova/utils"
)

type CampaignController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCampaignController(db *gorm.DB, logger *log.Logger) *CampaignController {
	return &CampaignController{
		DB:     db,
		Logger: logger,
	}
}

type campaignInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	ResponsibleID *uint  `json:"responsible_id"`
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateCampaign creates a campaign; the creator becomes responsible
// unless another user is named
func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Campaign name is required",
		})
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start_date, expected YYYY-MM-DD",
		})
	}
	endDate, err := parseDate(input.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end_date, expected YYYY-MM-DD",
		})
	}

	responsibleID := input.ResponsibleID
	if responsibleID != nil {
		var responsible models.User
		if err := cc.DB.First(&responsible, *responsibleID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Responsible user not found",
			})
		}
	} else {
		id := user.ID
		responsibleID = &id
	}

	campaign := models.Campaign{
		Name:          input.Name,
		Description:   input.Description,
		StartDate:     startDate,
		EndDate:       endDate,
		ResponsibleID: responsibleID,
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		utils.LogError(err, "create_campaign_failed", map[string]interface{}{"name": input.Name})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create campaign",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"id":     campaign.ID,
	})
}

// GetCampaigns lists all campaigns with contact counts
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	var campaigns []models.Campaign
	if err := cc.DB.Preload("Responsible").Find(&campaigns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaigns",
		})
	}

	data := make([]fiber.Map, 0, len(campaigns))
	for _, campaign := range campaigns {
		var contactCount int64
		if err := cc.DB.Model(&models.Contact{}).Where("campaign_id = ?", campaign.ID).Count(&contactCount).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to count contacts",
			})
		}

		var responsible interface{}
		if campaign.Responsible != nil {
			responsible = campaign.Responsible.Email
		}
		data = append(data, fiber.Map{
			"id":             campaign.ID,
			"name":           campaign.Name,
			"description":    campaign.Description,
			"start_date":     campaign.StartDate,
			"end_date":       campaign.EndDate,
			"responsible":    responsible,
			"contacts_count": contactCount,
		})
	}

	return c.JSON(data)
}

// GetCampaign returns a single campaign with fields and assignments
func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := cc.DB.Preload("Responsible").Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, id")
	}).Preload("Assignments").First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	return c.JSON(campaign)
}

// UpdateCampaign patches the provided campaign attributes
func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := cc.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	var input campaignInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != "" {
		campaign.Name = input.Name
	}
	if input.Description != "" {
		campaign.Description = input.Description
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start_date, expected YYYY-MM-DD",
		})
	}
	if startDate != nil {
		campaign.StartDate = startDate
	}
	endDate, err := parseDate(input.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end_date, expected YYYY-MM-DD",
		})
	}
	if endDate != nil {
		campaign.EndDate = endDate
	}

	if input.ResponsibleID != nil {
		var responsible models.User
		if err := cc.DB.First(&responsible, *input.ResponsibleID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Responsible user not found",
			})
		}
		campaign.ResponsibleID = input.ResponsibleID
	}

	if err := cc.DB.Save(&campaign).Error; err != nil {
		utils.LogError(err, "update_campaign_failed", map[string]interface{}{"campaign_id": campaign.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update campaign",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Campaign updated",
	})
}

// DeleteCampaign removes a campaign; fields, contacts and assignments
// cascade at the storage layer
func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := cc.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	// Owned rows go with the campaign; soft deletes bypass the DB cascade
	if err := cc.DB.Select(clause.Associations).Delete(&campaign).Error; err != nil {
		utils.LogError(err, "delete_campaign_failed", map[string]interface{}{"campaign_id": campaignID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete campaign",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

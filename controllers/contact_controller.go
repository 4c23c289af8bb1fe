package controller

import (
	"bytes"
	"errors"
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/models"
	"zanova/utils"
)

type ContactController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Importer *utils.ContactImporter
}

func NewContactController(db *gorm.DB, logger *log.Logger) *ContactController {
	return &ContactController{
		DB:       db,
		Logger:   logger,
		Importer: utils.NewContactImporter(db),
	}
}

type contactInput struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Source string `json:"source"`
	Status string `json:"status"`
	Other  string `json:"other"`
}

// ListContacts returns the contacts of a campaign. Agents must be assigned
// to the campaign; supervisory roles see every campaign.
func (cc *ContactController) ListContacts(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

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

	if user.Role == models.RoleAgent {
		var assigned int64
		if err := cc.DB.Model(&models.CampaignUser{}).
			Where("campaign_id = ? AND user_id = ?", campaign.ID, user.ID).
			Count(&assigned).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check assignment",
			})
		}
		if assigned == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You are not assigned to this campaign",
			})
		}
	}

	var contacts []models.Contact
	if err := cc.DB.Where("campaign_id = ?", campaign.ID).Find(&contacts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contacts",
		})
	}

	return c.JSON(contacts)
}

// CreateContact adds a single contact to a campaign
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
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

	var input contactInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name == "" || input.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Contact name and phone are required",
		})
	}

	contact := models.Contact{
		CampaignID: campaign.ID,
		Name:       input.Name,
		Phone:      input.Phone,
		Other:      input.Other,
	}
	if input.Source != "" {
		contact.Source = input.Source
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
		contact.Email = &input.Email
	}

	if err := cc.DB.Create(&contact).Error; err != nil {
		utils.LogError(err, "create_contact_failed", map[string]interface{}{"campaign_id": campaign.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create contact",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"id":     contact.ID,
	})
}

// GetContact returns one contact
func (cc *ContactController) GetContact(c *fiber.Ctx) error {
	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contact id",
		})
	}

	var contact models.Contact
	if err := cc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	return c.JSON(contact)
}

// UpdateContact patches the provided contact attributes
func (cc *ContactController) UpdateContact(c *fiber.Ctx) error {
	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contact id",
		})
	}

	var contact models.Contact
	if err := cc.DB.First(&contact, contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	var input contactInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != "" {
		contact.Name = input.Name
	}
	if input.Phone != "" {
		contact.Phone = input.Phone
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
		contact.Email = &input.Email
	}
	if input.Source != "" {
		contact.Source = input.Source
	}
	if input.Status != "" {
		contact.Status = input.Status
	}
	if input.Other != "" {
		contact.Other = input.Other
	}

	if err := cc.DB.Save(&contact).Error; err != nil {
		utils.LogError(err, "update_contact_failed", map[string]interface{}{"contact_id": contact.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update contact",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// DeleteContact removes a contact
func (cc *ContactController) DeleteContact(c *fiber.Ctx) error {
	contactID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid contact id",
		})
	}

	res := cc.DB.Delete(&models.Contact{}, contactID)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete contact",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// ImportContacts bulk-loads contacts from a CSV request body
func (cc *ContactController) ImportContacts(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Empty import payload",
		})
	}

	result, err := cc.Importer.Import(uint(campaignID), bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, utils.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		utils.LogError(err, "import_contacts_failed", map[string]interface{}{"campaign_id": campaignID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to import contacts",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

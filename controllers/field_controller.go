package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/models"
	"zanova/utils"
)

type FieldController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewFieldController(db *gorm.DB, logger *log.Logger) *FieldController {
	return &FieldController{
		DB:     db,
		Logger: logger,
	}
}

type fieldInput struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
	Required *bool    `json:"required"`
	Position *int     `json:"position"`
}

// ListFields returns a campaign's qualification form, ordered by position
// with insertion order breaking ties
func (fc *FieldController) ListFields(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := fc.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	var fields []models.CampaignField
	if err := fc.DB.Where("campaign_id = ?", campaign.ID).
		Order("position, id").
		Find(&fields).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch fields",
		})
	}

	data := make([]fiber.Map, 0, len(fields))
	for _, field := range fields {
		data = append(data, fiber.Map{
			"id":       field.ID,
			"label":    field.Label,
			"type":     field.FieldType,
			"options":  field.Options,
			"required": field.IsRequired,
			"position": field.Position,
		})
	}

	return c.JSON(data)
}

// CreateField adds a question to the campaign's qualification form
func (fc *FieldController) CreateField(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign id",
		})
	}

	var campaign models.Campaign
	if err := fc.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaign",
		})
	}

	var input fieldInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Label == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field label is required",
		})
	}

	fieldType := input.Type
	if fieldType == "" {
		fieldType = models.FieldTypeText
	}
	if !models.ValidFieldType(fieldType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown field type",
		})
	}

	// Options only make sense on select fields
	if fieldType != models.FieldTypeSelect && len(input.Options) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Options are only allowed on select fields",
		})
	}
	if fieldType == models.FieldTypeSelect && len(input.Options) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Select fields need at least one option",
		})
	}

	field := models.CampaignField{
		CampaignID: campaign.ID,
		Label:      input.Label,
		FieldType:  fieldType,
		Options:    input.Options,
	}
	if input.Required != nil {
		field.IsRequired = *input.Required
	}
	if input.Position != nil {
		field.Position = *input.Position
	}

	if err := fc.DB.Create(&field).Error; err != nil {
		utils.LogError(err, "create_field_failed", map[string]interface{}{"campaign_id": campaign.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create field",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"id":     field.ID,
	})
}

// UpdateField patches the given attributes of a field. Historical answers
// are never rewritten by a field edit.
func (fc *FieldController) UpdateField(c *fiber.Ctx) error {
	fieldID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field id",
		})
	}

	var field models.CampaignField
	if err := fc.DB.First(&field, fieldID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Field not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch field",
		})
	}

	var input fieldInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Label != "" {
		field.Label = input.Label
	}
	if input.Type != "" {
		if !models.ValidFieldType(input.Type) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown field type",
			})
		}
		field.FieldType = input.Type
	}
	if input.Options != nil {
		if field.FieldType != models.FieldTypeSelect {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Options are only allowed on select fields",
			})
		}
		field.Options = input.Options
	}
	if input.Required != nil {
		field.IsRequired = *input.Required
	}
	if input.Position != nil {
		field.Position = *input.Position
	}

	if err := fc.DB.Save(&field).Error; err != nil {
		utils.LogError(err, "update_field_failed", map[string]interface{}{"field_id": field.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update field",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// DeleteField removes a field; its historical qualification values cascade
// away with it
func (fc *FieldController) DeleteField(c *fiber.Ctx) error {
	fieldID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field id",
		})
	}

	err = fc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.CampaignField{}, fieldID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrFieldNotFound
		}
		// Soft-deleted parent rows do not trigger the DB cascade, so drop
		// the answers explicitly.
		return tx.Unscoped().Where("field_id = ?", fieldID).Delete(&models.QualificationValue{}).Error
	})
	if err != nil {
		if errors.Is(err, utils.ErrFieldNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Field not found",
			})
		}
		utils.LogError(err, "delete_field_failed", map[string]interface{}{"field_id": fieldID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete field",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/models"
	"zanova/utils"
)

type CallController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Service *utils.CallService
}

func NewCallController(db *gorm.DB, logger *log.Logger) *CallController {
	return &CallController{
		DB:      db,
		Logger:  logger,
		Service: utils.NewCallService(db, logger),
	}
}

// StartCall opens a call for the authenticated agent
func (cc *CallController) StartCall(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		CampaignID uint `json:"campaign_id" validate:"required"`
		ContactID  uint `json:"contact_id" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	call, err := cc.Service.StartCall(input.CampaignID, input.ContactID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrCampaignNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		case errors.Is(err, utils.ErrContactNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Contact not found in this campaign",
			})
		}
		utils.LogError(err, "start_call_failed", map[string]interface{}{
			"campaign_id": input.CampaignID,
			"contact_id":  input.ContactID,
			"agent_id":    user.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start call",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"call_id": call.ID,
	})
}

// EndCall closes an in-progress call and reports its duration
func (cc *CallController) EndCall(c *fiber.Ctx) error {
	callID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid call id",
		})
	}

	var input struct {
		RecordingPath string `json:"recording_path"`
	}
	// Body is optional here
	_ = c.BodyParser(&input)

	duration, err := cc.Service.EndCall(uint(callID), input.RecordingPath)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrCallNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Call not found",
			})
		case errors.Is(err, utils.ErrCallAlreadyEnded):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "This call has already ended",
			})
		}
		utils.LogError(err, "end_call_failed", map[string]interface{}{"call_id": callID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to end call",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"duration": duration,
	})
}

// QualifyCall records the outcome and form answers for a call
func (cc *CallController) QualifyCall(c *fiber.Ctx) error {
	callID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid call id",
		})
	}

	var input struct {
		Status string            `json:"status"`
		Values map[string]string `json:"values"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := cc.Service.QualifyCall(uint(callID), input.Status, input.Values)
	if err != nil {
		if errors.Is(err, utils.ErrCallNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Call not found",
			})
		}
		utils.LogError(err, "qualify_call_failed", map[string]interface{}{"call_id": callID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to qualify call",
		})
	}

	return c.JSON(fiber.Map{
		"status":       "success",
		"values_saved": saved,
	})
}

// GetRecentCalls lists the agent's last 30 calls, newest first
func (cc *CallController) GetRecentCalls(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var calls []models.Call
	if err := cc.DB.Preload("Contact").Preload("Campaign").Preload("Qualification").
		Where("agent_id = ?", user.ID).
		Order("start_time DESC").
		Limit(30).
		Find(&calls).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch calls",
		})
	}

	data := make([]fiber.Map, 0, len(calls))
	for _, call := range calls {
		status := call.Status
		if call.Qualification != nil {
			status = call.Qualification.Status
		}
		data = append(data, fiber.Map{
			"id":       call.ID,
			"contact":  call.Contact.Name,
			"campaign": call.Campaign.Name,
			"start":    call.StartTime,
			"duration": call.Duration,
			"status":   status,
		})
	}

	return c.JSON(data)
}

// GetCallDetails returns a call with its qualification answers
func (cc *CallController) GetCallDetails(c *fiber.Ctx) error {
	callID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid call id",
		})
	}

	var call models.Call
	if err := cc.DB.Preload("Contact").Preload("Campaign").Preload("Qualification").
		Preload("QualificationValues.Field").
		First(&call, callID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Call not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch call",
		})
	}

	customFields := make([]fiber.Map, 0, len(call.QualificationValues))
	for _, val := range call.QualificationValues {
		customFields = append(customFields, fiber.Map{
			"label": val.Field.Label,
			"value": val.Value,
		})
	}

	status := call.Status
	var qualifiedAt interface{}
	if call.Qualification != nil {
		status = call.Qualification.Status
		qualifiedAt = call.Qualification.QualifiedAt
	}

	return c.JSON(fiber.Map{
		"id":            call.ID,
		"contact":       call.Contact.Name,
		"phone":         call.Contact.Phone,
		"campaign":      call.Campaign.Name,
		"start":         call.StartTime,
		"duration":      call.Duration,
		"status":        status,
		"qualified_at":  qualifiedAt,
		"custom_fields": customFields,
	})
}

// ListCampaignCalls lists every call of a campaign for reporting
func (cc *CallController) ListCampaignCalls(c *fiber.Ctx) error {
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

	var calls []models.Call
	if err := cc.DB.Preload("Agent").Preload("Contact").Preload("Qualification").
		Where("campaign_id = ?", campaign.ID).
		Order("start_time DESC").
		Find(&calls).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch calls",
		})
	}

	data := make([]fiber.Map, 0, len(calls))
	for _, call := range calls {
		var qualification interface{}
		if call.Qualification != nil {
			qualification = call.Qualification.Status
		}
		data = append(data, fiber.Map{
			"id":            call.ID,
			"agent":         call.Agent.FullName(),
			"contact":       call.Contact.Name,
			"start":         call.StartTime,
			"duration":      call.Duration,
			"status":        call.Status,
			"qualification": qualification,
		})
	}

	return c.JSON(data)
}

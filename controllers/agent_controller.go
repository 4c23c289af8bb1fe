package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zanova/config"
	"zanova/models"
)

type AgentController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAgentController(db *gorm.DB, logger *log.Logger) *AgentController {
	return &AgentController{
		DB:     db,
		Logger: logger,
	}
}

// GetMyCampaigns lists the campaigns the agent is assigned to, with the
// number of contacts still waiting for a first call
func (ac *AgentController) GetMyCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var assignments []models.CampaignUser
	if err := ac.DB.Preload("Campaign").
		Where("user_id = ?", user.ID).
		Find(&assignments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch campaigns",
		})
	}

	data := make([]fiber.Map, 0, len(assignments))
	for _, assignment := range assignments {
		var remaining int64
		if err := ac.DB.Model(&models.Contact{}).
			Where("campaign_id = ? AND status = ?", assignment.CampaignID, models.ContactStatusNew).
			Count(&remaining).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to count contacts",
			})
		}
		data = append(data, fiber.Map{
			"id":                 assignment.Campaign.ID,
			"name":               assignment.Campaign.Name,
			"description":        assignment.Campaign.Description,
			"contacts_remaining": remaining,
		})
	}

	return c.JSON(data)
}

// GetNextContact hands the agent the next uncalled contact of a campaign
func (ac *AgentController) GetNextContact(c *fiber.Ctx) error {
	campaignID, err := c.ParamsInt("campaignId")
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

	var contact models.Contact
	err = ac.DB.Where("campaign_id = ? AND status = ?", campaign.ID, models.ContactStatusNew).
		Order("id").
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No contacts left in this campaign",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contact",
		})
	}

	return c.JSON(fiber.Map{
		"id":     contact.ID,
		"name":   contact.Name,
		"phone":  contact.Phone,
		"email":  contact.Email,
		"source": contact.Source,
	})
}

// GetStats returns the agent's personal figures for today
func (ac *AgentController) GetStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	since := time.Now().Truncate(24 * time.Hour)

	var callsToday int64
	if err := ac.DB.Model(&models.Call{}).
		Where("agent_id = ? AND start_time >= ?", user.ID, since).
		Count(&callsToday).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	var avgDuration float64
	row := ac.DB.Model(&models.Call{}).
		Where("agent_id = ? AND duration IS NOT NULL", user.ID).
		Select("COALESCE(AVG(duration), 0)").Row()
	if err := row.Scan(&avgDuration); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	var endedCalls, qualifiedCalls int64
	if err := ac.DB.Model(&models.Call{}).
		Where("agent_id = ? AND status = ?", user.ID, models.CallEnded).
		Count(&endedCalls).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	if err := ac.DB.Model(&models.CallQualification{}).
		Joins("JOIN calls ON calls.id = call_qualifications.call_id").
		Where("calls.agent_id = ?", user.ID).
		Count(&qualifiedCalls).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	qualificationRate := 0
	if endedCalls > 0 {
		qualificationRate = int(qualifiedCalls * 100 / endedCalls)
	}

	return c.JSON(fiber.Map{
		"calls_today":        callsToday,
		"avg_duration":       int(avgDuration),
		"qualification_rate": qualificationRate,
	})
}

// GetStatus returns the agent's current availability
func (ac *AgentController) GetStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var status models.AgentStatus
	if err := ac.DB.Where("agent_id = ?", user.ID).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"status": models.AgentOffline})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch status",
		})
	}

	return c.JSON(fiber.Map{
		"status":     status.Status,
		"updated_at": status.UpdatedAt,
	})
}

// UpdateStatus upserts the agent's availability row
func (ac *AgentController) UpdateStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	newStatus := input.Status
	if newStatus == "" {
		newStatus = models.AgentAvailable
	}

	status := models.AgentStatus{
		AgentID: user.ID,
		Status:  newStatus,
	}
	if err := ac.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update status",
		})
	}

	return c.JSON(fiber.Map{"status": "success"})
}

// MonitorAgents lists every agent's availability for the supervisor board
func (ac *AgentController) MonitorAgents(c *fiber.Ctx) error {
	statuses, err := ac.collectStatuses()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch agent statuses",
		})
	}
	return c.JSON(statuses)
}

func (ac *AgentController) collectStatuses() ([]fiber.Map, error) {
	var statuses []models.AgentStatus
	if err := ac.DB.Preload("Agent").Find(&statuses).Error; err != nil {
		return nil, err
	}

	data := make([]fiber.Map, 0, len(statuses))
	for _, status := range statuses {
		data = append(data, fiber.Map{
			"agent_id":   status.AgentID,
			"name":       status.Agent.FullName(),
			"status":     status.Status,
			"updated_at": status.UpdatedAt,
		})
	}
	return data, nil
}

// HandleAgentMonitorWS streams the agent board to a supervisor dashboard,
// refreshing every few seconds until the client goes away
func HandleAgentMonitorWS(c *websocket.Conn) {
	defer c.Close()

	ac := NewAgentController(config.DB, log.New(log.Writer(), "MONITOR: ", log.LstdFlags))

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		statuses, err := ac.collectStatuses()
		if err != nil {
			log.Printf("Error collecting agent statuses: %v", err)
			return
		}
		if err := c.WriteJSON(fiber.Map{
			"agents":  statuses,
			"sent_at": time.Now(),
		}); err != nil {
			return
		}
		<-ticker.C
	}
}

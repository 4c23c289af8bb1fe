package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/models"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

// GetDashboardStats aggregates the figures for the admin dashboard
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	var campaignCount, contactCount, agentCount int64
	if err := dc.DB.Model(&models.Campaign{}).Count(&campaignCount).Error; err != nil {
		return dc.statsError(c, err)
	}
	if err := dc.DB.Model(&models.Contact{}).Count(&contactCount).Error; err != nil {
		return dc.statsError(c, err)
	}
	if err := dc.DB.Model(&models.User{}).
		Where("role = ? AND status = ?", models.RoleAgent, "active").
		Count(&agentCount).Error; err != nil {
		return dc.statsError(c, err)
	}

	since := time.Now().Truncate(24 * time.Hour)
	var callsToday int64
	if err := dc.DB.Model(&models.Call{}).
		Where("start_time >= ?", since).
		Count(&callsToday).Error; err != nil {
		return dc.statsError(c, err)
	}

	var endedCalls, qualifiedCalls int64
	if err := dc.DB.Model(&models.Call{}).
		Where("status = ?", models.CallEnded).
		Count(&endedCalls).Error; err != nil {
		return dc.statsError(c, err)
	}
	if err := dc.DB.Model(&models.CallQualification{}).Count(&qualifiedCalls).Error; err != nil {
		return dc.statsError(c, err)
	}

	qualificationRate := 0
	if endedCalls > 0 {
		qualificationRate = int(qualifiedCalls * 100 / endedCalls)
	}

	return c.JSON(fiber.Map{
		"campaigns":          campaignCount,
		"contacts":           contactCount,
		"active_agents":      agentCount,
		"calls_today":        callsToday,
		"calls_ended":        endedCalls,
		"qualification_rate": qualificationRate,
	})
}

func (dc *DashboardController) statsError(c *fiber.Ctx, err error) error {
	dc.Logger.Printf("dashboard stats query failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to compute dashboard stats",
	})
}

package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "zanova/controllers"
	"zanova/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	callController := controller.NewCallController(db, log.New(os.Stdout, "CALL: ", log.LstdFlags))
	campaignController := controller.NewCampaignController(db, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	fieldController := controller.NewFieldController(db, log.New(os.Stdout, "FIELD: ", log.LstdFlags))
	contactController := controller.NewContactController(db, log.New(os.Stdout, "CONTACT: ", log.LstdFlags))
	assignmentController := controller.NewAssignmentController(db, log.New(os.Stdout, "ASSIGN: ", log.LstdFlags))
	agentController := controller.NewAgentController(db, log.New(os.Stdout, "AGENT: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	userController := controller.NewUserController(db, log.New(os.Stdout, "USER: ", log.LstdFlags))

	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Call lifecycle
	calls := api.Group("/calls")
	calls.Post("/", middleware.CallRateLimiter(), callController.StartCall)
	calls.Get("/recent", callController.GetRecentCalls)
	calls.Put("/:id/end", callController.EndCall)
	calls.Post("/:id/qualify", callController.QualifyCall)
	calls.Get("/:id/details", callController.GetCallDetails)

	// Campaigns
	campaigns := api.Group("/campaigns")
	campaigns.Get("/", middleware.RequireSupervision(), campaignController.GetCampaigns)
	campaigns.Post("/", middleware.RequireManagement(), campaignController.CreateCampaign)
	campaigns.Get("/:id", middleware.RequireSupervision(), campaignController.GetCampaign)
	campaigns.Put("/:id", middleware.RequireManagement(), campaignController.UpdateCampaign)
	campaigns.Delete("/:id", middleware.RequireManagement(), campaignController.DeleteCampaign)
	campaigns.Get("/:id/calls", middleware.RequireSupervision(), callController.ListCampaignCalls)

	// Qualification form fields: listing is open to anyone assigned, the
	// agent frontend needs it to render the form
	campaigns.Get("/:id/fields", fieldController.ListFields)
	campaigns.Post("/:id/fields", middleware.RequireManagement(), fieldController.CreateField)
	api.Put("/fields/:id", middleware.RequireManagement(), fieldController.UpdateField)
	api.Delete("/fields/:id", middleware.RequireManagement(), fieldController.DeleteField)

	// Assignments
	campaigns.Get("/:id/users", middleware.RequireSupervision(), assignmentController.ListAssignments)
	campaigns.Post("/:id/assign/:userId", middleware.RequireManagement(), assignmentController.AssignUser)
	api.Delete("/assignments/:id", middleware.RequireManagement(), assignmentController.UnassignUser)

	// Contacts
	campaigns.Get("/:id/contacts", contactController.ListContacts)
	campaigns.Post("/:id/contacts", middleware.RequireManagement(), contactController.CreateContact)
	campaigns.Post("/:id/contacts/import", middleware.RequireManagement(), contactController.ImportContacts)
	contacts := api.Group("/contacts")
	contacts.Get("/:id", contactController.GetContact)
	contacts.Put("/:id", middleware.RequireManagement(), contactController.UpdateContact)
	contacts.Delete("/:id", middleware.RequireManagement(), contactController.DeleteContact)

	// Agent surface
	agent := api.Group("/agent")
	agent.Get("/campaigns", agentController.GetMyCampaigns)
	agent.Get("/next-contact/:campaignId", agentController.GetNextContact)
	agent.Get("/stats", agentController.GetStats)
	agent.Get("/status", agentController.GetStatus)
	agent.Put("/status", agentController.UpdateStatus)

	// Supervisor monitoring
	api.Get("/agents/status", middleware.RequireSupervision(), agentController.MonitorAgents)
	app.Get("/ws/agents", websocket.New(func(c *websocket.Conn) {
		controller.HandleAgentMonitorWS(c)
	}))

	// Admin dashboard
	api.Get("/dashboard/stats", middleware.RequireSupervision(), dashboardController.GetDashboardStats)

	// Staff management
	users := api.Group("/users", middleware.RequireManagement())
	users.Get("/", userController.ListUsers)
	users.Post("/", userController.CreateUser)
	users.Put("/:id", userController.UpdateUser)
	users.Delete("/:id", userController.DeleteUser)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}

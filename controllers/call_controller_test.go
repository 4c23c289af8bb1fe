package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zanova/config"
	"zanova/models"
	"zanova/routes"
	"zanova/utils"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "crm.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&models.User{},
		&models.AgentStatus{},
		&models.Campaign{},
		&models.CampaignField{},
		&models.CampaignUser{},
		&models.Contact{},
		&models.Call{},
		&models.CallQualification{},
		&models.QualificationValue{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	config.DB = db
	config.AppConfig = config.Config{
		Environment:        "test",
		EncryptionKey:      "test-signing-key",
		RateLimitStartCall: 100,
	}

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) (*models.User, string) {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       "active",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	access, _, _, err := utils.GenerateJWTToken(&user)
	if err != nil {
		t.Fatalf("generate token for %s: %v", email, err)
	}
	return &user, access
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if len(raw) > 0 {
		// Some endpoints return arrays; leave decoded nil in that case
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func TestCallsRequireAuth(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/calls/", "", fiber.Map{
		"campaign_id": 1,
		"contact_id":  1,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStartCallUnknownCampaignReturns404(t *testing.T) {
	app, db := setupApp(t)
	_, token := createUser(t, db, "agent@zanova.com", models.RoleAgent)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/calls/", token, fiber.Map{
		"campaign_id": 9999,
		"contact_id":  1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] != "Campaign not found" {
		t.Fatalf("error = %v, want Campaign not found", body["error"])
	}
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	_, agentToken := createUser(t, db, "agent@zanova.com", models.RoleAgent)

	campaign := models.Campaign{Name: "Spring Launch"}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	contact := models.Contact{CampaignID: campaign.ID, Name: "A. Dupont", Phone: "+33600000001"}
	if err := db.Create(&contact).Error; err != nil {
		t.Fatalf("create contact: %v", err)
	}
	field := models.CampaignField{CampaignID: campaign.ID, Label: "Budget", FieldType: models.FieldTypeNumber}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}

	// Start
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/calls/", agentToken, fiber.Map{
		"campaign_id": campaign.ID,
		"contact_id":  contact.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201 (body %v)", resp.StatusCode, body)
	}
	callID := int(body["call_id"].(float64))

	// End
	resp, body = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/calls/%d/end", callID), agentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want 200 (body %v)", resp.StatusCode, body)
	}
	if _, ok := body["duration"]; !ok {
		t.Fatalf("end response missing duration: %v", body)
	}

	// Ending again is refused
	resp, body = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/calls/%d/end", callID), agentToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second end status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "This call has already ended" {
		t.Fatalf("error = %v, want This call has already ended", body["error"])
	}

	// Qualify
	resp, body = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/calls/%d/qualify", callID), agentToken, fiber.Map{
		"status": "QUALIFIE",
		"values": map[string]string{
			fmt.Sprint(field.ID): "5000",
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qualify status = %d, want 200 (body %v)", resp.StatusCode, body)
	}
	if body["values_saved"].(float64) != 1 {
		t.Fatalf("values_saved = %v, want 1", body["values_saved"])
	}

	// Details carry the answer
	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/calls/%d/details", callID), agentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("details status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "QUALIFIE" {
		t.Fatalf("details status field = %v, want QUALIFIE", body["status"])
	}
	fields := body["custom_fields"].([]interface{})
	if len(fields) != 1 {
		t.Fatalf("custom_fields = %v, want one entry", fields)
	}
	answer := fields[0].(map[string]interface{})
	if answer["label"] != "Budget" || answer["value"] != "5000" {
		t.Fatalf("answer = %v, want Budget/5000", answer)
	}
}

func TestFieldDeletionRemovesAnswers(t *testing.T) {
	app, db := setupApp(t)
	_, agentToken := createUser(t, db, "agent@zanova.com", models.RoleAgent)
	_, managerToken := createUser(t, db, "manager@zanova.com", models.RoleManager)

	campaign := models.Campaign{Name: "Spring Launch"}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	contact := models.Contact{CampaignID: campaign.ID, Name: "A. Dupont", Phone: "+33600000001"}
	if err := db.Create(&contact).Error; err != nil {
		t.Fatalf("create contact: %v", err)
	}
	field := models.CampaignField{CampaignID: campaign.ID, Label: "Budget", FieldType: models.FieldTypeNumber}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/calls/", agentToken, fiber.Map{
		"campaign_id": campaign.ID,
		"contact_id":  contact.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	callID := int(body["call_id"].(float64))

	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/calls/%d/qualify", callID), agentToken, fiber.Map{
		"values": map[string]string{fmt.Sprint(field.ID): "5000"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qualify status = %d", resp.StatusCode)
	}

	// Agents may not delete fields
	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/fields/%d", field.ID), agentToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("agent delete status = %d, want 403", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/fields/%d", field.ID), managerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("manager delete status = %d, want 200", resp.StatusCode)
	}

	// Historical answers for the field are gone from the call
	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/calls/%d/details", callID), agentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("details status = %d", resp.StatusCode)
	}
	if fields := body["custom_fields"].([]interface{}); len(fields) != 0 {
		t.Fatalf("custom_fields after delete = %v, want empty", fields)
	}

	var count int64
	if err := db.Unscoped().Model(&models.QualificationValue{}).Where("field_id = ?", field.ID).Count(&count).Error; err != nil {
		t.Fatalf("count values: %v", err)
	}
	if count != 0 {
		t.Fatalf("value rows after field delete = %d, want 0", count)
	}
}

func TestCampaignRoutesRoleGates(t *testing.T) {
	app, db := setupApp(t)
	_, agentToken := createUser(t, db, "agent@zanova.com", models.RoleAgent)
	_, supervisorToken := createUser(t, db, "supervisor@zanova.com", models.RoleSupervisor)
	_, managerToken := createUser(t, db, "manager@zanova.com", models.RoleManager)

	// Agents cannot list or create campaigns
	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/campaigns/", agentToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("agent list status = %d, want 403", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/campaigns/", agentToken, fiber.Map{"name": "X"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("agent create status = %d, want 403", resp.StatusCode)
	}

	// Supervisors can read but not create
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/campaigns/", supervisorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("supervisor list status = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/campaigns/", supervisorToken, fiber.Map{"name": "X"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("supervisor create status = %d, want 403", resp.StatusCode)
	}

	// Managers can create
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/campaigns/", managerToken, fiber.Map{"name": "Spring Launch"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("manager create status = %d, want 201 (body %v)", resp.StatusCode, body)
	}
}

func TestAssignmentConflictOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	agent, _ := createUser(t, db, "agent@zanova.com", models.RoleAgent)
	_, managerToken := createUser(t, db, "manager@zanova.com", models.RoleManager)

	campaign := models.Campaign{Name: "Spring Launch"}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	path := fmt.Sprintf("/api/v1/campaigns/%d/assign/%d", campaign.ID, agent.ID)
	resp, _ := doJSON(t, app, http.MethodPost, path, managerToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("assign status = %d, want 201", resp.StatusCode)
	}
	resp, body := doJSON(t, app, http.MethodPost, path, managerToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second assign status = %d, want 409 (body %v)", resp.StatusCode, body)
	}
}

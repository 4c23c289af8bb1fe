package utils

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"zanova/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func setupCallService(t *testing.T) (*CallService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewCallService(db, log.New(os.Stdout, "CALL-TEST: ", log.LstdFlags)), db
}

type fixture struct {
	agent    models.User
	campaign models.Campaign
	contact  models.Contact
}

func seedCampaign(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	agent := models.User{
		Email:        "agent@zanova.com",
		PasswordHash: "x",
		FirstName:    "Alice",
		LastName:     "Martin",
		Role:         models.RoleAgent,
		Status:       "active",
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("create agent: %v", err)
	}

	campaign := models.Campaign{Name: "Spring Launch"}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	contact := models.Contact{
		CampaignID: campaign.ID,
		Name:       "A. Dupont",
		Phone:      "+33600000001",
	}
	if err := db.Create(&contact).Error; err != nil {
		t.Fatalf("create contact: %v", err)
	}

	return fixture{agent: agent, campaign: campaign, contact: contact}
}

func seedField(t *testing.T, db *gorm.DB, campaignID uint, label, fieldType string) models.CampaignField {
	t.Helper()
	field := models.CampaignField{
		CampaignID: campaignID,
		Label:      label,
		FieldType:  fieldType,
	}
	if err := db.Create(&field).Error; err != nil {
		t.Fatalf("create field %q: %v", label, err)
	}
	return field
}

func TestStartCallCreatesInProgressCall(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	if call.Status != models.CallInProgress {
		t.Fatalf("call status = %q, want %q", call.Status, models.CallInProgress)
	}
	if call.EndTime != nil {
		t.Fatalf("new call has end time %v", call.EndTime)
	}
	if call.Duration != nil {
		t.Fatalf("new call has duration %d", *call.Duration)
	}
	if call.StartTime.IsZero() {
		t.Fatal("new call has zero start time")
	}
}

func TestStartCallUnknownCampaign(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	if _, err := svc.StartCall(9999, fx.contact.ID, fx.agent.ID); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("StartCall() error = %v, want ErrCampaignNotFound", err)
	}
}

func TestStartCallContactOutsideCampaign(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	other := models.Campaign{Name: "Other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	if _, err := svc.StartCall(other.ID, fx.contact.ID, fx.agent.ID); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("StartCall() error = %v, want ErrContactNotFound", err)
	}
}

func TestEndCallComputesDuration(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	// Backdate the start so the computed duration is meaningful
	start := time.Now().Add(-120 * time.Second)
	if err := db.Model(&models.Call{}).Where("id = ?", call.ID).Update("start_time", start).Error; err != nil {
		t.Fatalf("backdate call: %v", err)
	}

	duration, err := svc.EndCall(call.ID, "")
	if err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if duration != 120 {
		t.Fatalf("EndCall() duration = %d, want 120", duration)
	}

	var ended models.Call
	if err := db.First(&ended, call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if ended.Status != models.CallEnded {
		t.Fatalf("call status = %q, want %q", ended.Status, models.CallEnded)
	}
	if ended.EndTime == nil || ended.Duration == nil {
		t.Fatal("ended call missing end time or duration")
	}
	if *ended.Duration != 120 {
		t.Fatalf("stored duration = %d, want 120", *ended.Duration)
	}
}

func TestEndCallRefusesEndedCall(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if _, err := svc.EndCall(call.ID, ""); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}

	var first models.Call
	if err := db.First(&first, call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}

	if _, err := svc.EndCall(call.ID, ""); !errors.Is(err, ErrCallAlreadyEnded) {
		t.Fatalf("second EndCall() error = %v, want ErrCallAlreadyEnded", err)
	}

	var second models.Call
	if err := db.First(&second, call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if !second.EndTime.Equal(*first.EndTime) || *second.Duration != *first.Duration {
		t.Fatal("refused EndCall changed end time or duration")
	}
}

func TestEndCallUnknownCall(t *testing.T) {
	svc, _ := setupCallService(t)

	if _, err := svc.EndCall(424242, ""); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("EndCall() error = %v, want ErrCallNotFound", err)
	}
}

func TestEndCallRecordsRecordingPath(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if _, err := svc.EndCall(call.ID, "/recordings/42.wav"); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}

	var ended models.Call
	if err := db.First(&ended, call.ID).Error; err != nil {
		t.Fatalf("reload call: %v", err)
	}
	if ended.RecordingPath == nil || *ended.RecordingPath != "/recordings/42.wav" {
		t.Fatalf("recording path = %v, want /recordings/42.wav", ended.RecordingPath)
	}
}

func TestQualifyCallSkipsEmptyValues(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)
	budget := seedField(t, db, fx.campaign.ID, "Budget", models.FieldTypeNumber)
	notes := seedField(t, db, fx.campaign.ID, "Notes", models.FieldTypeTextarea)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	saved, err := svc.QualifyCall(call.ID, models.QualificationQualified, map[string]string{
		strconv.Itoa(int(budget.ID)): "5000",
		strconv.Itoa(int(notes.ID)):  "",
	})
	if err != nil {
		t.Fatalf("QualifyCall() error = %v", err)
	}
	if saved != 1 {
		t.Fatalf("QualifyCall() saved = %d, want 1", saved)
	}

	var count int64
	if err := db.Model(&models.QualificationValue{}).Where("call_id = ?", call.ID).Count(&count).Error; err != nil {
		t.Fatalf("count values: %v", err)
	}
	if count != 1 {
		t.Fatalf("stored values = %d, want 1", count)
	}
}

func TestQualifyCallKeepsZeroValue(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)
	budget := seedField(t, db, fx.campaign.ID, "Budget", models.FieldTypeNumber)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	saved, err := svc.QualifyCall(call.ID, models.QualificationQualified, map[string]string{
		strconv.Itoa(int(budget.ID)): "0",
	})
	if err != nil {
		t.Fatalf("QualifyCall() error = %v", err)
	}
	if saved != 1 {
		t.Fatalf("QualifyCall() saved = %d, want 1", saved)
	}
}

func TestQualifyCallUpsertsPerField(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)
	budget := seedField(t, db, fx.campaign.ID, "Budget", models.FieldTypeNumber)
	key := strconv.Itoa(int(budget.ID))

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	if _, err := svc.QualifyCall(call.ID, models.QualificationQualified, map[string]string{key: "5000"}); err != nil {
		t.Fatalf("first QualifyCall() error = %v", err)
	}
	if _, err := svc.QualifyCall(call.ID, "CALLBACK", map[string]string{key: "7500"}); err != nil {
		t.Fatalf("second QualifyCall() error = %v", err)
	}

	var values []models.QualificationValue
	if err := db.Where("call_id = ?", call.ID).Find(&values).Error; err != nil {
		t.Fatalf("load values: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("value rows = %d, want 1", len(values))
	}
	if values[0].Value != "7500" {
		t.Fatalf("value = %q, want %q", values[0].Value, "7500")
	}

	var qualifications []models.CallQualification
	if err := db.Where("call_id = ?", call.ID).Find(&qualifications).Error; err != nil {
		t.Fatalf("load qualifications: %v", err)
	}
	if len(qualifications) != 1 {
		t.Fatalf("qualification rows = %d, want 1", len(qualifications))
	}
	if qualifications[0].Status != "CALLBACK" {
		t.Fatalf("qualification status = %q, want CALLBACK", qualifications[0].Status)
	}
}

func TestQualifyCallIgnoresForeignAndMalformedFields(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	other := models.Campaign{Name: "Other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	foreign := seedField(t, db, other.ID, "Foreign", models.FieldTypeText)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	saved, err := svc.QualifyCall(call.ID, models.QualificationQualified, map[string]string{
		strconv.Itoa(int(foreign.ID)): "should not land",
		"not-a-number":                "ignored",
		"99999":                       "unknown field",
	})
	if err != nil {
		t.Fatalf("QualifyCall() error = %v", err)
	}
	if saved != 0 {
		t.Fatalf("QualifyCall() saved = %d, want 0", saved)
	}

	var count int64
	if err := db.Model(&models.QualificationValue{}).Where("call_id = ?", call.ID).Count(&count).Error; err != nil {
		t.Fatalf("count values: %v", err)
	}
	if count != 0 {
		t.Fatalf("stored values = %d, want 0", count)
	}
}

func TestQualifyCallUnknownCall(t *testing.T) {
	svc, _ := setupCallService(t)

	if _, err := svc.QualifyCall(31337, models.QualificationQualified, nil); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("QualifyCall() error = %v, want ErrCallNotFound", err)
	}
}

func TestQualifyCallDefaultsStatus(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	if _, err := svc.QualifyCall(call.ID, "", nil); err != nil {
		t.Fatalf("QualifyCall() error = %v", err)
	}

	var qualification models.CallQualification
	if err := db.Where("call_id = ?", call.ID).First(&qualification).Error; err != nil {
		t.Fatalf("load qualification: %v", err)
	}
	if qualification.Status != models.QualificationQualified {
		t.Fatalf("status = %q, want %q", qualification.Status, models.QualificationQualified)
	}
	if qualification.QualifiedAt.IsZero() {
		t.Fatal("qualification has zero timestamp")
	}
}

func TestCallFlowSpringLaunchScenario(t *testing.T) {
	svc, db := setupCallService(t)
	fx := seedCampaign(t, db)
	budget := seedField(t, db, fx.campaign.ID, "Budget", models.FieldTypeNumber)

	call, err := svc.StartCall(fx.campaign.ID, fx.contact.ID, fx.agent.ID)
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}

	start := time.Now().Add(-120 * time.Second)
	if err := db.Model(&models.Call{}).Where("id = ?", call.ID).Update("start_time", start).Error; err != nil {
		t.Fatalf("backdate call: %v", err)
	}

	duration, err := svc.EndCall(call.ID, "")
	if err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if duration != 120 {
		t.Fatalf("duration = %d, want 120", duration)
	}

	saved, err := svc.QualifyCall(call.ID, models.QualificationQualified, map[string]string{
		strconv.Itoa(int(budget.ID)): "5000",
	})
	if err != nil {
		t.Fatalf("QualifyCall() error = %v", err)
	}
	if saved != 1 {
		t.Fatalf("values_saved = %d, want 1", saved)
	}

	var value models.QualificationValue
	if err := db.Preload("Field").Where("call_id = ?", call.ID).First(&value).Error; err != nil {
		t.Fatalf("load value: %v", err)
	}
	if value.Field.Label != "Budget" || value.Value != "5000" {
		t.Fatalf("answer = %s/%s, want Budget/5000", value.Field.Label, value.Value)
	}
}

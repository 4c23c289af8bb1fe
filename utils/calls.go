package utils

import (
	"errors"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zanova/models"
)

// CallService implements the call lifecycle and the qualification engine.
// Each operation runs in its own transaction scope; there are no background
// workers behind it.
type CallService struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCallService(db *gorm.DB, logger *log.Logger) *CallService {
	return &CallService{
		DB:     db,
		Logger: logger,
	}
}

// StartCall opens an IN_PROGRESS call for the agent against a contact of
// the campaign. The contact must belong to the campaign.
func (cs *CallService) StartCall(campaignID, contactID, agentID uint) (*models.Call, error) {
	var campaign models.Campaign
	if err := cs.DB.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	var contact models.Contact
	if err := cs.DB.Where("id = ? AND campaign_id = ?", contactID, campaignID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	call := models.Call{
		CampaignID: campaign.ID,
		AgentID:    agentID,
		ContactID:  contact.ID,
		StartTime:  time.Now(),
		Status:     models.CallInProgress,
	}
	if err := cs.DB.Create(&call).Error; err != nil {
		return nil, err
	}

	cs.Logger.Printf("call %d started: campaign=%d contact=%d agent=%d", call.ID, campaign.ID, contact.ID, agentID)
	return &call, nil
}

// EndCall closes an IN_PROGRESS call and returns the duration in whole
// seconds. End time and duration are set exactly once; the guarded update
// refuses calls that are already ENDED, even under concurrent requests.
func (cs *CallService) EndCall(callID uint, recordingPath string) (int, error) {
	var call models.Call
	if err := cs.DB.First(&call, callID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCallNotFound
		}
		return 0, err
	}

	endTime := time.Now()
	duration := int(endTime.Sub(call.StartTime).Seconds())

	updates := map[string]interface{}{
		"end_time": endTime,
		"duration": duration,
		"status":   models.CallEnded,
	}
	if recordingPath != "" {
		updates["recording_path"] = recordingPath
	}

	res := cs.DB.Model(&models.Call{}).
		Where("id = ? AND status = ?", callID, models.CallInProgress).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrCallAlreadyEnded
	}

	cs.Logger.Printf("call %d ended: duration=%ds", callID, duration)
	return duration, nil
}

// QualifyCall attaches an outcome and per-field answers to a call.
// Qualifying again replaces the outcome and updates answers in place: the
// CallQualification is upserted on call_id and each answer on
// (call_id, field_id), so re-running never duplicates rows. Empty values
// and field ids that do not resolve to a field of the call's campaign are
// skipped. The whole operation is one transaction; the returned count is
// the number of answers actually saved.
func (cs *CallService) QualifyCall(callID uint, status string, values map[string]string) (int, error) {
	var call models.Call
	if err := cs.DB.First(&call, callID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCallNotFound
		}
		return 0, err
	}

	if status == "" {
		status = models.QualificationQualified
	}

	saved := 0
	err := cs.DB.Transaction(func(tx *gorm.DB) error {
		qualification := models.CallQualification{
			CallID:      call.ID,
			Status:      status,
			QualifiedAt: time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "qualified_at", "updated_at"}),
		}).Create(&qualification).Error; err != nil {
			return err
		}

		for rawID, value := range values {
			if value == "" {
				continue
			}

			fieldID, err := strconv.ParseUint(rawID, 10, 32)
			if err != nil {
				cs.Logger.Printf("call %d: ignoring malformed field id %q", call.ID, rawID)
				continue
			}

			var field models.CampaignField
			err = tx.Where("id = ? AND campaign_id = ?", fieldID, call.CampaignID).First(&field).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					cs.Logger.Printf("call %d: ignoring field %d outside campaign %d", call.ID, fieldID, call.CampaignID)
					continue
				}
				return err
			}

			answer := models.QualificationValue{
				CallID:  call.ID,
				FieldID: field.ID,
				Value:   value,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "call_id"}, {Name: "field_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&answer).Error; err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cs.Logger.Printf("call %d qualified: status=%s values_saved=%d", call.ID, status, saved)
	return saved, nil
}

package utils

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"zanova/models"
)

// ImportResult summarizes a bulk contact import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ContactImporter loads contacts into a campaign from CSV data.
// Expected columns: name, phone, email, other. A leading header row is
// detected and skipped.
type ContactImporter struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewContactImporter(db *gorm.DB) *ContactImporter {
	return &ContactImporter{
		DB:     db,
		Logger: logrus.StandardLogger(),
	}
}

// Import reads CSV rows and creates contacts under the campaign. Rows
// missing a name or phone, or carrying a malformed email, are counted as
// skipped rather than failing the whole import.
func (ci *ContactImporter) Import(campaignID uint, r io.Reader) (*ImportResult, error) {
	var campaign models.Campaign
	if err := ci.DB.First(&campaign, campaignID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if first {
			first = false
			if looksLikeHeader(record) {
				continue
			}
		}

		contact, ok := ci.parseRow(campaign.ID, record)
		if !ok {
			result.Skipped++
			continue
		}

		if err := ci.DB.Create(contact).Error; err != nil {
			return nil, err
		}
		result.Imported++
	}

	ci.Logger.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"imported":    result.Imported,
		"skipped":     result.Skipped,
	}).Info("contact import finished")

	return result, nil
}

func (ci *ContactImporter) parseRow(campaignID uint, record []string) (*models.Contact, bool) {
	if len(record) < 2 {
		return nil, false
	}

	name := strings.TrimSpace(record[0])
	phone := strings.TrimSpace(record[1])
	if name == "" || phone == "" {
		return nil, false
	}

	contact := &models.Contact{
		CampaignID: campaignID,
		Name:       name,
		Phone:      phone,
		Source:     "csv",
	}

	if len(record) > 2 {
		email := strings.TrimSpace(record[2])
		if email != "" {
			if err := checkmail.ValidateFormat(email); err != nil {
				ci.Logger.WithFields(logrus.Fields{
					"campaign_id": campaignID,
					"email":       email,
				}).Warn("skipping contact with malformed email")
				return nil, false
			}
			contact.Email = &email
		}
	}
	if len(record) > 3 {
		contact.Other = strings.TrimSpace(record[3])
	}

	return contact, true
}

func looksLikeHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "name")
}

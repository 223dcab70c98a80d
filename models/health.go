package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var HealthRecordTypes = []string{
	"vaccination", "medication", "vet_visit", "surgery", "allergy",
	"test_result", "weight", "treatment", "other",
}

func ValidHealthRecordType(t string) bool {
	return slices.Contains(HealthRecordTypes, t)
}

type HealthRecord struct {
	ID              uint                        `json:"id" gorm:"primaryKey"`
	PetID           uint                        `json:"pet_id" gorm:"index;not null"`
	RecordType      string                      `json:"record_type" gorm:"index;not null"`
	Title           string                      `json:"title" gorm:"not null"`
	Date            time.Time                   `json:"date" gorm:"index"`
	Description     string                      `json:"description,omitempty"`
	ProviderName    string                      `json:"provider_name,omitempty"`
	ProviderContact string                      `json:"provider_contact,omitempty"`
	Notes           string                      `json:"notes,omitempty"`
	Attachments     datatypes.JSONSlice[string] `json:"attachments"`
	ReminderDate    *time.Time                  `json:"reminder_date,omitempty"`
	Metadata        datatypes.JSON              `json:"metadata,omitempty"`
	CreatedBy       uint                        `json:"created_by"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// Reminder is a scheduled nudge for the pet owner, sent once by the reminder job.
type Reminder struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         uint       `json:"user_id" gorm:"index;not null"`
	PetID          uint       `json:"pet_id" gorm:"index;not null"`
	HealthRecordID *uint      `json:"health_record_id,omitempty" gorm:"index"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	RemindAt       time.Time  `json:"remind_at" gorm:"index"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SyncReminder keeps a record's unsent reminder in line with its reminder_date.
func SyncReminder(tx *gorm.DB, rec *HealthRecord, ownerID uint) error {
	recordID := rec.ID
	if err := tx.Where("health_record_id = ? AND sent_at IS NULL", recordID).Delete(&Reminder{}).Error; err != nil {
		return err
	}
	if rec.ReminderDate == nil {
		return nil
	}
	return tx.Create(&Reminder{
		UserID:         ownerID,
		PetID:          rec.PetID,
		HealthRecordID: &recordID,
		Title:          "Reminder: " + rec.Title,
		Description:    rec.Description,
		RemindAt:       *rec.ReminderDate,
	}).Error
}

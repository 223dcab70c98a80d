package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxHealthAttachments = 20

// canViewPetCare is true for the owner and for renters holding an accepted
// or completed booking of the pet.
func canViewPetCare(pet *models.Pet, userID uint) (bool, error) {
	if pet.IsOwnedBy(userID) {
		return true, nil
	}
	var count int64
	err := db.DB.Model(&models.Booking{}).
		Where("pet_id = ? AND renter_id = ? AND status IN ?", pet.ID, userID,
			[]models.BookingStatus{models.BookingAccepted, models.BookingCompleted}).
		Count(&count).Error
	return count > 0, err
}

// loadViewablePet reads :pet_id and applies canViewPetCare.
func loadViewablePet(c *fiber.Ctx) (*models.Pet, bool, error) {
	pet, ok, err := loadPet(c)
	if !ok {
		return nil, false, err
	}
	allowed, err := canViewPetCare(pet, c.Locals("userID").(uint))
	if err != nil {
		return nil, false, utils.InternalError(c, err, "Failed to check access")
	}
	if !allowed {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot view this pet's records"})
	}
	return pet, true, nil
}

type healthRecordInput struct {
	RecordType      *string        `json:"record_type" validate:"omitempty,oneof=vaccination medication vet_visit surgery allergy test_result weight treatment other"`
	Title           *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Date            *string        `json:"date"`
	Description     *string        `json:"description" validate:"omitempty,max=5000"`
	ProviderName    *string        `json:"provider_name" validate:"omitempty,max=200"`
	ProviderContact *string        `json:"provider_contact" validate:"omitempty,max=200"`
	Notes           *string        `json:"notes" validate:"omitempty,max=5000"`
	Attachments     []string       `json:"attachments" validate:"omitempty,max=20,dive,url"`
	ReminderDate    *string        `json:"reminder_date"`
	Metadata        map[string]any `json:"metadata"`
}

func (in *healthRecordInput) apply(rec *models.HealthRecord) map[string]string {
	fields := map[string]string{}
	if in.RecordType != nil {
		rec.RecordType = *in.RecordType
	}
	if in.Title != nil {
		rec.Title = *in.Title
	}
	if in.Description != nil {
		rec.Description = *in.Description
	}
	if in.ProviderName != nil {
		rec.ProviderName = *in.ProviderName
	}
	if in.ProviderContact != nil {
		rec.ProviderContact = *in.ProviderContact
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	if in.Attachments != nil {
		rec.Attachments = models.CleanImageURLs(in.Attachments)
	}
	if in.Date != nil {
		d, err := utils.ParseDate(*in.Date)
		if err != nil {
			fields["date"] = "date"
		}
		rec.Date = d
	}
	if in.ReminderDate != nil {
		if *in.ReminderDate == "" {
			rec.ReminderDate = nil
		} else if d, err := time.Parse(time.RFC3339, *in.ReminderDate); err == nil {
			rec.ReminderDate = &d
		} else if d, err := utils.ParseDate(*in.ReminderDate); err == nil {
			rec.ReminderDate = &d
		} else {
			fields["reminder_date"] = "datetime"
		}
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			fields["metadata"] = "object"
		}
		rec.Metadata = datatypes.JSON(raw)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateHealthRecord godoc
// @Summary Add a health record to a pet
// @Description A reminder is scheduled when reminder_date is set.
// @Tags health-records
// @Router /api/health-records/pets/{pet_id} [post]
func CreateHealthRecord(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "pet_id")
	if !ok {
		return err
	}
	var input healthRecordInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	missing := map[string]string{}
	if input.RecordType == nil {
		missing["record_type"] = "required"
	}
	if input.Title == nil {
		missing["title"] = "required"
	}
	if input.Date == nil {
		missing["date"] = "required"
	}
	if len(missing) > 0 {
		return utils.ValidationFailed(c, missing)
	}

	rec := models.HealthRecord{PetID: pet.ID, CreatedBy: c.Locals("userID").(uint)}
	if fields := input.apply(&rec); fields != nil {
		return utils.ValidationFailed(c, fields)
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return models.SyncReminder(tx, &rec, pet.OwnerID)
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to create health record")
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func ListHealthRecords(c *fiber.Ctx) error {
	pet, ok, err := loadViewablePet(c)
	if !ok {
		return err
	}
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.HealthRecord{}).Where("pet_id = ?", pet.ID)
	if t := c.Query("record_type"); t != "" {
		if !models.ValidHealthRecordType(t) {
			return utils.ValidationFailed(c, map[string]string{"record_type": "oneof"})
		}
		q = q.Where("record_type = ?", t)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count records")
	}
	var records []models.HealthRecord
	if err := q.Order("date DESC").Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&records).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch records")
	}
	return c.JSON(p.Envelope(records, total))
}

// loadHealthRecord reads :id with its pet. Owners may always write; viewers
// only read.
func loadHealthRecord(c *fiber.Ctx, write bool) (*models.HealthRecord, *models.Pet, bool, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, nil, false, utils.BadID(c, "health record id")
	}
	var rec models.HealthRecord
	if err := db.DB.First(&rec, id).Error; err != nil {
		return nil, nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Health record not found"})
	}
	var pet models.Pet
	if err := db.DB.First(&pet, rec.PetID).Error; err != nil {
		return nil, nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	userID := c.Locals("userID").(uint)
	allowed := pet.IsOwnedBy(userID)
	if !allowed && !write {
		if allowed, err = canViewPetCare(&pet, userID); err != nil {
			return nil, nil, false, utils.InternalError(c, err, "Failed to check access")
		}
	}
	if !allowed {
		return nil, nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot access this health record"})
	}
	return &rec, &pet, true, nil
}

func GetHealthRecord(c *fiber.Ctx) error {
	rec, _, ok, err := loadHealthRecord(c, false)
	if !ok {
		return err
	}
	return c.JSON(rec)
}

func UpdateHealthRecord(c *fiber.Ctx) error {
	rec, pet, ok, err := loadHealthRecord(c, true)
	if !ok {
		return err
	}
	var input healthRecordInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if fields := input.apply(rec); fields != nil {
		return utils.ValidationFailed(c, fields)
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		return models.SyncReminder(tx, rec, pet.OwnerID)
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to update health record")
	}
	return c.JSON(rec)
}

func DeleteHealthRecord(c *fiber.Ctx) error {
	rec, _, ok, err := loadHealthRecord(c, true)
	if !ok {
		return err
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("health_record_id = ? AND sent_at IS NULL", rec.ID).Delete(&models.Reminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(rec).Error
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to delete health record")
	}
	return c.JSON(fiber.Map{"message": "Health record deleted"})
}

// UploadHealthAttachments stores scanned documents or photos against a record.
func UploadHealthAttachments(c *fiber.Ctx) error {
	rec, _, ok, err := loadHealthRecord(c, true)
	if !ok {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "files are required"})
	}
	files := form.File["files"]
	if len(rec.Attachments)+len(files) > maxHealthAttachments {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("A record can have at most %d attachments", maxHealthAttachments),
		})
	}

	urls, err := utils.UploadImages(c.UserContext(), files, "health_records", "record_"+strconv.FormatUint(uint64(rec.ID), 10))
	if err != nil {
		return utils.DomainError(c, err, "Failed to upload attachments")
	}
	rec.Attachments = append(rec.Attachments, urls...)
	if err := db.DB.Model(rec).Update("attachments", rec.Attachments).Error; err != nil {
		return utils.InternalError(c, err, "Failed to save attachments")
	}
	return c.JSON(fiber.Map{"attachments": rec.Attachments, "uploaded": urls})
}

// RecentHealthActivity lists the latest records across the caller's pets.
func RecentHealthActivity(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > utils.MaxPageSize {
		limit = 10
	}
	var records []models.HealthRecord
	err := db.DB.Joins("JOIN pets ON pets.id = health_records.pet_id").
		Where("pets.owner_id = ? AND pets.status <> ?", userID, models.PetDeleted).
		Select("health_records.*").
		Order("health_records.created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to fetch recent activity")
	}
	return c.JSON(fiber.Map{"items": records})
}

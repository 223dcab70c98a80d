package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

type careInstructionInput struct {
	GeneralNotes           *string                      `json:"general_notes" validate:"omitempty,max=5000"`
	EmergencyContact       *string                      `json:"emergency_contact" validate:"omitempty,max=500"`
	VetInfo                *string                      `json:"vet_info" validate:"omitempty,max=2000"`
	FoodInstructions       *string                      `json:"food_instructions" validate:"omitempty,max=5000"`
	MedicationInstructions *string                      `json:"medication_instructions" validate:"omitempty,max=5000"`
	ExerciseInstructions   *string                      `json:"exercise_instructions" validate:"omitempty,max=5000"`
	GroomingInstructions   *string                      `json:"grooming_instructions" validate:"omitempty,max=5000"`
	BehaviorNotes          *string                      `json:"behavior_notes" validate:"omitempty,max=5000"`
	AdditionalInstructions []models.CareInstructionItem `json:"additional_instructions" validate:"omitempty,max=50,dive"`
}

func (in *careInstructionInput) apply(ci *models.CareInstruction) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&ci.GeneralNotes, in.GeneralNotes)
	set(&ci.EmergencyContact, in.EmergencyContact)
	set(&ci.VetInfo, in.VetInfo)
	set(&ci.FoodInstructions, in.FoodInstructions)
	set(&ci.MedicationInstructions, in.MedicationInstructions)
	set(&ci.ExerciseInstructions, in.ExerciseInstructions)
	set(&ci.GroomingInstructions, in.GroomingInstructions)
	set(&ci.BehaviorNotes, in.BehaviorNotes)
	if in.AdditionalInstructions != nil {
		items := make([]models.CareInstructionItem, len(in.AdditionalInstructions))
		for i, item := range in.AdditionalInstructions {
			if item.Priority == 0 {
				item.Priority = 1
			}
			item.ImageURLs = models.CleanImageURLs(item.ImageURLs)
			items[i] = item
		}
		ci.AdditionalInstructions = items
	}
	ci.SortItems()
}

func findCareInstruction(petID uint) (*models.CareInstruction, error) {
	var ci models.CareInstruction
	if err := db.DB.Where("pet_id = ?", petID).First(&ci).Error; err != nil {
		return nil, err
	}
	return &ci, nil
}

// CreateCareInstruction godoc
// @Summary Create the care sheet of a pet
// @Tags care-instructions
// @Router /api/care-instructions/pets/{pet_id} [post]
func CreateCareInstruction(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "pet_id")
	if !ok {
		return err
	}
	var input careInstructionInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	ci := models.CareInstruction{PetID: pet.ID}
	input.apply(&ci)
	if err := db.DB.Create(&ci).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Care instructions already exist for this pet"})
		}
		return utils.InternalError(c, err, "Failed to create care instructions")
	}
	return c.Status(fiber.StatusCreated).JSON(ci)
}

func GetCareInstruction(c *fiber.Ctx) error {
	pet, ok, err := loadViewablePet(c)
	if !ok {
		return err
	}
	ci, err := findCareInstruction(pet.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No care instructions for this pet"})
	}
	ci.SortItems()
	return c.JSON(ci)
}

func UpdateCareInstruction(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "pet_id")
	if !ok {
		return err
	}
	var input careInstructionInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	ci, err := findCareInstruction(pet.ID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No care instructions for this pet"})
	}
	input.apply(ci)
	if err := db.DB.Save(ci).Error; err != nil {
		return utils.InternalError(c, err, "Failed to update care instructions")
	}
	return c.JSON(ci)
}

func DeleteCareInstruction(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "pet_id")
	if !ok {
		return err
	}
	res := db.DB.Where("pet_id = ?", pet.ID).Delete(&models.CareInstruction{})
	if res.Error != nil {
		return utils.InternalError(c, res.Error, "Failed to delete care instructions")
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No care instructions for this pet"})
	}
	return c.JSON(fiber.Map{"message": "Care instructions deleted"})
}

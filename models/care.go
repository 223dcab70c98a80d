package models

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

type CareInstructionItem struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category,omitempty"`
	Priority    int      `json:"priority" validate:"omitempty,min=1,max=5"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	Order       int      `json:"order"`
}

// CareInstruction holds everything a renter needs to look after one pet.
type CareInstruction struct {
	ID                     uint                                     `json:"id" gorm:"primaryKey"`
	PetID                  uint                                     `json:"pet_id" gorm:"uniqueIndex;not null"`
	GeneralNotes           string                                   `json:"general_notes,omitempty"`
	EmergencyContact       string                                   `json:"emergency_contact,omitempty"`
	VetInfo                string                                   `json:"vet_info,omitempty"`
	FoodInstructions       string                                   `json:"food_instructions,omitempty"`
	MedicationInstructions string                                   `json:"medication_instructions,omitempty"`
	ExerciseInstructions   string                                   `json:"exercise_instructions,omitempty"`
	GroomingInstructions   string                                   `json:"grooming_instructions,omitempty"`
	BehaviorNotes          string                                   `json:"behavior_notes,omitempty"`
	AdditionalInstructions datatypes.JSONSlice[CareInstructionItem] `json:"additional_instructions"`
	CreatedAt              time.Time                                `json:"created_at"`
	UpdatedAt              time.Time                                `json:"updated_at"`
}

// SortItems orders additional instructions by Order, then priority descending.
func (c *CareInstruction) SortItems() {
	sort.SliceStable(c.AdditionalInstructions, func(i, j int) bool {
		a, b := c.AdditionalInstructions[i], c.AdditionalInstructions[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Priority > b.Priority
	})
}

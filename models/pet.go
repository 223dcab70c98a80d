package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PetStatus string

const (
	PetActive   PetStatus = "active"
	PetInactive PetStatus = "inactive"
	PetRented   PetStatus = "rented"
	PetDeleted  PetStatus = "deleted"
)

type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
	ListingFree ListingType = "free"
)

const MaxPetPhotos = 10

type Pet struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	OwnerID       uint        `json:"owner_id" gorm:"index;not null"`
	Owner         *User       `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name          string      `json:"name" gorm:"not null"`
	Species       string      `json:"species" gorm:"index"`
	Breed         string      `json:"breed"`
	Age           int         `json:"age"`
	Gender        string      `json:"gender,omitempty"`
	Size          string      `json:"size,omitempty"`
	Description   string      `json:"description"`
	ListingType   ListingType `json:"listing_type" gorm:"default:rent;not null"`
	DailyRate     float64     `json:"daily_rate" gorm:"type:decimal(10,2)"`
	Price         float64     `json:"price" gorm:"type:decimal(10,2)"`
	MinRentalDays int         `json:"min_rental_days"`
	MaxRentalDays int         `json:"max_rental_days"`
	AvailableFrom *time.Time  `json:"available_from,omitempty"`
	AvailableTo   *time.Time  `json:"available_to,omitempty"`
	City          string      `json:"city" gorm:"index"`
	Country       string      `json:"country,omitempty"`
	Address       string      `json:"address,omitempty"`
	Latitude      *float64    `json:"latitude,omitempty" gorm:"index:idx_pet_geo"`
	Longitude     *float64    `json:"longitude,omitempty" gorm:"index:idx_pet_geo"`
	GoodWithKids  *bool       `json:"good_with_kids,omitempty"`
	Vaccinated    *bool       `json:"vaccinated,omitempty"`
	Status        PetStatus   `json:"status" gorm:"index;default:active;not null"`
	Featured      bool        `json:"featured" gorm:"index"`
	ViewCount     int         `json:"view_count"`
	FavoriteCount int         `json:"favorite_count"`
	AverageRating float64     `json:"average_rating"`
	ReviewCount   int         `json:"review_count"`
	Photos        []PetPhoto  `json:"photos" gorm:"foreignKey:PetID"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = PetActive
	}
	if p.ListingType == "" {
		p.ListingType = ListingRent
	}
	return nil
}

func (p *Pet) IsOwnedBy(userID uint) bool {
	return p.OwnerID == userID
}

// Bookable reports whether renters can currently request this pet.
func (p *Pet) Bookable() bool {
	return p.Status == PetActive && p.ListingType == ListingRent
}

// WithinAvailability checks the optional listing window.
func (p *Pet) WithinAvailability(start, end time.Time) bool {
	if p.AvailableFrom != nil && start.Before(DateOnly(*p.AvailableFrom)) {
		return false
	}
	if p.AvailableTo != nil && end.After(DateOnly(*p.AvailableTo)) {
		return false
	}
	return true
}

// LockPet loads the pet row with SELECT ... FOR UPDATE so that concurrent
// booking transactions for the same pet serialize on it.
func LockPet(tx *gorm.DB, petID uint) (*Pet, error) {
	var pet Pet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status <> ?", PetDeleted).
		First(&pet, petID).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

type PetPhoto struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PetID     uint      `json:"pet_id" gorm:"index;not null"`
	URL       string    `json:"url" gorm:"not null"`
	Caption   string    `json:"caption,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite is the (user, pet) membership row behind a pet's favorite set.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_favorite_user_pet;not null"`
	PetID     uint      `json:"pet_id" gorm:"uniqueIndex:idx_favorite_user_pet;not null"`
	Pet       *Pet      `json:"pet,omitempty" gorm:"foreignKey:PetID"`
	CreatedAt time.Time `json:"created_at"`
}

// AddFavorite inserts the membership row and bumps favorite_count. Adding an
// existing favorite is a no-op and reports false.
func AddFavorite(tx *gorm.DB, userID, petID uint) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Favorite{UserID: userID, PetID: petID})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := tx.Model(&Pet{}).Where("id = ?", petID).
		UpdateColumn("favorite_count", gorm.Expr("favorite_count + 1")).Error
	return err == nil, err
}

// RemoveFavorite is the idempotent inverse of AddFavorite.
func RemoveFavorite(tx *gorm.DB, userID, petID uint) (bool, error) {
	res := tx.Where("user_id = ? AND pet_id = ?", userID, petID).Delete(&Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := tx.Model(&Pet{}).Where("id = ? AND favorite_count > 0", petID).
		UpdateColumn("favorite_count", gorm.Expr("favorite_count - 1")).Error
	return err == nil, err
}

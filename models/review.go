package models

import (
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	EntityPet     = "pet"
	EntityUser    = "user"
	EntityReview  = "review"
	EntityMessage = "message"
)

type Review struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AuthorID     uint           `json:"author_id" gorm:"index:idx_review_author_entity;not null"`
	Author       *User          `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	EntityType   string         `json:"entity_type" gorm:"index:idx_review_entity;index:idx_review_author_entity;not null"`
	EntityID     uint           `json:"entity_id" gorm:"index:idx_review_entity;index:idx_review_author_entity;not null"`
	Rating       int            `json:"rating" gorm:"not null"`
	Title        string         `json:"title,omitempty"`
	Comment      string         `json:"comment"`
	IsAnonymous  bool           `json:"is_anonymous"`
	HelpfulCount int            `json:"helpful_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate hook to validate rating
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.Rating < 1 {
		r.Rating = 1
	} else if r.Rating > 5 {
		r.Rating = 5
	}
	return nil
}

// HasExistingReview checks whether the author already reviewed this entity.
func (r *Review) HasExistingReview(tx *gorm.DB) (bool, error) {
	var count int64
	err := tx.Model(&Review{}).
		Where("author_id = ? AND entity_type = ? AND entity_id = ?", r.AuthorID, r.EntityType, r.EntityID).
		Count(&count).Error
	return count > 0, err
}

// Redact hides the author of an anonymous review.
func (r *Review) Redact() {
	if r.IsAnonymous {
		r.AuthorID = 0
		r.Author = nil
	}
}

type ReviewHelpful struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ReviewID  uint      `json:"review_id" gorm:"uniqueIndex:idx_review_helpful;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_review_helpful;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewSummary struct {
	Count              int64            `json:"count"`
	AverageRating      float64          `json:"average_rating"`
	RatingDistribution map[string]int64 `json:"rating_distribution"`
}

// SummarizeReviews aggregates ratings for one entity.
func SummarizeReviews(tx *gorm.DB, entityType string, entityID uint) (ReviewSummary, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := tx.Model(&Review{}).
		Select("rating, COUNT(*) AS total").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Group("rating").
		Scan(&rows).Error

	summary := ReviewSummary{RatingDistribution: map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}
	if err != nil {
		return summary, err
	}
	var sum int64
	for _, row := range rows {
		summary.RatingDistribution[strconv.Itoa(row.Rating)] = row.Total
		summary.Count += row.Total
		sum += int64(row.Rating) * row.Total
	}
	if summary.Count > 0 {
		summary.AverageRating = math.Round(float64(sum)/float64(summary.Count)*10) / 10
	}
	return summary, nil
}

// RefreshPetRating stores the aggregate on the pet row for listing sorts.
func RefreshPetRating(tx *gorm.DB, petID uint) error {
	summary, err := SummarizeReviews(tx, EntityPet, petID)
	if err != nil {
		return err
	}
	return tx.Model(&Pet{}).Where("id = ?", petID).Updates(map[string]any{
		"average_rating": summary.AverageRating,
		"review_count":   summary.Count,
	}).Error
}

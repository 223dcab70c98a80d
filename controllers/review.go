package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/middleware"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errSelfReview = errors.New("you cannot review yourself or your own pet")

// reviewTarget resolves :entity_type/:entity_id to the user who receives the
// review. ok is false when a response has already been written.
func reviewTarget(c *fiber.Ctx) (entityType string, entityID, recipientID uint, ok bool, err error) {
	entityType = c.Params("entity_type")
	entityID, err = utils.ParamID(c, "entity_id")
	if err != nil {
		return "", 0, 0, false, utils.BadID(c, "entity id")
	}
	switch entityType {
	case models.EntityPet:
		var pet models.Pet
		if err := db.DB.Where("status <> ?", models.PetDeleted).First(&pet, entityID).Error; err != nil {
			return "", 0, 0, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
		}
		return entityType, entityID, pet.OwnerID, true, nil
	case models.EntityUser:
		var user models.User
		if err := db.DB.Where("is_active = ?", true).First(&user, entityID).Error; err != nil {
			return "", 0, 0, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return entityType, entityID, user.ID, true, nil
	}
	return "", 0, 0, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entity_type must be pet or user"})
}

// refreshRating keeps the pet aggregate current after any review change.
func refreshRating(tx *gorm.DB, r *models.Review) error {
	if r.EntityType != models.EntityPet {
		return nil
	}
	return models.RefreshPetRating(tx, r.EntityID)
}

// CreateReview adds a review for a pet or a user
func CreateReview(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entityType, entityID, recipientID, ok, err := reviewTarget(c)
	if !ok {
		return err
	}

	var input struct {
		Rating    int    `json:"rating" validate:"required,min=1,max=5"`
		Title     string `json:"title" validate:"max=200"`
		Comment   string `json:"comment" validate:"max=2000"`
		Anonymous bool   `json:"anonymous"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if recipientID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errSelfReview.Error()})
	}

	review := models.Review{
		AuthorID:    userID,
		EntityType:  entityType,
		EntityID:    entityID,
		Rating:      input.Rating,
		Title:       input.Title,
		Comment:     input.Comment,
		IsAnonymous: input.Anonymous,
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// Check if the user has already reviewed this entity
		exists, err := review.HasExistingReview(tx)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrDuplicateReview
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		if err := refreshRating(tx, &review); err != nil {
			return err
		}
		utils.NotifyQuietly(tx, utils.NotificationInput{
			UserID:     recipientID,
			Type:       models.NotifyReviewReceived,
			Title:      "New review",
			Message:    fmt.Sprintf("You received a %d-star review", review.Rating),
			EntityID:   review.ID,
			EntityType: "review",
			Data:       map[string]any{"entity_type": entityType, "entity_id": entityID},
		})
		return nil
	})
	if errors.Is(err, models.ErrDuplicateReview) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have already reviewed this. Please update your existing review.",
		})
	}
	if err != nil {
		return utils.DomainError(c, err, "Failed to create review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func publicAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "full_name", "avatar_url", "username")
}

func redactAll(reviews []models.Review) {
	for i := range reviews {
		reviews[i].Redact()
	}
}

// GetReviews lists the reviews of one entity
func GetReviews(c *fiber.Ctx) error {
	entityType := c.Params("entity_type")
	if entityType != models.EntityPet && entityType != models.EntityUser {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entity_type must be pet or user"})
	}
	entityID, err := utils.ParamID(c, "entity_id")
	if err != nil {
		return utils.BadID(c, "entity id")
	}
	p := utils.GetPagination(c)

	q := db.DB.Model(&models.Review{}).Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count reviews")
	}
	switch c.Query("sort") {
	case "highest":
		q = q.Order("rating DESC")
	case "lowest":
		q = q.Order("rating ASC")
	case "helpful":
		q = q.Order("helpful_count DESC")
	}
	var reviews []models.Review
	if err := q.Order("created_at DESC").Order("id DESC").Preload("Author", publicAuthor).
		Offset(p.Offset).Limit(p.Limit).Find(&reviews).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch reviews")
	}
	redactAll(reviews)
	return c.JSON(p.Envelope(reviews, total))
}

func GetReviewSummary(c *fiber.Ctx) error {
	entityID, err := utils.ParamID(c, "entity_id")
	if err != nil {
		return utils.BadID(c, "entity id")
	}
	summary, err := models.SummarizeReviews(db.DB, c.Params("entity_type"), entityID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to summarize reviews")
	}
	return c.JSON(summary)
}

// GetWrittenReviews lists reviews a user wrote, hiding anonymous ones from others.
func GetWrittenReviews(c *fiber.Ctx) error {
	authorID, err := utils.ParamID(c, "user_id")
	if err != nil {
		return utils.BadID(c, "user id")
	}
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Review{}).Where("author_id = ?", authorID)
	if middleware.UserID(c) != authorID {
		q = q.Where("is_anonymous = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count reviews")
	}
	var reviews []models.Review
	if err := q.Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&reviews).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch reviews")
	}
	return c.JSON(p.Envelope(reviews, total))
}

// GetPendingReviews lists completed rentals whose pet the caller has not reviewed yet.
func GetPendingReviews(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var bookings []models.Booking
	err := db.DB.Preload("Pet").
		Where("renter_id = ? AND status = ?", userID, models.BookingCompleted).
		Where("pet_id NOT IN (?)", db.DB.Model(&models.Review{}).Select("entity_id").
			Where("author_id = ? AND entity_type = ?", userID, models.EntityPet)).
		Order("completed_at DESC").Find(&bookings).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to fetch pending reviews")
	}
	return c.JSON(fiber.Map{"items": bookings})
}

// loadOwnReview reads :id and requires the caller to be its author, or an
// admin when allowAdmin is set.
func loadOwnReview(c *fiber.Ctx, allowAdmin bool) (*models.Review, bool, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, false, utils.BadID(c, "review id")
	}
	var review models.Review
	if err := db.DB.First(&review, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
	}
	if review.AuthorID != c.Locals("userID").(uint) && !(allowAdmin && middleware.IsAdmin(c)) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only change your own reviews"})
	}
	return &review, true, nil
}

func UpdateReview(c *fiber.Ctx) error {
	review, ok, err := loadOwnReview(c, false)
	if !ok {
		return err
	}
	var input struct {
		Rating    *int    `json:"rating" validate:"omitempty,min=1,max=5"`
		Title     *string `json:"title" validate:"omitempty,max=200"`
		Comment   *string `json:"comment" validate:"omitempty,max=2000"`
		Anonymous *bool   `json:"anonymous"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	updates := map[string]any{}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}
	if input.Anonymous != nil {
		updates["is_anonymous"] = *input.Anonymous
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(review).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(review, review.ID).Error; err != nil {
			return err
		}
		return refreshRating(tx, review)
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to update review")
	}
	return c.JSON(review)
}

func DeleteReview(c *fiber.Ctx) error {
	review, ok, err := loadOwnReview(c, true)
	if !ok {
		return err
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(review).Error; err != nil {
			return err
		}
		return refreshRating(tx, review)
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to delete review")
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}

// MarkReviewHelpful counts one vote per user.
func MarkReviewHelpful(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "review id")
	}

	var review models.Review
	var counted bool
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, id).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ReviewHelpful{ReviewID: id, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		counted = true
		if err := tx.Model(&review).UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")).Error; err != nil {
			return err
		}
		return tx.First(&review, id).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to mark review helpful")
	}
	if !counted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already marked this review helpful"})
	}
	return c.JSON(fiber.Map{"review_id": review.ID, "helpful_count": review.HelpfulCount})
}

package controllers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/middleware"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// listing price: the daily rate for rentals, the fixed price otherwise
const priceExpr = "(CASE WHEN listing_type = 'rent' THEN daily_rate ELSE price END)"

const (
	defaultRadiusKm = 10.0
	maxRadiusKm     = 100.0
)

type petInput struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Species       *string  `json:"species" validate:"omitempty,min=1,max=50"`
	Breed         *string  `json:"breed" validate:"omitempty,max=100"`
	Age           *int     `json:"age" validate:"omitempty,min=0,max=100"`
	Gender        *string  `json:"gender" validate:"omitempty,max=20"`
	Size          *string  `json:"size" validate:"omitempty,max=20"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	ListingType   *string  `json:"listing_type" validate:"omitempty,oneof=rent sale free"`
	DailyRate     *float64 `json:"daily_rate" validate:"omitempty,gte=0"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	MinRentalDays *int     `json:"min_rental_days" validate:"omitempty,gte=0"`
	MaxRentalDays *int     `json:"max_rental_days" validate:"omitempty,gte=0"`
	AvailableFrom *string  `json:"available_from"`
	AvailableTo   *string  `json:"available_to"`
	City          *string  `json:"city" validate:"omitempty,max=100"`
	Country       *string  `json:"country" validate:"omitempty,max=100"`
	Address       *string  `json:"address" validate:"omitempty,max=255"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	GoodWithKids  *bool    `json:"good_with_kids"`
	Vaccinated    *bool    `json:"vaccinated"`
}

// apply copies the provided fields onto pet and returns field errors.
func (in *petInput) apply(pet *models.Pet) map[string]string {
	fields := map[string]string{}
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&pet.Name, in.Name)
	setString(&pet.Species, in.Species)
	setString(&pet.Breed, in.Breed)
	setString(&pet.Gender, in.Gender)
	setString(&pet.Size, in.Size)
	setString(&pet.Description, in.Description)
	setString(&pet.City, in.City)
	setString(&pet.Country, in.Country)
	setString(&pet.Address, in.Address)
	if in.Age != nil {
		pet.Age = *in.Age
	}
	if in.ListingType != nil {
		pet.ListingType = models.ListingType(*in.ListingType)
	}
	if in.DailyRate != nil {
		pet.DailyRate = models.RoundMoney(*in.DailyRate)
	}
	if in.Price != nil {
		pet.Price = models.RoundMoney(*in.Price)
	}
	if in.MinRentalDays != nil {
		pet.MinRentalDays = *in.MinRentalDays
	}
	if in.MaxRentalDays != nil {
		pet.MaxRentalDays = *in.MaxRentalDays
	}
	if in.Latitude != nil {
		pet.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		pet.Longitude = in.Longitude
	}
	if in.GoodWithKids != nil {
		pet.GoodWithKids = in.GoodWithKids
	}
	if in.Vaccinated != nil {
		pet.Vaccinated = in.Vaccinated
	}
	parseOptionalDate := func(name string, raw *string, dst **time.Time) {
		if raw == nil {
			return
		}
		if *raw == "" {
			*dst = nil
			return
		}
		d, err := utils.ParseDate(*raw)
		if err != nil {
			fields[name] = "date"
			return
		}
		*dst = &d
	}
	parseOptionalDate("available_from", in.AvailableFrom, &pet.AvailableFrom)
	parseOptionalDate("available_to", in.AvailableTo, &pet.AvailableTo)

	if pet.MinRentalDays > 0 && pet.MaxRentalDays > 0 && pet.MinRentalDays > pet.MaxRentalDays {
		fields["max_rental_days"] = "gtefield=min_rental_days"
	}
	if pet.AvailableFrom != nil && pet.AvailableTo != nil && pet.AvailableTo.Before(*pet.AvailableFrom) {
		fields["available_to"] = "gtefield=available_from"
	}
	if (pet.Latitude == nil) != (pet.Longitude == nil) {
		fields["longitude"] = "required_with=latitude"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// findOwnedPet loads a pet that is not deleted and checks the caller owns it.
// ok is false when a response has already been written.
func findOwnedPet(c *fiber.Ctx, param string) (*models.Pet, bool, error) {
	id, err := utils.ParamID(c, param)
	if err != nil {
		return nil, false, utils.BadID(c, "pet id")
	}
	var pet models.Pet
	if err := db.DB.Where("status <> ?", models.PetDeleted).First(&pet, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	if !pet.IsOwnedBy(c.Locals("userID").(uint)) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not own this pet"})
	}
	return &pet, true, nil
}

func photosByPosition(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC, id ASC")
}

// filterPets applies the shared listing filters to q.
func filterPets(c *fiber.Ctx, q *gorm.DB) *gorm.DB {
	q = q.Where("status = ?", models.PetActive)
	if v := strings.TrimSpace(c.Query("species")); v != "" {
		q = q.Where("LOWER(species) = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(c.Query("breed")); v != "" {
		q = q.Where("LOWER(breed) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := c.Query("listing_type"); v != "" {
		q = q.Where("listing_type = ?", v)
	}
	if v := strings.TrimSpace(c.Query("city")); v != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(v))
	}
	if v, ok := utils.QueryFloat(c, "min_price"); ok {
		q = q.Where(priceExpr+" >= ?", v)
	}
	if v, ok := utils.QueryFloat(c, "max_price"); ok {
		q = q.Where(priceExpr+" <= ?", v)
	}
	if v, err := strconv.Atoi(c.Query("min_age")); err == nil {
		q = q.Where("age >= ?", v)
	}
	if v, err := strconv.Atoi(c.Query("max_age")); err == nil {
		q = q.Where("age <= ?", v)
	}
	if v, err := strconv.Atoi(c.Query("owner_id")); err == nil && v > 0 {
		q = q.Where("owner_id = ?", v)
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}
	return q
}

func sortPets(q *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "price_asc":
		return q.Order(priceExpr + " ASC").Order("id DESC")
	case "price_desc":
		return q.Order(priceExpr + " DESC").Order("id DESC")
	case "rating":
		return q.Order("average_rating DESC").Order("review_count DESC").Order("id DESC")
	}
	return q.Order("created_at DESC").Order("id DESC")
}

// GetPets godoc
// @Summary List active pets
// @Tags pets
// @Param species query string false "Species"
// @Param sort query string false "newest|price_asc|price_desc|rating"
// @Router /api/pets [get]
func GetPets(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	q := filterPets(c, db.DB.Model(&models.Pet{}))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count pets")
	}
	var pets []models.Pet
	err := sortPets(q, c.Query("sort")).Preload("Photos", photosByPosition).
		Offset(p.Offset).Limit(p.Limit).Find(&pets).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to fetch pets")
	}
	return c.JSON(p.Envelope(pets, total))
}

type petWithDistance struct {
	models.Pet
	DistanceKm float64 `json:"distance_km"`
}

// geoQuery reads latitude, longitude and radius_km. present is false when
// no coordinates were sent; ok is false when a response was written.
func geoQuery(c *fiber.Ctx) (lat, lng, radius float64, present, ok bool, err error) {
	lat, hasLat := utils.QueryFloat(c, "latitude")
	lng, hasLng := utils.QueryFloat(c, "longitude")
	if !hasLat && !hasLng && c.Query("latitude") == "" && c.Query("longitude") == "" {
		return 0, 0, 0, false, true, nil
	}
	if !hasLat || !hasLng || !utils.ValidCoordinates(lat, lng) {
		return 0, 0, 0, true, false, utils.ValidationFailed(c, map[string]string{"latitude": "latitude", "longitude": "longitude"})
	}
	radius = defaultRadiusKm
	if r, has := utils.QueryFloat(c, "radius_km"); has {
		radius = r
	} else if c.Query("radius_km") != "" {
		return 0, 0, 0, true, false, utils.ValidationFailed(c, map[string]string{"radius_km": "numeric"})
	}
	if radius < 1 || radius > maxRadiusKm {
		return 0, 0, 0, true, false, utils.ValidationFailed(c, map[string]string{"radius_km": "min=1,max=100"})
	}
	return lat, lng, radius, true, true, nil
}

// nearbyPets runs q inside the bounding box and keeps pets within radius,
// closest first.
func nearbyPets(q *gorm.DB, lat, lng, radius float64) ([]petWithDistance, error) {
	minLat, maxLat, minLng, maxLng := utils.BoundingBox(lat, lng, radius)
	ranges := utils.LongitudeRanges(minLng, maxLng)
	lngCond := db.DB.Where("longitude BETWEEN ? AND ?", ranges[0][0], ranges[0][1])
	for _, r := range ranges[1:] {
		lngCond = lngCond.Or("longitude BETWEEN ? AND ?", r[0], r[1])
	}
	var candidates []models.Pet
	err := q.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where(lngCond).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	out := make([]petWithDistance, 0, len(candidates))
	for _, pet := range candidates {
		d := utils.HaversineDistance(lat, lng, *pet.Latitude, *pet.Longitude)
		if d <= radius {
			out = append(out, petWithDistance{Pet: pet, DistanceKm: roundDistance(d)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func roundDistance(v float64) float64 {
	return models.RoundMoney(v)
}

func pageOf[T any](items []T, p utils.Pagination) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// SearchPets is GetPets plus free text and an optional radius around a point.
func SearchPets(c *fiber.Ctx) error {
	lat, lng, radius, geo, ok, err := geoQuery(c)
	if !ok {
		return err
	}
	if !geo {
		return GetPets(c)
	}

	p := utils.GetPagination(c)
	results, err := nearbyPets(filterPets(c, db.DB.Model(&models.Pet{})).Preload("Photos", photosByPosition), lat, lng, radius)
	if err != nil {
		return utils.InternalError(c, err, "Failed to search pets")
	}
	return c.JSON(p.Envelope(pageOf(results, p), int64(len(results))))
}

func NearbyPets(c *fiber.Ctx) error {
	lat, lng, radius, geo, ok, err := geoQuery(c)
	if !ok {
		return err
	}
	if !geo {
		return utils.ValidationFailed(c, map[string]string{"latitude": "required", "longitude": "required"})
	}

	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Pet{}).Where("status = ?", models.PetActive).Preload("Photos", photosByPosition)
	results, err := nearbyPets(q, lat, lng, radius)
	if err != nil {
		return utils.InternalError(c, err, "Failed to find nearby pets")
	}
	return c.JSON(fiber.Map{
		"items":     pageOf(results, p),
		"total":     len(results),
		"radius_km": radius,
		"center":    fiber.Map{"latitude": lat, "longitude": lng},
	})
}

func FeaturedPets(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	limit = min(limit, 50)

	var pets []models.Pet
	err := db.DB.Where("status = ?", models.PetActive).
		Order("featured DESC").Order("average_rating DESC").Order("favorite_count DESC").Order("id DESC").
		Preload("Photos", photosByPosition).Limit(limit).Find(&pets).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to fetch featured pets")
	}
	return c.JSON(fiber.Map{"items": pets})
}

func MyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Pet{}).Where("owner_id = ? AND status <> ?", userID, models.PetDeleted)
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count pets")
	}
	var pets []models.Pet
	if err := q.Order("created_at DESC").Preload("Photos", photosByPosition).
		Offset(p.Offset).Limit(p.Limit).Find(&pets).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch pets")
	}
	return c.JSON(p.Envelope(pets, total))
}

func MyFavorites(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Pet{}).
		Joins("JOIN favorites ON favorites.pet_id = pets.id").
		Where("favorites.user_id = ? AND pets.status <> ?", userID, models.PetDeleted)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count favorites")
	}
	var pets []models.Pet
	if err := q.Select("pets.*").Order("favorites.created_at DESC").Preload("Photos", photosByPosition).
		Offset(p.Offset).Limit(p.Limit).Find(&pets).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch favorites")
	}
	return c.JSON(p.Envelope(pets, total))
}

type petDetail struct {
	models.Pet
	OwnerProfile *models.PublicProfile `json:"owner_profile,omitempty"`
	IsFavorited  bool                  `json:"is_favorited"`
}

// GetPet godoc
// @Summary Get a pet by ID
// @Description Counts a view unless the caller owns the pet.
// @Tags pets
// @Param id path int true "Pet ID"
// @Router /api/pets/{id} [get]
func GetPet(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "pet id")
	}
	var pet models.Pet
	if err := db.DB.Where("status <> ?", models.PetDeleted).Preload("Photos", photosByPosition).
		First(&pet, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}

	viewer := middleware.UserID(c)
	detail := petDetail{Pet: pet}
	if viewer != pet.OwnerID {
		db.DB.Model(&models.Pet{}).Where("id = ?", pet.ID).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		detail.ViewCount++
	}
	if viewer != 0 {
		var count int64
		db.DB.Model(&models.Favorite{}).Where("user_id = ? AND pet_id = ?", viewer, pet.ID).Count(&count)
		detail.IsFavorited = count > 0
	}
	var owner models.User
	if err := db.DB.First(&owner, pet.OwnerID).Error; err == nil {
		profile := owner.PublicProfile()
		detail.OwnerProfile = &profile
	}
	return c.JSON(detail)
}

// CreatePet godoc
// @Summary Create a pet listing
// @Tags pets
// @Accept json
// @Produce json
// @Success 201 {object} models.Pet
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/pets [post]
func CreatePet(c *fiber.Ctx) error {
	var input petInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	missing := map[string]string{}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		missing["name"] = "required"
	}
	if input.Species == nil || strings.TrimSpace(*input.Species) == "" {
		missing["species"] = "required"
	}
	if len(missing) > 0 {
		return utils.ValidationFailed(c, missing)
	}

	pet := models.Pet{OwnerID: c.Locals("userID").(uint)}
	if fields := input.apply(&pet); fields != nil {
		return utils.ValidationFailed(c, fields)
	}
	if err := db.DB.Create(&pet).Error; err != nil {
		return utils.InternalError(c, err, "Failed to create pet")
	}
	pet.Photos = []models.PetPhoto{}
	return c.Status(fiber.StatusCreated).JSON(pet)
}

func UpdatePet(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	var input petInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if fields := input.apply(pet); fields != nil {
		return utils.ValidationFailed(c, fields)
	}
	if err := db.DB.Omit(clause.Associations).Save(pet).Error; err != nil {
		return utils.InternalError(c, err, "Failed to update pet")
	}
	db.DB.Scopes(photosByPosition).Where("pet_id = ?", pet.ID).Find(&pet.Photos)
	return c.JSON(pet)
}

// DeletePet hides the listing. Pets with open bookings cannot be removed.
func DeletePet(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	var open int64
	db.DB.Model(&models.Booking{}).
		Where("pet_id = ? AND status IN ?", pet.ID, models.ActiveBookingStatuses).
		Count(&open)
	if open > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Pet has %d pending or accepted bookings", open),
		})
	}
	if err := db.DB.Model(pet).Update("status", models.PetDeleted).Error; err != nil {
		return utils.InternalError(c, err, "Failed to delete pet")
	}
	return c.JSON(fiber.Map{"message": "Pet deleted"})
}

func UpdatePetStatus(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	var input struct {
		Status string `json:"status" validate:"required,oneof=active inactive rented"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if err := db.DB.Model(pet).Update("status", input.Status).Error; err != nil {
		return utils.InternalError(c, err, "Failed to update status")
	}
	return c.JSON(fiber.Map{"id": pet.ID, "status": input.Status})
}

// UploadPetPhotos appends photos in upload order. The first photo a pet gets
// becomes its primary.
func UploadPetPhotos(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil || len(form.File["photos"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photos files are required"})
	}
	files := form.File["photos"]

	var existing []models.PetPhoto
	if err := db.DB.Scopes(photosByPosition).Where("pet_id = ?", pet.ID).Find(&existing).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load photos")
	}
	if len(existing)+len(files) > models.MaxPetPhotos {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("A pet can have at most %d photos", models.MaxPetPhotos),
		})
	}

	urls, err := utils.UploadImages(c.UserContext(), files, "pet_photos", fmt.Sprintf("pet_%d", pet.ID))
	if err != nil {
		return utils.DomainError(c, err, "Failed to upload photos")
	}

	hasPrimary := false
	next := 0
	for _, ph := range existing {
		hasPrimary = hasPrimary || ph.IsPrimary
		next = max(next, ph.Position+1)
	}
	photos := make([]models.PetPhoto, len(urls))
	for i, url := range urls {
		photos[i] = models.PetPhoto{PetID: pet.ID, URL: url, Position: next + i, IsPrimary: !hasPrimary && i == 0}
	}
	if err := db.DB.Create(&photos).Error; err != nil {
		return utils.InternalError(c, err, "Failed to save photos")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photos": append(existing, photos...)})
}

func SetPrimaryPhoto(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	photoID, err := utils.ParamID(c, "photo_id")
	if err != nil {
		return utils.BadID(c, "photo id")
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var photo models.PetPhoto
		if err := tx.Where("pet_id = ?", pet.ID).First(&photo, photoID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PetPhoto{}).Where("pet_id = ?", pet.ID).Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&photo).Update("is_primary", true).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to set primary photo")
	}
	return c.JSON(fiber.Map{"message": "Primary photo updated", "photo_id": photoID})
}

// DeletePetPhoto removes a photo; when it was primary the next photo takes over.
func DeletePetPhoto(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}
	photoID, err := utils.ParamID(c, "photo_id")
	if err != nil {
		return utils.BadID(c, "photo id")
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var photo models.PetPhoto
		if err := tx.Where("pet_id = ?", pet.ID).First(&photo, photoID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&photo).Error; err != nil {
			return err
		}
		if !photo.IsPrimary {
			return nil
		}
		var next models.PetPhoto
		if err := tx.Scopes(photosByPosition).Where("pet_id = ?", pet.ID).Limit(1).Find(&next).Error; err != nil {
			return err
		}
		if next.ID == 0 {
			return nil
		}
		return tx.Model(&next).Update("is_primary", true).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to delete photo")
	}
	return c.JSON(fiber.Map{"message": "Photo deleted"})
}

func setFavorite(c *fiber.Ctx, favorite bool) error {
	userID := c.Locals("userID").(uint)
	petID, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "pet id")
	}

	var pet models.Pet
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status <> ?", models.PetDeleted).First(&pet, petID).Error; err != nil {
			return err
		}
		var err error
		if favorite {
			_, err = models.AddFavorite(tx, userID, petID)
		} else {
			_, err = models.RemoveFavorite(tx, userID, petID)
		}
		if err != nil {
			return err
		}
		return tx.Select("id", "favorite_count").First(&pet, petID).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to update favorite")
	}
	return c.JSON(fiber.Map{"pet_id": petID, "is_favorited": favorite, "favorite_count": pet.FavoriteCount})
}

func AddFavorite(c *fiber.Ctx) error {
	return setFavorite(c, true)
}

func RemoveFavorite(c *fiber.Ctx) error {
	return setFavorite(c, false)
}

// PetAnalytics summarizes one listing for its owner.
func PetAnalytics(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "id")
	if !ok {
		return err
	}

	var byStatus []struct {
		Status string
		Total  int64
	}
	if err := db.DB.Model(&models.Booking{}).Select("status, COUNT(*) AS total").
		Where("pet_id = ?", pet.ID).Group("status").Scan(&byStatus).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load bookings")
	}
	bookings := map[string]int64{}
	var totalBookings int64
	for _, row := range byStatus {
		bookings[row.Status] = row.Total
		totalBookings += row.Total
	}

	var earnings float64
	if err := db.DB.Model(&models.Transaction{}).
		Joins("JOIN bookings ON bookings.id = transactions.booking_id").
		Where("bookings.pet_id = ? AND transactions.type = ? AND transactions.user_id = ?", pet.ID, models.TxEarning, pet.OwnerID).
		Select("COALESCE(SUM(transactions.amount), 0)").Scan(&earnings).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}

	return c.JSON(fiber.Map{
		"pet_id":         pet.ID,
		"views":          pet.ViewCount,
		"favorites":      pet.FavoriteCount,
		"total_bookings": totalBookings,
		"bookings":       bookings,
		"earnings":       models.RoundMoney(earnings),
		"average_rating": pet.AverageRating,
		"review_count":   pet.ReviewCount,
	})
}

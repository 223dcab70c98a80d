package owner

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
)

const (
	defaultMonths  = 6
	maxMonths      = 24
	defaultTopPets = 5
	maxTopPets     = 50
)

// earningsBetween sums net earning ledger rows in [from, to). A zero to means
// no upper bound.
func earningsBetween(userID uint, from, to time.Time) (float64, error) {
	q := db.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, models.TxEarning, from)
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var sum float64
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return models.RoundMoney(sum), err
}

// GetEarnings godoc
// @Summary Owner earnings overview
// @Tags analytics
// @Produce json
// @Router /api/analytics/earnings [get]
func GetEarnings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	now := time.Now().UTC()
	monthStart, _ := utils.MonthBounds(now)
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var totals struct {
		Earnings float64
		Fees     float64
	}
	if err := db.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS earnings, COALESCE(SUM(platform_fee), 0) AS fees").
		Where("user_id = ? AND type = ?", userID, models.TxEarning).
		Scan(&totals).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}

	thisMonth, err := earningsBetween(userID, monthStart, time.Time{})
	if err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}
	lastMonth, err := earningsBetween(userID, lastMonthStart, monthStart)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}
	thisYear, err := earningsBetween(userID, yearStart, time.Time{})
	if err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}

	// Accepted bookings pay out on completion, net of the platform fee.
	var accepted float64
	if err := db.DB.Model(&models.Booking{}).
		Where("owner_id = ? AND status = ?", userID, models.BookingAccepted).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&accepted).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}
	pending := models.RoundMoney(accepted - models.Percentage(accepted, config.App.PlatformFeePercentage))

	var user models.User
	if err := db.DB.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{
		"total_earnings":    models.RoundMoney(totals.Earnings),
		"this_month":        thisMonth,
		"last_month":        lastMonth,
		"this_year":         thisYear,
		"total_fees":        models.RoundMoney(totals.Fees),
		"pending_earnings":  pending,
		"available_balance": user.WalletBalance,
	})
}

type MonthlyEarning struct {
	Month    string  `json:"month"`
	Earnings float64 `json:"earnings"`
	Bookings int     `json:"bookings"`
}

// MonthlySeries buckets earnings and completed bookings into the last months
// calendar months ending with the month of now, oldest first. Empty months
// are kept so charts get a continuous axis.
func MonthlySeries(now time.Time, months int, earnings []models.Transaction, completed []models.Booking) []MonthlyEarning {
	current, _ := utils.MonthBounds(now.UTC())
	series := make([]MonthlyEarning, months)
	index := make(map[string]int, months)
	for i := range months {
		key := current.AddDate(0, i-months+1, 0).Format("2006-01")
		series[i] = MonthlyEarning{Month: key}
		index[key] = i
	}
	for _, t := range earnings {
		if i, ok := index[t.CreatedAt.UTC().Format("2006-01")]; ok {
			series[i].Earnings = models.RoundMoney(series[i].Earnings + t.Amount)
		}
	}
	for _, b := range completed {
		at := b.UpdatedAt
		if b.CompletedAt != nil {
			at = *b.CompletedAt
		}
		if i, ok := index[at.UTC().Format("2006-01")]; ok {
			series[i].Bookings++
		}
	}
	return series
}

func GetMonthlyEarnings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	months := c.QueryInt("months", defaultMonths)
	if months < 1 || months > maxMonths {
		return utils.ValidationFailed(c, map[string]string{"months": "max=24"})
	}

	now := time.Now().UTC()
	current, _ := utils.MonthBounds(now)
	since := current.AddDate(0, -(months - 1), 0)

	var earnings []models.Transaction
	if err := db.DB.Select("amount", "created_at").
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, models.TxEarning, since).
		Find(&earnings).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load earnings")
	}
	var completed []models.Booking
	if err := db.DB.Select("id", "completed_at", "updated_at").
		Where("owner_id = ? AND status = ? AND updated_at >= ?", userID, models.BookingCompleted, since).
		Find(&completed).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load bookings")
	}

	return c.JSON(fiber.Map{"months": MonthlySeries(now, months, earnings, completed)})
}

func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return models.RoundMoney(float64(part) / float64(whole) * 100)
}

// GetOwnerMetrics reports listing performance across all of the caller's pets.
func GetOwnerMetrics(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var statistics struct {
		TotalPets          int64      `json:"total_pets"`
		ActivePets         int64      `json:"active_pets"`
		BookingsReceived   int64      `json:"bookings_received"`
		BookingsCompleted  int64      `json:"bookings_completed"`
		AcceptanceRate     float64    `json:"acceptance_rate"`
		CancellationRate   float64    `json:"cancellation_rate"`
		AverageRating      float64    `json:"average_rating"`
		TotalReviews       int64      `json:"total_reviews"`
		RepeatCustomerRate float64    `json:"repeat_customer_rate"`
		LastBookingAt      *time.Time `json:"last_booking_at"`
	}

	petQuery := db.DB.Model(&models.Pet{}).Where("owner_id = ? AND status <> ?", userID, models.PetDeleted)
	if err := petQuery.Count(&statistics.TotalPets).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load metrics")
	}
	db.DB.Model(&models.Pet{}).Where("owner_id = ? AND status = ?", userID, models.PetActive).Count(&statistics.ActivePets)

	var byStatus []struct {
		Status models.BookingStatus
		Total  int64
	}
	if err := db.DB.Model(&models.Booking{}).Select("status, COUNT(*) AS total").
		Where("owner_id = ?", userID).Group("status").Scan(&byStatus).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load metrics")
	}
	counts := map[models.BookingStatus]int64{}
	for _, row := range byStatus {
		counts[row.Status] = row.Total
		statistics.BookingsReceived += row.Total
	}
	statistics.BookingsCompleted = counts[models.BookingCompleted]
	// Acceptance is measured over decided requests only.
	decided := counts[models.BookingAccepted] + counts[models.BookingCompleted] + counts[models.BookingRejected]
	statistics.AcceptanceRate = rate(counts[models.BookingAccepted]+counts[models.BookingCompleted], decided)
	statistics.CancellationRate = rate(counts[models.BookingCancelled], statistics.BookingsReceived)

	var ratings struct {
		Reviews int64
		Sum     float64
	}
	if err := db.DB.Model(&models.Pet{}).
		Select("COALESCE(SUM(review_count), 0) AS reviews, COALESCE(SUM(average_rating * review_count), 0) AS sum").
		Where("owner_id = ? AND status <> ?", userID, models.PetDeleted).
		Scan(&ratings).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load metrics")
	}
	statistics.TotalReviews = ratings.Reviews
	if ratings.Reviews > 0 {
		statistics.AverageRating = math.Round(ratings.Sum/float64(ratings.Reviews)*10) / 10
	}

	var renters []struct {
		RenterID uint
		Total    int64
	}
	if err := db.DB.Model(&models.Booking{}).Select("renter_id, COUNT(*) AS total").
		Where("owner_id = ? AND status IN ?", userID, []models.BookingStatus{models.BookingAccepted, models.BookingCompleted}).
		Group("renter_id").Scan(&renters).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load metrics")
	}
	var repeat int64
	for _, r := range renters {
		if r.Total > 1 {
			repeat++
		}
	}
	statistics.RepeatCustomerRate = rate(repeat, int64(len(renters)))

	var last models.Booking
	if err := db.DB.Where("owner_id = ?", userID).Order("created_at DESC").Limit(1).Find(&last).Error; err == nil && last.ID != 0 {
		statistics.LastBookingAt = &last.CreatedAt
	}

	return c.JSON(statistics)
}

type TopPet struct {
	PetID         uint    `json:"pet_id"`
	Name          string  `json:"name"`
	Earnings      float64 `json:"earnings"`
	Bookings      int64   `json:"bookings"`
	AverageRating float64 `json:"average_rating"`
	ViewCount     int     `json:"view_count"`
}

// GetTopPets ranks the caller's pets by completed-booking earnings.
func GetTopPets(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	limit := c.QueryInt("limit", defaultTopPets)
	if limit < 1 || limit > maxTopPets {
		limit = defaultTopPets
	}

	var rows []TopPet
	err := db.DB.Table("pets").
		Select("pets.id AS pet_id, pets.name, pets.average_rating, pets.view_count, "+
			"COALESCE(SUM(bookings.total_amount), 0) AS earnings, COUNT(bookings.id) AS bookings").
		Joins("LEFT JOIN bookings ON bookings.pet_id = pets.id AND bookings.status = ?", models.BookingCompleted).
		Where("pets.owner_id = ? AND pets.status <> ?", userID, models.PetDeleted).
		Group("pets.id, pets.name, pets.average_rating, pets.view_count").
		Order("earnings DESC").Order("bookings DESC").Order("pets.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to load top pets")
	}
	for i := range rows {
		rows[i].Earnings = models.RoundMoney(rows[i].Earnings)
	}
	return c.JSON(fiber.Map{"items": rows})
}

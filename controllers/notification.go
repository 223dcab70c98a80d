package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
)

func unreadCount(userID uint) (int64, error) {
	var n int64
	err := db.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}

// GetNotifications godoc
// @Summary List the caller's notifications, newest first
// @Description next_page is null on the last page.
// @Tags notifications
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Param unread_only query bool false "Only unread"
// @Router /api/notifications [get]
func GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)

	q := db.DB.Where("user_id = ?", userID)
	if utils.QueryBool(c, "unread_only") {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	// one extra row tells whether another page exists
	if err := q.Order("created_at DESC").Order("id DESC").
		Offset(p.Offset).Limit(p.Limit + 1).Find(&items).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch notifications")
	}
	var nextPage *int
	if len(items) > p.Limit {
		items = items[:p.Limit]
		n := p.Page + 1
		nextPage = &n
	}

	unread, err := unreadCount(userID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to count notifications")
	}
	return c.JSON(fiber.Map{
		"items":        items,
		"page":         p.Page,
		"limit":        p.Limit,
		"next_page":    nextPage,
		"unread_count": unread,
	})
}

func GetUnreadCount(c *fiber.Ctx) error {
	unread, err := unreadCount(c.Locals("userID").(uint))
	if err != nil {
		return utils.InternalError(c, err, "Failed to count notifications")
	}
	return c.JSON(fiber.Map{"unread_count": unread})
}

func MarkNotificationRead(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "notification id")
	}
	userID := c.Locals("userID").(uint)

	var n models.Notification
	if err := db.DB.Where("user_id = ?", userID).First(&n, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}
	if !n.IsRead {
		now := time.Now()
		if err := db.DB.Model(&n).Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
			return utils.InternalError(c, err, "Failed to update notification")
		}
	}
	return c.JSON(n)
}

func markRead(c *fiber.Ctx, ids []uint) error {
	userID := c.Locals("userID").(uint)
	q := db.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	res := q.Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return utils.InternalError(c, res.Error, "Failed to update notifications")
	}
	return c.JSON(fiber.Map{"marked_read": res.RowsAffected})
}

func MarkAllNotificationsRead(c *fiber.Ctx) error {
	return markRead(c, nil)
}

// MarkNotificationsRead marks a list of the caller's notifications read.
func MarkNotificationsRead(c *fiber.Ctx) error {
	var input struct {
		IDs []uint `json:"ids" validate:"required,min=1,max=500"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	return markRead(c, input.IDs)
}

func DeleteNotification(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "notification id")
	}
	res := db.DB.Where("id = ? AND user_id = ?", id, c.Locals("userID").(uint)).Delete(&models.Notification{})
	if res.Error != nil {
		return utils.InternalError(c, res.Error, "Failed to delete notification")
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}

func GetNotificationSettings(c *fiber.Ctx) error {
	settings, err := utils.NotificationSettingsFor(db.DB, c.Locals("userID").(uint))
	if err != nil {
		return utils.InternalError(c, err, "Failed to load settings")
	}
	return c.JSON(settings)
}

// UpdateNotificationSettings applies a partial update and stores the row on
// first write.
func UpdateNotificationSettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		EmailEnabled        *bool `json:"email_enabled"`
		InAppEnabled        *bool `json:"in_app_enabled"`
		BookingUpdates      *bool `json:"booking_updates"`
		Messages            *bool `json:"messages"`
		Reviews             *bool `json:"reviews"`
		Payments            *bool `json:"payments"`
		Offers              *bool `json:"offers"`
		SystemAnnouncements *bool `json:"system_announcements"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	settings, err := utils.NotificationSettingsFor(db.DB, userID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load settings")
	}
	for dst, src := range map[*bool]*bool{
		&settings.EmailEnabled:        input.EmailEnabled,
		&settings.InAppEnabled:        input.InAppEnabled,
		&settings.BookingUpdates:      input.BookingUpdates,
		&settings.Messages:            input.Messages,
		&settings.Reviews:             input.Reviews,
		&settings.Payments:            input.Payments,
		&settings.Offers:              input.Offers,
		&settings.SystemAnnouncements: input.SystemAnnouncements,
	} {
		if src != nil {
			*dst = *src
		}
	}
	if err := db.DB.Save(&settings).Error; err != nil {
		return utils.InternalError(c, err, "Failed to save settings")
	}
	return c.JSON(settings)
}

package controllers

import (
	"fmt"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/middleware"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

// reportedEntityExists checks the target of a report.
func reportedEntityExists(entityType string, id uint) (bool, error) {
	var model any
	switch entityType {
	case models.EntityUser:
		model = &models.User{}
	case models.EntityPet:
		model = &models.Pet{}
	case models.EntityReview:
		model = &models.Review{}
	case models.EntityMessage:
		model = &models.Message{}
	default:
		return false, nil
	}
	var count int64
	err := db.DB.Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateReport godoc
// @Summary Report a user, pet, review or message
// @Tags reports
// @Router /api/reports/{entity_type}/{entity_id} [post]
func CreateReport(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	entityType := c.Params("entity_type")
	if !slices.Contains(models.ReportableEntities, entityType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entity_type must be one of user, pet, review, message"})
	}
	entityID, err := utils.ParamID(c, "entity_id")
	if err != nil {
		return utils.BadID(c, "entity id")
	}
	var input struct {
		Reason       string   `json:"reason" validate:"required,min=3,max=200"`
		Details      string   `json:"details" validate:"max=2000"`
		EvidenceURLs []string `json:"evidence_urls" validate:"max=10,dive,url"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	exists, err := reportedEntityExists(entityType, entityID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to check reported entity")
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reported " + entityType + " not found"})
	}
	if entityType == models.EntityUser && entityID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot report yourself"})
	}

	report := models.Report{
		ReporterID:   userID,
		EntityType:   entityType,
		EntityID:     entityID,
		Reason:       input.Reason,
		Details:      input.Details,
		EvidenceURLs: models.CleanImageURLs(input.EvidenceURLs),
		Status:       models.ReportPending,
	}
	var duplicate bool
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Report{}).
			Where("reporter_id = ? AND entity_type = ? AND entity_id = ? AND status IN ?",
				userID, entityType, entityID, models.OpenReportStatuses).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			duplicate = true
			return nil
		}
		return tx.Create(&report).Error
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to create report")
	}
	if duplicate {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have an open report for this " + entityType})
	}
	logger.Log.WithFields(map[string]any{
		"report_id":   report.ID,
		"entity_type": entityType,
		"entity_id":   entityID,
	}).Info("report filed")
	return c.Status(fiber.StatusCreated).JSON(report)
}

func GetMyReports(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Report{}).Where("reporter_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count reports")
	}
	var reports []models.Report
	if err := q.Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&reports).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch reports")
	}
	return c.JSON(p.Envelope(reports, total))
}

func loadReport(c *fiber.Ctx) (*models.Report, bool, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, false, utils.BadID(c, "report id")
	}
	var report models.Report
	if err := db.DB.First(&report, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}
	return &report, true, nil
}

func GetReport(c *fiber.Ctx) error {
	report, ok, err := loadReport(c)
	if !ok {
		return err
	}
	if report.ReporterID != c.Locals("userID").(uint) && !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot view this report"})
	}
	return c.JSON(report)
}

// DeleteReport withdraws a report that has not been looked at yet.
func DeleteReport(c *fiber.Ctx) error {
	report, ok, err := loadReport(c)
	if !ok {
		return err
	}
	if report.ReporterID != c.Locals("userID").(uint) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only withdraw your own reports"})
	}
	res := db.DB.Where("id = ? AND status = ?", report.ID, models.ReportPending).Delete(&models.Report{})
	if res.Error != nil {
		return utils.InternalError(c, res.Error, "Failed to delete report")
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending reports can be withdrawn"})
	}
	return c.JSON(fiber.Map{"message": "Report withdrawn"})
}

// AdminListReports godoc
// @Summary List reports for moderation
// @Tags admin
// @Param status query string false "pending|reviewed|resolved"
// @Param entity_type query string false "user|pet|review|message"
// @Router /api/admin/reports [get]
func AdminListReports(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Report{})
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	if t := c.Query("entity_type"); t != "" {
		q = q.Where("entity_type = ?", t)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count reports")
	}
	var reports []models.Report
	if err := q.Order("created_at ASC").Offset(p.Offset).Limit(p.Limit).Find(&reports).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch reports")
	}
	return c.JSON(p.Envelope(reports, total))
}

// AdminUpdateReportStatus moves a report pending -> reviewed -> resolved.
// Resolving stamps resolved_at and tells the reporter.
func AdminUpdateReportStatus(c *fiber.Ctx) error {
	report, ok, err := loadReport(c)
	if !ok {
		return err
	}
	var input struct {
		Status     string `json:"status" validate:"required,oneof=pending reviewed resolved"`
		AdminNotes string `json:"admin_notes" validate:"max=2000"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	next := models.ReportStatus(input.Status)
	if !report.Status.CanTransitionTo(next) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("%s: from %s to %s", models.ErrInvalidTransition, report.Status, next),
		})
	}

	adminID := c.Locals("userID").(uint)
	now := time.Now()
	updates := map[string]any{"status": next, "reviewed_by": adminID, "updated_at": now}
	if input.AdminNotes != "" {
		updates["admin_notes"] = input.AdminNotes
	}
	if next == models.ReportResolved {
		updates["resolved_at"] = now
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).Where("id = ? AND status = ?", report.ID, report.Status).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return models.ErrInvalidTransition
		}
		if next == models.ReportResolved {
			utils.NotifyQuietly(tx, utils.NotificationInput{
				UserID:     report.ReporterID,
				Type:       models.NotifyReportUpdated,
				Title:      "Report resolved",
				Message:    fmt.Sprintf("Your report about a %s has been resolved", report.EntityType),
				EntityID:   report.ID,
				EntityType: "report",
			})
		}
		return tx.First(report, report.ID).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to update report")
	}
	return c.JSON(report)
}

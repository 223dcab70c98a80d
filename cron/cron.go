package cron

import (
	"time"

	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/metrics"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// job batches stay small so one run never holds locks for long
const batchSize = 100

type job struct {
	name string
	spec string
	run  func(now time.Time) (int, error)
}

var jobs = []job{
	{"complete_bookings", "*/5 * * * *", CompleteFinishedBookings},
	{"expire_offers", "*/10 * * * *", ExpireOffers},
	{"purge_auth", "0 * * * *", PurgeExpiredAuth},
	{"health_reminders", "*/15 * * * *", SendDueReminders},
}

// StartCronJobs initializes and starts the scheduler. The caller stops it on
// shutdown.
func StartCronJobs() *cron.Cron {
	c := cron.New()
	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, func() { runJob(j) }); err != nil {
			logger.Log.WithError(err).WithField("job", j.name).Fatal("Failed to add cron job")
		}
	}
	c.Start()
	logger.Log.WithField("jobs", len(jobs)).Info("Cron job scheduler started")
	return c
}

func runJob(j job) {
	start := time.Now()
	n, err := j.run(start.UTC())
	metrics.RecordCronRun(j.name, err)

	entry := logger.WithComponent("cron").WithFields(logrus.Fields{
		"job":       j.name,
		"processed": n,
		"duration":  time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("cron job failed")
		return
	}
	if n > 0 {
		entry.Info("cron job finished")
	}
}

// CompleteFinishedBookings completes accepted bookings whose last day is
// before today, through the same path an owner uses, so the wallet credit
// and notifications happen as well.
func CompleteFinishedBookings(now time.Time) (int, error) {
	today := models.DateOnly(now)
	var due []models.Booking
	if err := db.DB.Where("status = ? AND end_date < ?", models.BookingAccepted, today).
		Order("end_date").Limit(batchSize).Find(&due).Error; err != nil {
		return 0, err
	}

	completed := 0
	for i := range due {
		b := due[i]
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			if _, err := b.Complete(tx, b.OwnerID); err != nil {
				return err
			}
			utils.NotifyBookingChange(tx, &b, b.OwnerID)
			return nil
		})
		if err != nil {
			// another worker or the owner got there first
			logger.Log.WithError(err).WithField("booking_id", b.ID).Warn("auto-complete skipped")
			continue
		}
		metrics.RecordBooking(string(models.BookingCompleted))
		completed++
	}
	return completed, nil
}

// ExpireOffers closes pending offers past expires_at and posts a system
// message in their conversation.
func ExpireOffers(now time.Time) (int, error) {
	var due []models.Offer
	if err := db.DB.Where("status = ? AND expires_at < ?", models.OfferPending, now).
		Limit(batchSize).Find(&due).Error; err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		offer := due[i]
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			if err := offer.Transition(tx, models.OfferExpired, "", now); err != nil {
				return err
			}
			var conv models.Conversation
			if err := tx.First(&conv, offer.ConversationID).Error; err != nil {
				return err
			}
			offerID := offer.ID
			return models.AppendMessage(tx, &conv, &models.Message{
				SenderID:    offer.SenderID,
				Content:     "Offer expired",
				MessageType: models.MessageSystem,
				OfferID:     &offerID,
			})
		})
		if err != nil {
			logger.Log.WithError(err).WithField("offer_id", offer.ID).Warn("offer expiry skipped")
			continue
		}
		expired++
	}
	return expired, nil
}

// PurgeExpiredAuth deletes expired sessions and reset tokens that are used
// or expired.
func PurgeExpiredAuth(now time.Time) (int, error) {
	sessions := db.DB.Where("expires_at < ?", now).Delete(&models.Session{})
	if sessions.Error != nil {
		return 0, sessions.Error
	}
	tokens := db.DB.Where("used_at IS NOT NULL OR expires_at < ?", now).Delete(&models.PasswordResetToken{})
	if tokens.Error != nil {
		return int(sessions.RowsAffected), tokens.Error
	}
	return int(sessions.RowsAffected + tokens.RowsAffected), nil
}

// SendDueReminders delivers health reminders whose time has come. Each is
// marked sent even when the email fails, so owners are not spammed on retry.
func SendDueReminders(now time.Time) (int, error) {
	var due []models.Reminder
	if err := db.DB.Where("sent_at IS NULL AND remind_at <= ?", now).
		Order("remind_at").Limit(batchSize).Find(&due).Error; err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		r := due[i]
		var claimed bool
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Reminder{}).Where("id = ? AND sent_at IS NULL", r.ID).Update("sent_at", now)
			if res.Error != nil || res.RowsAffected != 1 {
				return res.Error
			}
			claimed = true
			data := map[string]any{"pet_id": r.PetID}
			if r.HealthRecordID != nil {
				data["health_record_id"] = *r.HealthRecordID
			}
			_, err := utils.Notify(tx, utils.NotificationInput{
				UserID:     r.UserID,
				Type:       models.NotifyHealthReminder,
				Title:      r.Title,
				Message:    r.Description,
				EntityID:   r.PetID,
				EntityType: "pet",
				Data:       data,
			})
			return err
		})
		if err != nil {
			logger.Log.WithError(err).WithField("reminder_id", r.ID).Warn("reminder skipped")
			continue
		}
		if !claimed {
			continue
		}
		emailReminder(&r)
		sent++
	}
	return sent, nil
}

func emailReminder(r *models.Reminder) {
	var user models.User
	if err := db.DB.First(&user, r.UserID).Error; err != nil {
		return
	}
	settings, err := utils.NotificationSettingsFor(db.DB, user.ID)
	if err != nil || !settings.EmailEnabled {
		return
	}
	subject, body := utils.ReminderEmail(user.FullName, r.Title, r.Description)
	if err := utils.SendEmail(user.Email, subject, body); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"reminder_id": r.ID, "user_id": user.ID}).Warn("failed to email reminder")
	}
}

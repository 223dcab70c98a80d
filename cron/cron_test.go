package cron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/cron"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCompleteFinishedBookings(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	renter := env.CreateUser(t, "renter@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)

	finished := models.Booking{
		PetID: pet.ID, RenterID: renter.ID, OwnerID: owner.ID,
		StartDate: date("2024-01-01"), EndDate: date("2024-01-04"),
		TotalDays: 3, DailyRate: 25, TotalAmount: 75,
		Status: models.BookingAccepted, PaymentStatus: models.PaymentPending,
	}
	upcoming := finished
	upcoming.StartDate, upcoming.EndDate = date("2099-01-01"), date("2099-01-04")
	require.NoError(t, env.DB.Create(&finished).Error)
	require.NoError(t, env.DB.Create(&upcoming).Error)

	n, err := cron.CompleteFinishedBookings(time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, env.DB.First(&finished, finished.ID).Error)
	assert.Equal(t, models.BookingCompleted, finished.Status)
	assert.NotNil(t, finished.CompletedAt)
	require.NoError(t, env.DB.First(&upcoming, upcoming.ID).Error)
	assert.Equal(t, models.BookingAccepted, upcoming.Status)

	var reloaded models.User
	require.NoError(t, env.DB.First(&reloaded, owner.ID).Error)
	assert.Equal(t, 71.25, reloaded.WalletBalance)

	n, err = cron.CompleteFinishedBookings(time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpireOffers(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	renter := env.CreateUser(t, "renter@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)
	conv, _, err := models.FindOrCreateConversation(env.DB, owner.ID, renter.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	stale := models.Offer{
		ConversationID: conv.ID, SenderID: renter.ID, RecipientID: owner.ID, PetID: pet.ID,
		Price: 40, Status: models.OfferPending, ExpiresAt: now.Add(-time.Hour),
	}
	fresh := stale
	fresh.ExpiresAt = now.Add(time.Hour)
	require.NoError(t, env.DB.Create(&stale).Error)
	require.NoError(t, env.DB.Create(&fresh).Error)

	n, err := cron.ExpireOffers(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, env.DB.First(&stale, stale.ID).Error)
	assert.Equal(t, models.OfferExpired, stale.Status)
	require.NoError(t, env.DB.First(&fresh, fresh.ID).Error)
	assert.Equal(t, models.OfferPending, fresh.Status)

	var msgs []models.Message
	require.NoError(t, env.DB.Where("conversation_id = ?", conv.ID).Find(&msgs).Error)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageSystem, msgs[0].MessageType)
	assert.Equal(t, "Offer expired", msgs[0].Content)
}

func TestPurgeExpiredAuth(t *testing.T) {
	env := testutil.Setup(t)
	u := env.CreateUser(t, "user@example.com", models.RoleUser)

	_, err := models.CreateSession(env.DB, u.ID, "127.0.0.1", "test", -time.Minute)
	require.NoError(t, err)
	live, err := models.CreateSession(env.DB, u.ID, "127.0.0.1", "test", time.Hour)
	require.NoError(t, err)

	now := time.Now().UTC()
	used := now.Add(-time.Minute)
	require.NoError(t, env.DB.Create(&models.PasswordResetToken{
		UserID: u.ID, TokenHash: models.HashToken("used"), ExpiresAt: now.Add(time.Hour), UsedAt: &used,
	}).Error)
	require.NoError(t, env.DB.Create(&models.PasswordResetToken{
		UserID: u.ID, TokenHash: models.HashToken("open"), ExpiresAt: now.Add(time.Hour),
	}).Error)

	n, err := cron.PurgeExpiredAuth(now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var sessions []models.Session
	require.NoError(t, env.DB.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, live.ID, sessions[0].ID)

	var tokens int64
	env.DB.Model(&models.PasswordResetToken{}).Count(&tokens)
	assert.EqualValues(t, 1, tokens)
}

func TestSendDueReminders(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)

	now := time.Now().UTC()
	due := models.Reminder{
		UserID: owner.ID, PetID: pet.ID, Title: "Rabies booster",
		Description: "Rex is due at the vet", RemindAt: now.Add(-time.Minute),
	}
	later := due
	later.RemindAt = now.Add(24 * time.Hour)
	require.NoError(t, env.DB.Create(&due).Error)
	require.NoError(t, env.DB.Create(&later).Error)
	before := env.Mail.Count()

	n, err := cron.SendDueReminders(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, env.DB.First(&due, due.ID).Error)
	assert.NotNil(t, due.SentAt)
	require.NoError(t, env.DB.First(&later, later.ID).Error)
	assert.Nil(t, later.SentAt)

	var notif models.Notification
	require.NoError(t, env.DB.Where("user_id = ? AND type = ?", owner.ID, models.NotifyHealthReminder).First(&notif).Error)
	assert.Equal(t, "Rabies booster", notif.Title)

	assert.Equal(t, before+1, env.Mail.Count())
	assert.Equal(t, owner.Email, env.Mail.Last().To)

	n, err = cron.SendDueReminders(now)
	require.NoError(t, err)
	assert.Zero(t, n, "sent reminders are not delivered twice")
	assert.Equal(t, before+1, env.Mail.Count())
}

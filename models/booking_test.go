package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBookingTransitionTable(t *testing.T) {
	allowed := map[models.BookingStatus][]models.BookingStatus{
		models.BookingPending:  {models.BookingAccepted, models.BookingRejected, models.BookingCancelled},
		models.BookingAccepted: {models.BookingCompleted, models.BookingCancelled},
	}
	all := []models.BookingStatus{
		models.BookingPending, models.BookingAccepted, models.BookingRejected,
		models.BookingCancelled, models.BookingCompleted,
	}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingPrice(t *testing.T) {
	b := &models.Booking{StartDate: day("2024-06-01"), EndDate: day("2024-06-05")}
	require.NoError(t, b.Price(20, 0, 10))
	assert.Equal(t, 5, b.TotalDays)
	assert.Equal(t, 100.0, b.TotalAmount)
	assert.Equal(t, 10.0, b.ServiceFee)
	assert.Equal(t, 110.0, b.GrandTotal)

	free := &models.Booking{StartDate: day("2024-06-01"), EndDate: day("2024-06-02")}
	require.NoError(t, free.Price(0, 75.5, 10))
	assert.Equal(t, 75.5, free.TotalAmount)

	assert.ErrorIs(t, free.Price(0, 0, 10), models.ErrInvalidAmount)
}

func TestCheckPetAvailability(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	renter := env.CreateUser(t, "renter@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)

	existing := &models.Booking{PetID: pet.ID, RenterID: renter.ID, OwnerID: owner.ID,
		StartDate: day("2024-06-01"), EndDate: day("2024-06-05")}
	require.NoError(t, env.DB.Create(existing).Error)
	require.NoError(t, env.DB.Create(&models.BlockedDate{PetID: pet.ID,
		StartDate: day("2024-07-01"), EndDate: day("2024-07-03"), Reason: models.BlockMaintenance}).Error)

	active := models.ActiveBookingStatuses
	cases := []struct {
		start, end string
		conflict   bool
	}{
		{"2024-06-03", "2024-06-07", true},
		{"2024-05-28", "2024-06-01", true},
		{"2024-06-05", "2024-06-06", true},
		{"2024-06-06", "2024-06-10", false},
		{"2024-05-20", "2024-05-31", false},
		{"2024-06-30", "2024-07-01", true},
	}
	for _, tc := range cases {
		err := models.CheckPetAvailability(env.DB, pet.ID, day(tc.start), day(tc.end), active, 0)
		if tc.conflict {
			assert.ErrorIs(t, err, models.ErrBookingConflict, "%s..%s", tc.start, tc.end)
		} else {
			assert.NoError(t, err, "%s..%s", tc.start, tc.end)
		}
	}

	require.NoError(t, existing.UpdateStatus(env.DB, models.BookingCancelled, renter.ID, ""))
	assert.NoError(t, models.CheckPetAvailability(env.DB, pet.ID, day("2024-06-03"), day("2024-06-07"), active, 0),
		"cancelled bookings release their dates")
}

func TestBookingUpdateStatusRejectsStaleState(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	renter := env.CreateUser(t, "renter@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)

	b := &models.Booking{PetID: pet.ID, RenterID: renter.ID, OwnerID: owner.ID,
		StartDate: day("2024-06-01"), EndDate: day("2024-06-05")}
	require.NoError(t, env.DB.Create(b).Error)

	var stale models.Booking
	require.NoError(t, env.DB.First(&stale, b.ID).Error)

	require.NoError(t, b.UpdateStatus(env.DB, models.BookingAccepted, owner.ID, ""))
	assert.NotNil(t, b.AcceptedAt)

	err := stale.UpdateStatus(env.DB, models.BookingRejected, owner.ID, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	err = b.UpdateStatus(env.DB, models.BookingPending, owner.ID, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestBookingCompleteCreditsOwner(t *testing.T) {
	env := testutil.Setup(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	renter := env.CreateUser(t, "renter@example.com", models.RoleUser)
	pet := env.CreatePet(t, owner.ID, nil)

	b := &models.Booking{PetID: pet.ID, RenterID: renter.ID, OwnerID: owner.ID,
		StartDate: day("2024-06-01"), EndDate: day("2024-06-04"), Status: models.BookingAccepted}
	require.NoError(t, b.Price(pet.DailyRate, 0, 10))
	require.NoError(t, env.DB.Create(b).Error)

	tx, err := b.Complete(env.DB, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, models.TxEarning, tx.Type)
	assert.Equal(t, 95.0, tx.Amount, "100 minus the 5% platform fee")
	assert.Equal(t, 5.0, tx.PlatformFee)
	assert.Equal(t, models.BookingCompleted, b.Status)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)

	var reloaded models.User
	require.NoError(t, env.DB.First(&reloaded, owner.ID).Error)
	assert.Equal(t, 95.0, reloaded.WalletBalance)

	_, err = b.Complete(env.DB, owner.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestDaysInclusiveAndOverlap(t *testing.T) {
	assert.Equal(t, 1, models.DaysInclusive(day("2024-06-01"), day("2024-06-01")))
	assert.Equal(t, 5, models.DaysInclusive(day("2024-06-01"), day("2024-06-05")))
	assert.True(t, models.RangesOverlap(day("2024-06-01"), day("2024-06-05"), day("2024-06-05"), day("2024-06-09")))
	assert.False(t, models.RangesOverlap(day("2024-06-01"), day("2024-06-04"), day("2024-06-05"), day("2024-06-09")))
}

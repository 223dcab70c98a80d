package routes_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

type bookingWorld struct {
	owner, renter, other          *models.User
	ownerTok, renterTok, otherTok string
	pet                           *models.Pet
}

func newBookingWorld(t *testing.T, env *testutil.Env) *bookingWorld {
	t.Helper()
	w := &bookingWorld{}
	w.owner = env.CreateUser(t, "owner@example.com", models.RoleUser)
	w.renter = env.CreateUser(t, "renter@example.com", models.RoleUser)
	w.other = env.CreateUser(t, "other@example.com", models.RoleUser)
	w.ownerTok, w.renterTok, w.otherTok = env.Token(t, w.owner), env.Token(t, w.renter), env.Token(t, w.other)
	w.pet = env.CreatePet(t, w.owner.ID, nil)
	return w
}

func book(t *testing.T, app *fiber.App, token string, petID uint, start, end string) (int, map[string]any) {
	t.Helper()
	return testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, "/api/bookings", map[string]any{
		"pet_id": petID, "start_date": start, "end_date": end,
	}, token))
}

func setStatus(t *testing.T, app *fiber.App, token string, id int, status string) (int, map[string]any) {
	t.Helper()
	return testutil.Do(t, app, testutil.JSONRequest(http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", id),
		map[string]any{"status": status}, token))
}

func TestCreateBookingPricesAndNotifiesOwner(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	status, body := book(t, app, w.renterTok, w.pet.ID, "2030-03-01", "2030-03-03")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, 3, num(body, "total_days"))
	assert.Equal(t, 75.0, body["total_amount"])
	assert.Equal(t, 7.5, body["service_fee"])
	assert.Equal(t, 82.5, body["grand_total"])

	var n models.Notification
	require.NoError(t, env.DB.Where("user_id = ?", w.owner.ID).First(&n).Error)
	assert.Equal(t, models.NotifyBookingRequest, n.Type)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	status, _ := book(t, app, w.renterTok, w.pet.ID, "2030-03-01", "2030-03-05")
	require.Equal(t, http.StatusCreated, status)

	cases := []struct {
		start, end string
		want       int
	}{
		{"2030-03-05", "2030-03-08", http.StatusConflict}, // shares the last day
		{"2030-02-25", "2030-03-01", http.StatusConflict}, // shares the first day
		{"2030-03-02", "2030-03-03", http.StatusConflict}, // inside
		{"2030-03-06", "2030-03-08", http.StatusCreated},
	}
	for _, tc := range cases {
		status, body := book(t, app, w.otherTok, w.pet.ID, tc.start, tc.end)
		assert.Equal(t, tc.want, status, "%s..%s: %v", tc.start, tc.end, body)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	sale := env.CreatePet(t, w.owner.ID, func(p *models.Pet) { p.ListingType = models.ListingSale })

	status, _ := book(t, app, w.renterTok, w.pet.ID, "2030-03-05", "2030-03-01")
	assert.Equal(t, http.StatusBadRequest, status, "end before start")
	status, _ = book(t, app, w.renterTok, w.pet.ID, "2030-03-05", "2030-03-05")
	assert.Equal(t, http.StatusBadRequest, status, "same day")
	status, _ = book(t, app, w.ownerTok, w.pet.ID, "2030-03-01", "2030-03-02")
	assert.Equal(t, http.StatusBadRequest, status, "own pet")
	status, _ = book(t, app, w.renterTok, sale.ID, "2030-03-01", "2030-03-02")
	assert.Equal(t, http.StatusBadRequest, status, "not for rent")
	status, _ = book(t, app, w.renterTok, 9999, "2030-03-01", "2030-03-02")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = book(t, app, w.renterTok, w.pet.ID, "03/01/2030", "2030-03-02")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBlockedDatesPreventBooking(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	status, body := testutil.Do(t, app, testutil.JSONRequest(http.MethodPost,
		fmt.Sprintf("/api/calendar/pets/%d/blocked-dates", w.pet.ID),
		map[string]any{"start_date": "2030-04-10", "end_date": "2030-04-12", "reason": "maintenance"}, w.ownerTok))
	require.Equal(t, http.StatusCreated, status, body)

	status, _ = book(t, app, w.renterTok, w.pet.ID, "2030-04-12", "2030-04-14")
	assert.Equal(t, http.StatusConflict, status)
}

func TestBookingTransitions(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	_, body := book(t, app, w.renterTok, w.pet.ID, "2030-05-01", "2030-05-03")
	id := num(body, "id")

	// the renter cannot accept their own request
	status, _ := setStatus(t, app, w.renterTok, id, "accepted")
	assert.Equal(t, http.StatusForbidden, status)
	// strangers cannot touch it
	status, _ = setStatus(t, app, w.otherTok, id, "cancelled")
	assert.Equal(t, http.StatusForbidden, status)
	// pending cannot jump to completed
	status, _ = setStatus(t, app, w.ownerTok, id, "completed")
	assert.Equal(t, http.StatusConflict, status)

	status, body = setStatus(t, app, w.ownerTok, id, "accepted")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, 1, env.Mail.Count(), "renter is emailed on accept")

	status, _ = setStatus(t, app, w.ownerTok, id, "rejected")
	assert.Equal(t, http.StatusConflict, status)

	status, body = setStatus(t, app, w.ownerTok, id, "completed")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "paid", body["payment_status"])

	// 75 rent minus the 5% platform fee
	var owner models.User
	require.NoError(t, env.DB.First(&owner, w.owner.ID).Error)
	assert.Equal(t, 71.25, owner.WalletBalance)
	ledger, err := models.LedgerBalance(env.DB, w.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.WalletBalance, ledger)

	// completed is terminal
	for _, next := range []string{"accepted", "cancelled", "rejected", "completed"} {
		status, _ = setStatus(t, app, w.ownerTok, id, next)
		assert.Equal(t, http.StatusConflict, status, next)
	}
}

func TestAcceptRechecksAcceptedOverlap(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	// two pending requests for overlapping dates can only exist if inserted directly
	first := &models.Booking{PetID: w.pet.ID, RenterID: w.renter.ID, OwnerID: w.owner.ID,
		StartDate: models.DateOnly(mustDate("2030-06-01")), EndDate: models.DateOnly(mustDate("2030-06-05")), TotalAmount: 100}
	second := &models.Booking{PetID: w.pet.ID, RenterID: w.other.ID, OwnerID: w.owner.ID,
		StartDate: models.DateOnly(mustDate("2030-06-04")), EndDate: models.DateOnly(mustDate("2030-06-08")), TotalAmount: 100}
	require.NoError(t, env.DB.Create(first).Error)
	require.NoError(t, env.DB.Create(second).Error)

	status, _ := setStatus(t, app, w.ownerTok, int(first.ID), "accepted")
	require.Equal(t, http.StatusOK, status)
	status, _ = setStatus(t, app, w.ownerTok, int(second.ID), "accepted")
	assert.Equal(t, http.StatusConflict, status)
}

func TestBookingVisibility(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	_, body := book(t, app, w.renterTok, w.pet.ID, "2030-07-01", "2030-07-02")
	id := num(body, "id")

	status, _ := testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, fmt.Sprintf("/api/bookings/%d", id), nil, w.otherTok))
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, fmt.Sprintf("/api/bookings/%d", id), nil, w.ownerTok))
	assert.Equal(t, http.StatusOK, status)

	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/bookings?as_owner=true", nil, w.ownerTok))
	assert.Equal(t, 1, num(body, "total"))
	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/bookings", nil, w.ownerTok))
	assert.Equal(t, 0, num(body, "total"))
	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/bookings?status=pending", nil, w.renterTok))
	assert.Equal(t, 1, num(body, "total"))
}

// Overlapping requests racing for the same pet must leave exactly one
// booking. The in-memory sqlite database serializes the transactions; on
// postgres the pet row lock does (see models.LockPet).
func TestConcurrentOverlappingBookings(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)

	const attempts = 8
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		token := w.renterTok
		if i%2 == 1 {
			token = w.otherTok
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := testutil.JSONRequest(http.MethodPost, "/api/bookings", map[string]any{
				"pet_id": w.pet.ID, "start_date": "2030-06-01", "end_date": "2030-06-05",
			}, token)
			resp, err := app.Test(req, -1)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: attempts - 1}, counts)

	var n int64
	env.DB.Model(&models.Booking{}).Where("pet_id = ?", w.pet.ID).Count(&n)
	assert.EqualValues(t, 1, n)

	status, _ := book(t, app, w.renterTok, w.pet.ID, "2030-06-03", "2030-06-07")
	assert.Equal(t, http.StatusConflict, status)
}

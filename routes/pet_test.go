package routes_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func coords(lat, lng float64) func(*models.Pet) {
	return func(p *models.Pet) {
		p.Latitude, p.Longitude = &lat, &lng
	}
}

func names(t *testing.T, body map[string]any) []string {
	t.Helper()
	var out []string
	for _, it := range testutil.Items(t, body, "items") {
		out = append(out, it.(map[string]any)["name"].(string))
	}
	return out
}

func TestCreateAndUpdatePet(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	other := env.CreateUser(t, "other@example.com", models.RoleUser)
	tok, otherTok := env.Token(t, owner), env.Token(t, other)

	status, body := doJSON(t, app, http.MethodPost, "/api/pets", map[string]any{"species": "cat"}, tok)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "required", body["fields"].(map[string]any)["name"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/pets", map[string]any{
		"name": "Tom", "species": "cat", "min_rental_days": 5, "max_rental_days": 2,
	}, tok)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/pets", map[string]any{
		"name": "Tom", "species": "cat", "latitude": 30.1,
	}, tok)
	assert.Equal(t, http.StatusBadRequest, status, "latitude without longitude")

	status, body = doJSON(t, app, http.MethodPost, "/api/pets", map[string]any{
		"name": " Tom ", "species": "cat", "daily_rate": 12.5, "available_from": "2030-01-01",
	}, tok)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Tom", body["name"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "rent", body["listing_type"])
	assert.Empty(t, body["photos"])
	path := fmt.Sprintf("/api/pets/%d", num(body, "id"))

	status, _ = doJSON(t, app, http.MethodPut, path, map[string]any{"daily_rate": 99}, otherTok)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodPut, path, map[string]any{"daily_rate": 15, "breed": "Siamese"}, tok)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 15.0, body["daily_rate"])
	assert.Equal(t, "Siamese", body["breed"])
	assert.Equal(t, "Tom", body["name"])

	status, body = doJSON(t, app, http.MethodPut, path+"/status", map[string]any{"status": "inactive"}, tok)
	require.Equal(t, http.StatusOK, status, body)
	status, _ = doJSON(t, app, http.MethodPut, path+"/status", map[string]any{"status": "deleted"}, tok)
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = doJSON(t, app, http.MethodGet, "/api/pets", nil, "")
	assert.Equal(t, 0, num(body, "total"), "inactive pets are not listed")
	_, body = doJSON(t, app, http.MethodGet, "/api/pets/my-listings", nil, tok)
	assert.Equal(t, 1, num(body, "total"))
}

func TestListPetsFiltersAndSorts(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name, p.DailyRate = "Rex", 30 })
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name, p.DailyRate, p.Breed = "Bolt", 20, "Shepherd" })
	env.CreatePet(t, owner.ID, func(p *models.Pet) {
		p.Name, p.Species, p.ListingType, p.Price = "Tom", "cat", models.ListingSale, 200
	})
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name, p.Status = "Hidden", models.PetInactive })

	_, body := doJSON(t, app, http.MethodGet, "/api/pets?species=DOG&sort=price_asc", nil, "")
	assert.Equal(t, []string{"Bolt", "Rex"}, names(t, body))

	_, body = doJSON(t, app, http.MethodGet, "/api/pets?max_price=25", nil, "")
	assert.Equal(t, []string{"Bolt"}, names(t, body))

	_, body = doJSON(t, app, http.MethodGet, "/api/pets?listing_type=sale", nil, "")
	assert.Equal(t, []string{"Tom"}, names(t, body))

	_, body = doJSON(t, app, http.MethodGet, "/api/pets/search?q=shep", nil, "")
	assert.Equal(t, []string{"Bolt"}, names(t, body))

	_, body = doJSON(t, app, http.MethodGet, "/api/pets?limit=2&page=2&sort=price_desc", nil, "")
	assert.Equal(t, 3, num(body, "total"))
	assert.Equal(t, 2, num(body, "pages"))
	assert.Equal(t, []string{"Bolt"}, names(t, body))
}

func TestNearbyPetsOrdersByDistance(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "Downtown"; coords(30.2672, -97.7431)(p) })
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "RoundRock"; coords(30.5083, -97.6789)(p) })
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "Dallas"; coords(32.7767, -96.7970)(p) })
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "Nowhere" })

	status, body := doJSON(t, app, http.MethodGet, "/api/pets/nearby?latitude=30.27&longitude=-97.74", nil, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []string{"Downtown"}, names(t, body))
	assert.EqualValues(t, 10, body["radius_km"])

	_, body = doJSON(t, app, http.MethodGet, "/api/pets/nearby?latitude=30.27&longitude=-97.74&radius_km=50", nil, "")
	assert.Equal(t, []string{"Downtown", "RoundRock"}, names(t, body))
	items := testutil.Items(t, body, "items")
	d := items[1].(map[string]any)["distance_km"].(float64)
	assert.InDelta(t, 27.5, d, 2)

	_, body = doJSON(t, app, http.MethodGet, "/api/pets/search?latitude=30.27&longitude=-97.74&radius_km=50&q=round", nil, "")
	assert.Equal(t, []string{"RoundRock"}, names(t, body))

	for _, q := range []string{"", "?latitude=95&longitude=0", "?latitude=30&longitude=-97&radius_km=500", "?latitude=30"} {
		status, _ := doJSON(t, app, http.MethodGet, "/api/pets/nearby"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, status, q)
	}
}

func TestNearbyPetsAcrossAntimeridian(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "West"; coords(-16.5, 179.95)(p) })
	env.CreatePet(t, owner.ID, func(p *models.Pet) { p.Name = "East"; coords(-16.5, -179.95)(p) })

	status, body := doJSON(t, app, http.MethodGet, "/api/pets/nearby?latitude=-16.5&longitude=179.98&radius_km=20", nil, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []string{"West", "East"}, names(t, body))

	_, body = doJSON(t, app, http.MethodGet, "/api/pets/nearby?latitude=-16.5&longitude=-179.98&radius_km=20", nil, "")
	assert.Equal(t, []string{"East", "West"}, names(t, body))
}

func TestGetPetCountsViewsAndFavorites(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	fan := env.CreateUser(t, "fan@example.com", models.RoleUser)
	ownerTok, fanTok := env.Token(t, owner), env.Token(t, fan)
	pet := env.CreatePet(t, owner.ID, nil)
	path := fmt.Sprintf("/api/pets/%d", pet.ID)

	doJSON(t, app, http.MethodGet, path, nil, "")
	doJSON(t, app, http.MethodGet, path, nil, ownerTok)
	_, body := doJSON(t, app, http.MethodGet, path, nil, fanTok)
	assert.Equal(t, 2, num(body, "view_count"), "owner views are not counted")
	assert.Equal(t, false, body["is_favorited"])
	assert.NotNil(t, body["owner_profile"])

	for range 2 {
		status, body := doJSON(t, app, http.MethodPost, path+"/favorite", nil, fanTok)
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, 1, num(body, "favorite_count"))
	}
	_, body = doJSON(t, app, http.MethodGet, path, nil, fanTok)
	assert.Equal(t, true, body["is_favorited"])

	_, body = doJSON(t, app, http.MethodGet, "/api/pets/favorites", nil, fanTok)
	assert.Equal(t, []string{"Rex"}, names(t, body))

	for range 2 {
		_, body = doJSON(t, app, http.MethodDelete, path+"/favorite", nil, fanTok)
		assert.Equal(t, 0, num(body, "favorite_count"))
	}

	status, _ := doJSON(t, app, http.MethodPost, "/api/pets/999/favorite", nil, fanTok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPetPhotos(t *testing.T) {
	env, app := newApp(t)
	owner := env.CreateUser(t, "owner@example.com", models.RoleUser)
	tok := env.Token(t, owner)
	pet := env.CreatePet(t, owner.ID, nil)
	path := fmt.Sprintf("/api/pets/%d/photos", pet.ID)

	status, _ := testutil.Do(t, app, testutil.MultipartRequest(http.MethodPost, path, nil,
		map[string]map[string]string{"photos": {"notes.txt": "text"}}, tok))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := testutil.Do(t, app, testutil.MultipartRequest(http.MethodPost, path, nil,
		map[string]map[string]string{"photos": {"a.jpg": "a"}}, tok))
	require.Equal(t, http.StatusCreated, status, body)
	status, body = testutil.Do(t, app, testutil.MultipartRequest(http.MethodPost, path, nil,
		map[string]map[string]string{"photos": {"b.png": "b"}}, tok))
	require.Equal(t, http.StatusCreated, status, body)
	photos := testutil.Items(t, body, "photos")
	require.Len(t, photos, 2)
	first, second := photos[0].(map[string]any), photos[1].(map[string]any)
	assert.Equal(t, true, first["is_primary"])
	assert.Equal(t, false, second["is_primary"])

	status, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("%s/%d/primary", path, num(second, "id")), nil, tok)
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("%s/%d", path, num(second, "id")), nil, tok)
	require.Equal(t, http.StatusOK, status)

	var left models.PetPhoto
	require.NoError(t, env.DB.Where("pet_id = ?", pet.ID).First(&left).Error)
	assert.True(t, left.IsPrimary, "remaining photo becomes primary")
}

func TestDeletePetBlockedByOpenBooking(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	status, _ := book(t, app, w.renterTok, w.pet.ID, "2030-03-01", "2030-03-02")
	require.Equal(t, http.StatusCreated, status)
	path := fmt.Sprintf("/api/pets/%d", w.pet.ID)

	status, _ = doJSON(t, app, http.MethodDelete, path, nil, w.ownerTok)
	assert.Equal(t, http.StatusConflict, status)

	require.NoError(t, env.DB.Model(&models.Booking{}).Where("pet_id = ?", w.pet.ID).
		Update("status", models.BookingCancelled).Error)
	status, _ = doJSON(t, app, http.MethodDelete, path, nil, w.ownerTok)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPetAnalyticsForOwner(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	_, body := book(t, app, w.renterTok, w.pet.ID, "2030-03-01", "2030-03-03")
	id := num(body, "id")
	setStatus(t, app, w.ownerTok, id, "accepted")
	setStatus(t, app, w.ownerTok, id, "completed")

	path := fmt.Sprintf("/api/pets/%d/analytics", w.pet.ID)
	status, _ := doJSON(t, app, http.MethodGet, path, nil, w.renterTok)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodGet, path, nil, w.ownerTok)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 1, num(body, "total_bookings"))
	assert.Equal(t, 71.25, body["earnings"])
}

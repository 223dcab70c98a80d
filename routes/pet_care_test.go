package routes_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func TestHealthRecordLifecycle(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	path := fmt.Sprintf("/api/health-records/pets/%d", w.pet.ID)

	status, body := testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, map[string]any{
		"record_type":   "vaccination",
		"title":         "Rabies booster",
		"date":          "2030-01-15",
		"reminder_date": "2031-01-15",
		"metadata":      map[string]any{"batch": "RB-42"},
	}, w.ownerTok))
	require.Equal(t, http.StatusCreated, status, body)
	id := num(body, "id")

	var reminders []models.Reminder
	require.NoError(t, env.DB.Find(&reminders).Error)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Reminder: Rabies booster", reminders[0].Title)
	assert.Equal(t, w.owner.ID, reminders[0].UserID)

	// moving the reminder replaces the unsent row
	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPut, fmt.Sprintf("/api/health-records/%d", id),
		map[string]any{"reminder_date": "2031-02-01"}, w.ownerTok))
	require.Equal(t, http.StatusOK, status)
	reminders = nil
	require.NoError(t, env.DB.Find(&reminders).Error)
	require.Len(t, reminders, 1)
	assert.Equal(t, time.February, reminders[0].RemindAt.Month())

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, map[string]any{
		"record_type": "astrology", "title": "x", "date": "2030-01-01",
	}, w.ownerTok))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, map[string]any{
		"record_type": "weight", "title": "Weigh-in", "date": "2030-02-01",
	}, w.renterTok))
	assert.Equal(t, http.StatusForbidden, status)

	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path+"?record_type=vaccination", nil, w.ownerTok))
	assert.Equal(t, 1, num(body, "total"))

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodDelete, fmt.Sprintf("/api/health-records/%d", id), nil, w.ownerTok))
	require.Equal(t, http.StatusOK, status)
	var left int64
	env.DB.Model(&models.Reminder{}).Count(&left)
	assert.Zero(t, left)
}

func TestHealthRecordsVisibleToActiveRenter(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	path := fmt.Sprintf("/api/health-records/pets/%d", w.pet.ID)
	testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, map[string]any{
		"record_type": "allergy", "title": "Chicken", "date": "2030-01-01",
	}, w.ownerTok))

	status, _ := testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path, nil, w.renterTok))
	assert.Equal(t, http.StatusForbidden, status)

	_, body := book(t, app, w.renterTok, w.pet.ID, "2030-02-01", "2030-02-02")
	status, _ = setStatus(t, app, w.ownerTok, num(body, "id"), "accepted")
	require.Equal(t, http.StatusOK, status)

	status, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path, nil, w.renterTok))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, num(body, "total"))

	// viewing is not editing
	id := int(testutil.Items(t, body, "items")[0].(map[string]any)["id"].(float64))
	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPut, fmt.Sprintf("/api/health-records/%d", id),
		map[string]any{"title": "Beef"}, w.renterTok))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHealthAttachmentsAndRecentActivity(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	_, body := testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, fmt.Sprintf("/api/health-records/pets/%d", w.pet.ID),
		map[string]any{"record_type": "test_result", "title": "Bloodwork", "date": "2030-03-01"}, w.ownerTok))
	id := num(body, "id")

	req := testutil.MultipartRequest(http.MethodPost, fmt.Sprintf("/api/health-records/%d/attachments", id), nil,
		map[string]map[string]string{"files": {"scan.png": "png-bytes"}}, w.ownerTok)
	status, body := testutil.Do(t, app, req)
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["attachments"], 1)
	assert.Len(t, env.Storage.Uploads, 1)

	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/health-records/recent-activity", nil, w.ownerTok))
	assert.Len(t, body["items"], 1)
	_, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/health-records/recent-activity", nil, w.renterTok))
	assert.Empty(t, body["items"])
}

func TestCareInstructions(t *testing.T) {
	env, app := newApp(t)
	w := newBookingWorld(t, env)
	path := fmt.Sprintf("/api/care-instructions/pets/%d", w.pet.ID)

	input := map[string]any{
		"food_instructions": "Two cups twice a day",
		"additional_instructions": []map[string]any{
			{"title": "Walk", "description": "Evening walk", "priority": 2, "order": 2},
			{"title": "Meds", "description": "Half a pill", "priority": 5, "order": 1},
			{"title": "Brush", "description": "Weekly", "priority": 4, "order": 2},
		},
	}
	status, body := testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, input, w.ownerTok))
	require.Equal(t, http.StatusCreated, status, body)

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, path, input, w.ownerTok))
	assert.Equal(t, http.StatusConflict, status, "one sheet per pet")

	status, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path, nil, w.ownerTok))
	require.Equal(t, http.StatusOK, status)
	items := testutil.Items(t, body, "additional_instructions")
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.(map[string]any)["title"].(string)
	}
	assert.Equal(t, []string{"Meds", "Brush", "Walk"}, titles)

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodPut, path,
		map[string]any{"additional_instructions": []map[string]any{{"title": "", "description": "x"}}}, w.ownerTok))
	assert.Equal(t, http.StatusBadRequest, status, "item title is required")

	status, body = testutil.Do(t, app, testutil.JSONRequest(http.MethodPut, path,
		map[string]any{"behavior_notes": "Shy with cats"}, w.ownerTok))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Shy with cats", body["behavior_notes"])
	assert.Equal(t, "Two cups twice a day", body["food_instructions"])

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path, nil, w.otherTok))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodDelete, path, nil, w.ownerTok))
	require.Equal(t, http.StatusOK, status)
	status, _ = testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, path, nil, w.ownerTok))
	assert.Equal(t, http.StatusNotFound, status)
}

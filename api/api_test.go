package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coordii/coordii-backend/config"
	"github.com/coordii/coordii-backend/jobs"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
)

type noopDispatcher struct {
	payloads []jobs.Payload
}

func (d *noopDispatcher) Dispatch(p jobs.Payload) {
	d.payloads = append(d.payloads, p)
}

func newTestServer(t *testing.T) (*Server, *noopDispatcher, string) {
	t.Helper()

	cfg := &config.Config{JWTSecret: "test-secret", Location: time.UTC}
	coordinates := store.NewMemory[models.Coordinate]()
	tryOns := store.NewMemory[models.TryOn]()
	dispatcher := &noopDispatcher{}

	srv := &Server{
		Cfg:         cfg,
		Profiles:    store.NewMemory[models.Profile](),
		Garments:    store.NewMemory[models.Garment](),
		Weather:     store.NewMemory[models.WeatherSnapshot](),
		Coordinates: coordinates,
		TryOns:      tryOns,
		Jobs: &jobs.Service{
			Coordinates: coordinates,
			TryOns:      tryOns,
			Dispatcher:  dispatcher,
			Location:    time.UTC,
		},
	}

	token, err := utils.GenerateToken([]byte(cfg.JWTSecret), "user-1")
	require.NoError(t, err)
	return srv, dispatcher, token
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.AuthMiddleware(srv.ClothesHandler)

	rec := doJSON(t, handler, http.MethodGet, "/clothes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/clothes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGarmentLifecycle(t *testing.T) {
	srv, _, token := newTestServer(t)
	handler := srv.AuthMiddleware(srv.ClothesHandler)

	// Register.
	rec := doJSON(t, handler, http.MethodPost, "/clothes", token, GarmentRequest{
		Category: "tops",
		Color:    "navy",
		Seasons:  []string{"summer"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	itemID := decodeBody(t, rec)["itemId"].(string)
	require.NotEmpty(t, itemID)

	// List.
	rec = doJSON(t, handler, http.MethodGet, "/clothes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clothes := decodeBody(t, rec)["clothes"].([]interface{})
	require.Len(t, clothes, 1)

	// Category filter.
	rec = doJSON(t, handler, http.MethodGet, "/clothes?category=shoes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["clothes"])

	// Edit mints a new identifier and tombstones the old version.
	rec = doJSON(t, handler, http.MethodPut, "/clothes", token, GarmentRequest{
		ItemID:   itemID,
		Category: "tops",
		Color:    "black",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	newItemID := decodeBody(t, rec)["itemId"].(string)
	assert.NotEqual(t, itemID, newItemID)

	rec = doJSON(t, handler, http.MethodGet, "/clothes", token, nil)
	clothes = decodeBody(t, rec)["clothes"].([]interface{})
	require.Len(t, clothes, 1)
	assert.Equal(t, newItemID, clothes[0].(map[string]interface{})["itemId"])

	// Editing the retired identifier fails.
	rec = doJSON(t, handler, http.MethodPut, "/clothes", token, GarmentRequest{
		ItemID:   "999999",
		Category: "tops",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Delete.
	rec = doJSON(t, handler, http.MethodDelete, "/clothes?itemId="+newItemID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/clothes", token, nil)
	assert.Empty(t, decodeBody(t, rec)["clothes"])
}

func TestSubmitOutfitReturnsAcceptedWithHandle(t *testing.T) {
	srv, dispatcher, token := newTestServer(t)
	submit := srv.AuthMiddleware(srv.CoordinateHandler)
	poll := srv.AuthMiddleware(srv.CoordinateStatusHandler)

	rec := doJSON(t, submit, http.MethodPost, "/coordinates", token, CoordinateRequest{
		TargetDate: "2026-09-01",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody(t, rec)
	handle := body["jobHandle"].(string)
	require.NotEmpty(t, handle)
	assert.Equal(t, models.StatusProcessing, body["status"])
	require.Len(t, dispatcher.payloads, 1)

	// Poll while the worker has not run.
	rec = doJSON(t, poll, http.MethodGet, "/coordinates/status?jobHandle="+handle, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	polled := decodeBody(t, rec)
	assert.Equal(t, models.StatusProcessing, polled["status"])
	assert.NotContains(t, polled, "result")
	assert.NotContains(t, polled, "failReason")

	// Unknown handle.
	rec = doJSON(t, poll, http.MethodGet, "/coordinates/status?jobHandle=nope", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitOutfitRejectsBadDate(t *testing.T) {
	srv, _, token := newTestServer(t)
	submit := srv.AuthMiddleware(srv.CoordinateHandler)

	rec := doJSON(t, submit, http.MethodPost, "/coordinates", token, CoordinateRequest{
		TargetDate: "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitTryOnGuards(t *testing.T) {
	srv, _, token := newTestServer(t)
	handler := srv.AuthMiddleware(srv.TryOnHandler)

	// Unknown coordinate.
	rec := doJSON(t, handler, http.MethodPost, "/try-on", token, TryOnRequest{CoordinateID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Coordinate still processing.
	processing := &models.Coordinate{
		Meta:     store.NewMeta("user-1", store.NewVersionKey()),
		JobState: models.JobState{Status: models.StatusProcessing},
	}
	require.NoError(t, srv.Coordinates.Put(httptest.NewRequest(http.MethodGet, "/", nil).Context(), processing))

	rec = doJSON(t, handler, http.MethodPost, "/try-on", token, TryOnRequest{CoordinateID: processing.RecordKey()})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOutfitHistoryFiltersAndDeduplicates(t *testing.T) {
	srv, _, token := newTestServer(t)
	list := srv.AuthMiddleware(srv.CoordinateHandler)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()

	put := func(targetDate, status, reason string) {
		require.NoError(t, srv.Coordinates.Put(ctx, &models.Coordinate{
			Meta:       store.NewMeta("user-1", store.NewVersionKey()),
			JobState:   models.JobState{Status: status},
			TargetDate: targetDate,
			Reason:     reason,
		}))
	}
	put("2026-09-01", models.StatusCompleted, "older outfit")
	put("2026-09-01", models.StatusCompleted, "newer outfit")
	put("2026-09-01", models.StatusFailed, "failed run")
	put("2026-09-02", models.StatusProcessing, "")
	put("2026-09-03", models.StatusCompleted, "other day")

	rec := doJSON(t, list, http.MethodGet, "/coordinates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	coords := decodeBody(t, rec)["coordinates"].([]interface{})
	require.Len(t, coords, 2)

	first := coords[0].(map[string]interface{})
	second := coords[1].(map[string]interface{})
	// Newest first; one completed outfit per day.
	assert.Equal(t, "2026-09-03", first["targetDate"])
	assert.Equal(t, "2026-09-01", second["targetDate"])
	assert.Equal(t, "newer outfit", second["reason"])
}

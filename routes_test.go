package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/hits"
	"explorewithme-backend/internal/stats"
	"explorewithme-backend/internal/store/storetest"
	"explorewithme-backend/internal/views"
)

// newTestServer runs the main service against an in-process stats server
// and an in-memory Redis.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hitStore := hits.NewStore(storetest.OpenDB(t))
	require.NoError(t, hitStore.Migrate())
	statsRouter := gin.New()
	hits.NewHandler(hitStore, logger).Register(statsRouter)
	statsSrv := httptest.NewServer(statsRouter)
	t.Cleanup(statsSrv.Close)

	mr := miniredis.RunT(t)
	rdb := views.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	api := NewAPI(
		storetest.Open(t),
		stats.NewClient(statsSrv.URL, "ewm-main-service", time.Second),
		"ewm-main-service",
		views.NewDedup(rdb, time.Hour),
		logger,
	)
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(logger), CORSMiddleware())
	SetupRoutes(r, api)
	return r
}

func call(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createUser(t *testing.T, r http.Handler, name string) uint {
	t.Helper()
	w := call(t, r, http.MethodPost, "/admin/users", gin.H{"name": name, "email": name + "@x.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.User](t, w).ID
}

func createEvent(t *testing.T, r http.Handler, userID, catID uint, extra gin.H) dto.EventFull {
	t.Helper()
	body := gin.H{
		"annotation":  "Annual open-air jazz evening in the park",
		"description": "Three bands, one stage, all night long",
		"title":       "Jazz night",
		"category":    catID,
		"eventDate":   dto.FormatDateTime(time.Now().Add(3 * time.Hour)),
		"location":    gin.H{"lat": 55.75, "lon": 37.61},
	}
	for k, v := range extra {
		body[k] = v
	}
	w := call(t, r, http.MethodPost, fmt.Sprintf("/users/%d/events", userID), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.EventFull](t, w)
}

func createCategory(t *testing.T, r http.Handler, name string) uint {
	t.Helper()
	w := call(t, r, http.MethodPost, "/admin/categories", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.Category](t, w).ID
}

func publish(t *testing.T, r http.Handler, eventID uint) dto.EventFull {
	t.Helper()
	w := call(t, r, http.MethodPatch, fmt.Sprintf("/admin/events/%d", eventID), gin.H{"stateAction": "PUBLISH_EVENT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[dto.EventFull](t, w)
}

func TestEventLifecycleAndAdmission(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	music := createCategory(t, r, "Music")

	ev := createEvent(t, r, ann, music, gin.H{"participantLimit": 1})
	assert.Equal(t, "PENDING", string(ev.State))
	assert.True(t, ev.RequestModeration)

	ev = publish(t, r, ev.ID)
	assert.Equal(t, "PUBLISHED", string(ev.State))
	assert.NotEmpty(t, ev.PublishedOn)

	w := call(t, r, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d", ann, ev.ID), gin.H{"title": "Renamed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	bob := createUser(t, r, "bob")
	cat := createUser(t, r, "cat")
	var reqIDs []uint
	for _, u := range []uint{bob, cat} {
		w := call(t, r, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", u, ev.ID), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		req := decode[dto.Request](t, w)
		assert.Equal(t, "PENDING", string(req.Status))
		reqIDs = append(reqIDs, req.ID)
	}

	w = call(t, r, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", bob, ev.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	statusPath := fmt.Sprintf("/users/%d/events/%d/requests", ann, ev.ID)
	w = call(t, r, http.MethodPatch, statusPath, gin.H{"requestIds": reqIDs[:1], "status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[dto.RequestStatusUpdateResult](t, w)
	require.Len(t, res.ConfirmedRequests, 1)
	assert.Empty(t, res.RejectedRequests)

	w = call(t, r, http.MethodPatch, statusPath, gin.H{"requestIds": reqIDs[1:], "status": "CONFIRMED"})
	require.Equal(t, http.StatusConflict, w.Code)
	apiErr := decode[ApiError](t, w)
	assert.Equal(t, "CONFLICT", apiErr.Status)
	assert.Equal(t, "For the requested operation the conditions are not met.", apiErr.Reason)
	assert.Equal(t, "The participant limit has been reached", apiErr.Message)

	w = call(t, r, http.MethodGet, fmt.Sprintf("/users/%d/events/%d", ann, ev.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[dto.EventFull](t, w).ConfirmedRequests)

	w = call(t, r, http.MethodGet, statusPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Request](t, w), 2)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/users/%d/requests/%d/cancel", cat, reqIDs[1]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELED", string(decode[dto.Request](t, w).Status))
}

func TestUnmoderatedEventConfirmsImmediately(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	ev := createEvent(t, r, ann, createCategory(t, r, "Music"), gin.H{"requestModeration": false, "participantLimit": 10})
	publish(t, r, ev.ID)

	bob := createUser(t, r, "bob")
	w := call(t, r, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", bob, ev.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "CONFIRMED", string(decode[dto.Request](t, w).Status))

	w = call(t, r, http.MethodGet, fmt.Sprintf("/users/%d/requests", bob), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Request](t, w), 1)
}

func TestViewsAreCountedOncePerViewer(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	ev := createEvent(t, r, ann, createCategory(t, r, "Music"), nil)

	w := call(t, r, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unpublished events are hidden")

	publish(t, r, ev.ID)
	var got dto.EventFull
	for i := 0; i < 3; i++ {
		w = call(t, r, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got = decode[dto.EventFull](t, w)
	}
	assert.Equal(t, int64(1), got.Views)

	w = call(t, r, http.MethodGet, "/events?sort=VIEWS", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[[]dto.EventShort](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Views)

	q := url.Values{
		"start":  {"2000-01-01 00:00:00"},
		"end":    {"2100-01-01 00:00:00"},
		"uris":   {fmt.Sprintf("/events/%d", ev.ID), "/events"},
		"unique": {"false"},
	}
	w = call(t, r, http.MethodGet, "/admin/stats?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := decode[[]stats.ViewStats](t, w)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, int64(1), row.Hits, row.URI)
	}
}

func TestCommentModerationFlow(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	ev := createEvent(t, r, ann, createCategory(t, r, "Music"), nil)

	bob := createUser(t, r, "bob")
	commentPath := fmt.Sprintf("/users/%d/comments", bob)
	w := call(t, r, http.MethodPost, commentPath, gin.H{"eventId": ev.ID, "text": "Great lineup"})
	assert.Equal(t, http.StatusConflict, w.Code, "event not published yet")

	publish(t, r, ev.ID)
	w = call(t, r, http.MethodPost, commentPath, gin.H{"eventId": ev.ID, "text": "Great lineup"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[dto.Comment](t, w)
	assert.Equal(t, "PENDING", string(comment.Status))

	eventComments := fmt.Sprintf("/events/%d/comments", ev.ID)
	w = call(t, r, http.MethodGet, eventComments, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]dto.Comment](t, w))

	w = call(t, r, http.MethodGet, "/admin/comments/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Comment](t, w), 1)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/admin/comments/%d?status=DELETED_BY_ADMIN", comment.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/admin/comments/%d?status=APPROVED", comment.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/admin/comments/%d?status=REJECTED&reason=spam", comment.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodGet, eventComments, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Comment](t, w), 1)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("%s/%d", commentPath, comment.ID), gin.H{"text": "Great lineup, updated"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.Comment](t, w)
	assert.Equal(t, 1, updated.EditCount)
	assert.Equal(t, "PENDING", string(updated.Status))

	w = call(t, r, http.MethodDelete, fmt.Sprintf("/admin/comments/%d", comment.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, r, http.MethodDelete, fmt.Sprintf("%s/%d", commentPath, comment.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	music := createCategory(t, r, "Music")
	ev := createEvent(t, r, ann, music, nil)
	publish(t, r, ev.ID)

	w := call(t, r, http.MethodPost, "/admin/categories", gin.H{"name": "Music"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", music), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodGet, fmt.Sprintf("/categories/%d", music), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Music", decode[dto.Category](t, w).Name)

	w = call(t, r, http.MethodPost, "/admin/compilations", gin.H{"title": "Summer", "pinned": true, "events": []uint{ev.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comp := decode[dto.Compilation](t, w)
	require.Len(t, comp.Events, 1)

	w = call(t, r, http.MethodGet, "/compilations?pinned=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Compilation](t, w), 1)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/admin/compilations/%d", comp.ID), gin.H{"events": []uint{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.Compilation](t, w).Events)

	w = call(t, r, http.MethodGet, "/admin/users?ids="+fmt.Sprint(ann), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.User](t, w), 1)

	w = call(t, r, http.MethodDelete, fmt.Sprintf("/admin/users/%d", ann), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, r, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "events go with their initiator")
}

func TestRequestValidation(t *testing.T) {
	r := newTestServer(t)
	ann := createUser(t, r, "ann")
	music := createCategory(t, r, "Music")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"event too soon", http.MethodPost, fmt.Sprintf("/users/%d/events", ann), gin.H{
			"annotation": "Annual open-air jazz evening in the park", "description": "Three bands, one stage, all night long",
			"title": "Jazz", "category": music, "location": gin.H{"lat": 1.0, "lon": 2.0},
			"eventDate": dto.FormatDateTime(time.Now().Add(time.Hour)),
		}, http.StatusBadRequest},
		{"short annotation", http.MethodPost, fmt.Sprintf("/users/%d/events", ann), gin.H{
			"annotation": "short", "description": "Three bands, one stage, all night long",
			"title": "Jazz", "category": music, "location": gin.H{"lat": 1.0, "lon": 2.0},
			"eventDate": dto.FormatDateTime(time.Now().Add(5 * time.Hour)),
		}, http.StatusBadRequest},
		{"bad date format", http.MethodPost, fmt.Sprintf("/users/%d/events", ann), gin.H{
			"annotation": "Annual open-air jazz evening in the park", "description": "Three bands, one stage, all night long",
			"title": "Jazz", "category": music, "location": gin.H{"lat": 1.0, "lon": 2.0},
			"eventDate": "tomorrow",
		}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/admin/users", "{", http.StatusBadRequest},
		{"invalid email", http.MethodPost, "/admin/users", gin.H{"name": "Bob", "email": "nope"}, http.StatusBadRequest},
		{"blank category", http.MethodPost, "/admin/categories", gin.H{"name": "   "}, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/events/abc", nil, http.StatusBadRequest},
		{"zero size", http.MethodGet, "/categories?size=0", nil, http.StatusBadRequest},
		{"negative from", http.MethodGet, "/categories?from=-1", nil, http.StatusBadRequest},
		{"unknown sort", http.MethodGet, "/events?sort=TITLE", nil, http.StatusBadRequest},
		{"unknown state", http.MethodGet, "/admin/events?states=DONE", nil, http.StatusBadRequest},
		{"missing event", http.MethodGet, "/events/999", nil, http.StatusNotFound},
		{"missing user", http.MethodDelete, "/admin/users/999", nil, http.StatusNotFound},
		{"missing event id", http.MethodPost, fmt.Sprintf("/users/%d/requests", ann), nil, http.StatusBadRequest},
		{"stats window reversed", http.MethodGet, "/admin/stats?start=2026-10-02%2000:00:00&end=2026-10-01%2000:00:00", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			apiErr := decode[ApiError](t, w)
			assert.NotEmpty(t, apiErr.Message)
			assert.NotEmpty(t, apiErr.Timestamp)
		})
	}
}

func TestMiddleware(t *testing.T) {
	r := newTestServer(t)

	w := call(t, r, http.MethodOptions, "/events", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = call(t, r, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestPagingDefaults(t *testing.T) {
	r := newTestServer(t)
	for i := 0; i < 12; i++ {
		createCategory(t, r, fmt.Sprintf("Category %02d", i))
	}

	w := call(t, r, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Category](t, w), 10)

	w = call(t, r, http.MethodGet, "/categories?from=10&size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.Category](t, w), 2)
}

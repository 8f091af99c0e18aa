package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/catalog"
	"explorewithme-backend/internal/comments"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/events"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/requests"
	"explorewithme-backend/internal/stats"
	"explorewithme-backend/internal/store"
)

// StatsBackend is the hit-counter as seen by the HTTP layer.
type StatsBackend interface {
	events.Aggregator
	Stats(ctx context.Context, q stats.Query) ([]stats.ViewStats, error)
}

// API holds the services behind the HTTP handlers.
type API struct {
	events       *events.Service
	requests     *requests.Service
	comments     *comments.Service
	users        *catalog.Users
	categories   *catalog.Categories
	compilations *catalog.Compilations
	stats        StatsBackend
	log          *slog.Logger
}

// NewAPI wires every service on top of one store. statsBackend may be nil;
// dedup may be nil to record every view.
func NewAPI(st *store.Store, statsBackend StatsBackend, app string, dedup events.ViewDedup, logger *slog.Logger) *API {
	opts := []events.Option{events.WithLogger(logger)}
	if dedup != nil {
		opts = append(opts, events.WithViewDedup(dedup))
	}
	var agg events.Aggregator
	if statsBackend != nil {
		agg = statsBackend
	}
	ev := events.NewService(st, agg, app, opts...)

	return &API{
		events:       ev,
		requests:     requests.NewService(st, requests.WithLogger(logger)),
		comments:     comments.NewService(st, comments.WithLogger(logger)),
		users:        catalog.NewUsers(st, logger),
		categories:   catalog.NewCategories(st, logger),
		compilations: catalog.NewCompilations(st, ev, logger),
		stats:        statsBackend,
		log:          logger,
	}
}

// -----------------------------
// Helper functions
// -----------------------------

var reasons = map[apperr.Code]string{
	apperr.CodeNotFound:   "The required object was not found.",
	apperr.CodeConflict:   "For the requested operation the conditions are not met.",
	apperr.CodeValidation: "Incorrectly made request.",
	apperr.CodeInternal:   "Internal server error",
}

type ApiError struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Errors    []string `json:"errors,omitempty"`
}

func (a *API) fail(c *gin.Context, err error) {
	e := apperr.From(err)
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", "request_id", c.GetString("request_id"), "path", c.Request.URL.Path, "err", err)
	} else {
		a.log.Warn("request rejected", "request_id", c.GetString("request_id"), "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatusJSON(status, ApiError{
		Status:    string(e.Code),
		Reason:    reasons[e.Code],
		Message:   e.Error(),
		Timestamp: dto.FormatDateTime(time.Now()),
	})
}

// bindJSON decodes the body and reports binding failures as validation
// errors.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field: %s. Error: failed on '%s'. Value: %v", fe.Field(), fe.Tag(), fe.Value()))
		}
		return apperr.Validation("%s", strings.Join(msgs, "; "))
	}
	return apperr.Validation("Malformed request body: %s", err.Error())
}

func pathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation("Parameter %s must be a positive number, got %q", name, raw)
	}
	return uint(v), nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("Parameter %s must be a number, got %q", name, raw)
	}
	return v, nil
}

// pageParams reads from (default 0) and size (default 10).
func pageParams(c *gin.Context) (store.Page, error) {
	from, err := queryInt(c, "from", 0)
	if err != nil {
		return store.Page{}, err
	}
	size, err := queryInt(c, "size", 10)
	if err != nil {
		return store.Page{}, err
	}
	return store.NewPage(from, size)
}

// queryList accepts both repeated parameters and comma-separated values.
func queryList(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(c *gin.Context, name string) ([]uint, error) {
	var ids []uint
	for _, raw := range queryList(c, name) {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, apperr.Validation("Parameter %s must hold numbers, got %q", name, raw)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("Parameter %s must be true or false, got %q", name, raw)
	}
	return &v, nil
}

func viewer(c *gin.Context) events.Viewer {
	return events.Viewer{IP: c.ClientIP(), URI: c.Request.URL.Path}
}

// -----------------------------
// Events
// -----------------------------

func (a *API) CreateEvent(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body NewEventRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	in, err := body.toInput()
	if err != nil {
		a.fail(c, err)
		return
	}

	ev, err := a.events.Create(c.Request.Context(), userID, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (a *API) GetUserEvents(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.events.GetUserEvents(c.Request.Context(), userID, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetUserEvent(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		a.fail(c, err)
		return
	}

	ev, err := a.events.GetUserEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (a *API) UpdateUserEvent(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	eventID, err := pathID(c, "eventId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body UpdateEventRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	patch, err := body.toPatch(models.SendToReview, models.CancelReview)
	if err != nil {
		a.fail(c, err)
		return
	}

	ev, err := a.events.UpdateByUser(c.Request.Context(), userID, eventID, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (a *API) GetAdminEvents(c *gin.Context) {
	var (
		f   store.AdminEventFilter
		err error
	)
	if f.Users, err = queryIDs(c, "users"); err != nil {
		a.fail(c, err)
		return
	}
	if f.Categories, err = queryIDs(c, "categories"); err != nil {
		a.fail(c, err)
		return
	}
	for _, s := range queryList(c, "states") {
		state := models.EventState(s)
		if !state.Valid() {
			a.fail(c, apperr.Validation("Unknown state: %s", s))
			return
		}
		f.States = append(f.States, state)
	}
	if f.RangeStart, err = dto.ParseOptionalDateTime(c.Query("rangeStart")); err != nil {
		a.fail(c, err)
		return
	}
	if f.RangeEnd, err = dto.ParseOptionalDateTime(c.Query("rangeEnd")); err != nil {
		a.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.events.GetAdminEvents(c.Request.Context(), f, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) UpdateAdminEvent(c *gin.Context) {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body UpdateEventRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	patch, err := body.toPatch(models.PublishEvent, models.RejectEvent)
	if err != nil {
		a.fail(c, err)
		return
	}

	ev, err := a.events.UpdateByAdmin(c.Request.Context(), eventID, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (a *API) GetPublicEvents(c *gin.Context) {
	q := events.PublicQuery{Sort: c.Query("sort")}
	var err error
	q.Filter.Text = c.Query("text")
	if q.Filter.Categories, err = queryIDs(c, "categories"); err != nil {
		a.fail(c, err)
		return
	}
	if q.Filter.Paid, err = queryBool(c, "paid"); err != nil {
		a.fail(c, err)
		return
	}
	if q.Filter.RangeStart, err = dto.ParseOptionalDateTime(c.Query("rangeStart")); err != nil {
		a.fail(c, err)
		return
	}
	if q.Filter.RangeEnd, err = dto.ParseOptionalDateTime(c.Query("rangeEnd")); err != nil {
		a.fail(c, err)
		return
	}
	onlyAvailable, err := queryBool(c, "onlyAvailable")
	if err != nil {
		a.fail(c, err)
		return
	}
	q.Filter.OnlyAvailable = onlyAvailable != nil && *onlyAvailable
	if q.Page, err = pageParams(c); err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.events.GetPublicEvents(c.Request.Context(), q, viewer(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetPublicEvent(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}

	ev, err := a.events.GetPublicEvent(c.Request.Context(), eventID, viewer(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/requests"
)

// -----------------------------
// Participation requests
// -----------------------------

func (a *API) CreateRequest(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	eventID, err := strconv.ParseUint(c.Query("eventId"), 10, 64)
	if err != nil || eventID == 0 {
		a.fail(c, apperr.Validation("Missing required parameter: eventId"))
		return
	}

	req, err := a.requests.Create(c.Request.Context(), userID, uint(eventID))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (a *API) CancelRequest(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	requestID, err := pathID(c, "requestId")
	if err != nil {
		a.fail(c, err)
		return
	}

	req, err := a.requests.Cancel(c.Request.Context(), userID, requestID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (a *API) GetUserRequests(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.requests.ListUserRequests(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetEventRequests(c *gin.Context) {
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

	list, err := a.requests.ListEventRequests(c.Request.Context(), userID, eventID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) UpdateRequestStatus(c *gin.Context) {
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
	var body StatusUpdateRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}

	res, err := a.requests.UpdateStatus(c.Request.Context(), userID, eventID, requests.StatusUpdate{
		RequestIDs: body.RequestIDs,
		Status:     models.RequestStatus(body.Status),
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

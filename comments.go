package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

// -----------------------------
// Comments
// -----------------------------

func commentText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Validation("Field: text. Error: must not be blank. Value: %s", text)
	}
	return text, nil
}

func (a *API) CreateComment(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body NewCommentRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	text, err := commentText(body.Text)
	if err != nil {
		a.fail(c, err)
		return
	}

	comment, err := a.comments.Create(c.Request.Context(), userID, body.EventID, text)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (a *API) UpdateComment(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body UpdateCommentRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	text, err := commentText(body.Text)
	if err != nil {
		a.fail(c, err)
		return
	}

	comment, err := a.comments.Update(c.Request.Context(), userID, commentID, text)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (a *API) DeleteComment(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		a.fail(c, err)
		return
	}

	if err := a.comments.Delete(c.Request.Context(), userID, commentID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) GetUserComments(c *gin.Context) {
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

	list, err := a.comments.ListUser(c.Request.Context(), userID, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetEventComments lists approved comments only.
func (a *API) GetEventComments(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.comments.ListEvent(c.Request.Context(), eventID, nil, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetEventComment(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	commentID, err := pathID(c, "commentId")
	if err != nil {
		a.fail(c, err)
		return
	}

	comment, err := a.comments.GetEventComment(c.Request.Context(), eventID, commentID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// GetModerationQueue lists comments by ?status, pending ones by default.
func (a *API) GetModerationQueue(c *gin.Context) {
	var status *models.CommentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.CommentStatus(raw)
		if !s.Valid() {
			a.fail(c, apperr.Validation("Unknown comment status: %s", raw))
			return
		}
		status = &s
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.comments.ListForModeration(c.Request.Context(), status, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ModerateComment takes ?status=APPROVED|REJECTED and an optional ?reason.
func (a *API) ModerateComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId")
	if err != nil {
		a.fail(c, err)
		return
	}
	status := models.CommentStatus(c.Query("status"))
	if status != models.CommentApproved && status != models.CommentRejected {
		a.fail(c, apperr.Validation("Status must be either APPROVED or REJECTED"))
		return
	}

	comment, err := a.comments.Moderate(c.Request.Context(), commentID, status, c.Query("reason"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (a *API) AdminDeleteComment(c *gin.Context) {
	commentID, err := pathID(c, "commentId")
	if err != nil {
		a.fail(c, err)
		return
	}

	if err := a.comments.AdminDelete(c.Request.Context(), commentID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

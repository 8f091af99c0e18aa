package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/stats"
)

// -----------------------------
// Users
// -----------------------------

func (a *API) CreateUser(c *gin.Context) {
	var body NewUserRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	if err := notBlank("name", body.Name); err != nil {
		a.fail(c, err)
		return
	}

	user, err := a.users.Create(c.Request.Context(), strings.TrimSpace(body.Name), body.Email)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *API) GetUsers(c *gin.Context) {
	ids, err := queryIDs(c, "ids")
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}

	list, err := a.users.List(c.Request.Context(), ids, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) DeleteUser(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.users.Delete(c.Request.Context(), userID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -----------------------------
// Categories
// -----------------------------

func (a *API) CreateCategory(c *gin.Context) {
	var body CategoryRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	if err := notBlank("name", body.Name); err != nil {
		a.fail(c, err)
		return
	}

	cat, err := a.categories.Create(c.Request.Context(), strings.TrimSpace(body.Name))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (a *API) UpdateCategory(c *gin.Context) {
	catID, err := pathID(c, "catId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body CategoryRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	if err := notBlank("name", body.Name); err != nil {
		a.fail(c, err)
		return
	}

	cat, err := a.categories.Rename(c.Request.Context(), catID, strings.TrimSpace(body.Name))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (a *API) DeleteCategory(c *gin.Context) {
	catID, err := pathID(c, "catId")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.categories.Delete(c.Request.Context(), catID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) GetCategories(c *gin.Context) {
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	list, err := a.categories.List(c.Request.Context(), page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetCategory(c *gin.Context) {
	catID, err := pathID(c, "catId")
	if err != nil {
		a.fail(c, err)
		return
	}
	cat, err := a.categories.Get(c.Request.Context(), catID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// -----------------------------
// Compilations
// -----------------------------

func (a *API) CreateCompilation(c *gin.Context) {
	var body NewCompilationRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	if err := notBlank("title", body.Title); err != nil {
		a.fail(c, err)
		return
	}

	comp, err := a.compilations.Create(c.Request.Context(), body.Title, body.Pinned, body.Events)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comp)
}

func (a *API) UpdateCompilation(c *gin.Context) {
	compID, err := pathID(c, "compId")
	if err != nil {
		a.fail(c, err)
		return
	}
	var body UpdateCompilationRequest
	if err := bindJSON(c, &body); err != nil {
		a.fail(c, err)
		return
	}
	if body.Title != nil {
		if err := notBlank("title", *body.Title); err != nil {
			a.fail(c, err)
			return
		}
	}

	comp, err := a.compilations.Update(c.Request.Context(), compID, body.toPatch())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (a *API) DeleteCompilation(c *gin.Context) {
	compID, err := pathID(c, "compId")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.compilations.Delete(c.Request.Context(), compID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) GetCompilations(c *gin.Context) {
	pinned, err := queryBool(c, "pinned")
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := pageParams(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	list, err := a.compilations.List(c.Request.Context(), pinned, page)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetCompilation(c *gin.Context) {
	compID, err := pathID(c, "compId")
	if err != nil {
		a.fail(c, err)
		return
	}
	comp, err := a.compilations.Get(c.Request.Context(), compID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// -----------------------------
// Stats
// -----------------------------

// GetStats forwards a statistics query to the hit-counter. Without uris it
// reports the public listing.
func (a *API) GetStats(c *gin.Context) {
	if a.stats == nil {
		a.fail(c, apperr.Internal("statistics are not configured", nil))
		return
	}
	start, err := dto.ParseDateTime(c.Query("start"))
	if err != nil {
		a.fail(c, err)
		return
	}
	end, err := dto.ParseDateTime(c.Query("end"))
	if err != nil {
		a.fail(c, err)
		return
	}
	if start.After(end) {
		a.fail(c, apperr.Validation("Start date must be before end date"))
		return
	}
	unique, err := queryBool(c, "unique")
	if err != nil {
		a.fail(c, err)
		return
	}
	uris := queryList(c, "uris")
	if len(uris) == 0 {
		uris = []string{"/events"}
	}

	out, err := a.stats.Stats(c.Request.Context(), stats.Query{
		Start:  start,
		End:    end,
		URIs:   uris,
		Unique: unique != nil && *unique,
	})
	if err != nil {
		a.fail(c, apperr.Internal("stats server unavailable", err))
		return
	}
	c.JSON(http.StatusOK, out)
}

package hits

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const dateTimeLayout = "2006-01-02 15:04:05"

type Handler struct {
	store *Store
	log   *slog.Logger
}

func NewHandler(st *Store, log *slog.Logger) *Handler {
	return &Handler{store: st, log: log}
}

// Register mounts the statistics endpoints.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/hit", h.SaveHit)
	r.GET("/stats", h.GetStats)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Incorrectly made request.",
		"message": msg,
		"status":  "BAD_REQUEST",
	})
}

type hitRequest struct {
	App       string `json:"app" binding:"required"`
	URI       string `json:"uri" binding:"required"`
	IP        string `json:"ip" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
}

func (h *Handler) SaveHit(c *gin.Context) {
	var body hitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	ts, err := time.ParseInLocation(dateTimeLayout, body.Timestamp, time.UTC)
	if err != nil {
		badRequest(c, "Invalid date format. Use 'yyyy-MM-dd HH:mm:ss'")
		return
	}

	hit := EndpointHit{App: body.App, URI: body.URI, IP: body.IP, Timestamp: ts}
	if err := h.store.Save(c.Request.Context(), &hit); err != nil {
		h.log.Error("save hit failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	h.log.Info("hit saved", "id", hit.ID, "app", hit.App, "uri", hit.URI, "ip", hit.IP)
	c.Status(http.StatusCreated)
}

func (h *Handler) GetStats(c *gin.Context) {
	start, err := time.ParseInLocation(dateTimeLayout, c.Query("start"), time.UTC)
	if err != nil {
		badRequest(c, "Invalid date format. Use 'yyyy-MM-dd HH:mm:ss'")
		return
	}
	end, err := time.ParseInLocation(dateTimeLayout, c.Query("end"), time.UTC)
	if err != nil {
		badRequest(c, "Invalid date format. Use 'yyyy-MM-dd HH:mm:ss'")
		return
	}
	if start.After(end) {
		badRequest(c, "Start date must be before end date")
		return
	}
	unique := false
	if raw := c.Query("unique"); raw != "" {
		if unique, err = strconv.ParseBool(raw); err != nil {
			badRequest(c, "Parameter unique must be a boolean")
			return
		}
	}

	stats, err := h.store.Stats(c.Request.Context(), start, end, splitList(c.QueryArray("uris")), unique)
	if err != nil {
		h.log.Error("stats query failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// splitList accepts both repeated parameters and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

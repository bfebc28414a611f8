// Package api exposes the library over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"simplib/pkg/lending"
	"simplib/pkg/liberr"
	"simplib/pkg/logging"
	"simplib/pkg/models"
	"simplib/pkg/stats"
)

type Handler struct {
	ctrl       *lending.Controller
	thresholds stats.Thresholds
	log        logging.Logger
	health     func() error
}

// NewHandler wires the routes to ctrl. health is optional and is called by
// the health check, e.g. to ping the database.
func NewHandler(ctrl *lending.Controller, th stats.Thresholds, log logging.Logger, health func() error) *Handler {
	return &Handler{ctrl: ctrl, thresholds: th, log: log, health: health}
}

// NewRouter returns a gin engine with the default middleware and every
// route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	h.Register(r)
	return r
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/manage/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	v1.GET("/metrics", h.getMetrics)
	v1.GET("/stats", h.getStats)
	v1.GET("/history", h.getHistory)

	books := v1.Group("/books")
	{
		books.GET("", h.listBooks)
		books.POST("", h.addBook)
		books.GET("/available", h.availableBooks)
		books.GET("/export", h.exportBooks)
		books.POST("/reinstate", h.reinstateBook)
		books.PATCH("/:id", h.updateBook)
		books.POST("/:id/retire", h.retireBook)
	}

	borrowers := v1.Group("/borrowers")
	{
		borrowers.GET("", h.listBorrowers)
		borrowers.POST("", h.addBorrower)
		borrowers.POST("/reinstate", h.reinstateBorrower)
		borrowers.PATCH("/:id", h.updateBorrower)
		borrowers.POST("/:id/retire", h.retireBorrower)
	}

	loans := v1.Group("/loans")
	{
		loans.GET("/active", h.activeLoans)
		loans.GET("/late", h.lateLoans)
		loans.POST("", h.createLoan)
		loans.POST("/return", h.returnLoan)
		loans.POST("/:id/return", h.returnLoanByID)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "DOWN",
				"details": "Storage check failed",
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// writeError maps the lending error taxonomy onto HTTP status codes. Anything
// unclassified is logged and reported as a 500 without details.
func (h *Handler) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, liberr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, liberr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, liberr.ErrConflict):
		status = http.StatusConflict
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) snapshot(c *gin.Context) (models.Dataset, bool) {
	ds, err := h.ctrl.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return ds, false
	}
	return ds, true
}

func pathID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, liberr.Validation("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// dateOr parses a DD/MM/YYYY field, defaulting to def when it is empty.
func dateOr(field, value string, def time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return def, nil
	}
	t, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, liberr.Validation("%s must be DD/MM/YYYY, got %q", field, value)
	}
	return t, nil
}

func matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func bindError(err error) error {
	return liberr.Validation("invalid request: %v", err)
}

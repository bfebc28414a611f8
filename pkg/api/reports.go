package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"simplib/pkg/metrics"
	"simplib/pkg/stats"
)

func (h *Handler) getMetrics(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, metrics.Compute(ds, h.ctrl.Today()))
}

func (h *Handler) getStats(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stats.Build(ds, h.thresholds))
}

// getHistory lists every loan, newest last, with running durations filled
// in for open loans.
func (h *Handler) getHistory(c *gin.Context) {
	ds, ok := h.snapshot(c)
	if !ok {
		return
	}
	rows := stats.Search(stats.History(ds), c.Query("q"))
	rows = stats.FillOpenDurations(rows, h.ctrl.Today())
	items := toHistoryResponses(rows)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

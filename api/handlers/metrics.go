package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/analyzer"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/gin-gonic/gin"
)

// MetricsHandler rebuilds per-window metric series from stored windows.
type MetricsHandler struct {
	store database.ResultStore
	pager pager
}

func NewMetricsHandler(store database.ResultStore, cfg *config.APIConfig) *MetricsHandler {
	return &MetricsHandler{
		store: store,
		pager: newPager(cfg),
	}
}

// Series godoc
// @Summary Metric series of a run
// @Description Per-window values of one metric for every algorithm
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param metric query string false "Metric name" default(f1)
// @Param scope query string false "current, cumulative or weighted" default(cumulative)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /runs/{id}/series [get]
func (h *MetricsHandler) Series(c *gin.Context) {
	metric := c.DefaultQuery("metric", "f1")
	if _, ok := (models.DerivedMetrics{}).Value(metric); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric", "metrics": models.MetricNames()})
		return
	}
	scope := c.DefaultQuery("scope", analyzer.ScopeCumulative)
	switch scope {
	case analyzer.ScopeCurrent, analyzer.ScopeCumulative, analyzer.ScopeWeighted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	runID := c.Param("id")
	run, err := h.store.GetRun(ctx, runID)
	if err != nil {
		respondStoreError(c, err, "run")
		return
	}

	a := analyzer.New(analyzer.Config{RankBy: metric})
	for offset := 0; ; {
		windows, err := h.store.ListWindows(ctx, runID, h.pager.maxLimit, offset)
		if err != nil {
			respondStoreError(c, err, "windows")
			return
		}
		for _, w := range windows {
			a.Observe(w)
		}
		if len(windows) < h.pager.maxLimit {
			break
		}
		offset += len(windows)
	}

	series := make(map[string][]float64)
	for _, name := range run.Algorithms {
		for _, s := range a.Series(name) {
			if s.Metric == metric && s.Scope == scope {
				series[name] = s.Values
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"metric": metric,
		"scope":  scope,
		"data":   series,
	})
}

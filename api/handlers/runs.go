package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/window"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/gin-gonic/gin"
)

// ActiveRuns reports runs still in progress in this process.
type ActiveRuns interface {
	ActiveRuns() []string
	RunStats(runID string) (window.Stats, error)
}

type RunHandler struct {
	store  database.ResultStore
	active ActiveRuns
	pager  pager
}

// NewRunHandler builds the run handler. active may be nil when the server
// only serves stored results.
func NewRunHandler(store database.ResultStore, active ActiveRuns, cfg *config.APIConfig) *RunHandler {
	return &RunHandler{
		store:  store,
		active: active,
		pager:  newPager(cfg),
	}
}

// List godoc
// @Summary List runs
// @Description Stored runs, newest first
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	limit, offset := h.pager.parse(c)
	runs, err := h.store.ListRuns(ctx, limit, offset)
	if err != nil {
		respondStoreError(c, err, "runs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   runs,
		"count":  len(runs),
		"limit":  limit,
		"offset": offset,
	})
}

// Get godoc
// @Summary Get a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} models.Run
// @Failure 404 {object} map[string]string
// @Router /runs/{id} [get]
func (h *RunHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	run, err := h.store.GetRun(ctx, c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "run")
		return
	}
	c.JSON(http.StatusOK, run)
}

// Windows godoc
// @Summary List the windows of a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /runs/{id}/windows [get]
func (h *RunHandler) Windows(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	runID := c.Param("id")
	if _, err := h.store.GetRun(ctx, runID); err != nil {
		respondStoreError(c, err, "run")
		return
	}

	limit, offset := h.pager.parse(c)
	windows, err := h.store.ListWindows(ctx, runID, limit, offset)
	if err != nil {
		respondStoreError(c, err, "windows")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"data":   windows,
		"count":  len(windows),
		"limit":  limit,
		"offset": offset,
	})
}

// Results godoc
// @Summary Final algorithm results of a run
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /runs/{id}/results [get]
func (h *RunHandler) Results(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	runID := c.Param("id")
	run, err := h.store.GetRun(ctx, runID)
	if err != nil {
		respondStoreError(c, err, "run")
		return
	}

	results, err := h.store.GetResults(ctx, runID)
	if err != nil {
		respondStoreError(c, err, "results")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"status": run.Status,
		"data":   results,
		"count":  len(results),
	})
}

// Events godoc
// @Summary Persisted events of a run
// @Description Run lifecycle, alert and error events, newest first
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param limit query int false "Maximum events"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /runs/{id}/events [get]
func (h *RunHandler) Events(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	runID := c.Param("id")
	if _, err := h.store.GetRun(ctx, runID); err != nil {
		respondStoreError(c, err, "run")
		return
	}

	limit, _ := h.pager.parse(c)
	events, err := h.store.ListEvents(ctx, runID, limit)
	if err != nil {
		respondStoreError(c, err, "events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"data":   events,
		"count":  len(events),
	})
}

// Active godoc
// @Summary Runs in progress
// @Tags Runs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /runs/active [get]
func (h *RunHandler) Active(c *gin.Context) {
	if h.active == nil {
		c.JSON(http.StatusOK, gin.H{"data": []interface{}{}, "count": 0})
		return
	}

	type activeRun struct {
		ID    string       `json:"id"`
		Stats window.Stats `json:"stats"`
	}
	var out []activeRun
	for _, id := range h.active.ActiveRuns() {
		stats, err := h.active.RunStats(id)
		if err != nil {
			continue
		}
		out = append(out, activeRun{ID: id, Stats: stats})
	}

	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/gin-gonic/gin"
)

type pager struct {
	defaultLimit int
	maxLimit     int
}

func newPager(cfg *config.APIConfig) pager {
	p := pager{defaultLimit: 100, maxLimit: 1000}
	if cfg != nil && cfg.DefaultLimit > 0 {
		p.defaultLimit = cfg.DefaultLimit
	}
	if cfg != nil && cfg.MaxLimit > 0 {
		p.maxLimit = cfg.MaxLimit
	}
	return p
}

// parse reads limit and offset, clamping limit to the configured maximum.
func (p pager) parse(c *gin.Context) (limit, offset int) {
	limit = p.defaultLimit
	if parsed, err := strconv.Atoi(c.Query("limit")); err == nil && parsed > 0 {
		limit = parsed
		if limit > p.maxLimit {
			limit = p.maxLimit
		}
	}
	if parsed, err := strconv.Atoi(c.Query("offset")); err == nil && parsed > 0 {
		offset = parsed
	}
	return limit, offset
}

func respondStoreError(c *gin.Context, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	logger.ErrorCtxf(c.Request.Context(), "Failed to fetch %s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch " + what})
}

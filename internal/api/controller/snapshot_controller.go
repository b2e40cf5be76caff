package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/proto_cache/internal/cache"
	"github.com/bassista/proto_cache/internal/catalog"
	"github.com/bassista/proto_cache/internal/logger"
	"github.com/bassista/proto_cache/internal/repository"
)

// SetupRequest is the optional body of POST /snapshot/setup. Zero fields fall
// back to the defaults, matching the fetch parameter merge.
type SetupRequest struct {
	Offset      int `json:"offset" validate:"gte=0"`
	Limit       int `json:"limit" validate:"gte=0"`
	PrototypeID int `json:"prototypeId" validate:"gte=0"`
}

// SnapshotController handles the snapshot lifecycle endpoints.
type SnapshotController struct {
	repo      repository.Mutator
	store     cache.Writer
	reporter  cache.StatsReporter
	validator *validator.Validate
}

// NewSnapshotController creates a new SnapshotController.
func NewSnapshotController(repo repository.Mutator, store cache.Writer, reporter cache.StatsReporter) *SnapshotController {
	return &SnapshotController{
		repo:      repo,
		store:     store,
		reporter:  reporter,
		validator: validator.New(),
	}
}

// Setup handles POST /snapshot/setup - populates the snapshot from the upstream catalog.
func (sc *SnapshotController) Setup(c *gin.Context) {
	logger.WithComponent("snapshot-controller").Debugf("POST /snapshot/setup handler called")

	var req SetupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithComponent("snapshot-controller").Debugf("setup: malformed body: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		if err := sc.validator.Struct(&req); err != nil {
			logger.WithComponent("snapshot-controller").Debugf("setup: invalid parameters: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	params := catalog.FetchParams{
		Offset:      req.Offset,
		Limit:       req.Limit,
		PrototypeID: req.PrototypeID,
	}
	result := sc.repo.SetupSnapshot(c.Request.Context(), params)
	sc.respond(c, result)
}

// Refresh handles POST /snapshot/refresh - re-runs the pipeline with the last setup parameters.
func (sc *SnapshotController) Refresh(c *gin.Context) {
	logger.WithComponent("snapshot-controller").Debugf("POST /snapshot/refresh handler called")
	result := sc.repo.RefreshSnapshot(c.Request.Context())
	sc.respond(c, result)
}

// Stats handles GET /snapshot/stats - returns the snapshot metadata.
func (sc *SnapshotController) Stats(c *gin.Context) {
	logger.WithComponent("snapshot-controller").Debugf("GET /snapshot/stats handler called")
	c.JSON(http.StatusOK, sc.reporter.Stats())
}

// Clear handles DELETE /snapshot - empties the snapshot without touching the upstream.
func (sc *SnapshotController) Clear(c *gin.Context) {
	logger.WithComponent("snapshot-controller").Debugf("DELETE /snapshot handler called")
	sc.store.Clear()
	c.JSON(http.StatusOK, sc.reporter.Stats())
}

func (sc *SnapshotController) respond(c *gin.Context, result repository.Result) {
	if !result.OK {
		logger.WithComponent("snapshot-controller").Warnf("snapshot pipeline failed: %v", result.Fault)
		c.JSON(statusForFault(result.Fault), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

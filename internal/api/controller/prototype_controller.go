package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/bassista/proto_cache/internal/errs"
	"github.com/bassista/proto_cache/internal/logger"
	"github.com/bassista/proto_cache/internal/repository"
)

// PrototypeController serves reads against the in-memory snapshot.
// It never reaches the upstream catalog.
type PrototypeController struct {
	repo repository.Reader
}

// NewPrototypeController creates a new PrototypeController.
func NewPrototypeController(repo repository.Reader) *PrototypeController {
	return &PrototypeController{repo: repo}
}

// All handles GET /prototypes - returns every record in the snapshot.
func (pc *PrototypeController) All(c *gin.Context) {
	logger.WithComponent("prototype-controller").Debugf("GET /prototypes handler called")
	c.JSON(http.StatusOK, pc.repo.AllFromSnapshot())
}

// ByID handles GET /prototype/:id - returns a single record or 404.
func (pc *PrototypeController) ByID(c *gin.Context) {
	raw := c.Param("id")
	logger.WithComponent("prototype-controller").Debugf("GET /prototype/%s handler called", raw)

	id, err := strconv.Atoi(raw)
	if err != nil {
		logger.WithComponent("prototype-controller").Debugf("get prototype: non-numeric id %q", raw)
		c.JSON(http.StatusBadRequest, gin.H{"error": "prototype id must be a number"})
		return
	}

	record, err := pc.repo.FromSnapshotByID(id)
	if err != nil {
		pc.fail(c, err)
		return
	}
	if record == nil {
		logger.WithComponent("prototype-controller").Debugf("get prototype %d: not in snapshot", id)
		c.JSON(http.StatusNotFound, gin.H{"error": "prototype not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Random handles GET /prototypes/random - returns a uniformly random record.
func (pc *PrototypeController) Random(c *gin.Context) {
	logger.WithComponent("prototype-controller").Debugf("GET /prototypes/random handler called")
	record := pc.repo.RandomFromSnapshot()
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot is empty"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Sample handles GET /prototypes/sample?size=n - returns n distinct random records.
func (pc *PrototypeController) Sample(c *gin.Context) {
	raw := c.DefaultQuery("size", "1")
	logger.WithComponent("prototype-controller").Debugf("GET /prototypes/sample?size=%s handler called", raw)

	size, err := strconv.Atoi(raw)
	if err != nil {
		logger.WithComponent("prototype-controller").Debugf("sample: non-numeric size %q", raw)
		c.JSON(http.StatusBadRequest, gin.H{"error": "sample size must be a number"})
		return
	}

	sample, err := pc.repo.RandomSampleFromSnapshot(size)
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// IDs handles GET /prototypes/ids - returns the ids currently in the snapshot.
func (pc *PrototypeController) IDs(c *gin.Context) {
	logger.WithComponent("prototype-controller").Debugf("GET /prototypes/ids handler called")
	c.JSON(http.StatusOK, pc.repo.IDsFromSnapshot())
}

func (pc *PrototypeController) fail(c *gin.Context, err error) {
	var fault *errs.Fault
	if errors.As(err, &fault) {
		c.JSON(statusForFault(fault), gin.H{"error": fault.Message, "fault": fault})
		return
	}
	if errdefs.IsInvalidArgument(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.WithComponent("prototype-controller").Errorf("snapshot read failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot read failed"})
}

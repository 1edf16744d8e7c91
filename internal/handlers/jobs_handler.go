package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/crem-edu/qcm-importer/internal/repositories"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/gin-gonic/gin"
)

type JobsHandler struct {
	BaseHandler
	jobs repositories.ImportJobRepository
}

func NewJobsHandler(jobs repositories.ImportJobRepository, logger utils.Logger) *JobsHandler {
	return &JobsHandler{
		BaseHandler: NewBaseHandler(logger),
		jobs:        jobs,
	}
}

// ListJobs returns the import history, newest first.
func (h *JobsHandler) ListJobs(c *gin.Context) {
	h.LogRequest(c, "Listing import jobs")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	jobs, total, err := h.jobs.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list import jobs", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Jobs retrieved", gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetJob returns one import job by ID.
func (h *JobsHandler) GetJob(c *gin.Context) {
	h.LogRequest(c, "Fetching import job")

	job, err := h.jobs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			h.RespondWithError(c, http.StatusNotFound, "Import job not found", err)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch import job", err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Job retrieved", job)
}

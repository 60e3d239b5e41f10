package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/model"
	"product-importer-backend/internal/domains/importer/service"
	"product-importer-backend/internal/shared/response"
)

type JobHandler struct {
	service *service.ImportService
}

func NewJobHandler(service *service.ImportService) *JobHandler {
	return &JobHandler{service: service}
}

// List - GET /jobs
func (h *JobHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	jobs, total, err := h.service.ListJobs(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list jobs")
		response.InternalServerError(c, "failed to list jobs")
		return
	}

	if jobs == nil {
		jobs = []*model.ImportJob{}
	}
	response.List(c, http.StatusOK, total, limit, offset, jobs)
}

// Get - GET /jobs/:job_id
func (h *JobHandler) Get(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFound) {
			response.NotFound(c, "job not found")
			return
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		response.InternalServerError(c, "failed to get job")
		return
	}

	c.JSON(http.StatusOK, job)
}

// Cancel - POST /jobs/:job_id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	jobID := c.Param("job_id")

	if err := h.service.CancelJob(c.Request.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, model.ErrJobNotFound):
			response.NotFound(c, "job not found")
		case errors.Is(err, model.ErrJobTerminal):
			response.Conflict(c, "job is already finished")
		default:
			log.Error().Err(err).Str("job_id", jobID).Msg("Failed to cancel job")
			response.InternalServerError(c, "failed to cancel job")
		}
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to reload cancelled job")
		response.Success(c, http.StatusOK, gin.H{"job_id": jobID, "status": model.StatusCancelled})
		return
	}

	c.JSON(http.StatusOK, job)
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/service"
	"product-importer-backend/internal/infrastructure/storage"
	"product-importer-backend/internal/shared/response"
)

// UploadHandler accepts CSV uploads and turns them into import jobs.
type UploadHandler struct {
	service *service.ImportService
	files   storage.FileSource
	maxSize int64
}

func NewUploadHandler(service *service.ImportService, files storage.FileSource, maxSize int64) *UploadHandler {
	return &UploadHandler{service: service, files: files, maxSize: maxSize}
}

// Upload - POST /products/import
//
// Stores the file, registers a pending job and enqueues the background
// import. Responds 202 immediately; clients follow progress via the job
// endpoints or the Redis channel.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file field in multipart form")
		return
	}

	filename := filepath.Base(fileHeader.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		response.BadRequest(c, "only .csv files are accepted")
		return
	}

	if h.maxSize > 0 && fileHeader.Size > h.maxSize {
		response.PayloadTooLarge(c, fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxSize))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to open uploaded file")
		response.InternalServerError(c, "failed to read upload")
		return
	}
	defer src.Close()

	// Unique key keeps concurrent uploads of the same filename apart.
	key := fmt.Sprintf("%s_%s", strings.ReplaceAll(uuid.NewString(), "-", ""), filename)

	if _, err := h.files.Save(c.Request.Context(), key, src, h.maxSize); err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			response.PayloadTooLarge(c, fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxSize))
			return
		}
		log.Error().Err(err).Str("filename", filename).Msg("Failed to store uploaded file")
		response.InternalServerError(c, "failed to store upload")
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), filename, key)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Failed to create import job")
		response.InternalServerError(c, "failed to create import job")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.JobID,
		"status":  job.Status,
		"task_id": job.TaskID,
	})
}

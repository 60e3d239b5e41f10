package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/domains/webhook/service"
	"product-importer-backend/internal/shared/response"
)

type WebhookHandler struct {
	service service.WebhookService
}

func NewWebhookHandler(service service.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// List - GET /webhooks
func (h *WebhookHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	webhooks, total, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list webhooks")
		response.InternalServerError(c, "failed to list webhooks")
		return
	}

	if webhooks == nil {
		webhooks = []*model.Webhook{}
	}
	response.List(c, http.StatusOK, total, limit, offset, webhooks)
}

// Create - POST /webhooks
func (h *WebhookHandler) Create(c *gin.Context) {
	var req model.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid webhook", err)
		return
	}

	w, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create webhook")
		response.InternalServerError(c, "failed to create webhook")
		return
	}

	c.JSON(http.StatusCreated, w)
}

// Get - GET /webhooks/:id
func (h *WebhookHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid webhook id")
		return
	}

	w, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrWebhookNotFound) {
			response.NotFound(c, "webhook not found")
			return
		}
		log.Error().Err(err).Int64("webhook_id", id).Msg("Failed to get webhook")
		response.InternalServerError(c, "failed to get webhook")
		return
	}

	c.JSON(http.StatusOK, w)
}

// Update - PUT /webhooks/:id
func (h *WebhookHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid webhook id")
		return
	}

	var req model.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid webhook", err)
		return
	}

	w, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, model.ErrWebhookNotFound) {
			response.NotFound(c, "webhook not found")
			return
		}
		log.Error().Err(err).Int64("webhook_id", id).Msg("Failed to update webhook")
		response.InternalServerError(c, "failed to update webhook")
		return
	}

	c.JSON(http.StatusOK, w)
}

// Delete - DELETE /webhooks/:id
func (h *WebhookHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid webhook id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrWebhookNotFound) {
			response.NotFound(c, "webhook not found")
			return
		}
		log.Error().Err(err).Int64("webhook_id", id).Msg("Failed to delete webhook")
		response.InternalServerError(c, "failed to delete webhook")
		return
	}

	c.Status(http.StatusNoContent)
}

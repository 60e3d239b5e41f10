package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/product/model"
	"product-importer-backend/internal/domains/product/service"
	"product-importer-backend/internal/shared/response"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(service service.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List - GET /products
// Supports pagination plus partial-match filters on sku/name/description.
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := model.ListProductsFilter{
		SKU:         c.Query("sku"),
		Name:        c.Query("name"),
		Description: c.Query("description"),
		Limit:       limit,
		Offset:      offset,
	}
	filter.Normalize()

	products, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		response.InternalServerError(c, "failed to list products")
		return
	}

	if products == nil {
		products = []*model.Product{}
	}
	response.List(c, http.StatusOK, total, filter.Limit, filter.Offset, products)
}

// Create - POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid product", err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrSKUConflict) {
			response.Conflict(c, "product with SKU '"+req.SKU+"' already exists")
			return
		}
		log.Error().Err(err).Str("sku", req.SKU).Msg("Failed to create product")
		response.InternalServerError(c, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, p)
}

// Get - GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to get product")
		response.InternalServerError(c, "failed to get product")
		return
	}

	c.JSON(http.StatusOK, p)
}

// Update - PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid product", err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to update product")
		response.InternalServerError(c, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, p)
}

// Delete - DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			response.NotFound(c, "product not found")
			return
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to delete product")
		response.InternalServerError(c, "failed to delete product")
		return
	}

	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/costing"
)

// CostHandler manages cost items and product recipes.
type CostHandler struct {
	svc    *costing.Service
	logger *zap.Logger
}

// NewCostHandler constructs the costing HTTP adapter.
func NewCostHandler(svc *costing.Service, logger *zap.Logger) *CostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostHandler{svc: svc, logger: logger}
}

type priceRequest struct {
	PricePerUnit *float64 `json:"price_per_unit" binding:"required"`
}

type recipeRequest struct {
	Costs []models.ProductCostLine `json:"costs"`
}

// List returns every cost item.
func (h *CostHandler) List(c *gin.Context) {
	costs, err := h.svc.ListCosts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"costs": costs})
}

// Create adds a cost item.
func (h *CostHandler) Create(c *gin.Context) {
	var req costing.CreateCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	cost, err := h.svc.CreateCost(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cost)
}

// Delete removes a cost item no recipe uses.
func (h *CostHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteCost(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdatePrice changes a cost item price and refreshes dependent products.
func (h *CostHandler) UpdatePrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	updated, err := h.svc.UpdateCostPrice(c.Request.Context(), c.Param("id"), *req.PricePerUnit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if updated == nil {
		updated = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"cost_id": c.Param("id"), "products_updated": updated})
}

// SetProductCosts replaces a product recipe.
func (h *CostHandler) SetProductCosts(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	fixed, err := h.svc.SetProductCosts(c.Request.Context(), c.Param("id"), req.Costs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id"), "fixed_cost": fixed})
}

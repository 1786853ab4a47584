package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/aggregation"
	"github.com/mamadbah2/bakery/internal/service/production"
)

// ProductionHandler exposes producer-day records and their aggregates.
type ProductionHandler struct {
	svc        *production.Service
	editor     *production.Editor
	selections *production.SelectionRegistry
	aggregates *aggregation.Service
	logger     *zap.Logger
}

// NewProductionHandler constructs the production HTTP adapter.
func NewProductionHandler(svc *production.Service, editor *production.Editor, selections *production.SelectionRegistry, aggregates *aggregation.Service, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{
		svc:        svc,
		editor:     editor,
		selections: selections,
		aggregates: aggregates,
		logger:     logger,
	}
}

type dayRequest struct {
	Products models.ProducerDay `json:"products" binding:"required"`
}

type dayResponse struct {
	Records   models.ProducerDay  `json:"records"`
	Aggregate models.DayAggregate `json:"aggregate"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
	Draft    bool `json:"draft"`
}

type completedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// ListDate returns one aggregate per producer for the date.
func (h *ProductionHandler) ListDate(c *gin.Context) {
	aggs, err := h.aggregates.DayAggregates(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "aggregates": aggs})
}

// Stats returns per-product totals for the date.
func (h *ProductionHandler) Stats(c *gin.Context) {
	stats, err := h.aggregates.ProductStats(c.Request.Context(), c.Param("date"), c.Query("producer"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "products": stats})
}

// GetDay returns a producer-day with its aggregate.
func (h *ProductionHandler) GetDay(c *gin.Context) {
	ctx := c.Request.Context()
	date, producerID := c.Param("date"), c.Param("producer")

	day, err := h.svc.GetDay(ctx, date, producerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	agg, err := h.aggregates.AggregateRecords(ctx, date, producerID, day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse{Records: day, Aggregate: agg})
}

// CreateDay stores a new producer-day.
func (h *ProductionHandler) CreateDay(c *gin.Context) {
	var req dayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	agg, err := h.svc.CreateDay(c.Request.Context(), c.Param("date"), c.Param("producer"), req.Products)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.selections.Forget(c.Param("date"), c.Param("producer"))
	c.JSON(http.StatusCreated, dayResponse{Records: agg.Records, Aggregate: agg})
}

// ReplaceDay overwrites an existing producer-day.
func (h *ProductionHandler) ReplaceDay(c *gin.Context) {
	var req dayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	agg, err := h.svc.ReplaceDay(c.Request.Context(), c.Param("date"), c.Param("producer"), req.Products)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.selections.Forget(c.Param("date"), c.Param("producer"))
	c.JSON(http.StatusOK, dayResponse{Records: agg.Records, Aggregate: agg})
}

// DeleteDay removes a producer-day.
func (h *ProductionHandler) DeleteDay(c *gin.Context) {
	if err := h.svc.DeleteDay(c.Request.Context(), c.Param("date"), c.Param("producer")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.selections.Forget(c.Param("date"), c.Param("producer"))
	c.Status(http.StatusNoContent)
}

// SetQuantity saves a quantity now, or stages it for autosave when draft is set.
func (h *ProductionHandler) SetQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	date, producerID, productID := c.Param("date"), c.Param("producer"), c.Param("product")

	if req.Draft {
		if err := h.editor.StageQuantity(date, producerID, productID, *req.Quantity); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"product_id": productID, "quantity": *req.Quantity, "pending": true})
		return
	}

	record, err := h.editor.CommitQuantity(c.Request.Context(), date, producerID, productID, *req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "record": record})
}

// SetCompleted marks a product batch as finished or not.
func (h *ProductionHandler) SetCompleted(c *gin.Context) {
	var req completedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	record, err := h.svc.SetCompleted(c.Request.Context(), c.Param("date"), c.Param("producer"), c.Param("product"), *req.Completed)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product"), "record": record})
}

// ToggleSelected flips a product in or out of the day's plan.
func (h *ProductionHandler) ToggleSelected(c *gin.Context) {
	selected, state, err := h.selections.Toggle(c.Request.Context(), c.Param("date"), c.Param("producer"), c.Param("product"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product"), "selected": selected, "state": state})
}

// Costs returns the cost-mode summary of a producer-day.
func (h *ProductionHandler) Costs(c *gin.Context) {
	date, producerID := c.Param("date"), c.Param("producer")
	if err := models.ValidateDate(date); err != nil {
		respondError(c, h.logger, err)
		return
	}

	summary, err := h.aggregates.CostSummary(c.Request.Context(), date, producerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

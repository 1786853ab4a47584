package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
	"github.com/mamadbah2/bakery/internal/service/forecast"
)

// ForecastHandler serves quantity suggestions.
type ForecastHandler struct {
	svc     *forecast.Service
	catalog repository.Catalog
	logger  *zap.Logger
}

// NewForecastHandler constructs the forecast HTTP adapter.
func NewForecastHandler(svc *forecast.Service, catalog repository.Catalog, logger *zap.Logger) *ForecastHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastHandler{svc: svc, catalog: catalog, logger: logger}
}

// SuggestAll returns suggestions for the listed products, or for every
// catalog product of the producer when none are listed.
func (h *ForecastHandler) SuggestAll(c *gin.Context) {
	rainy, err := rainyParam(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	producerID := c.Param("producer")
	productIDs := splitIDs(c.Query("products"))
	if len(productIDs) == 0 {
		productIDs, err = h.producerProducts(c, producerID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if len(productIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"suggestions": []forecast.Suggestion{}})
			return
		}
	}

	suggestions, err := h.svc.SuggestAll(c.Request.Context(), producerID, c.Param("date"), productIDs, rainy)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Suggest returns the suggestion for one product.
func (h *ForecastHandler) Suggest(c *gin.Context) {
	rainy, err := rainyParam(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	suggestion, err := h.svc.Suggest(c.Request.Context(), c.Param("product"), c.Param("producer"), c.Param("date"), rainy)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *ForecastHandler) producerProducts(c *gin.Context, producerID string) ([]string, error) {
	products, err := h.catalog.Products(c.Request.Context())
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, p := range products {
		if p.ProducerID == producerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// rainyParam reads the optional rainy override; absent means ask the weather provider.
func rainyParam(c *gin.Context) (*bool, error) {
	raw, ok := c.GetQuery("rainy")
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, models.Invalid("rainy", "rainy must be true or false")
	}
	return &v, nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

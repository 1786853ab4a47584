package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP adapters served by the engine.
type Handlers struct {
	Production *handlers.ProductionHandler
	Forecast   *handlers.ForecastHandler
	Costs      *handlers.CostHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	productions := r.Group("/productions/:date")
	productions.GET("", h.Production.ListDate)
	productions.GET("/stats", h.Production.Stats)
	productions.GET("/:producer", h.Production.GetDay)
	productions.POST("/:producer", h.Production.CreateDay)
	productions.PUT("/:producer", h.Production.ReplaceDay)
	productions.DELETE("/:producer", h.Production.DeleteDay)
	productions.GET("/:producer/costs", h.Production.Costs)
	productions.PUT("/:producer/products/:product/quantity", h.Production.SetQuantity)
	productions.PUT("/:producer/products/:product/completed", h.Production.SetCompleted)
	productions.POST("/:producer/products/:product/toggle", h.Production.ToggleSelected)

	r.GET("/forecast/:producer/:date", h.Forecast.SuggestAll)
	r.GET("/forecast/:producer/:date/:product", h.Forecast.Suggest)

	r.GET("/costs", h.Costs.List)
	r.POST("/costs", h.Costs.Create)
	r.DELETE("/costs/:id", h.Costs.Delete)
	r.PUT("/costs/:id/price", h.Costs.UpdatePrice)
	r.PUT("/products/:id/costs", h.Costs.SetProductCosts)

	logger.Info("router initialized")
	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

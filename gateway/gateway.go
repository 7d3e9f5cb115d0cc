package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/sweetshop/pkg/cache"
	"github.com/example/sweetshop/pkg/config"
	"github.com/example/sweetshop/pkg/store"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Gateway struct {
	config *config.Config
	store  *store.Store
	cache  *cache.SummaryCache
	logger *zap.Logger
	router *gin.Engine
}

func NewGateway(cfg *config.Config, logger *zap.Logger, st *store.Store, sc *cache.SummaryCache) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config: cfg,
		store:  st,
		cache:  sc,
		logger: logger,
		router: router,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": g.store.Available(),
		})
	})

	// API v1 routes
	v1 := g.router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", g.placeOrder)
			orders.GET("", g.listOrders)
			orders.GET("/summary", g.dailySummary)
			orders.PUT("/:id/status", g.updateOrderStatus)
			orders.PATCH("/:id", g.editOrder)
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router exposes the underlying engine, mainly for tests.
func (g *Gateway) Router() *gin.Engine {
	return g.router
}

func (g *Gateway) placeOrder(c *gin.Context) {
	var req map[string]interface{}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := g.store.Place(c.Request.Context(), req); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
			return
		}
		g.logger.Error("Failed to place order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
		return
	}

	g.invalidateSummary(c)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
	})
}

func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.store.GetOrders(c.Request.Context())
	if err != nil {
		g.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

func (g *Gateway) dailySummary(c *gin.Context) {
	ctx := c.Request.Context()
	day := time.Now().Format("2006-01-02")

	if g.cache != nil {
		if summary, err := g.cache.Get(ctx, day); err == nil {
			c.JSON(http.StatusOK, summary)
			return
		}
	}

	summary, err := g.store.GetDailySummary(ctx)
	if err != nil {
		g.logger.Error("Failed to compute daily summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute daily summary"})
		return
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, day, summary); err != nil {
			g.logger.Warn("Failed to cache daily summary", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, summary)
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	updated, err := g.store.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
			return
		}
		g.logger.Error("Failed to update order status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order status"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	g.invalidateSummary(c)

	c.JSON(http.StatusOK, updated)
}

func (g *Gateway) editOrder(c *gin.Context) {
	id := c.Param("id")

	var req map[string]interface{}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := g.store.EditOrder(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
			return
		}
		g.logger.Error("Failed to edit order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit order"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	g.invalidateSummary(c)

	c.JSON(http.StatusOK, updated)
}

// invalidateSummary drops today's cached summary after a mutation.
func (g *Gateway) invalidateSummary(c *gin.Context) {
	if g.cache == nil {
		return
	}
	day := time.Now().Format("2006-01-02")
	if err := g.cache.Invalidate(c.Request.Context(), day); err != nil {
		g.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

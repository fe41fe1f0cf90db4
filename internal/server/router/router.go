package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/server/handlers"
	"github.com/mamadbah2/fishfarm/internal/telemetry"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP handlers. Reports and Webhook are optional.
type Handlers struct {
	Entries *handlers.EntriesHandler
	Reports *handlers.ReportsHandler
	Webhook *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, metrics *telemetry.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(metricsMiddleware(metrics))
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	if h.Entries != nil {
		api.GET("/ponds", h.Entries.ListPonds)
		api.GET("/species", h.Entries.ListSpecies)

		preview := api.Group("/preview")
		preview.POST("/stocking", h.Entries.PreviewStocking)
		preview.POST("/sampling", h.Entries.PreviewSampling)
		preview.POST("/harvest", h.Entries.PreviewHarvest)
		preview.POST("/feeding", h.Entries.PreviewFeeding)
		preview.POST("/mortality", h.Entries.PreviewMortality)
		preview.POST("/invoice-line", h.Entries.PreviewInvoiceLine)

		api.POST("/stocking", h.Entries.CreateStocking)
		api.PUT("/stocking/:id", h.Entries.UpdateStocking)
		api.DELETE("/stocking/:id", h.Entries.DeleteStocking)
		api.POST("/fish-sampling", h.Entries.CreateSampling)
		api.POST("/harvests", h.Entries.CreateHarvest)
		api.POST("/feeds", h.Entries.CreateFeed)
		api.POST("/mortality", h.Entries.CreateMortality)
		api.POST("/accounts/transfer", h.Entries.Transfer)
		api.POST("/asset-calculator/calculate", h.Entries.CalculateAssets)
	}
	if h.Reports != nil {
		api.GET("/ponds/:id/report", h.Reports.PondReport)
		api.GET("/ponds/:id/reports", h.Reports.ListSnapshots)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil), zap.Bool("reports", h.Reports != nil))
	return r
}

// requestIDMiddleware propagates the caller's request id or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func metricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

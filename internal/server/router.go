package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/catalog"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/notify"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/orders"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

var (
	errMissingOrders  = errors.New("orders dashboard dependency required")
	errMissingCatalog = errors.New("catalog dashboard dependency required")
	errMissingPanel   = errors.New("notification panel dependency required")
	errMissingClient  = errors.New("notification client dependency required")
)

// Dependencies wires the dashboards into the HTTP layer.
type Dependencies struct {
	Orders       *orders.Dashboard
	Catalog      *catalog.Dashboard
	Panel        *notify.Panel
	NotifyClient *notify.Client
	ImageDir     string
	ImageBaseURL string
	Logger       *zap.Logger
}

// NewHTTPHandler builds the admin API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Orders == nil {
		return nil, errMissingOrders
	}
	if deps.Catalog == nil {
		return nil, errMissingCatalog
	}
	if deps.Panel == nil {
		return nil, errMissingPanel
	}
	if deps.NotifyClient == nil {
		return nil, errMissingClient
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		orders:  deps.Orders,
		catalog: deps.Catalog,
		panel:   deps.Panel,
		client:  deps.NotifyClient,
		logger:  logger,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.ImageDir != "" && deps.ImageBaseURL != "" {
		router.Static(deps.ImageBaseURL, deps.ImageDir)
	}

	api := router.Group("/api")

	api.GET("/orders", handler.handleListOrders)
	api.POST("/orders/refresh", handler.handleRefreshOrders)
	api.POST("/orders/:id/status", handler.handleUpdateOrderStatus)

	api.GET("/products", handler.handleListProducts)
	api.POST("/products", handler.handleCreateProduct)
	api.POST("/products/refresh", handler.handleRefreshProducts)
	api.PATCH("/products/:id", handler.handleEditProduct)
	api.DELETE("/products/:id", handler.handleDeleteProduct)
	api.POST("/products/:id/stock-toggle", handler.handleToggleStock)
	api.POST("/products/:id/featured-toggle", handler.handleToggleFeatured)
	api.POST("/products/bulk/stock", handler.handleBulkStock)
	api.POST("/products/bulk/delete", handler.handleBulkDelete)

	api.GET("/notifications/tokens", handler.handleTokens)
	api.POST("/notifications/send", handler.handleSendNotification)
	api.GET("/notifications/analytics", handler.handleAnalytics)
	api.GET("/notifications/campaigns", handler.handleCampaigns)
	api.GET("/notifications/ab-results/:campaignId", handler.handleABResults)

	api.GET("/water-reminders/status", handler.handleReminderStatus)
	api.POST("/water-reminders/start", handler.handleStartReminders)
	api.POST("/water-reminders/send-now", handler.handleSendReminderNow)

	return router, nil
}

type httpHandler struct {
	orders  *orders.Dashboard
	catalog *catalog.Dashboard
	panel   *notify.Panel
	client  *notify.Client
	logger  *zap.Logger
}

// respondError maps the error taxonomy onto status codes: validation 400,
// busy screens 409, unknown records 404, upstream failures 502, anything
// else 500.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation) || errors.Is(err, notify.ErrValidation) || errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrBusy) || errors.Is(err, orders.ErrBusy) || errors.Is(err, notify.ErrBusy) || errors.Is(err, view.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "operation_in_progress"})
	case errors.Is(err, gateway.ErrNotFound) || errors.Is(err, view.ErrRecordNotListed):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, notify.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "notification_service_unavailable"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway_error"})
	}
}

type statsPayload struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func statsFrom(summary view.Summary) statsPayload {
	return statsPayload{Counts: summary.Counts, Total: summary.Total}
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/orders"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

func (h *httpHandler) handleListOrders(c *gin.Context) {
	h.orders.SetSearch(c.Query("search"))

	if status := c.Query("status"); status != "" {
		if err := h.orders.SetStatusFilter(status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return
		}
	} else {
		_ = h.orders.SetStatusFilter(view.All)
	}

	if date := c.Query("date"); date != "" {
		if err := h.orders.SetDateFilter(view.DateBucket(date)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date_filter"})
			return
		}
	} else {
		_ = h.orders.SetDateFilter(view.BucketAll)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": h.orders.Visible(),
		"stats":  statsFrom(h.orders.Stats()),
	})
}

func (h *httpHandler) handleRefreshOrders(c *gin.Context) {
	if err := h.orders.Refresh(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": h.orders.Visible(),
		"stats":  statsFrom(h.orders.Stats()),
	})
}

type updateStatusPayload struct {
	Status string `json:"status"`
}

func (h *httpHandler) handleUpdateOrderStatus(c *gin.Context) {
	var payload updateStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Status) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	orderID := c.Param("id")
	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, orders.Status(payload.Status)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": statsFrom(h.orders.Stats()),
	})
}

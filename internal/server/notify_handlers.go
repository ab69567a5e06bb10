package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/notify"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

func (h *httpHandler) handleTokens(c *gin.Context) {
	if c.Query("refresh") == "true" || len(h.panel.Tokens()) == 0 {
		if err := h.panel.RefreshTokens(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return
		}
	}

	if platform := c.Query("platform"); platform != "" {
		h.panel.SetPlatformFilter(platform)
	} else {
		h.panel.SetPlatformFilter(view.All)
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens":   h.panel.Tokens(),
		"filtered": h.panel.FilteredTokens(),
	})
}

type sendNotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Data  string `json:"data"` // raw JSON object, optional
}

func (h *httpHandler) handleSendNotification(c *gin.Context) {
	var payload sendNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.panel.Send(c.Request.Context(), payload.Title, payload.Body, payload.Data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": result.Sent, "failed": result.Failed})
}

func (h *httpHandler) handleAnalytics(c *gin.Context) {
	timeframe := notify.Timeframe(c.DefaultQuery("timeframe", string(notify.TimeframeWeek)))
	if !timeframe.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_timeframe"})
		return
	}

	report, err := h.client.Analytics(c.Request.Context(), timeframe)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":       report.Summary,
		"notifications": report.Notifications,
		"chart":         notify.ChartSeries(report),
	})
}

func (h *httpHandler) handleCampaigns(c *gin.Context) {
	campaigns, err := h.client.Campaigns(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (h *httpHandler) handleABResults(c *gin.Context) {
	result, err := h.client.ABTestResults(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notify.Compare(result))
}

func (h *httpHandler) handleReminderStatus(c *gin.Context) {
	status, err := h.client.WaterReminderStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := gin.H{"active": status.Active, "jobs": status.Jobs}
	if next, ok := status.NextReminder(); ok {
		response["nextReminder"] = next
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleStartReminders(c *gin.Context) {
	start, err := h.client.StartWaterReminders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"nextReminder": start.NextReminder,
		"schedule":     start.Schedule,
	})
}

func (h *httpHandler) handleSendReminderNow(c *gin.Context) {
	result, err := h.client.SendWaterReminderNow(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"successful": result.Successful,
		"failed":     result.Failed,
	})
}

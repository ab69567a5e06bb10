package server

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/catalog"
	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

func (h *httpHandler) handleListProducts(c *gin.Context) {
	h.catalog.SetSearch(c.Query("search"))

	if category := c.Query("category"); category != "" {
		h.catalog.SetCategory(category)
	} else {
		h.catalog.SetCategory(view.All)
	}

	if field := c.Query("sortBy"); field != "" {
		descending := c.Query("order") == "desc"
		if h.catalog.SetSort(field, descending) {
			if err := h.catalog.Refresh(c.Request.Context()); err != nil {
				h.respondError(c, err)
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   h.catalog.Visible(),
		"categories": h.catalog.Categories(),
		"stats":      statsFrom(h.catalog.Stats()),
	})
}

func (h *httpHandler) handleRefreshProducts(c *gin.Context) {
	if err := h.catalog.Refresh(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   h.catalog.Visible(),
		"categories": h.catalog.Categories(),
		"stats":      statsFrom(h.catalog.Stats()),
	})
}

type createProductPayload struct {
	Name           string                  `json:"name"`
	Price          string                  `json:"price"`
	DiscountPrice  string                  `json:"discountPrice"`
	Weight         string                  `json:"weight"`
	DeliveryTime   string                  `json:"deliveryTime"`
	Description    string                  `json:"description"`
	Category       string                  `json:"category"`
	Tags           []string                `json:"tags"`
	InStock        bool                    `json:"inStock"`
	IsPopular      bool                    `json:"isPopular"`
	IsFeatured     bool                    `json:"isFeatured"`
	NutritionFacts []catalog.NutritionFact `json:"nutritionFacts"`
	ImageName      string                  `json:"imageName"`
	ImageData      string                  `json:"imageData"` // base64
}

func (h *httpHandler) handleCreateProduct(c *gin.Context) {
	var payload createProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(payload.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_image_data"})
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), catalog.CreateInput{
		Name:           payload.Name,
		Price:          payload.Price,
		DiscountPrice:  payload.DiscountPrice,
		Weight:         payload.Weight,
		DeliveryTime:   payload.DeliveryTime,
		Description:    payload.Description,
		Category:       payload.Category,
		Tags:           payload.Tags,
		InStock:        payload.InStock,
		IsPopular:      payload.IsPopular,
		IsFeatured:     payload.IsFeatured,
		NutritionFacts: payload.NutritionFacts,
		ImageData:      imageData,
		ImageName:      payload.ImageName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
		"stats":   statsFrom(h.catalog.Stats()),
	})
}

type editProductPayload struct {
	Name          string `json:"name"`
	Price         string `json:"price"`
	DiscountPrice string `json:"discountPrice"`
	InStock       bool   `json:"inStock"`
	IsFeatured    bool   `json:"isFeatured"`
}

func (h *httpHandler) handleEditProduct(c *gin.Context) {
	var payload editProductPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.catalog.SaveEdit(c.Request.Context(), c.Param("id"), catalog.Edit{
		Name:          payload.Name,
		Price:         payload.Price,
		DiscountPrice: payload.DiscountPrice,
		InStock:       payload.InStock,
		IsFeatured:    payload.IsFeatured,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": statsFrom(h.catalog.Stats())})
}

func (h *httpHandler) handleDeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": statsFrom(h.catalog.Stats())})
}

func (h *httpHandler) handleToggleStock(c *gin.Context) {
	if err := h.catalog.ToggleStock(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": statsFrom(h.catalog.Stats())})
}

func (h *httpHandler) handleToggleFeatured(c *gin.Context) {
	if err := h.catalog.ToggleFeatured(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": statsFrom(h.catalog.Stats())})
}

type bulkStockPayload struct {
	IDs     []string `json:"ids"`
	InStock bool     `json:"inStock"`
}

func (h *httpHandler) handleBulkStock(c *gin.Context) {
	var payload bulkStockPayload
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.catalog.BulkSetStock(c.Request.Context(), payload.IDs, payload.InStock)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"stats":     statsFrom(h.catalog.Stats()),
	})
}

type bulkDeletePayload struct {
	IDs []string `json:"ids"`
}

func (h *httpHandler) handleBulkDelete(c *gin.Context) {
	var payload bulkDeletePayload
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.catalog.DeleteBulk(c.Request.Context(), payload.IDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"stats":     statsFrom(h.catalog.Stats()),
	})
}

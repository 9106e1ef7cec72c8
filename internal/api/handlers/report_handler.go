// internal/api/handlers/report_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/service"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) GetGlobalKPIs(c *gin.Context) {
	kpis, err := h.service.GlobalKPIs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch global kpis", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, kpis)
}

func (h *ReportHandler) GetSKUs(c *gin.Context) {
	skus, err := h.service.GetSKUs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch skus", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, skus)
}

func (h *ReportHandler) GetHistory(c *gin.Context) {
	sku := c.Param("sku")

	points, err := h.service.GetHistory(c.Request.Context(), sku)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history", "details": err.Error()})
		return
	}
	if len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "SKU sin histórico"})
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *ReportHandler) GetForecast(c *gin.Context) {
	sku := c.Param("sku")

	points, err := h.service.GetForecast(c.Request.Context(), sku)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast", "details": err.Error()})
		return
	}
	if len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "SKU sin forecast"})
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *ReportHandler) GetWindowActuals(c *gin.Context) {
	sku := c.Param("sku")

	points, err := h.service.GetWindowActuals(c.Request.Context(), sku)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch window actuals", "details": err.Error()})
		return
	}
	if points == nil {
		// empty window is a valid answer, not a 404
		points = []domain.MovementPoint{}
	}

	c.JSON(http.StatusOK, points)
}

func (h *ReportHandler) ForecastCompare(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	if sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku query parameter is required"})
		return
	}

	compare, err := h.service.ForecastCompare(c.Request.Context(), sku)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecast compare", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, compare)
}

func (h *ReportHandler) Interannual(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	if sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku query parameter is required"})
		return
	}

	totals, err := h.service.Interannual(c.Request.Context(), sku)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch interannual comparison", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, totals)
}

func (h *ReportHandler) TopSKUsByError(c *gin.Context) {
	limit := parseLimit(c, 10)

	results, err := h.service.TopSKUsByError(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch top error skus", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *ReportHandler) TopSKUsByRotation(c *gin.Context) {
	limit := parseLimit(c, 10)

	results, err := h.service.TopSKUsByRotation(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch top rotation skus", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}

	return limit
}

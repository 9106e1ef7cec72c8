// internal/api/handlers/replenishment_handler.go
package handlers

import (
	"net/http"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	defaultReplenishmentLimit = 50
	defaultAlertLimit         = 10
)

type ReplenishmentHandler struct {
	service *service.ReplenishmentService
}

func NewReplenishmentHandler(service *service.ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service}
}

func (h *ReplenishmentHandler) ReplenishmentAll(c *gin.Context) {
	limit := parseLimit(c, defaultReplenishmentLimit)

	records, err := h.service.ReplenishmentAll(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute replenishment", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *ReplenishmentHandler) AlertsReorder(c *gin.Context) {
	limit := parseLimit(c, defaultAlertLimit)

	alerts, err := h.service.AlertsReorder(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute reorder alerts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (h *ReplenishmentHandler) PortfolioKPIs(c *gin.Context) {
	kpis, err := h.service.PortfolioKPIs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute portfolio kpis", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, kpis)
}

func (h *ReplenishmentHandler) FamilyCoverage(c *gin.Context) {
	coverage, err := h.service.FamilyCoverage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute family coverage", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, coverage)
}

// InvalidateCaches resets the simulation memos and reloads the product
// catalog, forcing subsequent requests onto the current data snapshot.
func (h *ReplenishmentHandler) InvalidateCaches(c *gin.Context) {
	if err := h.service.InvalidateCaches(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate caches", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

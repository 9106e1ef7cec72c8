// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/api/handlers"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/api/middleware"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Report        *service.ReportService
	Replenishment *service.ReplenishmentService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://127.0.0.1:5500", "http://localhost:5500"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")

	if services != nil {
		if services.Report != nil {
			reportHandler := handlers.NewReportHandler(services.Report)

			apiGroup.GET("/kpis/global", reportHandler.GetGlobalKPIs)
			apiGroup.GET("/skus", reportHandler.GetSKUs)
			apiGroup.GET("/history/:sku", reportHandler.GetHistory)
			apiGroup.GET("/forecast/:sku", reportHandler.GetForecast)
			apiGroup.GET("/real/sku/:sku", reportHandler.GetWindowActuals)
			apiGroup.GET("/forecast_compare", reportHandler.ForecastCompare)
			apiGroup.GET("/interannual", reportHandler.Interannual)

			topGroup := apiGroup.Group("/top_skus")
			{
				topGroup.GET("/error", reportHandler.TopSKUsByError)
				topGroup.GET("/rotation", reportHandler.TopSKUsByRotation)
			}
		}

		if services.Replenishment != nil {
			replenishmentHandler := handlers.NewReplenishmentHandler(services.Replenishment)

			apiGroup.GET("/replenishment/all", replenishmentHandler.ReplenishmentAll)
			apiGroup.GET("/alerts/reorder", replenishmentHandler.AlertsReorder)
			apiGroup.GET("/kpis/portfolio", replenishmentHandler.PortfolioKPIs)
			apiGroup.GET("/family_coverage", replenishmentHandler.FamilyCoverage)

			adminGroup := apiGroup.Group("/admin")
			{
				adminGroup.POST("/cache/invalidate", replenishmentHandler.InvalidateCaches)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"settleline.backend/internal/interfaces/http/handlers"
	"settleline.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	settlementHandler *handlers.SettlementHandler
	vendorHandler     *handlers.VendorHandler
	webhookHandler    *handlers.WebhookHandler
	actorMiddleware   gin.HandlerFunc
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "settleline-backend",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Event feed webhooks (internal, called by platform services)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/orders", d.webhookHandler.IngestOrder)
			webhooks.POST("/disputes", d.webhookHandler.IngestDispute)
			webhooks.POST("/payouts", d.webhookHandler.PayoutCallback)
		}

		// Settlement routes (read for dashboards, overrides for admins)
		settlements := v1.Group("/settlements")
		{
			settlements.GET("", d.settlementHandler.ListSettlements)
			settlements.GET("/export", d.settlementHandler.ExportSettlements)
			settlements.GET("/:id", d.settlementHandler.GetSettlement)

			overrides := settlements.Group("")
			overrides.Use(d.actorMiddleware, middleware.IdempotencyMiddleware())
			{
				overrides.POST("/:id/approve", d.settlementHandler.ApproveSettlement)
				overrides.POST("/:id/hold", d.settlementHandler.HoldSettlement)
				overrides.POST("/:id/reject", d.settlementHandler.RejectSettlement)
				overrides.POST("/:id/retry", d.settlementHandler.RetrySettlement)
			}
		}

		// Vendor routes (admin)
		vendors := v1.Group("/vendors")
		{
			vendors.GET("", d.vendorHandler.ListVendors)
			vendors.GET("/:id", d.vendorHandler.GetVendor)

			admin := vendors.Group("")
			admin.Use(d.actorMiddleware, middleware.IdempotencyMiddleware())
			{
				admin.POST("", d.vendorHandler.CreateVendor)
				admin.PUT("/:id/overrides", d.vendorHandler.SetCommissionOverride)
				admin.PUT("/:id/fraud-flag", d.vendorHandler.SetFraudFlag)
			}
		}
	}
}

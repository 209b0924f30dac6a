package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/api"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/audit"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/notify"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// QueueStats reports current redis queue depths; it also refreshes the
// corresponding gauges as a side effect.
func QueueStats(auditSvc *audit.Service, notifySvc *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"audit_events":  auditSvc.QueueLength(ctx),
			"notifications": notifySvc.QueueLength(ctx),
		})
	}
}

func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

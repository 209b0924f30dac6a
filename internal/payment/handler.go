package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Callback accepts both the gateway webhook and the client-submitted
// confirmation; they carry the same triple and converge on the same
// idempotent path.
func (h *Handler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.service.HandleCallback(
		c.Request.Context(),
		req.GatewayOrderID,
		req.GatewayPaymentID,
		req.GatewaySignature,
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		case errors.Is(err, plan.ErrUnsupportedDurationUnit):
			logger.Errorf("Plan with unsupported duration unit on order %s", req.GatewayOrderID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		default:
			logger.Errorf("Failed to process callback for order %s: %v", req.GatewayOrderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

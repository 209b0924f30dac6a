package subscription

import (
	"errors"
	"net/http"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/auth"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gateway"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gym"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/plan"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	repo    Repository
}

func NewHandler(service Service, repo Repository) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
	}
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, req.PlanID, req.GymID)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		case errors.Is(err, gym.ErrGymNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "gym not found"})
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, gateway.ErrGatewayUnavailable), errors.Is(err, gateway.ErrOrderCreateFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, try again later"})
		default:
			logger.Errorf("Failed to create subscription for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subscription"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListMy(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subs, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subs)
}

// VerifyAccessCode lets gym staff confirm a member's subscription in person.
func (h *Handler) VerifyAccessCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access code required"})
		return
	}

	sub, err := h.repo.GetByAccessCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up access code"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

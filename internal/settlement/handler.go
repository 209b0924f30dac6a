package settlement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/auth"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/gym"
	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
)

type Handler struct {
	service Service
	gymRepo gym.Repository
}

func NewHandler(service Service, gymRepo gym.Repository) *Handler {
	return &Handler{
		service: service,
		gymRepo: gymRepo,
	}
}

// requireGymAccess resolves the caller and enforces scoping: admins touch any
// gym, owners only their own. Returns the caller id and whether to continue.
func (h *Handler) requireGymAccess(c *gin.Context, gymID int) (int, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}

	role, _ := auth.GetUserRole(c)
	if role == auth.RoleAdmin {
		return userID, true
	}

	owns, err := h.gymRepo.OwnsGym(c.Request.Context(), userID, gymID)
	if err != nil {
		logger.Errorf("Failed ownership check for user %d gym %d: %v", userID, gymID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify gym access"})
		return 0, false
	}
	if !owns {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your gym"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) Create(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gym id"})
		return
	}

	userID, ok := h.requireGymAccess(c, gymID)
	if !ok {
		return
	}

	settlement, err := h.service.Create(c.Request.Context(), gymID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gym.ErrGymNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "gym not found"})
		case errors.Is(err, ErrNoUnsettledPayments):
			c.JSON(http.StatusConflict, gin.H{"error": "no unsettled payments for gym"})
		default:
			logger.Errorf("Failed to create settlement for gym %d: %v", gymID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create settlement"})
		}
		return
	}

	c.JSON(http.StatusCreated, settlement)
}

func (h *Handler) GetUnsettled(c *gin.Context) {
	gymID, err := strconv.Atoi(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gym id"})
		return
	}

	if _, ok := h.requireGymAccess(c, gymID); !ok {
		return
	}

	summary, err := h.service.GetUnsettledAmount(c.Request.Context(), gymID)
	if err != nil {
		if errors.Is(err, gym.ErrGymNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gym not found"})
			return
		}
		logger.Errorf("Failed to compute unsettled amount for gym %d: %v", gymID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute unsettled amount"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Process is admin-only (enforced at the router); the payout reference comes
// from the operator running the bank transfer.
func (h *Handler) Process(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settlement id"})
		return
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settlement, err := h.service.Process(c.Request.Context(), id, req.TransactionID, req.Notes, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
		case errors.Is(err, ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "settlement already processed"})
		default:
			logger.Errorf("Failed to process settlement %d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process settlement"})
		}
		return
	}

	c.JSON(http.StatusOK, settlement)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gymID := 0
	if raw := c.Query("gym_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gym_id"})
			return
		}
		gymID = parsed
	}

	status := Status(c.Query("status"))
	if status != "" && status != StatusPending && status != StatusProcessed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	role, _ := auth.GetUserRole(c)
	if role != auth.RoleAdmin {
		// owners must name one of their gyms; no cross-gym listing
		if gymID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gym_id is required"})
			return
		}
		owns, err := h.gymRepo.OwnsGym(c.Request.Context(), userID, gymID)
		if err != nil {
			logger.Errorf("Failed ownership check for user %d gym %d: %v", userID, gymID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify gym access"})
			return
		}
		if !owns {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your gym"})
			return
		}
	}

	settlements, err := h.service.List(c.Request.Context(), gymID, status)
	if err != nil {
		logger.Errorf("Failed to list settlements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list settlements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settlements": settlements})
}

package gym

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whoabhaysharma/bmg-backend-sub000/internal/logger"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c *gin.Context) {
	gyms, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		logger.Errorf("Failed to list gyms: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list gyms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"gyms": gyms})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gym id"})
		return
	}

	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGymNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gym not found"})
			return
		}
		logger.Errorf("Failed to get gym %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get gym"})
		return
	}

	c.JSON(http.StatusOK, g)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.repo.Create(c.Request.Context(), req.Name, req.Location, req.OwnerID)
	if err != nil {
		logger.Errorf("Failed to create gym %q: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create gym"})
		return
	}

	c.JSON(http.StatusCreated, g)
}

package handler

import (
	"net/http"

	"tablero/internal/middleware"
	"tablero/internal/models"
	"tablero/internal/repository"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	repo *repository.VisitRepository
}

func NewVisitHandler(repo *repository.VisitRepository) *VisitHandler {
	return &VisitHandler{repo: repo}
}

type createVisitRequest struct {
	Page string `json:"page" binding:"required"`
}

// Create logs a page hit for the authenticated user.
func (h *VisitHandler) Create(c *gin.Context) {
	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page is required"})
		return
	}
	v := &models.Visit{
		UserID:    middleware.GetUserID(c),
		Page:      req.Page,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.repo.Create(v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record visit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

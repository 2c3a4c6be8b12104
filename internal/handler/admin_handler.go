package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tablero/internal/repository"
	"tablero/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	authSvc   *service.AuthService
	userRepo  *repository.UserRepository
	notifRepo *repository.NotificationRepository
	visitRepo *repository.VisitRepository
}

func NewAdminHandler(authSvc *service.AuthService, userRepo *repository.UserRepository, notifRepo *repository.NotificationRepository, visitRepo *repository.VisitRepository) *AdminHandler {
	return &AdminHandler{authSvc: authSvc, userRepo: userRepo, notifRepo: notifRepo, visitRepo: visitRepo}
}

// Dashboard returns the KPI counters shown on the admin landing page.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	totalUsers, _ := h.userRepo.Count()
	totalNotifications, _ := h.notifRepo.Count()
	totalViews, _ := h.notifRepo.CountViews()
	totalVisits, _ := h.visitRepo.Count()
	distinctVisitors, _ := h.visitRepo.CountDistinctUsers()
	active, err := h.notifRepo.GetActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":              totalUsers,
		"total_notifications":      totalNotifications,
		"has_active_notification":  active != nil,
		"total_notification_views": totalViews,
		"total_visits":             totalVisits,
		"distinct_visitors":        distinctVisitors,
	})
}

func (h *AdminHandler) ListVisits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	visits, err := h.visitRepo.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load visits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	users, err := h.userRepo.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, name and password are required"})
		return
	}
	u, err := h.authSvc.CreateUser(req.Username, req.Name, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidUser):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

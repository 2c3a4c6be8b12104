package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tablero/internal/middleware"
	"tablero/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type createNotificationRequest struct {
	Message string `json:"message" binding:"required"`
}

// Create publishes a new broadcast. Admin only; the previous active
// broadcast (if any) is retired in the same transaction.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	n, err := h.svc.Create(req.Message, middleware.GetUserID(c), middleware.GetUserName(c))
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create notification"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": n})
}

func (h *NotificationHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.svc.Deactivate(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) DeactivateAll(c *gin.Context) {
	if err := h.svc.DeactivateAll(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications deactivated"})
}

// GetActive returns the current broadcast, or null when none is active.
func (h *NotificationHandler) GetActive(c *gin.Context) {
	n, err := h.svc.Active()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load notification"})
		return
	}
	if n == nil {
		c.JSON(http.StatusOK, gin.H{"notification": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

func (h *NotificationHandler) History(c *gin.Context) {
	list, err := h.svc.History()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

type markViewedRequest struct {
	NotificationID uint `json:"notification_id" binding:"required"`
}

func (h *NotificationHandler) MarkViewed(c *gin.Context) {
	var req markViewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notification_id is required"})
		return
	}
	if err := h.svc.MarkViewed(req.NotificationID, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record view"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) HasViewed(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	viewed, err := h.svc.HasViewed(uint(id), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check view state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewed": viewed})
}

// Stats reports view totals and the viewer list for one broadcast.
func (h *NotificationHandler) Stats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	stats, err := h.svc.Stats(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

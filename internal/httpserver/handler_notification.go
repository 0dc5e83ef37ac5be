package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/model"
	"github.com/grupobacar/helpdesk/internal/service/notification"
)

type NotificationHandler struct {
	service *notification.Service
	logger  *zap.Logger
}

func NewNotificationHandler(service *notification.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *NotificationHandler) fail(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "notification not found"})
	default:
		h.logger.Error("Notification operation failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := h.service.List(c.Request.Context(), principal.UserID, limit)
	if err != nil {
		h.fail(c, err, "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifications})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	count, err := h.service.CountUnread(c.Request.Context(), principal.UserID)
	if err != nil {
		h.fail(c, err, "unread-count")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"count": count}})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid notification id"})
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), id, principal.UserID)
	if err != nil {
		h.fail(c, err, "mark-read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": n})
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not authenticated"})
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), principal.UserID)
	if err != nil {
		h.fail(c, err, "mark-all-read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"updated": count}})
}

type notifyRequest struct {
	RecipientID int                    `json:"recipient_id"`
	Message     string                 `json:"message"`
	Type        model.NotificationType `json:"type"`
	RelatedType string                 `json:"related_type"`
	RelatedID   int                    `json:"related_id"`
}

func (r *notifyRequest) related() *notification.Related {
	if r.RelatedType == "" {
		return nil
	}
	return &notification.Related{Type: r.RelatedType, ID: r.RelatedID}
}

// Notify handles POST /api/notifications (agents and admins).
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}

	n, err := h.service.Notify(c.Request.Context(), req.RecipientID, req.Message, req.Type, req.related())
	if err != nil {
		h.fail(c, err, "notify")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": n})
}

type notifyRoleRequest struct {
	Role        model.Role             `json:"role"`
	Message     string                 `json:"message"`
	Type        model.NotificationType `json:"type"`
	RelatedType string                 `json:"related_type"`
	RelatedID   int                    `json:"related_id"`
}

// NotifyRole handles POST /api/notifications/role (admins only).
func (h *NotificationHandler) NotifyRole(c *gin.Context) {
	var req notifyRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}

	var related *notification.Related
	if req.RelatedType != "" {
		related = &notification.Related{Type: req.RelatedType, ID: req.RelatedID}
	}

	created, err := h.service.NotifyRole(c.Request.Context(), req.Role, req.Message, req.Type, related)
	if err != nil {
		h.fail(c, err, "notify-role")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"created": len(created)}})
}

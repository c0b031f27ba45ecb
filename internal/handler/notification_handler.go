package handler

import (
	"net/http"

	"fleet-backend/internal/service"
	"fleet-backend/pkg/pagination"
	"fleet-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.PUT("/read-all", h.MarkAllRead)
	}
}

// ListNotifications returns notifications, newest first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        recipient  query     string  false  "Filter by recipient"
// @Param        unread     query     bool    false  "Only unread"
// @Success      200        {object}  map[string]interface{}
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.NotificationFilter{
		Recipient:  c.Query("recipient"),
		UnreadOnly: c.Query("unread") == "true",
		Page:       params.Page,
		Limit:      params.Limit,
	}

	notifications, total, err := h.notificationService.ListNotifications(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   notifications,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// UnreadCount returns the unread badge count for a recipient
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Param        recipient  query     string  true  "Recipient"
// @Success      200        {object}  response.Response
// @Router       /api/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), c.Query("recipient"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"count": count}))
}

// MarkRead marks a single notification as read
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		status := statusFromError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"read": true}))
}

// MarkAllRead marks every unread notification for a recipient as read
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Param        recipient  query     string  true  "Recipient"
// @Success      200        {object}  response.Response
// @Router       /api/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.notificationService.MarkAllRead(c.Request.Context(), c.Query("recipient"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": count}))
}

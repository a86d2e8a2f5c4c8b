package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-requisition-api/config"
	"travel-requisition-api/models"
	"travel-requisition-api/services"
)

func notificationService() *services.NotificationService {
	return services.NewNotificationService(config.DB)
}

func validRecipientRole(role string) bool {
	return models.ValidRole(role)
}

// callerMayViewRole restricts the role-scoped listings: a user sees their
// own role's feed; admins may inspect any feed.
func callerMayViewRole(c *gin.Context, role string) bool {
	current, exists := c.Get("role")
	if !exists {
		return false
	}
	callerRole := current.(string)
	return callerRole == role || callerRole == models.RoleAdmin
}

// GetNotifications lists a role's notifications, newest first. The optional
// user_name query narrows employee/manager results to the caller.
func GetNotifications(c *gin.Context) {
	role := c.Param("id")
	if !validRecipientRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	if !callerMayViewRole(c, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view notifications for another role"})
		return
	}

	userName := c.Query("user_name")
	items, err := notificationService().ListForRole(role, userName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetUnreadCount returns the unread badge count for a role.
func GetUnreadCount(c *gin.Context) {
	role := c.Param("id")
	if !validRecipientRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	if !callerMayViewRole(c, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view notifications for another role"})
		return
	}

	count, err := notificationService().CountUnread(role, c.Query("user_name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkNotificationRead marks one notification read and starts its 12-hour
// expiry window.
func MarkNotificationRead(c *gin.Context) {
	if err := notificationService().MarkRead(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification for a role.
func MarkAllNotificationsRead(c *gin.Context) {
	role := c.Param("id")
	if !validRecipientRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	if !callerMayViewRole(c, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view notifications for another role"})
		return
	}

	count, err := notificationService().MarkAllRead(role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Marked %d notifications as read", count)})
}

// DeleteNotification removes one notification explicitly.
func DeleteNotification(c *gin.Context) {
	if err := notificationService().Delete(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// CleanupNotifications triggers the expiry sweep on demand.
func CleanupNotifications(c *gin.Context) {
	removed, err := notificationService().CleanupExpired()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Cleanup completed. Removed %d expired notifications.", removed),
	})
}

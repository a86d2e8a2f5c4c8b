package models

import "time"

// Notification types, one per lifecycle event.
const (
	NotificationRequestSubmitted = "request_submitted"
	NotificationManagerAction    = "manager_action"
	NotificationAdminAction      = "admin_action"
	NotificationManagerEdit      = "manager_edit"
	NotificationPaymentCompleted = "payment_completed"
)

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// ReadExpiryWindow is how long a notification survives after being read.
const ReadExpiryWindow = 12 * time.Hour

type Notification struct {
	NotificationID   string `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	RecipientRole    string `gorm:"column:recipient_role" json:"recipient_role"`
	Message          string `gorm:"column:message" json:"message"`
	NotificationType string `gorm:"column:notification_type" json:"notification_type"`

	// Non-owning back-reference to the request plus a denormalized snapshot,
	// so readers never join back to advance_requests. The snapshot can go
	// stale if the request is later edited; acceptable because read
	// notifications live at most ReadExpiryWindow.
	RequestID    string   `gorm:"column:request_id" json:"request_id"`
	EmployeeName string   `gorm:"column:employee_name" json:"employeeName"`
	SiteCity     string   `gorm:"column:site_city" json:"siteCity"`
	Project      string   `gorm:"column:project" json:"project"`
	Advance      *float64 `gorm:"column:advance" json:"advance,omitempty"`

	FromRole string `gorm:"column:from_role" json:"from_role"`
	FromUser string `gorm:"column:from_user" json:"from_user"`
	Action   string `gorm:"column:action" json:"action"`

	Status    string     `gorm:"column:status" json:"status"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	ViewedAt  *time.Time `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

package services

import (
	"fmt"
	"strings"

	"travel-requisition-api/models"
)

// Lifecycle event kinds fed to the rules engine.
const (
	EventSubmitted        = "submitted"
	EventManagerAction    = "manager_action"
	EventAdminAction      = "admin_action"
	EventManagerEdit      = "manager_edit"
	EventPaymentCompleted = "payment_completed"
)

// Event describes one request lifecycle transition. Actor is the acting
// user's display name; ActorRole matters only for edits, where the editor may
// be a manager or an admin.
type Event struct {
	Kind      string
	RequestID string
	Action    string
	Actor     string
	ActorRole string

	EmployeeName string
	SiteCity     string
	Project      string
	Advance      float64
}

// ComputeNotifications maps one lifecycle event onto the notification drafts
// to store, one per recipient role. It is a pure function: ids, timestamps
// and the unread status are filled in by the store on create.
func ComputeNotifications(ev Event) []models.Notification {
	switch ev.Kind {
	case EventSubmitted:
		msg := fmt.Sprintf("New request submitted by %s for %s in %s", ev.EmployeeName, ev.Project, ev.SiteCity)
		return []models.Notification{
			ev.draft(models.RoleManager, msg, models.NotificationRequestSubmitted, models.RoleEmployee, ev.EmployeeName, "submitted", false),
			ev.draft(models.RoleAdmin, msg, models.NotificationRequestSubmitted, models.RoleEmployee, ev.EmployeeName, "submitted", false),
			ev.draft(models.RoleAccounts, msg, models.NotificationRequestSubmitted, models.RoleEmployee, ev.EmployeeName, "submitted", false),
		}

	case EventManagerAction:
		actionText := strings.ReplaceAll(ev.Action, "_", " ")
		ownerMsg := fmt.Sprintf("Your request for %s has been %s by Manager %s", ev.Project, actionText, ev.Actor)
		teamMsg := fmt.Sprintf("Manager %s %s the request by %s for %s", ev.Actor, actionText, ev.EmployeeName, ev.Project)
		return []models.Notification{
			ev.draft(models.RoleEmployee, ownerMsg, models.NotificationManagerAction, models.RoleManager, ev.Actor, ev.Action, false),
			ev.draft(models.RoleAdmin, teamMsg, models.NotificationManagerAction, models.RoleManager, ev.Actor, ev.Action, false),
			ev.draft(models.RoleAccounts, teamMsg, models.NotificationManagerAction, models.RoleManager, ev.Actor, ev.Action, false),
		}

	case EventAdminAction:
		actionText := strings.ReplaceAll(ev.Action, "_", " ")
		ownerMsg := fmt.Sprintf("Your request for %s has been %s by Admin %s", ev.Project, actionText, ev.Actor)
		teamMsg := fmt.Sprintf("Request by %s for %s has been %s by Admin %s", ev.EmployeeName, ev.Project, actionText, ev.Actor)
		return []models.Notification{
			ev.draft(models.RoleEmployee, ownerMsg, models.NotificationAdminAction, models.RoleAdmin, ev.Actor, ev.Action, false),
			ev.draft(models.RoleManager, teamMsg, models.NotificationAdminAction, models.RoleAdmin, ev.Actor, ev.Action, false),
			ev.draft(models.RoleAccounts, teamMsg, models.NotificationAdminAction, models.RoleAdmin, ev.Actor, ev.Action, false),
		}

	case EventManagerEdit:
		// Mid-flow edits are reported to the admin only, tagged with the
		// editor's own role (a manager or an admin may edit).
		role := ev.ActorRole
		if role == "" {
			role = models.RoleManager
		}
		msg := fmt.Sprintf("Request edited by Manager %s", ev.Actor)
		return []models.Notification{
			ev.draft(models.RoleAdmin, msg, models.NotificationManagerEdit, role, ev.Actor, "edited", false),
		}

	case EventPaymentCompleted:
		ownerMsg := fmt.Sprintf("Your request for %s has been marked as paid", ev.Project)
		teamMsg := fmt.Sprintf("Request for %s by %s has been marked as paid", ev.Project, ev.EmployeeName)
		return []models.Notification{
			ev.draft(models.RoleEmployee, ownerMsg, models.NotificationPaymentCompleted, models.RoleAccounts, ev.Actor, "paid", true),
			ev.draft(models.RoleManager, teamMsg, models.NotificationPaymentCompleted, models.RoleAccounts, ev.Actor, "paid", true),
			ev.draft(models.RoleAdmin, teamMsg, models.NotificationPaymentCompleted, models.RoleAccounts, ev.Actor, "paid", true),
		}
	}

	return nil
}

func (ev Event) draft(recipientRole, message, notifType, fromRole, fromUser, action string, withAdvance bool) models.Notification {
	n := models.Notification{
		RecipientRole:    recipientRole,
		Message:          message,
		NotificationType: notifType,
		RequestID:        ev.RequestID,
		EmployeeName:     ev.EmployeeName,
		SiteCity:         ev.SiteCity,
		Project:          ev.Project,
		FromRole:         fromRole,
		FromUser:         fromUser,
		Action:           action,
	}
	if withAdvance {
		advance := ev.Advance
		n.Advance = &advance
	}
	return n
}

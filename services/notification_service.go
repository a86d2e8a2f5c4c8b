package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"travel-requisition-api/models"
)

// NotificationService owns the notification rows: creation, role-scoped
// queries, read/unread state and the read-expiry sweep.
type NotificationService struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateAll stores the drafts produced by the rules engine. Dispatch is
// best-effort: a failed insert is logged and skipped, never surfaced, so a
// notification failure cannot undo the lifecycle write that triggered it.
// Returns how many rows were stored.
func (s *NotificationService) CreateAll(drafts []models.Notification) int {
	stored := 0
	for i := range drafts {
		n := drafts[i]
		n.NotificationID = s.newID()
		n.Status = models.NotificationUnread
		n.CreatedAt = s.now()
		if err := s.db.Create(&n).Error; err != nil {
			log.Printf("notification create failed (role=%s type=%s request=%s): %v",
				n.RecipientRole, n.NotificationType, n.RequestID, err)
			continue
		}
		stored++
	}
	return stored
}

// roleScope reproduces the per-role visibility rules:
//   - employee: rows whose snapshot employee name or sender match the user,
//     or whose message mentions the user (case-insensitive substring)
//   - manager: same matches, or any row carrying a request snapshot at all
//   - admin: everything addressed to the admin role
//   - accounts: only approved/rejected actions and manager/admin decisions
func roleScope(role, userName string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("recipient_role = ?", role)
		switch role {
		case models.RoleEmployee:
			if userName != "" {
				q = q.Where("employee_name = ? OR from_user = ? OR LOWER(message) LIKE ?",
					userName, userName, substringPattern(userName))
			}
		case models.RoleManager:
			if userName != "" {
				q = q.Where("from_user = ? OR LOWER(message) LIKE ? OR employee_name <> ''",
					userName, substringPattern(userName))
			}
		case models.RoleAccounts:
			q = q.Where("action IN ? OR notification_type IN ?",
				[]string{models.StatusApproved, models.StatusRejected},
				[]string{models.NotificationManagerAction, models.NotificationAdminAction})
		}
		return q
	}
}

func substringPattern(name string) string {
	return "%" + strings.ToLower(name) + "%"
}

// ListForRole returns the role's notifications, newest first. Expired rows
// are swept inline first so callers never see stale reads.
func (s *NotificationService) ListForRole(role, userName string) ([]models.Notification, error) {
	if _, err := s.CleanupExpired(); err != nil {
		log.Printf("inline notification cleanup failed: %v", err)
	}

	var items []models.Notification
	err := s.db.Model(&models.Notification{}).
		Scopes(roleScope(role, userName)).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// CountUnread returns the unread row count under the same role scope as
// ListForRole.
func (s *NotificationService) CountUnread(role, userName string) (int64, error) {
	if _, err := s.CleanupExpired(); err != nil {
		log.Printf("inline notification cleanup failed: %v", err)
	}

	var count int64
	err := s.db.Model(&models.Notification{}).
		Scopes(roleScope(role, userName)).
		Where("status = ?", models.NotificationUnread).
		Count(&count).Error
	return count, err
}

// MarkRead flips one notification to read and starts its expiry clock:
// expires_at is fixed at the view time plus ReadExpiryWindow.
func (s *NotificationService) MarkRead(id string) error {
	now := s.now()
	res := s.db.Model(&models.Notification{}).
		Where("notification_id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.NotificationRead,
			"viewed_at":  now,
			"expires_at": now.Add(models.ReadExpiryWindow),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

// MarkAllRead marks every unread notification for the role and returns how
// many rows changed.
func (s *NotificationService) MarkAllRead(role string) (int64, error) {
	now := s.now()
	res := s.db.Model(&models.Notification{}).
		Where("recipient_role = ? AND status = ?", role, models.NotificationUnread).
		Updates(map[string]interface{}{
			"status":     models.NotificationRead,
			"viewed_at":  now,
			"expires_at": now.Add(models.ReadExpiryWindow),
		})
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Delete(id string) error {
	res := s.db.Where("notification_id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return nil
}

// CleanupExpired deletes every read notification whose expiry has passed and
// returns the number removed. The sweep is not transactional: a mid-sweep
// failure leaves the rest for the next pass.
func (s *NotificationService) CleanupExpired() (int64, error) {
	res := s.db.Where("status = ? AND expires_at < ?", models.NotificationRead, s.now()).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

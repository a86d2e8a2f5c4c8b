package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"travel-requisition-api/models"
)

// notificationDispatcher is what the lifecycle manager needs from the
// notification side: fire-and-forget storage of the drafts for one event.
type notificationDispatcher interface {
	CreateAll(drafts []models.Notification) int
}

// RequestService owns the request lifecycle: it validates transitions,
// mutates request state and emits the matching notification event. The
// lifecycle write is the source of truth; notification storage is
// best-effort and never rolls it back.
type RequestService struct {
	db            *gorm.DB
	notifications notificationDispatcher
	now           func() time.Time
	newID         func() string
}

func NewRequestService(db *gorm.DB) *RequestService {
	return &RequestService{
		db:            db,
		notifications: NewNotificationService(db),
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

func (s *RequestService) dispatch(ev Event) {
	s.notifications.CreateAll(ComputeNotifications(ev))
}

func (s *RequestService) find(id string) (*models.TravelRequest, error) {
	var req models.TravelRequest
	if err := s.db.Where("request_id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &req, nil
}

// Submit creates a new request with both approval tracks pending and fans
// out the submission notifications.
func (s *RequestService) Submit(in SubmitInput) (*models.TravelRequest, error) {
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	req := models.TravelRequest{
		RequestID:     s.newID(),
		EmployeeName:  in.EmployeeName,
		SiteCity:      in.SiteCity,
		Project:       in.Project,
		Reason:        in.Reason,
		Duration:      in.Duration,
		Advance:       in.Advance,
		DateOfJourney: in.DateOfJourney,
		Status:        models.StatusPending,
		AdminStatus:   models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		SubmittedAt:   s.now(),
	}
	if err := s.db.Create(&req).Error; err != nil {
		return nil, err
	}

	s.dispatch(Event{
		Kind:         EventSubmitted,
		RequestID:    req.RequestID,
		EmployeeName: req.EmployeeName,
		SiteCity:     req.SiteCity,
		Project:      req.Project,
	})
	return &req, nil
}

// ApplyManagerAction sets the manager track status. Reissuing an action
// overwrites the previous one; only the latest approver is kept.
func (s *RequestService) ApplyManagerAction(id, action, actorName string) (*models.TravelRequest, error) {
	if !validAction(action) {
		return nil, fmt.Errorf("%w: invalid action %q", ErrValidation, action)
	}
	req, err := s.find(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":      action,
		"approved_by": actorName,
		"updated_at":  now,
	}
	if err := s.db.Model(req).Where("request_id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	req.Status = action
	req.ApprovedBy = &actorName
	req.UpdatedAt = &now

	s.dispatch(Event{
		Kind:         EventManagerAction,
		RequestID:    req.RequestID,
		Action:       action,
		Actor:        actorName,
		EmployeeName: req.EmployeeName,
		SiteCity:     req.SiteCity,
		Project:      req.Project,
	})
	return req, nil
}

// ApplyAdminAction sets the admin track status. Every admin action must be
// explicitly confirmed by the caller; rejections may carry a reason.
func (s *RequestService) ApplyAdminAction(id, action, actorName, rejectionReason string, confirmed bool) (*models.TravelRequest, error) {
	if !confirmed {
		return nil, fmt.Errorf("%w: confirmation required for all actions", ErrValidation)
	}
	if !validAction(action) {
		return nil, fmt.Errorf("%w: invalid action %q", ErrValidation, action)
	}
	req, err := s.find(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"admin_status":      action,
		"approved_by_admin": actorName,
		"updated_at":        now,
	}
	if action == models.StatusRejected && rejectionReason != "" {
		updates["admin_rejection_reason"] = rejectionReason
	}
	if err := s.db.Model(req).Where("request_id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	req.AdminStatus = action
	req.ApprovedByAdmin = &actorName
	req.UpdatedAt = &now

	s.dispatch(Event{
		Kind:         EventAdminAction,
		RequestID:    req.RequestID,
		Action:       action,
		Actor:        actorName,
		EmployeeName: req.EmployeeName,
		SiteCity:     req.SiteCity,
		Project:      req.Project,
	})
	return req, nil
}

// ApplyEdit applies an in-flight manager or admin edit, records the
// per-field diff on the request, and notifies the admin. All mid-flow edits
// go through the same manager_edit event, tagged with the editor's role.
func (s *RequestService) ApplyEdit(id string, in EditInput, editorName, editorRole string) (*models.TravelRequest, error) {
	req, err := s.find(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	changes := computeEditChanges(req, in)

	updates := map[string]interface{}{
		"edited_by":      editorName,
		"edit_timestamp": now,
		"updated_at":     now,
	}
	if in.Advance != nil {
		updates["advance"] = *in.Advance
		req.Advance = *in.Advance
	}
	if in.Duration != nil {
		updates["duration"] = *in.Duration
		req.Duration = *in.Duration
	}
	if in.Comment != nil {
		if editorRole == models.RoleAdmin {
			updates["admin_comment"] = *in.Comment
			req.AdminComment = in.Comment
		} else {
			updates["manager_comment"] = *in.Comment
			req.ManagerComment = in.Comment
		}
	}
	if changes != nil {
		encoded, err := json.Marshal(changes)
		if err != nil {
			return nil, err
		}
		diff := string(encoded)
		updates["edit_changes"] = diff
		req.EditChanges = &diff
	}
	if err := s.db.Model(req).Where("request_id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	req.EditedBy = &editorName
	req.EditTimestamp = &now
	req.UpdatedAt = &now

	s.dispatch(Event{
		Kind:         EventManagerEdit,
		RequestID:    req.RequestID,
		Actor:        editorName,
		ActorRole:    editorRole,
		EmployeeName: req.EmployeeName,
		SiteCity:     req.SiteCity,
		Project:      req.Project,
	})
	return req, nil
}

// MarkPaid flips the one-way payment gate. It requires the admin track to be
// approved and refuses a second payment.
func (s *RequestService) MarkPaid(id, paidBy string) (*models.TravelRequest, error) {
	req, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := canMarkPaid(req); err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"payment_status": models.PaymentPaid,
		"paid_at":        now,
		"paid_by":        paidBy,
		"updated_at":     now,
	}
	if err := s.db.Model(req).Where("request_id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	req.PaymentStatus = models.PaymentPaid
	req.PaidAt = &now
	req.PaidBy = &paidBy
	req.UpdatedAt = &now

	s.dispatch(Event{
		Kind:         EventPaymentCompleted,
		RequestID:    req.RequestID,
		Actor:        paidBy,
		EmployeeName: req.EmployeeName,
		SiteCity:     req.SiteCity,
		Project:      req.Project,
		Advance:      req.Advance,
	})
	return req, nil
}

// Delete removes a request. Only the owner may delete, and only while the
// admin track is still pending.
func (s *RequestService) Delete(id, requesterName string) error {
	req, err := s.find(id)
	if err != nil {
		return err
	}
	if err := canDelete(req, requesterName); err != nil {
		return err
	}
	return s.db.Where("request_id = ?", id).Delete(&models.TravelRequest{}).Error
}

// ListAll returns every request, newest first.
func (s *RequestService) ListAll() ([]models.TravelRequest, error) {
	var items []models.TravelRequest
	err := s.db.Order("submitted_at DESC").Find(&items).Error
	return items, err
}

// ListByEmployee returns one employee's request history, newest first.
func (s *RequestService) ListByEmployee(employeeName string) ([]models.TravelRequest, error) {
	var items []models.TravelRequest
	err := s.db.Where("employee_name = ?", employeeName).
		Order("submitted_at DESC").
		Find(&items).Error
	return items, err
}

// ApprovedForAccounts returns the requests cleared by both tracks, the only
// ones the accounts team may pay.
func (s *RequestService) ApprovedForAccounts() ([]models.TravelRequest, error) {
	var items []models.TravelRequest
	err := s.db.Where("status = ? AND admin_status = ?", models.StatusApproved, models.StatusApproved).
		Order("submitted_at DESC").
		Find(&items).Error
	return items, err
}

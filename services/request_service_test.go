package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"travel-requisition-api/models"
)

// recordingDispatcher captures draft batches instead of writing them, so
// lifecycle tests stay focused on request state.
type recordingDispatcher struct {
	batches [][]models.Notification
}

func (d *recordingDispatcher) CreateAll(drafts []models.Notification) int {
	d.batches = append(d.batches, drafts)
	return len(drafts)
}

func (d *recordingDispatcher) lastBatch(t *testing.T) []models.Notification {
	t.Helper()
	if len(d.batches) == 0 {
		t.Fatalf("no notifications dispatched")
	}
	return d.batches[len(d.batches)-1]
}

var findRequestPattern = regexp.MustCompile(`SELECT \* FROM .advance_requests. WHERE request_id = \?`)

func pendingRequestRow(id string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: findRequestPattern,
		args:    []driver.Value{id},
		columns: []string{"request_id", "employee_name", "site_city", "project", "duration", "advance", "status", "admin_status", "payment_status"},
		rows: [][]driver.Value{
			{id, "Ravi Kumar", "Pune", "Metro Line 3", int64(4), float64(12000), "pending", "pending", "unpaid"},
		},
	}
}

func newTestRequestService(t *testing.T, steps []*queryStep) (*RequestService, *recordingDispatcher, *scriptedDB, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)

	rec := &recordingDispatcher{}
	svc := NewRequestService(db)
	svc.notifications = rec
	svc.now = fixedClock(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	svc.newID = func() string { return "req-fixed" }
	return svc, rec, state, cleanup
}

func TestSubmitCreatesPendingRequestAndFansOut(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .advance_requests."),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	req, err := svc.Submit(SubmitInput{
		EmployeeName:  "Ravi Kumar",
		SiteCity:      "Pune",
		Project:       "Metro Line 3",
		Reason:        "Site inspection",
		Duration:      4,
		Advance:       12000,
		DateOfJourney: "2026-09-10",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if req.RequestID != "req-fixed" {
		t.Fatalf("unexpected request id: %s", req.RequestID)
	}
	if req.Status != models.StatusPending || req.AdminStatus != models.StatusPending {
		t.Fatalf("both tracks must start pending, got %s/%s", req.Status, req.AdminStatus)
	}
	if req.PaymentStatus != models.PaymentUnpaid {
		t.Fatalf("payment must start unpaid, got %s", req.PaymentStatus)
	}
	if req.SubmittedAt != svc.now() {
		t.Fatalf("unexpected submission time: %v", req.SubmittedAt)
	}

	drafts := rec.lastBatch(t)
	if got := recipientRoles(drafts); len(got) != 3 {
		t.Fatalf("expected 3 drafts, got %v", got)
	}
	if drafts[0].NotificationType != models.NotificationRequestSubmitted {
		t.Fatalf("unexpected notification type: %s", drafts[0].NotificationType)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestSubmitValidationFailureTouchesNothing(t *testing.T) {
	svc, rec, state, cleanup := newTestRequestService(t, nil)
	defer cleanup()

	_, err := svc.Submit(SubmitInput{EmployeeName: "Ravi Kumar"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rec.batches) != 0 {
		t.Fatalf("nothing may be dispatched on validation failure")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyManagerActionUpdatesTrackAndNotifies(t *testing.T) {
	steps := []*queryStep{
		pendingRequestRow("req-9"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .advance_requests. SET .approved_by.=\\?,.status.=\\?,.updated_at.=\\? WHERE request_id = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	req, err := svc.ApplyManagerAction("req-9", models.StatusApproved, "Meena")
	if err != nil {
		t.Fatalf("ApplyManagerAction returned error: %v", err)
	}
	if req.Status != models.StatusApproved || req.ApprovedBy == nil || *req.ApprovedBy != "Meena" {
		t.Fatalf("manager track not updated: %+v", req)
	}
	if req.AdminStatus != models.StatusPending {
		t.Fatalf("admin track must be untouched, got %s", req.AdminStatus)
	}

	drafts := rec.lastBatch(t)
	if len(drafts) != 3 || drafts[0].NotificationType != models.NotificationManagerAction {
		t.Fatalf("unexpected fan-out: %v", recipientRoles(drafts))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyManagerActionRejectsUnknownAction(t *testing.T) {
	svc, rec, state, cleanup := newTestRequestService(t, nil)
	defer cleanup()

	_, err := svc.ApplyManagerAction("req-9", "escalated", "Meena")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rec.batches) != 0 {
		t.Fatalf("nothing may be dispatched for an invalid action")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyManagerActionUnknownRequestReturnsNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: findRequestPattern,
			args:    []driver.Value{"missing"},
			columns: []string{"request_id"},
			rows:    [][]driver.Value{},
		},
	}

	svc, _, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	if _, err := svc.ApplyManagerAction("missing", models.StatusApproved, "Meena"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyAdminActionRequiresConfirmation(t *testing.T) {
	svc, rec, state, cleanup := newTestRequestService(t, nil)
	defer cleanup()

	_, err := svc.ApplyAdminAction("req-9", models.StatusApproved, "Arjun", "", false)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rec.batches) != 0 {
		t.Fatalf("nothing may be dispatched without confirmation")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyAdminActionStoresRejectionReason(t *testing.T) {
	steps := []*queryStep{
		pendingRequestRow("req-9"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .advance_requests. SET .admin_rejection_reason.=\\?,.admin_status.=\\?,.approved_by_admin.=\\?,.updated_at.=\\? WHERE request_id = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	req, err := svc.ApplyAdminAction("req-9", models.StatusRejected, "Arjun", "budget exceeded", true)
	if err != nil {
		t.Fatalf("ApplyAdminAction returned error: %v", err)
	}
	if req.AdminStatus != models.StatusRejected {
		t.Fatalf("admin track not updated: %s", req.AdminStatus)
	}

	drafts := rec.lastBatch(t)
	if len(drafts) != 3 || drafts[0].NotificationType != models.NotificationAdminAction {
		t.Fatalf("unexpected fan-out: %v", recipientRoles(drafts))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyEditRecordsDiffAndNotifiesAdmin(t *testing.T) {
	steps := []*queryStep{
		pendingRequestRow("req-9"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .advance_requests. SET .advance.=\\?,.edit_changes.=\\?,.edit_timestamp.=\\?,.edited_by.=\\?,.manager_comment.=\\?,.updated_at.=\\? WHERE request_id = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	newAdvance := 15000.0
	comment := "revised for extra night"
	req, err := svc.ApplyEdit("req-9", EditInput{Advance: &newAdvance, Comment: &comment}, "Meena", models.RoleManager)
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}
	if req.Advance != 15000 {
		t.Fatalf("advance not updated: %v", req.Advance)
	}
	if req.EditChanges == nil || *req.EditChanges != `{"advance":{"from":12000,"to":15000}}` {
		t.Fatalf("unexpected edit diff: %v", req.EditChanges)
	}
	if req.ManagerComment == nil || *req.ManagerComment != comment {
		t.Fatalf("manager comment not stored: %v", req.ManagerComment)
	}

	drafts := rec.lastBatch(t)
	if len(drafts) != 1 || drafts[0].RecipientRole != models.RoleAdmin {
		t.Fatalf("edit must notify admin only, got %v", recipientRoles(drafts))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestMarkPaidRequiresAdminApproval(t *testing.T) {
	steps := []*queryStep{pendingRequestRow("req-9")}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	_, err := svc.MarkPaid("req-9", "Accounts Team")
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(rec.batches) != 0 {
		t.Fatalf("nothing may be dispatched when the gate refuses")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestMarkPaidRefusesSecondPayment(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: findRequestPattern,
			args:    []driver.Value{"req-9"},
			columns: []string{"request_id", "employee_name", "admin_status", "payment_status"},
			rows: [][]driver.Value{
				{"req-9", "Ravi Kumar", "approved", "paid"},
			},
		},
	}

	svc, _, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	if _, err := svc.MarkPaid("req-9", "Accounts Team"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestMarkPaidStampsPaymentAndNotifiesWithAdvance(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: findRequestPattern,
			args:    []driver.Value{"req-9"},
			columns: []string{"request_id", "employee_name", "project", "advance", "admin_status", "payment_status"},
			rows: [][]driver.Value{
				{"req-9", "Ravi Kumar", "Metro Line 3", float64(12000), "approved", "unpaid"},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .advance_requests. SET .paid_at.=\\?,.paid_by.=\\?,.payment_status.=\\?,.updated_at.=\\? WHERE request_id = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	req, err := svc.MarkPaid("req-9", "Accounts Team")
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if req.PaymentStatus != models.PaymentPaid || req.PaidBy == nil || *req.PaidBy != "Accounts Team" {
		t.Fatalf("payment state not updated: %+v", req)
	}

	drafts := rec.lastBatch(t)
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %v", recipientRoles(drafts))
	}
	for _, d := range drafts {
		if d.Advance == nil || *d.Advance != 12000 {
			t.Fatalf("payment draft for %s missing advance", d.RecipientRole)
		}
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDeleteRefusesNonOwner(t *testing.T) {
	steps := []*queryStep{pendingRequestRow("req-9")}

	svc, _, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	if err := svc.Delete("req-9", "Someone Else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDeleteRemovesOwnPendingRequest(t *testing.T) {
	steps := []*queryStep{
		pendingRequestRow("req-9"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("DELETE FROM .advance_requests. WHERE request_id = \\?"),
			args:    []driver.Value{"req-9"},
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	svc, rec, state, cleanup := newTestRequestService(t, steps)
	defer cleanup()

	if err := svc.Delete("req-9", "Ravi Kumar"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(rec.batches) != 0 {
		t.Fatalf("deletes must not notify anyone")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

package services

import (
	"fmt"

	"travel-requisition-api/models"
)

// SubmitInput is a new travel/advance request as received from an employee.
type SubmitInput struct {
	EmployeeName  string
	SiteCity      string
	Project       string
	Reason        string
	Duration      int
	Advance       float64
	DateOfJourney string
}

func validateSubmission(in SubmitInput) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	switch {
	case in.EmployeeName == "":
		return missing("employeeName")
	case in.SiteCity == "":
		return missing("siteCity")
	case in.Project == "":
		return missing("project")
	case in.Reason == "":
		return missing("reason")
	case in.DateOfJourney == "":
		return missing("dateOfJourney")
	}
	if in.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive integer", ErrValidation)
	}
	if in.Advance < 0 {
		return fmt.Errorf("%w: advance cannot be negative", ErrValidation)
	}
	return nil
}

// validAction reports whether s is a settable approval status. Both tracks
// accept the same set; pending is only ever the initial value.
func validAction(s string) bool {
	switch s {
	case models.StatusApproved, models.StatusRejected, models.StatusOnHold:
		return true
	}
	return false
}

func canMarkPaid(req *models.TravelRequest) error {
	if req.AdminStatus != models.StatusApproved {
		return fmt.Errorf("%w: request must be approved by admin before marking as paid", ErrPrecondition)
	}
	if req.PaymentStatus == models.PaymentPaid {
		return fmt.Errorf("%w: request is already marked as paid", ErrConflict)
	}
	return nil
}

func canDelete(req *models.TravelRequest, requester string) error {
	if req.EmployeeName != requester {
		return fmt.Errorf("%w: not the owner of this request", ErrForbidden)
	}
	if req.AdminStatus != models.StatusPending {
		return fmt.Errorf("%w: cannot delete a request already processed by admin", ErrPrecondition)
	}
	return nil
}

// FieldChange records one edited numeric field, old value first.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// EditInput carries an in-flight edit by a manager or admin. Nil fields are
// untouched.
type EditInput struct {
	Advance  *float64
	Duration *int
	Comment  *string
}

// computeEditChanges diffs the numeric fields an edit may touch. Unchanged
// values produce no entry.
func computeEditChanges(req *models.TravelRequest, in EditInput) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	if in.Advance != nil && req.Advance != *in.Advance {
		changes["advance"] = FieldChange{From: req.Advance, To: *in.Advance}
	}
	if in.Duration != nil && req.Duration != *in.Duration {
		changes["duration"] = FieldChange{From: req.Duration, To: *in.Duration}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

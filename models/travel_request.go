package models

import "time"

// Approval status values shared by the manager and admin tracks.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusOnHold   = "on_hold"
)

// Payment status values. Paid is final.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

type TravelRequest struct {
	RequestID     string  `gorm:"primaryKey;column:request_id" json:"request_id"`
	EmployeeName  string  `gorm:"column:employee_name" json:"employeeName"`
	SiteCity      string  `gorm:"column:site_city" json:"siteCity"`
	Project       string  `gorm:"column:project" json:"project"`
	Reason        string  `gorm:"column:reason" json:"reason"`
	Duration      int     `gorm:"column:duration" json:"duration"`
	Advance       float64 `gorm:"column:advance" json:"advance"`
	DateOfJourney string  `gorm:"column:date_of_journey" json:"dateOfJourney"`

	// Status is the manager approval track; AdminStatus is the admin track.
	// The two are independent and last-write-wins.
	Status      string `gorm:"column:status" json:"status"`
	AdminStatus string `gorm:"column:admin_status" json:"admin_status"`

	PaymentStatus string     `gorm:"column:payment_status" json:"payment_status"`
	PaidAt        *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	PaidBy        *string    `gorm:"column:paid_by" json:"paid_by,omitempty"`

	ApprovedBy           *string `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedByAdmin      *string `gorm:"column:approved_by_admin" json:"approved_by_admin,omitempty"`
	ManagerComment       *string `gorm:"column:manager_comment" json:"managerComment,omitempty"`
	AdminComment         *string `gorm:"column:admin_comment" json:"adminComment,omitempty"`
	AdminRejectionReason *string `gorm:"column:admin_rejection_reason" json:"admin_rejection_reason,omitempty"`

	EditedBy      *string    `gorm:"column:edited_by" json:"edited_by,omitempty"`
	EditTimestamp *time.Time `gorm:"column:edit_timestamp" json:"edit_timestamp,omitempty"`
	EditChanges   *string    `gorm:"column:edit_changes" json:"edit_changes,omitempty"` // JSON {"field":{"from":x,"to":y}}

	SubmittedAt time.Time  `gorm:"column:submitted_at" json:"submittedAt"`
	UpdatedAt   *time.Time `gorm:"column:updated_at" json:"updatedAt,omitempty"`
}

func (TravelRequest) TableName() string { return "advance_requests" }

// DisplayStatus collapses the two tracks into one label for dashboards.
// The admin decision outranks the manager decision.
func (r TravelRequest) DisplayStatus() string {
	for _, s := range []string{r.AdminStatus, r.Status} {
		switch s {
		case StatusRejected, StatusOnHold, StatusApproved:
			return s
		}
	}
	return StatusPending
}

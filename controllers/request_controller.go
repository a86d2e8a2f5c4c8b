package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"travel-requisition-api/config"
	"travel-requisition-api/middleware"
	"travel-requisition-api/models"
	"travel-requisition-api/services"
)

func requestService() *services.RequestService {
	return services.NewRequestService(config.DB)
}

/* ==========================
   Payload coercion helpers
   ========================== */

// The mobile clients send numeric fields either as JSON numbers or as
// strings, so the submit/update payloads take them loosely and coerce here.

func coerceInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func coerceFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

/* ==========================
   Handlers
   ========================== */

type submitRequestPayload struct {
	EmployeeName  string      `json:"employeeName"`
	SiteCity      string      `json:"siteCity"`
	Project       string      `json:"project"`
	Reason        string      `json:"reason"`
	Duration      interface{} `json:"duration"`
	Advance       interface{} `json:"advance"`
	DateOfJourney string      `json:"dateOfJourney"`
}

// SubmitRequest creates a new advance request and fans out the submission
// notifications.
func SubmitRequest(c *gin.Context) {
	var payload submitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required", "details": err.Error()})
		return
	}

	if payload.Duration == nil || payload.Advance == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	duration, ok := coerceInt(payload.Duration)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a number"})
		return
	}
	advance, ok := coerceFloat(payload.Advance)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "advance must be a number"})
		return
	}

	req, err := requestService().Submit(services.SubmitInput{
		EmployeeName:  payload.EmployeeName,
		SiteCity:      payload.SiteCity,
		Project:       payload.Project,
		Reason:        payload.Reason,
		Duration:      duration,
		Advance:       advance,
		DateOfJourney: payload.DateOfJourney,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Request submitted successfully",
		"request_id": req.RequestID,
	})
}

// GetRequests lists every request with the collapsed display status used by
// the dashboards.
func GetRequests(c *gin.Context) {
	items, err := requestService().ListAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]requestListItem, 0, len(items))
	for _, req := range items {
		out = append(out, requestListItem{TravelRequest: req, DisplayStatus: req.DisplayStatus()})
	}
	c.JSON(http.StatusOK, out)
}

// requestListItem flattens the request with its collapsed status label.
type requestListItem struct {
	models.TravelRequest
	DisplayStatus string `json:"display_status"`
}

// GetUserRequests returns the authenticated employee's own history.
func GetUserRequests(c *gin.Context) {
	fullName, _ := c.Get("fullName")

	items, err := requestService().ListByEmployee(fullName.(string))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetApprovedRequests lists the requests cleared by both manager and admin,
// the accounts team's payment queue.
func GetApprovedRequests(c *gin.Context) {
	items, err := requestService().ApprovedForAccounts()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type updateRequestPayload struct {
	Status         *string     `json:"status"`
	AdminStatus    *string     `json:"admin_status"`
	Advance        interface{} `json:"advance"`
	Duration       interface{} `json:"duration"`
	ManagerComment *string     `json:"managerComment"`
	AdminComment   *string     `json:"adminComment"`
}

// UpdateRequest is the combined manager/admin mutation endpoint: it applies
// a manager decision, an admin decision, and/or an in-flight edit, each of
// which emits its own notifications. The acting user's identity and role
// come from the auth context, never from the payload.
func UpdateRequest(c *gin.Context) {
	id := c.Param("id")
	role := c.GetString("role")
	actor := c.GetString("fullName")

	var payload updateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	svc := requestService()

	if payload.Status != nil {
		if !middleware.RoleCan(role, middleware.OpManagerDecision) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only managers can set the manager approval status"})
			return
		}
		if _, err := svc.ApplyManagerAction(id, *payload.Status, actor); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if payload.AdminStatus != nil {
		if !middleware.RoleCan(role, middleware.OpAdminDecision) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the admin can set the admin approval status"})
			return
		}
		// The legacy update path carries no confirmation flag; the
		// confirmation-gated flow is the dedicated admin-action endpoint.
		if _, err := svc.ApplyAdminAction(id, *payload.AdminStatus, actor, "", true); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	if payload.Advance != nil || payload.Duration != nil || payload.ManagerComment != nil || payload.AdminComment != nil {
		edit := services.EditInput{}
		if payload.Advance != nil {
			advance, ok := coerceFloat(payload.Advance)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "advance must be a number"})
				return
			}
			edit.Advance = &advance
		}
		if payload.Duration != nil {
			duration, ok := coerceInt(payload.Duration)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a number"})
				return
			}
			edit.Duration = &duration
		}
		if role == models.RoleAdmin {
			edit.Comment = payload.AdminComment
		} else {
			edit.Comment = payload.ManagerComment
		}

		if _, err := svc.ApplyEdit(id, edit, actor, role); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request updated successfully"})
}

type adminActionPayload struct {
	Action          string `json:"action"`
	Confirmation    bool   `json:"confirmation"`
	RejectionReason string `json:"rejection_reason"`
	AdminName       string `json:"admin_name"`
}

// AdminAction is the confirmation-gated admin decision endpoint.
func AdminAction(c *gin.Context) {
	id := c.Param("id")

	var payload adminActionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor := c.GetString("fullName")
	if actor == "" {
		actor = payload.AdminName
	}
	if actor == "" {
		actor = "Admin"
	}

	if _, err := requestService().ApplyAdminAction(id, payload.Action, actor, payload.RejectionReason, payload.Confirmation); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request " + payload.Action + " successfully"})
}

type markPaidPayload struct {
	PaidBy string `json:"paid_by"`
}

// MarkPaid records the payment by the accounts team. Requires prior admin
// approval; a second call is rejected.
func MarkPaid(c *gin.Context) {
	id := c.Param("id")

	var payload markPaidPayload
	_ = c.ShouldBindJSON(&payload)
	if payload.PaidBy == "" {
		payload.PaidBy = c.GetString("fullName")
	}
	if payload.PaidBy == "" {
		payload.PaidBy = "Accounts Team"
	}

	req, err := requestService().MarkPaid(id, payload.PaidBy)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Request marked as paid successfully",
		"request_id":     req.RequestID,
		"payment_status": req.PaymentStatus,
		"paid_at":        req.PaidAt,
		"paid_by":        req.PaidBy,
	})
}

// DeleteRequest removes the caller's own request while it is still pending
// with the admin.
func DeleteRequest(c *gin.Context) {
	id := c.Param("id")
	fullName, _ := c.Get("fullName")

	if err := requestService().Delete(id, fullName.(string)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request deleted successfully"})
}

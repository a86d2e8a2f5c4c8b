package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-requisition-api/models"
)

// Operation names used by the capability table. One per role-restricted
// entry point.
const (
	OpManagerDecision  = "request:manager_decision"
	OpAdminDecision    = "request:admin_decision"
	OpEditRequest      = "request:edit"
	OpMarkPaid         = "request:mark_paid"
	OpDeleteOwnRequest = "request:delete_own"
	OpApproveUsers     = "users:approve"
	OpListPendingUsers = "users:list_pending"
)

// capabilities is the single (role, operation) permission table. Endpoint
// handlers never hand-roll role checks; they declare an operation and the
// gate consults this map once.
var capabilities = map[string][]string{
	OpManagerDecision:  {models.RoleManager},
	OpAdminDecision:    {models.RoleAdmin},
	OpEditRequest:      {models.RoleManager, models.RoleAdmin},
	OpMarkPaid:         {models.RoleAccounts},
	OpDeleteOwnRequest: {models.RoleEmployee},
	OpApproveUsers:     {models.RoleAdmin},
	OpListPendingUsers: {models.RoleAdmin},
}

// RoleCan reports whether the role may perform the operation.
func RoleCan(role, operation string) bool {
	for _, allowed := range capabilities[operation] {
		if allowed == role {
			return true
		}
	}
	return false
}

// RequireCapability aborts with 403 unless the authenticated user's role is
// allowed to perform the operation.
func RequireCapability(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}

		if !RoleCan(current.(string), operation) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

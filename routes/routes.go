package routes

import (
	"github.com/gin-gonic/gin"

	"travel-requisition-api/controllers"
	"travel-requisition-api/middleware"
)

func SetupRoutes(router *gin.Engine) {
	// Public routes
	public := router.Group("")
	{
		// Registration and login
		public.POST("/register", controllers.Register)
		public.POST("/verify-registration-otp", controllers.VerifyRegistrationOTP)
		public.POST("/login", controllers.Login)
		public.GET("/admin/check-exists", controllers.CheckAdminExists)

		// Password reset (no session required)
		public.POST("/public/forgot-password", controllers.ForgotPassword)
		public.POST("/public/verify-otp", controllers.VerifyResetOTP)
		public.POST("/public/reset-password", controllers.ResetPassword)
	}

	// Protected routes (require authentication)
	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile and history
		protected.GET("/user/profile", controllers.GetProfile)
		protected.GET("/user/requests", controllers.GetUserRequests)

		// Request lifecycle
		protected.POST("/advance-request", controllers.SubmitRequest)
		protected.DELETE("/advance-request/:id",
			middleware.RequireCapability(middleware.OpDeleteOwnRequest), controllers.DeleteRequest)

		protected.GET("/visit-requests", controllers.GetRequests)
		protected.PATCH("/visit-request/:id",
			middleware.RequireCapability(middleware.OpEditRequest), controllers.UpdateRequest)
		protected.PUT("/visit-request/:id",
			middleware.RequireCapability(middleware.OpEditRequest), controllers.UpdateRequest)

		protected.POST("/admin-action/:id",
			middleware.RequireCapability(middleware.OpAdminDecision), controllers.AdminAction)
		protected.PATCH("/visit-request/:id/mark-paid",
			middleware.RequireCapability(middleware.OpMarkPaid), controllers.MarkPaid)

		// Accounts payment queue
		protected.GET("/accounts/approved-requests", controllers.GetApprovedRequests)

		// Notifications
		notifications := protected.Group("/notifications")
		{
			// gin requires one wildcard name per segment, so :id doubles
			// as the role on the mark-all-read route.
			notifications.GET("/:id", controllers.GetNotifications)
			notifications.GET("/:id/unread-count", controllers.GetUnreadCount)
			notifications.PATCH("/:id/mark-all-read", controllers.MarkAllNotificationsRead)
			notifications.PATCH("/:id/read", controllers.MarkNotificationRead)
			notifications.DELETE("/:id", controllers.DeleteNotification)
			notifications.POST("/cleanup", controllers.CleanupNotifications)
		}

		// Admin user management
		protected.GET("/admin/pending-users",
			middleware.RequireCapability(middleware.OpListPendingUsers), controllers.GetPendingUsers)
		protected.POST("/admin/approve-user",
			middleware.RequireCapability(middleware.OpApproveUsers), controllers.ApproveUser)
	}
}

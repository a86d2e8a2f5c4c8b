package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"travel-requisition-api/config"
	"travel-requisition-api/models"
	"travel-requisition-api/utils"
)

type forgotPasswordRequest struct {
	Email  string `json:"email" binding:"required"`
	Action string `json:"action" binding:"required"` // check_email|send_otp
}

// ForgotPassword checks whether an email is registered and, on request,
// issues a reset OTP. OTP delivery failure is fatal for this flow.
func ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and action are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	if req.Action != "check_email" && req.Action != "send_otp" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Use check_email or send_otp"})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Email not found", "email_exists": false})
		return
	}

	if req.Action == "check_email" {
		c.JSON(http.StatusOK, gin.H{
			"message":      "Email found",
			"email_exists": true,
			"email":        req.Email,
		})
		return
	}

	otp, err := otpGenerator()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	now := time.Now()
	reset := models.PasswordReset{
		Email:     req.Email,
		OTP:       otp,
		CreatedAt: now,
		ExpiresAt: now.Add(otpExpiry),
	}
	// One live OTP per email: a new request replaces the old row.
	if err := config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"otp", "created_at", "expires_at"}),
	}).Create(&reset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store OTP", "details": err.Error()})
		return
	}

	if err := sendOTPEmail(req.Email, otp, "password reset"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP.", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "OTP sent to your registered email.",
		"email_exists": true,
	})
}

type verifyResetOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyResetOTP checks a reset OTP without consuming it.
func VerifyResetOTP(c *gin.Context) {
	var req verifyResetOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	if status, msg := checkResetOTP(req.Email, req.OTP); status != http.StatusOK {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP verified successfully",
		"otp_valid": true,
		"email":     req.Email,
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ResetPassword sets a new password after OTP verification. The OTP is
// single use and removed on success.
func ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, OTP, and new password are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	if valid, message := utils.ValidatePassword(req.NewPassword); !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	if status, msg := checkResetOTP(req.Email, req.OTP); status != http.StatusOK {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := config.DB.Model(&models.User{}).
		Where("email = ?", req.Email).
		Update("password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password", "details": err.Error()})
		return
	}

	config.DB.Where("email = ?", req.Email).Delete(&models.PasswordReset{})

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful. You can now log in with your new password."})
}

// checkResetOTP validates the stored OTP for the email. Expired codes are
// removed on sight.
func checkResetOTP(email, otp string) (int, string) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return http.StatusNotFound, "Email not found"
	}

	var record models.PasswordReset
	if err := config.DB.Where("email = ?", email).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return http.StatusBadRequest, "No password reset request found. Please request OTP first."
		}
		return http.StatusInternalServerError, "Failed to verify OTP"
	}

	if record.OTP != otp {
		return http.StatusBadRequest, "Invalid OTP."
	}
	if time.Now().After(record.ExpiresAt) {
		config.DB.Where("email = ?", email).Delete(&models.PasswordReset{})
		return http.StatusBadRequest, "OTP has expired. Please request a new one."
	}
	return http.StatusOK, ""
}

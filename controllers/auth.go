package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"travel-requisition-api/config"
	"travel-requisition-api/middleware"
	"travel-requisition-api/models"
	"travel-requisition-api/utils"
)

const otpExpiry = 5 * time.Minute

// Seams for tests, following the pattern used across the controllers.
var (
	sendMailFunc = config.SendMail
	otpGenerator = utils.GenerateOTP
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Register starts the OTP + admin-approval signup flow. In development mode
// admin accounts are created directly, skipping both gates.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required", "details": err.Error()})
		return
	}

	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))
	if !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	if valid, message := utils.ValidatePassword(req.Password); !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	var existing models.User
	if err := config.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}

	// Single canonical admin unless the bootstrap switch is on.
	if req.Role == models.RoleAdmin && !config.App.DevelopmentMode {
		var adminCount int64
		config.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
		if adminCount > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Admin account already exists. Only one admin is allowed."})
			return
		}
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to secure password"})
		return
	}

	if config.App.DevelopmentMode && req.Role == models.RoleAdmin {
		approvedBy := "Development Mode (Auto-approved)"
		now := time.Now()
		user := models.User{
			UserID:     uuid.NewString(),
			Email:      req.Email,
			Password:   hashed,
			FullName:   req.FullName,
			Role:       req.Role,
			IsApproved: true,
			ApprovedBy: &approvedBy,
			ApprovedAt: &now,
			CreatedAt:  now,
		}
		if err := config.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create admin account", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":          "Admin account created successfully in development mode! You can now login.",
			"email":            req.Email,
			"role":             req.Role,
			"status":           "approved",
			"development_mode": true,
		})
		return
	}

	otp, err := otpGenerator()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	now := time.Now()
	pending := models.PendingRegistration{
		Email:     req.Email,
		Password:  hashed,
		FullName:  req.FullName,
		Role:      req.Role,
		OTP:       otp,
		OTPExpiry: now.Add(otpExpiry),
		Status:    "pending_approval",
		CreatedAt: now,
	}

	// Replace any previous attempt for this email wholesale.
	config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})
	if err := config.DB.Create(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store registration", "details": err.Error()})
		return
	}

	// Registration requires delivery confirmation: a failed OTP mail aborts
	// the flow and removes the pending row.
	if err := sendOTPEmail(req.Email, otp, "registration"); err != nil {
		config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP email", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent to your email. Please verify to complete registration.",
		"email":   req.Email,
		"role":    req.Role,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyRegistrationOTP completes the OTP step. Admin accounts become users
// immediately; everyone else waits for admin approval.
func VerifyRegistrationOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	var pending models.PendingRegistration
	if err := config.DB.Where("email = ?", req.Email).First(&pending).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pending registration found for this email"})
		return
	}

	if time.Now().After(pending.OTPExpiry) {
		config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP expired. Please register again."})
		return
	}
	if pending.OTP != req.OTP {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}

	if pending.Role == models.RoleAdmin {
		approvedBy := "System (Auto-approved)"
		now := time.Now()
		user := models.User{
			UserID:     uuid.NewString(),
			Email:      pending.Email,
			Password:   pending.Password,
			FullName:   pending.FullName,
			Role:       pending.Role,
			IsApproved: true,
			ApprovedBy: &approvedBy,
			ApprovedAt: &now,
			CreatedAt:  pending.CreatedAt,
		}
		if err := config.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account", "details": err.Error()})
			return
		}
		config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})

		c.JSON(http.StatusOK, gin.H{
			"message": "Admin account created successfully! You can now login.",
			"email":   req.Email,
			"role":    pending.Role,
			"status":  "approved",
		})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.PendingRegistration{}).
		Where("email = ?", req.Email).
		Updates(map[string]interface{}{"otp_verified": true, "otp_verified_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update registration", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("OTP verified successfully! Your %s account is now pending admin approval.", pending.Role),
		"email":   req.Email,
		"role":    pending.Role,
		"status":  "pending_approval",
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a user. Non-admin users must be approved first.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if user.Role != models.RoleAdmin && !user.IsApproved {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is pending admin approval. Please wait for approval before logging in."})
		return
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful!",
		"email":    user.Email,
		"user_id":  user.UserID,
		"role":     user.Role,
		"fullName": user.FullName,
		"token":    token,
	})
}

// GetProfile returns the current user's profile.
func GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Where("user_id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetPendingUsers lists OTP-verified registrations awaiting admin approval.
func GetPendingUsers(c *gin.Context) {
	var pending []models.PendingRegistration
	if err := config.DB.Where("otp_verified = ? AND status = ?", true, "pending_approval").
		Order("created_at DESC").
		Find(&pending).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pending users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_users": pending,
		"count":         len(pending),
	})
}

type approveUserRequest struct {
	Email  string `json:"email" binding:"required"`
	Action string `json:"action" binding:"required"` // approve|reject
}

// ApproveUser resolves a pending registration. The outcome mail is
// best-effort.
func ApproveUser(c *gin.Context) {
	var req approveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Action != "approve" && req.Action != "reject") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and action are required"})
		return
	}
	req.Email = strings.ToLower(utils.SanitizeInput(req.Email))

	var pending models.PendingRegistration
	if err := config.DB.Where("email = ?", req.Email).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pending user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing user approval", "details": err.Error()})
		return
	}

	if req.Action == "reject" {
		config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})
		sendMailSafe([]string{req.Email},
			"Account Update - TourApp",
			buildAccountStatusEmailHTML(pending.FullName, false))
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("User %s rejected", pending.FullName),
			"email":   req.Email,
		})
		return
	}

	approverID, _ := c.Get("userID")
	approvedBy := fmt.Sprint(approverID)
	now := time.Now()
	user := models.User{
		UserID:     uuid.NewString(),
		Email:      pending.Email,
		Password:   pending.Password,
		FullName:   pending.FullName,
		Role:       pending.Role,
		IsApproved: true,
		ApprovedBy: &approvedBy,
		ApprovedAt: &now,
		CreatedAt:  pending.CreatedAt,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account", "details": err.Error()})
		return
	}
	config.DB.Where("email = ?", req.Email).Delete(&models.PendingRegistration{})

	sendMailSafe([]string{req.Email},
		"Account Approved - TourApp",
		buildAccountStatusEmailHTML(pending.FullName, true))

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("User %s approved successfully", pending.FullName),
		"user_id": user.UserID,
		"email":   req.Email,
	})
}

// CheckAdminExists tells the client whether an admin has been bootstrapped.
func CheckAdminExists(c *gin.Context) {
	var count int64
	config.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	c.JSON(http.StatusOK, gin.H{"exists": count > 0})
}

// generateToken creates the JWT for a user.
func generateToken(user models.User) (string, error) {
	expireHours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS"))
	if err != nil {
		expireHours = 24
	}

	claims := middleware.Claims{
		UserID:   user.UserID,
		Email:    user.Email,
		Role:     user.Role,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// HashPassword hashes password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares password with hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

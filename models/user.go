package models

import "time"

// User roles.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
	RoleAccounts = "accounts"
)

func ValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleManager, RoleAdmin, RoleAccounts:
		return true
	}
	return false
}

type User struct {
	UserID     string     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Email      string     `gorm:"column:email;unique" json:"email"`
	Password   string     `gorm:"column:password" json:"-"`
	FullName   string     `gorm:"column:full_name" json:"fullName"`
	Role       string     `gorm:"column:role" json:"role"`
	IsApproved bool       `gorm:"column:is_approved" json:"is_approved"`
	ApprovedBy *string    `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }

// PendingRegistration holds a signup awaiting OTP verification and, for
// non-admin roles, admin approval. Re-registering replaces the row.
type PendingRegistration struct {
	Email         string     `gorm:"primaryKey;column:email" json:"email"`
	Password      string     `gorm:"column:password" json:"-"`
	FullName      string     `gorm:"column:full_name" json:"fullName"`
	Role          string     `gorm:"column:role" json:"role"`
	OTP           string     `gorm:"column:otp" json:"-"`
	OTPExpiry     time.Time  `gorm:"column:otp_expiry" json:"-"`
	OTPVerified   bool       `gorm:"column:otp_verified" json:"otp_verified"`
	OTPVerifiedAt *time.Time `gorm:"column:otp_verified_at" json:"otp_verified_at,omitempty"`
	Status        string     `gorm:"column:status" json:"status"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (PendingRegistration) TableName() string { return "pending_registrations" }

// PasswordReset is the single-use, time-boxed OTP for a reset flow,
// upserted per email.
type PasswordReset struct {
	Email     string    `gorm:"primaryKey;column:email"`
	OTP       string    `gorm:"column:otp"`
	CreatedAt time.Time `gorm:"column:created_at"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

func (PasswordReset) TableName() string { return "password_resets" }

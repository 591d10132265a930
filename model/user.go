package model

import (
	"time"

	"gorm.io/gorm"
)

// UserType values discriminate the kind of account a User row represents.
const (
	UserTypePatient = "PATIENT"
	UserTypeDoctor  = "DOCTOR"
	UserTypeAdmin   = "ADMIN"
	UserTypeStaff   = "STAFF"
)

// User represents the base identity record shared by patients, doctors,
// admins and staff. Doctor and Patient rows reference it via UserID.
// @Description User account information
type User struct {
	gorm.Model
	CC             string     `json:"cc" gorm:"column:cc;size:32;index" example:"1094782341"`
	FirstName      string     `json:"first_name" gorm:"column:first_name" example:"Laura"`
	LastName       string     `json:"last_name" gorm:"column:last_name" example:"Restrepo"`
	Phone          string     `json:"phone" gorm:"column:phone" example:"3004567890"`
	Email          string     `json:"email" gorm:"column:email;uniqueIndex;size:191" example:"laura@example.com"`
	Password       string     `json:"-" gorm:"column:password"`
	PasswordSalt   string     `json:"-" gorm:"column:password_salt"`
	UserType       string     `json:"user_type" gorm:"column:user_type;size:16;index" example:"PATIENT"`
	IsActive       bool       `json:"is_active" gorm:"column:is_active;default:true"`
	LastLogin      *time.Time `json:"last_login" gorm:"column:last_login"`
	FailedAttempts int        `json:"-" gorm:"column:failed_attempts;default:0"`
	LockedUntil    *int64     `json:"-" gorm:"column:locked_until"`
}

// Session represents an authenticated login session backed by the sessions table.
type Session struct {
	gorm.Model
	UserID       uint      `json:"user_id" gorm:"column:user_id;index"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;size:512;index"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at"`
	ClientIP     string    `json:"client_ip" gorm:"column:client_ip;size:45"`
	Browser      string    `json:"browser" gorm:"column:browser;size:512"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Notification types used by the appointment flow.
const (
	NotificationAppointment = "APPOINTMENT"
	NotificationReminder    = "REMINDER"
	NotificationSystem      = "SYSTEM"
)

// Notification is a notice fanned out to one or more users via UserNotification.
type Notification struct {
	gorm.Model
	Title       string     `json:"title" gorm:"size:191" example:"Appointment confirmed"`
	Message     string     `json:"message" gorm:"type:text"`
	Type        string     `json:"type" gorm:"size:32;index" example:"APPOINTMENT"`
	ScheduledAt *time.Time `json:"scheduled_at" gorm:"column:scheduled_at"`
}

// UserNotification tracks one user's copy of a notification with read and
// soft-delete flags.
type UserNotification struct {
	gorm.Model
	NotificationID uint `json:"notification_id" gorm:"column:notification_id;index"`
	UserID         uint `json:"user_id" gorm:"column:user_id;index"`
	IsRead         bool `json:"is_read" gorm:"column:is_read;default:false"`
	IsDeleted      bool `json:"is_deleted" gorm:"column:is_deleted;default:false"`
}

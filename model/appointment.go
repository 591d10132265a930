package model

import "gorm.io/gorm"

// Appointment status values. COMPLETED, CANCELLED and NO_SHOW are terminal.
const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentConfirmed = "CONFIRMED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCancelled = "CANCELLED"
	AppointmentNoShow    = "NO_SHOW"
)

// appointmentTransitions maps each status to the statuses reachable from it.
// Terminal statuses have no outgoing transitions.
var appointmentTransitions = map[string][]string{
	AppointmentScheduled: {AppointmentConfirmed, AppointmentCancelled, AppointmentNoShow},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
	AppointmentCompleted: {},
	AppointmentCancelled: {},
	AppointmentNoShow:    {},
}

// Appointment binds a patient to a doctor's schedule on a concrete date for a
// specialty. Effectiveness stays nil until the appointment is completed.
// @Description Appointment information
type Appointment struct {
	gorm.Model
	PatientID      uint   `json:"patient_id" gorm:"column:patient_id;index"`
	ScheduleID     uint   `json:"schedule_id" gorm:"column:schedule_id;index"`
	ScheduleDateID uint   `json:"schedule_date_id" gorm:"column:schedule_date_id;index"`
	Date           string `json:"date" gorm:"column:date;size:10;index" example:"2025-06-01"`
	SpecialtyID    uint   `json:"specialty_id" gorm:"column:specialty_id;index"`
	Status         string `json:"status" gorm:"column:status;size:16;index" example:"SCHEDULED"`
	Effectiveness  *int   `json:"effectiveness" gorm:"column:effectiveness"`
	Reason         string `json:"reason" gorm:"column:reason;type:text"`
	CancelReason   string `json:"cancel_reason" gorm:"column:cancel_reason;type:text"`
}

// IsTerminalStatus reports whether status permits no further transitions.
func IsTerminalStatus(status string) bool {
	next, ok := appointmentTransitions[status]
	return ok && len(next) == 0
}

// CanTransition reports whether the state machine permits moving from one
// appointment status to another.
func CanTransition(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

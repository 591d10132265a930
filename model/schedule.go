package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// WorkDay values for a doctor's recurring weekly availability template.
const (
	WorkDayMonday    = "MONDAY"
	WorkDayTuesday   = "TUESDAY"
	WorkDayWednesday = "WEDNESDAY"
	WorkDayThursday  = "THURSDAY"
	WorkDayFriday    = "FRIDAY"
	WorkDaySaturday  = "SATURDAY"
	WorkDaySunday    = "SUNDAY"
)

// WorkDays lists every valid work day value.
var WorkDays = []string{
	WorkDayMonday, WorkDayTuesday, WorkDayWednesday, WorkDayThursday,
	WorkDayFriday, WorkDaySaturday, WorkDaySunday,
}

// DoctorScheduleDate status values. Only ACTIVE dates accept bookings.
const (
	ScheduleDateActive   = "ACTIVE"
	ScheduleDateInactive = "INACTIVE"
	ScheduleDateVacation = "VACATION"
	ScheduleDateHoliday  = "HOLIDAY"
)

// ScheduleDateStatuses lists every valid schedule-date status.
var ScheduleDateStatuses = []string{
	ScheduleDateActive, ScheduleDateInactive, ScheduleDateVacation, ScheduleDateHoliday,
}

// DoctorSchedule represents one recurring weekly availability window for a
// doctor. Concrete calendar dates are instantiated as DoctorScheduleDate rows.
// @Description Doctor weekly schedule template
type DoctorSchedule struct {
	gorm.Model
	DoctorID        uint   `json:"doctor_id" gorm:"column:doctor_id;index;uniqueIndex:idx_doctor_workday"`
	WorkDay         string `json:"work_day" gorm:"column:work_day;size:16;uniqueIndex:idx_doctor_workday" example:"MONDAY"`
	StartTime       string `json:"start_time" gorm:"column:start_time;size:5;not null" example:"08:00"`
	EndTime         string `json:"end_time" gorm:"column:end_time;size:5;not null" example:"16:00"`
	BreakStart      string `json:"break_start" gorm:"column:break_start;size:5" example:"12:00"`
	BreakEnd        string `json:"break_end" gorm:"column:break_end;size:5" example:"13:00"`
	MaxAppointments int    `json:"max_appointments" gorm:"column:max_appointments;not null" example:"10"`
}

// Validate checks the schedule's time window invariants: start before end,
// and when break times are set, break contained within the work window.
func (s *DoctorSchedule) Validate() error {
	start, err := parseClock(s.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time %q: %w", s.StartTime, err)
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time %q: %w", s.EndTime, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time %s must be before end_time %s", s.StartTime, s.EndTime)
	}

	if (s.BreakStart == "") != (s.BreakEnd == "") {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	if s.BreakStart != "" {
		breakStart, err := parseClock(s.BreakStart)
		if err != nil {
			return fmt.Errorf("invalid break_start %q: %w", s.BreakStart, err)
		}
		breakEnd, err := parseClock(s.BreakEnd)
		if err != nil {
			return fmt.Errorf("invalid break_end %q: %w", s.BreakEnd, err)
		}
		if !breakStart.Before(breakEnd) {
			return fmt.Errorf("break_start %s must be before break_end %s", s.BreakStart, s.BreakEnd)
		}
		if breakStart.Before(start) || breakEnd.After(end) {
			return fmt.Errorf("break %s-%s must lie within %s-%s", s.BreakStart, s.BreakEnd, s.StartTime, s.EndTime)
		}
	}

	if s.MaxAppointments <= 0 {
		return fmt.Errorf("max_appointments must be positive")
	}
	if !IsWorkDay(s.WorkDay) {
		return fmt.Errorf("unknown work_day %q", s.WorkDay)
	}
	return nil
}

// IsWorkDay reports whether day is one of the seven WorkDay values.
func IsWorkDay(day string) bool {
	for _, d := range WorkDays {
		if d == day {
			return true
		}
	}
	return false
}

// IsScheduleDateStatus reports whether status is a valid schedule-date status.
func IsScheduleDateStatus(status string) bool {
	for _, s := range ScheduleDateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func parseClock(v string) (time.Time, error) {
	return time.Parse("15:04", v)
}

// DoctorScheduleDate is the instantiation of a DoctorSchedule on one concrete
// calendar date, with an availability status override and free-text notes.
// At most one row exists per (schedule, date) pair.
// @Description Schedule date instantiation
type DoctorScheduleDate struct {
	gorm.Model
	ScheduleID uint   `json:"schedule_id" gorm:"column:schedule_id;index;uniqueIndex:idx_schedule_date"`
	Date       string `json:"date" gorm:"column:date;size:10;uniqueIndex:idx_schedule_date" example:"2025-06-01"`
	Status     string `json:"status" gorm:"column:status;size:16" example:"ACTIVE"`
	Notes      string `json:"notes" gorm:"column:notes;type:text"`
}

// Bookable reports whether appointments may be created against this date.
func (d *DoctorScheduleDate) Bookable() bool {
	return d.Status == ScheduleDateActive
}

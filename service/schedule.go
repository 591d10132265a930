package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
)

// ScheduleService answers availability questions for doctors: weekly
// templates, their per-date instantiations, and remaining slot counts.
type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// CreateScheduleRequest carries the fields for a new weekly template.
type CreateScheduleRequest struct {
	DoctorID        uint
	WorkDay         string
	StartTime       string
	EndTime         string
	BreakStart      string
	BreakEnd        string
	MaxAppointments int
}

// SlotAvailability pairs a schedule with the number of open slots left on a
// concrete date.
type SlotAvailability struct {
	Schedule  model.DoctorSchedule `json:"schedule"`
	Date      string               `json:"date"`
	Remaining int                  `json:"remaining"`
}

// CreateWeeklyTemplate validates and stores a recurring availability window
// for a doctor. One template is allowed per (doctor, work day).
func (s *ScheduleService) CreateWeeklyTemplate(ctx context.Context, req CreateScheduleRequest) (*model.DoctorSchedule, error) {
	schedule := model.DoctorSchedule{
		DoctorID:        req.DoctorID,
		WorkDay:         req.WorkDay,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		BreakStart:      req.BreakStart,
		BreakEnd:        req.BreakEnd,
		MaxAppointments: req.MaxAppointments,
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeWindow, err)
	}

	db := s.db.WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var doctor model.Doctor
		if err := tx.First(&doctor, req.DoctorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrDoctorNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.DoctorSchedule{}).
			Where("doctor_id = ? AND work_day = ?", req.DoctorID, req.WorkDay).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateWorkDay
		}

		return tx.Create(&schedule).Error
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// UpdateWeeklyTemplate replaces the time window and capacity of an existing
// template. The work day itself cannot be changed.
func (s *ScheduleService) UpdateWeeklyTemplate(ctx context.Context, scheduleID uint, req CreateScheduleRequest) (*model.DoctorSchedule, error) {
	db := s.db.WithContext(ctx)

	var schedule model.DoctorSchedule
	if err := db.First(&schedule, scheduleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.BreakStart = req.BreakStart
	schedule.BreakEnd = req.BreakEnd
	schedule.MaxAppointments = req.MaxAppointments
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeWindow, err)
	}

	if err := db.Save(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteTemplate removes a weekly template and its materialized dates.
func (s *ScheduleService) DeleteTemplate(ctx context.Context, scheduleID uint) error {
	db := s.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		var schedule model.DoctorSchedule
		if err := tx.First(&schedule, scheduleID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrScheduleNotFound
			}
			return err
		}
		// Hard delete: a soft-deleted row would still occupy the
		// (doctor, work day) unique index and block re-creation.
		if err := tx.Unscoped().Where("schedule_id = ?", scheduleID).Delete(&model.DoctorScheduleDate{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&schedule).Error
	})
}

// ListSchedules returns all weekly templates for a doctor.
func (s *ScheduleService) ListSchedules(ctx context.Context, doctorID uint) ([]model.DoctorSchedule, error) {
	var schedules []model.DoctorSchedule
	err := s.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("id ASC").
		Find(&schedules).Error
	return schedules, err
}

// MaterializeDate instantiates (or, with update set, re-statuses) a schedule
// on one concrete calendar date. At most one row exists per (schedule, date);
// a second create for the same pair fails with ErrScheduleDateExists.
func (s *ScheduleService) MaterializeDate(ctx context.Context, scheduleID uint, date, status, notes string, update bool) (*model.DoctorScheduleDate, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if !model.IsScheduleDateStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	db := s.db.WithContext(ctx)
	var result model.DoctorScheduleDate
	err = db.Transaction(func(tx *gorm.DB) error {
		var schedule model.DoctorSchedule
		if err := tx.First(&schedule, scheduleID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrScheduleNotFound
			}
			return err
		}

		// A concrete date may only instantiate the template for its weekday.
		if weekday := strings.ToUpper(parsed.Weekday().String()); weekday != schedule.WorkDay {
			return fmt.Errorf("%w: %s falls on %s, template covers %s",
				ErrWorkDayMismatch, date, weekday, schedule.WorkDay)
		}

		var existing model.DoctorScheduleDate
		err := tx.Where("schedule_id = ? AND date = ?", scheduleID, date).First(&existing).Error
		switch {
		case err == nil:
			if !update {
				return ErrScheduleDateExists
			}
			existing.Status = status
			existing.Notes = notes
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = existing
			return nil
		case err == gorm.ErrRecordNotFound:
			result = model.DoctorScheduleDate{
				ScheduleID: scheduleID,
				Date:       date,
				Status:     status,
				Notes:      notes,
			}
			return tx.Create(&result).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDatesInRange returns a doctor's materialized schedule dates between two
// dates inclusive, ordered by date.
func (s *ScheduleService) ListDatesInRange(ctx context.Context, doctorID uint, from, to string) ([]model.DoctorScheduleDate, error) {
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}
	var dates []model.DoctorScheduleDate
	err := s.db.WithContext(ctx).
		Joins("JOIN doctor_schedules ON doctor_schedules.id = doctor_schedule_dates.schedule_id").
		Where("doctor_schedules.doctor_id = ? AND doctor_schedule_dates.date BETWEEN ? AND ?", doctorID, from, to).
		Order("doctor_schedule_dates.date ASC").
		Find(&dates).Error
	return dates, err
}

// ListAvailableSlots resolves every ACTIVE schedule date for the doctor on the
// given date and reports the schedules that still have open slots.
func (s *ScheduleService) ListAvailableSlots(ctx context.Context, doctorID uint, date string) ([]SlotAvailability, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	db := s.db.WithContext(ctx)

	var doctor model.Doctor
	if err := db.First(&doctor, doctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	var dates []model.DoctorScheduleDate
	if err := db.
		Joins("JOIN doctor_schedules ON doctor_schedules.id = doctor_schedule_dates.schedule_id").
		Where("doctor_schedules.doctor_id = ? AND doctor_schedule_dates.date = ? AND doctor_schedule_dates.status = ?",
			doctorID, date, model.ScheduleDateActive).
		Find(&dates).Error; err != nil {
		return nil, err
	}

	slots := make([]SlotAvailability, 0, len(dates))
	for _, sd := range dates {
		var schedule model.DoctorSchedule
		if err := db.First(&schedule, sd.ScheduleID).Error; err != nil {
			return nil, err
		}
		booked, err := countNonCancelledAppointments(db, sd.ScheduleID, date)
		if err != nil {
			return nil, err
		}
		remaining := schedule.MaxAppointments - int(booked)
		if remaining > 0 {
			slots = append(slots, SlotAvailability{Schedule: schedule, Date: date, Remaining: remaining})
		}
	}
	return slots, nil
}

// IsDoctorAvailable reports whether the doctor has at least one open slot on
// the given date.
func (s *ScheduleService) IsDoctorAvailable(ctx context.Context, doctorID uint, date string) (bool, error) {
	slots, err := s.ListAvailableSlots(ctx, doctorID, date)
	if err != nil {
		return false, err
	}
	return len(slots) > 0, nil
}

// countNonCancelledAppointments counts appointments for a schedule on a date
// that still occupy a slot. Cancelled appointments release theirs.
func countNonCancelledAppointments(db *gorm.DB, scheduleID uint, date string) (int64, error) {
	var count int64
	err := db.Model(&model.Appointment{}).
		Where("schedule_id = ? AND date = ? AND status <> ?", scheduleID, date, model.AppointmentCancelled).
		Count(&count).Error
	return count, err
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citasalud/hospital-api/model"
)

// CompletionEvent is handed to completion hooks when an appointment reaches
// COMPLETED. The clinical record store consumes it to append history.
type CompletionEvent struct {
	AppointmentID uint
	PatientID     uint
	DoctorID      uint
	Effectiveness int
	Timestamp     time.Time
}

// CompletionHook receives completion events after the status change commits.
type CompletionHook func(CompletionEvent)

// AppointmentService owns the appointment lifecycle: capacity-checked booking
// and the status state machine.
type AppointmentService struct {
	db    *gorm.DB
	hooks []CompletionHook
}

func NewAppointmentService(db *gorm.DB) *AppointmentService {
	return &AppointmentService{db: db}
}

// OnCompletion registers a hook fired after every successful completion.
// Hooks run synchronously, in registration order, outside the transaction.
func (s *AppointmentService) OnCompletion(hook CompletionHook) {
	s.hooks = append(s.hooks, hook)
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects with row locks.
// SQLite rejects the clause and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// BookRequest carries the fields for a new booking.
type BookRequest struct {
	PatientID   uint
	ScheduleID  uint
	Date        string
	SpecialtyID uint
	Reason      string
}

// Book creates an appointment in state SCHEDULED if the schedule still has an
// open slot on the date. The capacity check and the insert run inside one
// transaction holding a lock on the schedule row, so two concurrent bookings
// for the last slot cannot both succeed.
func (s *AppointmentService) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}

	db := s.db.WithContext(ctx)
	appointment := model.Appointment{
		PatientID:   req.PatientID,
		ScheduleID:  req.ScheduleID,
		Date:        req.Date,
		SpecialtyID: req.SpecialtyID,
		Status:      model.AppointmentScheduled,
		Reason:      req.Reason,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Lock the schedule row before any other read. This serializes
		// concurrent bookings against the same schedule, and on MySQL it
		// must be the transaction's first statement: InnoDB pins the
		// repeatable-read snapshot at the first consistent read, so a
		// snapshot taken before the lock is acquired would miss bookings
		// committed while waiting for it. SQLite has no row locks but
		// serializes writers itself.
		var schedule model.DoctorSchedule
		if err := lockForUpdate(tx).First(&schedule, req.ScheduleID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrScheduleNotFound
			}
			return err
		}

		var patient model.Patient
		if err := tx.First(&patient, req.PatientID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrPatientNotFound
			}
			return err
		}

		var specialty model.Specialty
		if err := tx.First(&specialty, req.SpecialtyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSpecialtyNotFound
			}
			return err
		}

		var scheduleDate model.DoctorScheduleDate
		if err := tx.Where("schedule_id = ? AND date = ?", req.ScheduleID, req.Date).
			First(&scheduleDate).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrDateUnavailable
			}
			return err
		}
		if !scheduleDate.Bookable() {
			return ErrDateUnavailable
		}

		// Locking count: a current read under InnoDB, whose next-key locks
		// also block competing inserts for the same (schedule, date).
		booked, err := countNonCancelledAppointments(lockForUpdate(tx), req.ScheduleID, req.Date)
		if err != nil {
			return err
		}
		if int(booked) >= schedule.MaxAppointments {
			return ErrCapacityExceeded
		}

		appointment.ScheduleDateID = scheduleDate.ID
		return tx.Create(&appointment).Error
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Confirm moves a SCHEDULED appointment to CONFIRMED.
func (s *AppointmentService) Confirm(ctx context.Context, appointmentID uint) (*model.Appointment, error) {
	return s.transition(ctx, appointmentID, model.AppointmentConfirmed, nil)
}

// Cancel moves an appointment to CANCELLED, releasing its slot.
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID uint, reason string) (*model.Appointment, error) {
	return s.transition(ctx, appointmentID, model.AppointmentCancelled, func(a *model.Appointment) {
		a.CancelReason = reason
	})
}

// MarkNoShow moves an appointment to NO_SHOW.
func (s *AppointmentService) MarkNoShow(ctx context.Context, appointmentID uint) (*model.Appointment, error) {
	return s.transition(ctx, appointmentID, model.AppointmentNoShow, nil)
}

// Complete moves an appointment to COMPLETED, records the effectiveness score
// and fires the completion hooks.
func (s *AppointmentService) Complete(ctx context.Context, appointmentID uint, effectiveness int) (*model.Appointment, error) {
	if effectiveness < 0 || effectiveness > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrEffectivenessRange, effectiveness)
	}

	appointment, err := s.transition(ctx, appointmentID, model.AppointmentCompleted, func(a *model.Appointment) {
		a.Effectiveness = &effectiveness
	})
	if err != nil {
		return nil, err
	}

	event := CompletionEvent{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		Effectiveness: effectiveness,
		Timestamp:     time.Now(),
	}
	var schedule model.DoctorSchedule
	if err := s.db.WithContext(ctx).First(&schedule, appointment.ScheduleID).Error; err == nil {
		event.DoctorID = schedule.DoctorID
	} else {
		log.Printf("failed to load schedule %d for completion event: %v", appointment.ScheduleID, err)
	}
	for _, hook := range s.hooks {
		hook(event)
	}
	return appointment, nil
}

// transition applies the state machine: it loads the appointment, verifies
// the move is permitted and persists the new status plus any extra mutation.
func (s *AppointmentService) transition(ctx context.Context, appointmentID uint, to string, mutate func(*model.Appointment)) (*model.Appointment, error) {
	db := s.db.WithContext(ctx)
	var appointment model.Appointment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appointment, appointmentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrAppointmentNotFound
			}
			return err
		}
		if !model.CanTransition(appointment.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, appointment.Status, to)
		}
		appointment.Status = to
		if mutate != nil {
			mutate(&appointment)
		}
		return tx.Save(&appointment).Error
	})
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// AppointmentFilter narrows QueryByDateAndFilters. Nil fields are skipped.
type AppointmentFilter struct {
	DoctorID    *uint
	SpecialtyID *uint
}

// QueryByDateAndFilters returns the appointments on a date, optionally
// narrowed to one doctor or one specialty.
func (s *AppointmentService) QueryByDateAndFilters(ctx context.Context, date string, filter AppointmentFilter) ([]model.Appointment, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	query := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("appointments.date = ?", date)
	if filter.DoctorID != nil {
		query = query.
			Joins("JOIN doctor_schedules ON doctor_schedules.id = appointments.schedule_id").
			Where("doctor_schedules.doctor_id = ?", *filter.DoctorID)
	}
	if filter.SpecialtyID != nil {
		query = query.Where("appointments.specialty_id = ?", *filter.SpecialtyID)
	}

	var appointments []model.Appointment
	err := query.Order("appointments.id ASC").Find(&appointments).Error
	return appointments, err
}

// ListByPatient returns all of a patient's appointments, newest date first.
func (s *AppointmentService) ListByPatient(ctx context.Context, patientID uint) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC, id DESC").
		Find(&appointments).Error
	return appointments, err
}

// UpcomingForPatient returns a patient's SCHEDULED and CONFIRMED appointments
// on or after the given date, soonest first.
func (s *AppointmentService) UpcomingForPatient(ctx context.Context, patientID uint, fromDate string) ([]model.Appointment, error) {
	if _, err := time.Parse("2006-01-02", fromDate); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, fromDate)
	}
	var appointments []model.Appointment
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND date >= ? AND status IN ?",
			patientID, fromDate, []string{model.AppointmentScheduled, model.AppointmentConfirmed}).
		Order("date ASC").
		Find(&appointments).Error
	return appointments, err
}

// CountByStatusInRange groups appointment counts by status between two dates
// inclusive, for dashboard statistics.
func (s *AppointmentService) CountByStatusInRange(ctx context.Context, from, to string) (map[string]int64, error) {
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Select("status, COUNT(*) as count").
		Where("date BETWEEN ? AND ?", from, to).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

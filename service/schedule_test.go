package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citasalud/hospital-api/model"
)

func TestCreateWeeklyTemplate(t *testing.T) {
	db := setupServiceDB(t, "create_template")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1001")

	schedule, err := svc.CreateWeeklyTemplate(context.Background(), CreateScheduleRequest{
		DoctorID:        doctor.ID,
		WorkDay:         model.WorkDayMonday,
		StartTime:       "08:00",
		EndTime:         "16:00",
		BreakStart:      "12:00",
		BreakEnd:        "13:00",
		MaxAppointments: 8,
	})
	assert.NoError(t, err)
	assert.NotZero(t, schedule.ID)
	assert.Equal(t, model.WorkDayMonday, schedule.WorkDay)
	assert.Equal(t, 8, schedule.MaxAppointments)
}

func TestCreateWeeklyTemplate_InvalidWindow(t *testing.T) {
	db := setupServiceDB(t, "create_template_invalid")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1002")

	_, err := svc.CreateWeeklyTemplate(context.Background(), CreateScheduleRequest{
		DoctorID:        doctor.ID,
		WorkDay:         model.WorkDayTuesday,
		StartTime:       "16:00",
		EndTime:         "08:00",
		MaxAppointments: 8,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)

	_, err = svc.CreateWeeklyTemplate(context.Background(), CreateScheduleRequest{
		DoctorID:        doctor.ID,
		WorkDay:         model.WorkDayTuesday,
		StartTime:       "08:00",
		EndTime:         "16:00",
		MaxAppointments: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeWindow)
}

func TestCreateWeeklyTemplate_DuplicateWorkDay(t *testing.T) {
	db := setupServiceDB(t, "create_template_dup")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1003")

	req := CreateScheduleRequest{
		DoctorID:        doctor.ID,
		WorkDay:         model.WorkDayWednesday,
		StartTime:       "08:00",
		EndTime:         "16:00",
		MaxAppointments: 5,
	}
	_, err := svc.CreateWeeklyTemplate(context.Background(), req)
	assert.NoError(t, err)

	_, err = svc.CreateWeeklyTemplate(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateWorkDay)
}

func TestCreateWeeklyTemplate_UnknownDoctor(t *testing.T) {
	db := setupServiceDB(t, "create_template_nodoc")
	svc := NewScheduleService(db)

	_, err := svc.CreateWeeklyTemplate(context.Background(), CreateScheduleRequest{
		DoctorID:        999,
		WorkDay:         model.WorkDayMonday,
		StartTime:       "08:00",
		EndTime:         "16:00",
		MaxAppointments: 5,
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestUpdateWeeklyTemplate(t *testing.T) {
	db := setupServiceDB(t, "update_template")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1004")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 5)

	updated, err := svc.UpdateWeeklyTemplate(context.Background(), schedule.ID, CreateScheduleRequest{
		StartTime:       "09:00",
		EndTime:         "14:00",
		MaxAppointments: 3,
	})
	assert.NoError(t, err)
	assert.Equal(t, "09:00", updated.StartTime)
	assert.Equal(t, 3, updated.MaxAppointments)

	_, err = svc.UpdateWeeklyTemplate(context.Background(), 999, CreateScheduleRequest{
		StartTime:       "09:00",
		EndTime:         "14:00",
		MaxAppointments: 3,
	})
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestDeleteTemplate_RemovesDates(t *testing.T) {
	db := setupServiceDB(t, "delete_template")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1005")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayFriday, 5)
	materializeTestDate(t, db, schedule.ID, "2026-09-04", model.ScheduleDateActive)

	err := svc.DeleteTemplate(context.Background(), schedule.ID)
	assert.NoError(t, err)

	var count int64
	db.Model(&model.DoctorScheduleDate{}).Where("schedule_id = ?", schedule.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	err = svc.DeleteTemplate(context.Background(), schedule.ID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestDeleteTemplate_AllowsRecreate(t *testing.T) {
	db := setupServiceDB(t, "delete_recreate")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1013")

	req := CreateScheduleRequest{
		DoctorID:        doctor.ID,
		WorkDay:         model.WorkDayThursday,
		StartTime:       "08:00",
		EndTime:         "16:00",
		MaxAppointments: 4,
	}
	first, err := svc.CreateWeeklyTemplate(context.Background(), req)
	assert.NoError(t, err)

	err = svc.DeleteTemplate(context.Background(), first.ID)
	assert.NoError(t, err)

	// The deleted row must not keep occupying the (doctor, work day) index.
	recreated, err := svc.CreateWeeklyTemplate(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, model.WorkDayThursday, recreated.WorkDay)
}

func TestMaterializeDate(t *testing.T) {
	db := setupServiceDB(t, "materialize")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1006")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 5)

	created, err := svc.MaterializeDate(context.Background(), schedule.ID, "2026-09-07", model.ScheduleDateActive, "", false)
	assert.NoError(t, err)
	assert.Equal(t, model.ScheduleDateActive, created.Status)
	assert.True(t, created.Bookable())

	// Second create for the same pair conflicts.
	_, err = svc.MaterializeDate(context.Background(), schedule.ID, "2026-09-07", model.ScheduleDateActive, "", false)
	assert.ErrorIs(t, err, ErrScheduleDateExists)

	// With update set the existing row is re-statused instead.
	updated, err := svc.MaterializeDate(context.Background(), schedule.ID, "2026-09-07", model.ScheduleDateVacation, "annual leave", true)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, model.ScheduleDateVacation, updated.Status)
	assert.False(t, updated.Bookable())
}

func TestMaterializeDate_Validation(t *testing.T) {
	db := setupServiceDB(t, "materialize_invalid")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1007")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 5)

	_, err := svc.MaterializeDate(context.Background(), schedule.ID, "07-09-2026", model.ScheduleDateActive, "", false)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.MaterializeDate(context.Background(), schedule.ID, "2026-09-07", "OPEN", "", false)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// 2026-09-08 is a Tuesday; the template covers Mondays.
	_, err = svc.MaterializeDate(context.Background(), schedule.ID, "2026-09-08", model.ScheduleDateActive, "", false)
	assert.ErrorIs(t, err, ErrWorkDayMismatch)
	assert.True(t, IsValidation(err))

	_, err = svc.MaterializeDate(context.Background(), 999, "2026-09-07", model.ScheduleDateActive, "", false)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestListDatesInRange(t *testing.T) {
	db := setupServiceDB(t, "dates_in_range")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1008")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 5)
	materializeTestDate(t, db, schedule.ID, "2026-09-07", model.ScheduleDateActive)
	materializeTestDate(t, db, schedule.ID, "2026-09-14", model.ScheduleDateInactive)
	materializeTestDate(t, db, schedule.ID, "2026-10-05", model.ScheduleDateActive)

	dates, err := svc.ListDatesInRange(context.Background(), doctor.ID, "2026-09-01", "2026-09-30")
	assert.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Equal(t, "2026-09-07", dates[0].Date)
	assert.Equal(t, "2026-09-14", dates[1].Date)
}

func TestListAvailableSlots(t *testing.T) {
	db := setupServiceDB(t, "available_slots")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1009")
	patient := createTestPatient(t, db, "G0001")
	specialty := createTestSpecialty(t, db, "Cardiology")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 2)
	scheduleDate := materializeTestDate(t, db, schedule.ID, "2026-09-07", model.ScheduleDateActive)

	slots, err := svc.ListAvailableSlots(context.Background(), doctor.ID, "2026-09-07")
	assert.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].Remaining)

	// A booking consumes one slot, a cancelled one does not.
	appointments := []model.Appointment{
		{PatientID: patient.ID, ScheduleID: schedule.ID, ScheduleDateID: scheduleDate.ID, Date: "2026-09-07", SpecialtyID: specialty.ID, Status: model.AppointmentScheduled},
		{PatientID: patient.ID, ScheduleID: schedule.ID, ScheduleDateID: scheduleDate.ID, Date: "2026-09-07", SpecialtyID: specialty.ID, Status: model.AppointmentCancelled},
	}
	for i := range appointments {
		assert.NoError(t, db.Create(&appointments[i]).Error)
	}

	slots, err = svc.ListAvailableSlots(context.Background(), doctor.ID, "2026-09-07")
	assert.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.Equal(t, 1, slots[0].Remaining)

	available, err := svc.IsDoctorAvailable(context.Background(), doctor.ID, "2026-09-07")
	assert.NoError(t, err)
	assert.True(t, available)
}

func TestListAvailableSlots_InactiveDate(t *testing.T) {
	db := setupServiceDB(t, "available_slots_inactive")
	svc := NewScheduleService(db)
	doctor := createTestDoctor(t, db, "LIC-1010")
	schedule := createTestSchedule(t, db, doctor.ID, model.WorkDayMonday, 5)
	materializeTestDate(t, db, schedule.ID, "2026-09-07", model.ScheduleDateHoliday)

	slots, err := svc.ListAvailableSlots(context.Background(), doctor.ID, "2026-09-07")
	assert.NoError(t, err)
	assert.Empty(t, slots)

	available, err := svc.IsDoctorAvailable(context.Background(), doctor.ID, "2026-09-07")
	assert.NoError(t, err)
	assert.False(t, available)
}

package service

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
)

// setupServiceDB creates an in-memory SQLite database with the full schema
// migrated. The database name is uniquified with the current Unix nanosecond
// timestamp to prevent cross-test contamination in the same process.
func setupServiceDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:servicedb_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Doctor{},
		&model.DoctorSpecialty{},
		&model.Patient{},
		&model.PatientCode{},
		&model.Specialty{},
		&model.DoctorSchedule{},
		&model.DoctorScheduleDate{},
		&model.Appointment{},
		&model.MedicalRecord{},
		&model.MedicalRecordItem{},
		&model.ClinicalSession{},
		&model.Diagnosis{},
		&model.Treatment{},
		&model.Prescription{},
		&model.Notification{},
		&model.UserNotification{},
	)
	if err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	return db
}

func createTestDoctor(t *testing.T, db *gorm.DB, licenseNumber string) *model.Doctor {
	t.Helper()
	user := model.User{
		FirstName: "Ana",
		LastName:  "Martinez",
		Email:     fmt.Sprintf("doctor-%s@example.com", licenseNumber),
		UserType:  model.UserTypeDoctor,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create doctor user: %v", err)
	}
	doctor := model.Doctor{UserID: user.ID, LicenseNumber: licenseNumber}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("failed to create doctor: %v", err)
	}
	return &doctor
}

func createTestPatient(t *testing.T, db *gorm.DB, patientCode string) *model.Patient {
	t.Helper()
	user := model.User{
		FirstName: "Luis",
		LastName:  "Gomez",
		Email:     fmt.Sprintf("patient-%s@example.com", patientCode),
		UserType:  model.UserTypePatient,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create patient user: %v", err)
	}
	patient := model.Patient{UserID: user.ID, PatientCode: patientCode}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	record := model.MedicalRecord{PatientID: patient.ID}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("failed to create medical record: %v", err)
	}
	return &patient
}

func createTestSpecialty(t *testing.T, db *gorm.DB, name string) *model.Specialty {
	t.Helper()
	specialty := model.Specialty{Name: name}
	if err := db.Create(&specialty).Error; err != nil {
		t.Fatalf("failed to create specialty: %v", err)
	}
	return &specialty
}

func createTestSchedule(t *testing.T, db *gorm.DB, doctorID uint, workDay string, maxAppointments int) *model.DoctorSchedule {
	t.Helper()
	schedule := model.DoctorSchedule{
		DoctorID:        doctorID,
		WorkDay:         workDay,
		StartTime:       "08:00",
		EndTime:         "17:00",
		MaxAppointments: maxAppointments,
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}
	return &schedule
}

func materializeTestDate(t *testing.T, db *gorm.DB, scheduleID uint, date, status string) *model.DoctorScheduleDate {
	t.Helper()
	scheduleDate := model.DoctorScheduleDate{
		ScheduleID: scheduleID,
		Date:       date,
		Status:     status,
	}
	if err := db.Create(&scheduleDate).Error; err != nil {
		t.Fatalf("failed to create schedule date: %v", err)
	}
	return &scheduleDate
}

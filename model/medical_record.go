package model

import (
	"time"

	"gorm.io/gorm"
)

// MedicalRecord is a patient's clinical history container, created empty at
// patient registration. Entries are appended as MedicalRecordItem rows.
type MedicalRecord struct {
	gorm.Model
	PatientID uint `json:"patient_id" gorm:"column:patient_id;uniqueIndex"`
}

// MedicalRecordItem is one append-only entry in a medical record, written when
// an appointment completes. Diagnoses, treatments and prescriptions hang off it.
type MedicalRecordItem struct {
	gorm.Model
	MedicalRecordID uint      `json:"medical_record_id" gorm:"column:medical_record_id;index"`
	SessionID       uint      `json:"session_id" gorm:"column:session_id;index"`
	EntryDate       time.Time `json:"entry_date" gorm:"column:entry_date"`
	Notes           string    `json:"notes" gorm:"column:notes;type:text"`
}

// ClinicalSession records the outcome of one completed appointment.
type ClinicalSession struct {
	gorm.Model
	AppointmentID uint      `json:"appointment_id" gorm:"column:appointment_id;uniqueIndex"`
	SessionDate   time.Time `json:"session_date" gorm:"column:session_date"`
	Effectiveness int       `json:"effectiveness" gorm:"column:effectiveness" example:"85"`
	Observations  string    `json:"observations" gorm:"column:observations;type:text"`
}

func (ClinicalSession) TableName() string { return "clinical_sessions" }

// Diagnosis attaches a diagnosed condition to a medical record item.
type Diagnosis struct {
	gorm.Model
	MedicalRecordItemID uint   `json:"medical_record_item_id" gorm:"column:medical_record_item_id;index"`
	Name                string `json:"name" example:"Hypertension"`
	Description         string `json:"description" gorm:"type:text"`
}

// Treatment attaches a prescribed course of treatment to a medical record item.
// @Description Treatment information
type Treatment struct {
	gorm.Model
	MedicalRecordItemID uint   `json:"medical_record_item_id" gorm:"column:medical_record_item_id;index"`
	Description         string `json:"description" gorm:"not null;type:text" example:"Physical therapy twice a week"`
	StartDate           string `json:"start_date" gorm:"column:start_date;size:10" example:"2025-01-15"`
	EndDate             string `json:"end_date" gorm:"column:end_date;size:10" example:"2025-02-15"`
}

// Prescription attaches an issued prescription to a medical record item.
// @Description Prescription information
type Prescription struct {
	gorm.Model
	MedicalRecordItemID uint      `json:"medical_record_item_id" gorm:"column:medical_record_item_id;index"`
	Notes               string    `json:"notes" gorm:"type:text" example:"Losartan 50mg, once daily"`
	IssuedAt            time.Time `json:"issued_at" gorm:"column:issued_at"`
}

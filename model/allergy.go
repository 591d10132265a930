package model

import "gorm.io/gorm"

// Allergy is a reference-data lookup row.
// @Description Allergy information
type Allergy struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex;size:191" example:"Penicillin"`
	Description string `json:"description" gorm:"type:text"`
}

// PatientAllergy links a patient to a known allergy with an optional severity.
type PatientAllergy struct {
	gorm.Model
	PatientID uint   `json:"patient_id" gorm:"column:patient_id;index;uniqueIndex:idx_patient_allergy"`
	AllergyID uint   `json:"allergy_id" gorm:"column:allergy_id;index;uniqueIndex:idx_patient_allergy"`
	Severity  string `json:"severity" gorm:"size:16" example:"SEVERE"`
}

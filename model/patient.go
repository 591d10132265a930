package model

import (
	"time"

	"gorm.io/gorm"
)

// Patient specializes a User with clinical identity data. Every patient owns
// exactly one MedicalRecord, created at registration.
// @Description Patient information
type Patient struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"column:user_id;uniqueIndex"`
	PatientCode string     `json:"patient_code" gorm:"column:patient_code;uniqueIndex;size:16" example:"L0001"`
	BirthDate   *time.Time `json:"birth_date" gorm:"column:birth_date"`
	Gender      string     `json:"gender" gorm:"column:gender;size:16" example:"F"`
	BloodType   string     `json:"blood_type" gorm:"column:blood_type;size:8" example:"O+"`
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Doctor specializes a User with a medical license and specialty links.
// @Description Doctor information
type Doctor struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"column:user_id;uniqueIndex"`
	LicenseNumber string `json:"license_number" gorm:"column:license_number;uniqueIndex;size:64" example:"MED-2031-44"`
}

// Experience levels for a doctor's certification in a specialty.
const (
	ExperienceIntern     = "INTERN"
	ExperienceResident   = "RESIDENT"
	ExperienceSpecialist = "SPECIALIST"
	ExperienceSenior     = "SENIOR"
)

// DoctorSpecialty links a doctor to one of their certified specialties.
type DoctorSpecialty struct {
	gorm.Model
	DoctorID          uint       `json:"doctor_id" gorm:"column:doctor_id;index;uniqueIndex:idx_doctor_specialty"`
	SpecialtyID       uint       `json:"specialty_id" gorm:"column:specialty_id;index;uniqueIndex:idx_doctor_specialty"`
	ExperienceLevel   string     `json:"experience_level" gorm:"column:experience_level;size:16" example:"SPECIALIST"`
	CertificationDate *time.Time `json:"certification_date" gorm:"column:certification_date"`
}

package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Specialty represents a medical specialty
// @Description Specialty information
type Specialty struct {
	gorm.Model
	Name        string `json:"name" gorm:"uniqueIndex;size:191" example:"Cardiology"`
	Description string `json:"description" example:"Heart and circulatory system"`
}

// SeedSpecialties inserts the baseline set of specialties if they are missing.
func SeedSpecialties(db *gorm.DB) error {
	specialties := []Specialty{
		{Name: "General Medicine"},
		{Name: "Cardiology"},
		{Name: "Pediatrics"},
		{Name: "Dermatology"},
	}

	for _, specialty := range specialties {
		var existing Specialty
		err := db.Where("name = ?", specialty.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&specialty).Error; err != nil {
			return fmt.Errorf("failed to seed specialty %s: %w", specialty.Name, err)
		}
	}
	return nil
}

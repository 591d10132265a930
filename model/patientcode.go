package model

import "gorm.io/gorm"

// PatientCode tracks the last sequence number handed out per leading initial,
// used to allocate unique patient codes such as "L0001".
type PatientCode struct {
	gorm.Model
	Alphabet string `json:"alphabet" gorm:"size:1"`
	Number   int    `json:"number"`
	Code     string `json:"code" gorm:"uniqueIndex;size:191"`
}

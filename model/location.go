package model

import "gorm.io/gorm"

// Country is a flat reference-data lookup row.
type Country struct {
	gorm.Model
	Name string `json:"name" gorm:"uniqueIndex;size:191" example:"Colombia"`
	Code string `json:"code" gorm:"size:8" example:"CO"`
}

// City is a flat reference-data lookup row belonging to a country.
type City struct {
	gorm.Model
	CountryID uint   `json:"country_id" gorm:"column:country_id;index"`
	Name      string `json:"name" gorm:"size:191" example:"Medellín"`
}

// Address is a user's postal address.
type Address struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"column:user_id;uniqueIndex"`
	CityID uint   `json:"city_id" gorm:"column:city_id;index"`
	Line1  string `json:"line1" gorm:"column:line1" example:"Calle 10 #43-12"`
	Line2  string `json:"line2" gorm:"column:line2"`
	Zip    string `json:"zip" gorm:"size:16"`
}

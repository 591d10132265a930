package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/middleware"
	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

type createDoctorRequest struct {
	CC            string `json:"cc" binding:"required" example:"10203040"`
	FirstName     string `json:"first_name" binding:"required" example:"Sofia"`
	LastName      string `json:"last_name" binding:"required" example:"Rios"`
	Phone         string `json:"phone" example:"3001234567"`
	Email         string `json:"email" binding:"required,email" example:"sofia.rios@example.com"`
	Password      string `json:"password" binding:"required,min=8" example:"password123"`
	LicenseNumber string `json:"license_number" binding:"required" example:"MED-12345"`
	SpecialtyIDs  []uint `json:"specialty_ids" example:"1,2"`
	Experience    string `json:"experience" example:"SPECIALIST"`
}

// CreateDoctor godoc
// @Summary      Register a doctor
// @Description  Create a doctor account with its user, license and specialty links
// @Tags         Doctors
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body createDoctorRequest true "Doctor details"
// @Success      200 {object} util.APIResponse "Doctor created"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      409 {object} util.APIResponse "License or email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor [post]
func CreateDoctor(c *gin.Context) {
	var req createDoctorRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	hashedPassword, salt, ok := hashPasswordForSignup(c, req.Password)
	if !ok {
		return
	}

	doctor, err := service.NewRegistryService(db).RegisterDoctor(c.Request.Context(), service.RegisterDoctorRequest{
		CC:            req.CC,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Email:         req.Email,
		Password:      hashedPassword,
		PasswordSalt:  salt,
		LicenseNumber: req.LicenseNumber,
		SpecialtyIDs:  req.SpecialtyIDs,
		Experience:    req.Experience,
	})
	if err != nil {
		respondServiceError(c, "Failed to create doctor", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor created",
		Data: doctor,
	})
}

type doctorListItem struct {
	model.Doctor
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func fetchDoctors(db *gorm.DB, limit, offset int, keyword string) ([]doctorListItem, int64, error) {
	var doctors []doctorListItem
	var total int64

	query := db.Table("doctors").
		Joins("JOIN users ON users.id = doctors.user_id").
		Select("doctors.*, users.first_name, users.last_name, users.email").
		Where("doctors.deleted_at IS NULL AND users.is_active = ?", true)
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("users.first_name LIKE ? OR users.last_name LIKE ? OR doctors.license_number = ?", kw, kw, keyword)
	}

	countQuery := query.Session(&gorm.Session{})
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Order("doctors.id ASC").Find(&doctors).Error; err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

// ListDoctors godoc
// @Summary      List doctors
// @Description  Get doctors with their user info, optionally filtered by keyword or specialty
// @Tags         Doctors
// @Produce      json
// @Security     SessionToken
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search by name or license number"
// @Param        specialty_id query int false "Filter by specialty"
// @Success      200 {object} util.APIResponse "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if specialtyID := parseUintQuery(c, "specialty_id"); specialtyID != 0 {
		doctors, err := service.NewRegistryService(db).ListDoctorsBySpecialty(c.Request.Context(), specialtyID)
		if err != nil {
			respondServiceError(c, "Failed to list doctors", err)
			return
		}
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Doctors retrieved",
			Data: map[string]interface{}{"doctors": doctors, "total": len(doctors)},
		})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 10, 100)
	offset := parsePositiveInt(c.Query("offset"), 0, 0)
	doctors, total, err := fetchDoctors(db, limit, offset, c.Query("keyword"))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list doctors", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Doctors retrieved",
		Data: map[string]interface{}{
			"doctors": doctors,
			"total":   total,
		},
	})
}

// GetDoctorInfo godoc
// @Summary      Get doctor info
// @Description  Retrieve a doctor with user profile and specialties by ID or license number
// @Tags         Doctors
// @Produce      json
// @Security     SessionToken
// @Param        id path string true "Doctor ID or license number"
// @Success      200 {object} util.APIResponse "Doctor retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor/{id} [get]
func GetDoctorInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	identifier := c.Param("id")
	var doctor model.Doctor
	err := db.First(&doctor, "id = ?", identifier).Error
	if err == gorm.ErrRecordNotFound {
		found, serr := service.NewRegistryService(db).FindDoctorByLicense(c.Request.Context(), identifier)
		if serr != nil {
			respondServiceError(c, "Doctor not found", serr)
			return
		}
		doctor = *found
	} else if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctor", Err: err})
		return
	}

	var user model.User
	if err := db.First(&user, doctor.UserID).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctor profile", Err: err})
		return
	}

	var specialties []model.Specialty
	if err := db.
		Joins("JOIN doctor_specialties ON doctor_specialties.specialty_id = specialties.id").
		Where("doctor_specialties.doctor_id = ?", doctor.ID).
		Find(&specialties).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve specialties", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Doctor retrieved",
		Data: map[string]interface{}{
			"doctor":      doctor,
			"user":        user,
			"specialties": specialties,
		},
	})
}

// DeleteDoctor godoc
// @Summary      Deactivate a doctor
// @Description  Soft-delete the doctor and deactivate the linked user account
// @Tags         Doctors
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse "Doctor deleted"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctor/{id} [delete]
func DeleteDoctor(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var doctor model.Doctor
		if err := tx.First(&doctor, uid).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", doctor.UserID).Update("is_active", false).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("doctor_id = ?", doctor.ID).Delete(&model.DoctorSpecialty{}).Error; err != nil {
			return err
		}
		// Unscoped so the license and user_id unique indexes free up for a
		// later re-registration.
		return tx.Unscoped().Delete(&doctor).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete doctor", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Doctor deleted"})
}

package endpoint

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

type createPatientRequest struct {
	CC          string `json:"cc" binding:"required" example:"10203040"`
	FirstName   string `json:"first_name" binding:"required" example:"Laura"`
	LastName    string `json:"last_name" binding:"required" example:"Gomez"`
	Phone       string `json:"phone" example:"3001234567"`
	Email       string `json:"email" binding:"required,email" example:"laura.gomez@example.com"`
	Password    string `json:"password" binding:"required,min=8" example:"password123"`
	BirthDate   string `json:"birth_date" example:"1994-06-21"`
	Gender      string `json:"gender" example:"F"`
	BloodType   string `json:"blood_type" example:"O+"`
	PatientCode string `json:"patient_code" example:"G0001"`
}

// CreatePatient godoc
// @Summary      Register a patient
// @Description  Create a patient account with its user, patient code and empty medical record
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body createPatientRequest true "Patient details"
// @Success      200 {object} util.APIResponse "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      409 {object} util.APIResponse "Email or patient code already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "birth_date must be YYYY-MM-DD", Err: err})
			return
		}
		birthDate = &parsed
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	hashedPassword, salt, ok := hashPasswordForSignup(c, req.Password)
	if !ok {
		return
	}

	patient, err := service.NewRegistryService(db).RegisterPatient(c.Request.Context(), service.RegisterPatientRequest{
		CC:           req.CC,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Email:        req.Email,
		Password:     hashedPassword,
		PasswordSalt: salt,
		BirthDate:    birthDate,
		Gender:       req.Gender,
		BloodType:    req.BloodType,
		PatientCode:  req.PatientCode,
	})
	if err != nil {
		respondServiceError(c, "Failed to create patient", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

type patientListItem struct {
	model.Patient
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	CC        string `json:"cc"`
}

func fetchPatients(db *gorm.DB, limit, offset int, keyword string) ([]patientListItem, int64, error) {
	var patients []patientListItem
	var total int64

	query := db.Table("patients").
		Joins("JOIN users ON users.id = patients.user_id").
		Select("patients.*, users.first_name, users.last_name, users.email, users.cc").
		Where("patients.deleted_at IS NULL AND users.is_active = ?", true)
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where(
			"users.first_name LIKE ? OR users.last_name LIKE ? OR patients.patient_code = ? OR users.cc = ?",
			kw, kw, keyword, keyword,
		)
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
	if err := query.Order("patients.id ASC").Find(&patients).Error; err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

// ListPatients godoc
// @Summary      List patients
// @Description  Get patients with their user info, optionally filtered by keyword
// @Tags         Patients
// @Produce      json
// @Security     SessionToken
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search by name, patient code or document number"
// @Success      200 {object} util.APIResponse "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 10, 100)
	offset := parsePositiveInt(c.Query("offset"), 0, 0)
	patients, total, err := fetchPatients(db, limit, offset, c.Query("keyword"))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list patients", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patients retrieved",
		Data: map[string]interface{}{
			"patients": patients,
			"total":    total,
		},
	})
}

// GetPatientInfo godoc
// @Summary      Get patient info
// @Description  Retrieve a patient by ID, patient code, document number or email
// @Tags         Patients
// @Produce      json
// @Security     SessionToken
// @Param        id path string true "Patient ID or identifier"
// @Success      200 {object} util.APIResponse "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	identifier := c.Param("id")
	var patient model.Patient
	err := db.First(&patient, "id = ?", identifier).Error
	if err == gorm.ErrRecordNotFound {
		found, serr := service.NewRegistryService(db).FindPatientByIdentifier(c.Request.Context(), identifier)
		if serr != nil {
			respondServiceError(c, "Patient not found", serr)
			return
		}
		patient = *found
	} else if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patient", Err: err})
		return
	}

	var user model.User
	if err := db.First(&user, patient.UserID).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patient profile", Err: err})
		return
	}

	allergies, err := fetchPatientAllergies(db, patient.ID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve allergies", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient retrieved",
		Data: map[string]interface{}{
			"patient":   patient,
			"user":      user,
			"allergies": allergies,
		},
	})
}

type patientAllergyView struct {
	ID        uint   `json:"id"`
	AllergyID uint   `json:"allergy_id"`
	Name      string `json:"name"`
	Severity  string `json:"severity"`
}

func fetchPatientAllergies(db *gorm.DB, patientID uint) ([]patientAllergyView, error) {
	var allergies []patientAllergyView
	err := db.Table("patient_allergies").
		Joins("JOIN allergies ON allergies.id = patient_allergies.allergy_id").
		Select("patient_allergies.id, patient_allergies.allergy_id, allergies.name, patient_allergies.severity").
		Where("patient_allergies.patient_id = ? AND patient_allergies.deleted_at IS NULL", patientID).
		Order("allergies.name ASC").
		Find(&allergies).Error
	return allergies, err
}

type addPatientAllergyRequest struct {
	AllergyID uint   `json:"allergy_id" binding:"required" example:"3"`
	Severity  string `json:"severity" example:"SEVERE"`
}

// AddPatientAllergy godoc
// @Summary      Record a patient allergy
// @Description  Link a known allergy to the patient with an optional severity
// @Tags         Patients
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Param        request body addPatientAllergyRequest true "Allergy link"
// @Success      200 {object} util.APIResponse "Allergy recorded"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "Patient or allergy not found"
// @Failure      409 {object} util.APIResponse "Allergy already recorded"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id}/allergy [post]
func AddPatientAllergy(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req addPatientAllergyRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var link model.PatientAllergy
	err = db.Transaction(func(tx *gorm.DB) error {
		var patient model.Patient
		if err := tx.First(&patient, uid).Error; err != nil {
			return err
		}
		var allergy model.Allergy
		if err := tx.First(&allergy, req.AllergyID).Error; err != nil {
			return err
		}

		var existing model.PatientAllergy
		err := tx.Where("patient_id = ? AND allergy_id = ?", uid, req.AllergyID).First(&existing).Error
		if err == nil {
			return gorm.ErrDuplicatedKey
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		link = model.PatientAllergy{PatientID: uid, AllergyID: req.AllergyID, Severity: req.Severity}
		return tx.Create(&link).Error
	})
	if err != nil {
		switch err {
		case gorm.ErrRecordNotFound:
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient or allergy not found", Err: err})
		case gorm.ErrDuplicatedKey:
			util.CallUserConflict(c, util.APIErrorParams{Msg: "Allergy already recorded for this patient", Err: err})
		default:
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to record allergy", Err: err})
		}
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Allergy recorded",
		Data: link,
	})
}

// RemovePatientAllergy godoc
// @Summary      Remove a patient allergy
// @Description  Unlink an allergy from a patient
// @Tags         Patients
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Param        allergyID path int true "Allergy ID"
// @Success      200 {object} util.APIResponse "Allergy removed"
// @Failure      404 {object} util.APIResponse "Allergy link not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id}/allergy/{allergyID} [delete]
func RemovePatientAllergy(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	// Unscoped so the (patient, allergy) unique index frees up if the
	// allergy is recorded again later.
	result := db.Unscoped().Where("patient_id = ? AND allergy_id = ?", uid, c.Param("allergyID")).
		Delete(&model.PatientAllergy{})
	if result.Error != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to remove allergy", Err: result.Error})
		return
	}
	if result.RowsAffected == 0 {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Allergy link not found", Err: gorm.ErrRecordNotFound})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Allergy removed"})
}

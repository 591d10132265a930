package endpoint

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

// GetMedicalRecord godoc
// @Summary      Get a patient's medical record
// @Description  Retrieve the record container with all entries ordered by entry date
// @Tags         MedicalRecords
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse "Record retrieved"
// @Failure      404 {object} util.APIResponse "Record not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-record/patient/{id} [get]
func GetMedicalRecord(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	record, err := service.NewClinicalService(db).GetRecord(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, "Failed to retrieve medical record", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Record retrieved",
		Data: record,
	})
}

type addDiagnosisRequest struct {
	Name        string `json:"name" binding:"required" example:"Hypertension"`
	Description string `json:"description" example:"Stage 1, monitor monthly"`
}

// AddDiagnosis godoc
// @Summary      Attach a diagnosis to a record entry
// @Tags         MedicalRecords
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Record entry ID"
// @Param        request body addDiagnosisRequest true "Diagnosis"
// @Success      200 {object} util.APIResponse{data=model.Diagnosis} "Diagnosis added"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "Record entry not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-record/item/{id}/diagnosis [post]
func AddDiagnosis(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req addDiagnosisRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	diagnosis, err := service.NewClinicalService(db).AddDiagnosis(c.Request.Context(), uid, model.Diagnosis{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, "Failed to add diagnosis", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Diagnosis added",
		Data: diagnosis,
	})
}

type addTreatmentRequest struct {
	Description string `json:"description" binding:"required" example:"Physical therapy twice a week"`
	StartDate   string `json:"start_date" example:"2026-09-15"`
	EndDate     string `json:"end_date" example:"2026-10-15"`
}

// AddTreatment godoc
// @Summary      Attach a treatment to a record entry
// @Tags         MedicalRecords
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Record entry ID"
// @Param        request body addTreatmentRequest true "Treatment"
// @Success      200 {object} util.APIResponse{data=model.Treatment} "Treatment added"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "Record entry not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-record/item/{id}/treatment [post]
func AddTreatment(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req addTreatmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	for _, d := range []string{req.StartDate, req.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Treatment dates must be YYYY-MM-DD", Err: err})
			return
		}
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	treatment, err := service.NewClinicalService(db).AddTreatment(c.Request.Context(), uid, model.Treatment{
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		respondServiceError(c, "Failed to add treatment", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatment added",
		Data: treatment,
	})
}

type addPrescriptionRequest struct {
	Notes string `json:"notes" binding:"required" example:"Losartan 50mg, once daily"`
}

// AddPrescription godoc
// @Summary      Attach a prescription to a record entry
// @Tags         MedicalRecords
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Record entry ID"
// @Param        request body addPrescriptionRequest true "Prescription"
// @Success      200 {object} util.APIResponse{data=model.Prescription} "Prescription added"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "Record entry not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /medical-record/item/{id}/prescription [post]
func AddPrescription(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req addPrescriptionRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	prescription, err := service.NewClinicalService(db).AddPrescription(c.Request.Context(), uid, model.Prescription{
		Notes:    req.Notes,
		IssuedAt: time.Now(),
	})
	if err != nil {
		respondServiceError(c, "Failed to add prescription", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescription added",
		Data: prescription,
	})
}

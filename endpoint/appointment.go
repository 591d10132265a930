package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

type bookAppointmentRequest struct {
	PatientID   uint   `json:"patient_id" binding:"required" example:"7"`
	ScheduleID  uint   `json:"schedule_id" binding:"required" example:"3"`
	Date        string `json:"date" binding:"required" example:"2026-09-14"`
	SpecialtyID uint   `json:"specialty_id" binding:"required" example:"2"`
	Reason      string `json:"reason" example:"Routine checkup"`
}

// BookAppointment godoc
// @Summary      Book an appointment
// @Description  Reserve a slot for a patient on a materialized schedule date, enforcing capacity
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body bookAppointmentRequest true "Booking details"
// @Success      200 {object} util.APIResponse "Appointment booked"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "Patient, specialty or schedule not found"
// @Failure      409 {object} util.APIResponse "Date unavailable or capacity exceeded"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment [post]
func BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, err := newAppointmentService(db).Book(c.Request.Context(), service.BookRequest{
		PatientID:   req.PatientID,
		ScheduleID:  req.ScheduleID,
		Date:        req.Date,
		SpecialtyID: req.SpecialtyID,
		Reason:      req.Reason,
	})
	if err != nil {
		respondServiceError(c, "Failed to book appointment", err)
		return
	}

	notifyPatientOfAppointment(db, appointment.PatientID,
		"Appointment booked",
		fmt.Sprintf("Your appointment on %s has been booked.", appointment.Date))

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment booked",
		Data: appointment,
	})
}

// ConfirmAppointment godoc
// @Summary      Confirm an appointment
// @Tags         Appointments
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse "Appointment confirmed"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Invalid state transition"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/{id}/confirm [put]
func ConfirmAppointment(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, err := newAppointmentService(db).Confirm(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, "Failed to confirm appointment", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment confirmed",
		Data: appointment,
	})
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason" example:"Patient requested reschedule"`
}

// CancelAppointment godoc
// @Summary      Cancel an appointment
// @Description  Cancel a scheduled or confirmed appointment, releasing its slot
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Appointment ID"
// @Param        request body cancelAppointmentRequest false "Cancellation reason"
// @Success      200 {object} util.APIResponse "Appointment cancelled"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Invalid state transition"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/{id}/cancel [put]
func CancelAppointment(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req cancelAppointmentRequest
	_ = c.ShouldBindJSON(&req)

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, err := newAppointmentService(db).Cancel(c.Request.Context(), uid, req.Reason)
	if err != nil {
		respondServiceError(c, "Failed to cancel appointment", err)
		return
	}

	notifyPatientOfAppointment(db, appointment.PatientID,
		"Appointment cancelled",
		fmt.Sprintf("Your appointment on %s has been cancelled.", appointment.Date))

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment cancelled",
		Data: appointment,
	})
}

// MarkAppointmentNoShow godoc
// @Summary      Mark an appointment as a no-show
// @Tags         Appointments
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse "Appointment marked as no-show"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Invalid state transition"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/{id}/no-show [put]
func MarkAppointmentNoShow(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, err := newAppointmentService(db).MarkNoShow(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, "Failed to mark appointment as no-show", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment marked as no-show",
		Data: appointment,
	})
}

type completeAppointmentRequest struct {
	Effectiveness int `json:"effectiveness" example:"85"`
}

// CompleteAppointment godoc
// @Summary      Complete an appointment
// @Description  Close a confirmed appointment with an effectiveness score, appending to the patient's medical record
// @Tags         Appointments
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Appointment ID"
// @Param        request body completeAppointmentRequest true "Completion details"
// @Success      200 {object} util.APIResponse "Appointment completed"
// @Failure      400 {object} util.APIResponse "Effectiveness out of range"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      409 {object} util.APIResponse "Invalid state transition"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/{id}/complete [put]
func CompleteAppointment(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req completeAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, err := newAppointmentService(db).Complete(c.Request.Context(), uid, req.Effectiveness)
	if err != nil {
		respondServiceError(c, "Failed to complete appointment", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment completed",
		Data: appointment,
	})
}

// ListAppointments godoc
// @Summary      List appointments for a date
// @Description  Query appointments on a date, optionally filtered by doctor or specialty
// @Tags         Appointments
// @Produce      json
// @Security     SessionToken
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Param        doctor_id query int false "Filter by doctor"
// @Param        specialty_id query int false "Filter by specialty"
// @Success      200 {object} util.APIResponse "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid date"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment [get]
func ListAppointments(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var filter service.AppointmentFilter
	if doctorID := parseUintQuery(c, "doctor_id"); doctorID != 0 {
		filter.DoctorID = &doctorID
	}
	if specialtyID := parseUintQuery(c, "specialty_id"); specialtyID != 0 {
		filter.SpecialtyID = &specialtyID
	}

	appointments, err := newAppointmentService(db).QueryByDateAndFilters(
		c.Request.Context(), c.Query("date"), filter)
	if err != nil {
		respondServiceError(c, "Failed to list appointments", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Appointments retrieved",
		Data: map[string]interface{}{
			"appointments": appointments,
			"total":        len(appointments),
		},
	})
}

// ListPatientAppointments godoc
// @Summary      List a patient's appointments
// @Description  Full history by default, or only upcoming ones when upcoming=true
// @Tags         Appointments
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Param        upcoming query bool false "Only scheduled and confirmed appointments from today on"
// @Success      200 {object} util.APIResponse "Appointments retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/patient/{id} [get]
func ListPatientAppointments(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	svc := newAppointmentService(db)
	ctx := c.Request.Context()

	var appointments interface{}
	if c.Query("upcoming") == "true" {
		today := time.Now().Format("2006-01-02")
		appointments, err = svc.UpcomingForPatient(ctx, uid, today)
	} else {
		appointments, err = svc.ListByPatient(ctx, uid)
	}
	if err != nil {
		respondServiceError(c, "Failed to list appointments", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: appointments,
	})
}

// AppointmentStats godoc
// @Summary      Count appointments by status in a date range
// @Tags         Appointments
// @Produce      json
// @Security     SessionToken
// @Param        from query string true "Range start (YYYY-MM-DD)"
// @Param        to query string true "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse "Stats retrieved"
// @Failure      400 {object} util.APIResponse "Invalid range"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointment/stats [get]
func AppointmentStats(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	counts, err := newAppointmentService(db).CountByStatusInRange(
		c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondServiceError(c, "Failed to compute appointment stats", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Stats retrieved",
		Data: counts,
	})
}

package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/citasalud/hospital-api/service"
	"github.com/citasalud/hospital-api/util"
)

type scheduleRequest struct {
	DoctorID        uint   `json:"doctor_id" binding:"required" example:"4"`
	WorkDay         string `json:"work_day" binding:"required" example:"MONDAY"`
	StartTime       string `json:"start_time" binding:"required" example:"08:00"`
	EndTime         string `json:"end_time" binding:"required" example:"17:00"`
	BreakStart      string `json:"break_start" example:"12:00"`
	BreakEnd        string `json:"break_end" example:"13:00"`
	MaxAppointments int    `json:"max_appointments" binding:"required" example:"12"`
}

func (r scheduleRequest) toServiceRequest() service.CreateScheduleRequest {
	return service.CreateScheduleRequest{
		DoctorID:        r.DoctorID,
		WorkDay:         r.WorkDay,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		BreakStart:      r.BreakStart,
		BreakEnd:        r.BreakEnd,
		MaxAppointments: r.MaxAppointments,
	}
}

// CreateSchedule godoc
// @Summary      Create a weekly schedule template
// @Description  Register a recurring availability window for a doctor on a week day
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body scheduleRequest true "Schedule template"
// @Success      200 {object} util.APIResponse "Schedule created"
// @Failure      400 {object} util.APIResponse "Invalid schedule window"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      409 {object} util.APIResponse "Template already exists for that work day"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule [post]
func CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	schedule, err := service.NewScheduleService(db).CreateWeeklyTemplate(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		respondServiceError(c, "Failed to create schedule", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Schedule created",
		Data: schedule,
	})
}

// UpdateSchedule godoc
// @Summary      Update a weekly schedule template
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Schedule ID"
// @Param        request body scheduleRequest true "Schedule template"
// @Success      200 {object} util.APIResponse "Schedule updated"
// @Failure      400 {object} util.APIResponse "Invalid schedule window"
// @Failure      404 {object} util.APIResponse "Schedule not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule/{id} [put]
func UpdateSchedule(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req scheduleRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	schedule, err := service.NewScheduleService(db).UpdateWeeklyTemplate(c.Request.Context(), uid, req.toServiceRequest())
	if err != nil {
		respondServiceError(c, "Failed to update schedule", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Schedule updated",
		Data: schedule,
	})
}

// DeleteSchedule godoc
// @Summary      Delete a weekly schedule template
// @Description  Remove the template and all of its materialized dates
// @Tags         Schedules
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Schedule ID"
// @Success      200 {object} util.APIResponse "Schedule deleted"
// @Failure      404 {object} util.APIResponse "Schedule not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule/{id} [delete]
func DeleteSchedule(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if err := service.NewScheduleService(db).DeleteTemplate(c.Request.Context(), uid); err != nil {
		respondServiceError(c, "Failed to delete schedule", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Schedule deleted"})
}

// ListSchedules godoc
// @Summary      List a doctor's schedule templates
// @Tags         Schedules
// @Produce      json
// @Security     SessionToken
// @Param        doctor_id query int true "Doctor ID"
// @Success      200 {object} util.APIResponse "Schedules retrieved"
// @Failure      400 {object} util.APIResponse "Missing doctor_id"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule [get]
func ListSchedules(c *gin.Context) {
	doctorID := parseUintQuery(c, "doctor_id")
	if doctorID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "doctor_id query parameter is required"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	schedules, err := service.NewScheduleService(db).ListSchedules(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, "Failed to list schedules", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Schedules retrieved",
		Data: map[string]interface{}{
			"schedules": schedules,
			"total":     len(schedules),
		},
	})
}

type materializeDateRequest struct {
	Date   string `json:"date" binding:"required" example:"2026-09-14"`
	Status string `json:"status" binding:"required" example:"ACTIVE"`
	Notes  string `json:"notes" example:"Morning shift only"`
	Update bool   `json:"update" example:"false"`
}

// MaterializeScheduleDate godoc
// @Summary      Materialize a schedule date
// @Description  Pin a template to a concrete calendar date with a status, or restate an existing one when update is set
// @Tags         Schedules
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Schedule ID"
// @Param        request body materializeDateRequest true "Date materialization"
// @Success      200 {object} util.APIResponse "Date materialized"
// @Failure      400 {object} util.APIResponse "Invalid date or status"
// @Failure      404 {object} util.APIResponse "Schedule not found"
// @Failure      409 {object} util.APIResponse "Date already materialized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule/{id}/date [post]
func MaterializeScheduleDate(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	var req materializeDateRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	date, err := service.NewScheduleService(db).MaterializeDate(
		c.Request.Context(), uid, req.Date, req.Status, req.Notes, req.Update)
	if err != nil {
		respondServiceError(c, "Failed to materialize date", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Date materialized",
		Data: date,
	})
}

// ListScheduleDates godoc
// @Summary      List materialized dates in a range
// @Tags         Schedules
// @Produce      json
// @Security     SessionToken
// @Param        doctor_id query int true "Doctor ID"
// @Param        from query string true "Range start (YYYY-MM-DD)"
// @Param        to query string true "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse "Dates retrieved"
// @Failure      400 {object} util.APIResponse "Invalid range"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule/dates [get]
func ListScheduleDates(c *gin.Context) {
	doctorID := parseUintQuery(c, "doctor_id")
	if doctorID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "doctor_id query parameter is required"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	dates, err := service.NewScheduleService(db).ListDatesInRange(
		c.Request.Context(), doctorID, c.Query("from"), c.Query("to"))
	if err != nil {
		respondServiceError(c, "Failed to list schedule dates", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Dates retrieved",
		Data: map[string]interface{}{
			"dates": dates,
			"total": len(dates),
		},
	})
}

// GetDoctorAvailability godoc
// @Summary      Get a doctor's open slots on a date
// @Description  List each active schedule for the date with its remaining capacity
// @Tags         Schedules
// @Produce      json
// @Security     SessionToken
// @Param        doctor_id query int true "Doctor ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse "Availability retrieved"
// @Failure      400 {object} util.APIResponse "Invalid date"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /schedule/availability [get]
func GetDoctorAvailability(c *gin.Context) {
	doctorID := parseUintQuery(c, "doctor_id")
	if doctorID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "doctor_id query parameter is required"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	slots, err := service.NewScheduleService(db).ListAvailableSlots(
		c.Request.Context(), doctorID, c.Query("date"))
	if err != nil {
		respondServiceError(c, "Failed to check availability", err)
		return
	}

	available := false
	for _, slot := range slots {
		if slot.Remaining > 0 {
			available = true
			break
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Availability retrieved",
		Data: map[string]interface{}{
			"available": available,
			"slots":     slots,
		},
	})
}

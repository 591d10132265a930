package endpoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/util"
)

// ListSpecialties godoc
// @Summary      List all specialties
// @Description  Get a paginated list of medical specialties
// @Tags         Specialties
// @Produce      json
// @Security     SessionToken
// @Param        limit query int false "Limit number of results" default(100)
// @Param        offset query int false "Offset for pagination" default(0)
// @Success      200 {object} util.APIResponse{data=[]model.Specialty} "Specialties retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /specialty [get]
func ListSpecialties(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var specialties []model.Specialty
	if err := db.Limit(limit).Offset(offset).Order("name ASC").Find(&specialties).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve specialties",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Specialties retrieved",
		Data: specialties,
	})
}

type specialtyRequest struct {
	Name        string `json:"name" example:"Cardiology"`
	Description string `json:"description" example:"Heart and circulatory system"`
}

func specialtyExists(db *gorm.DB, name string) (bool, error) {
	var s model.Specialty
	err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func fetchSpecialtyByID(db *gorm.DB, id string) (model.Specialty, error) {
	var s model.Specialty
	if err := db.First(&s, id).Error; err != nil {
		return model.Specialty{}, err
	}
	return s, nil
}

// CreateSpecialty godoc
// @Summary      Create a specialty
// @Tags         Specialties
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body specialtyRequest true "Specialty information"
// @Success      200 {object} util.APIResponse{data=model.Specialty} "Specialty created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Specialty already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /specialty [post]
func CreateSpecialty(c *gin.Context) {
	var req specialtyRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body: name is required",
			Err: fmt.Errorf("name is required"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exists, err := specialtyExists(db, name)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to check existing specialties",
			Err: err,
		})
		return
	}
	if exists {
		util.CallUserConflict(c, util.APIErrorParams{
			Msg: "Specialty with this name already exists",
			Err: fmt.Errorf("specialty already exists"),
		})
		return
	}

	specialty := model.Specialty{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := db.Create(&specialty).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create specialty",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Specialty created",
		Data: specialty,
	})
}

// UpdateSpecialty godoc
// @Summary      Update a specialty
// @Tags         Specialties
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Specialty ID"
// @Param        request body specialtyRequest true "Updated specialty information"
// @Success      200 {object} util.APIResponse{data=model.Specialty} "Specialty updated"
// @Failure      404 {object} util.APIResponse "Specialty not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /specialty/{id} [patch]
func UpdateSpecialty(c *gin.Context) {
	var req specialtyRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	existing, err := fetchSpecialtyByID(db, c.Param("id"))
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Specialty not found",
			Err: err,
		})
		return
	}

	if req.Name != "" {
		req.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		req.Description = strings.TrimSpace(req.Description)
	}
	if err := db.Model(&existing).Updates(req).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update specialty",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Specialty updated",
		Data: existing,
	})
}

// DeleteSpecialty godoc
// @Summary      Delete a specialty
// @Description  Soft delete a specialty; fails while doctors are still linked to it
// @Tags         Specialties
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Specialty ID"
// @Success      200 {object} util.APIResponse "Specialty deleted"
// @Failure      404 {object} util.APIResponse "Specialty not found"
// @Failure      409 {object} util.APIResponse "Specialty still in use"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /specialty/{id} [delete]
func DeleteSpecialty(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	existing, err := fetchSpecialtyByID(db, c.Param("id"))
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Specialty not found",
			Err: err,
		})
		return
	}

	var linked int64
	if err := db.Model(&model.DoctorSpecialty{}).
		Where("specialty_id = ?", existing.ID).
		Count(&linked).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to check specialty usage",
			Err: err,
		})
		return
	}
	if linked > 0 {
		util.CallUserConflict(c, util.APIErrorParams{
			Msg: "Specialty is still assigned to doctors",
			Err: fmt.Errorf("specialty in use by %d doctors", linked),
		})
		return
	}

	// Unscoped so the unique name index frees up for a later re-create.
	if err := db.Unscoped().Delete(&existing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete specialty",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Specialty deleted"})
}

// GetSpecialtyInfo godoc
// @Summary      Get specialty information
// @Tags         Specialties
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Specialty ID"
// @Success      200 {object} util.APIResponse{data=model.Specialty} "Specialty retrieved"
// @Failure      404 {object} util.APIResponse "Specialty not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /specialty/{id} [get]
func GetSpecialtyInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	existing, err := fetchSpecialtyByID(db, c.Param("id"))
	if err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Specialty not found",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Specialty retrieved",
		Data: existing,
	})
}

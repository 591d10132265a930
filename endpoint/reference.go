package endpoint

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/middleware"
	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/util"
)

// ListAllergies godoc
// @Summary      List known allergies
// @Tags         Reference
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=[]model.Allergy} "Allergies retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /allergy [get]
func ListAllergies(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var allergies []model.Allergy
	if err := db.Order("name ASC").Find(&allergies).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve allergies",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Allergies retrieved",
		Data: allergies,
	})
}

type createAllergyRequest struct {
	Name        string `json:"name" example:"Penicillin"`
	Description string `json:"description" example:"Beta-lactam antibiotic allergy"`
}

// CreateAllergy godoc
// @Summary      Register a known allergy
// @Tags         Reference
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body createAllergyRequest true "Allergy information"
// @Success      200 {object} util.APIResponse{data=model.Allergy} "Allergy created"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      409 {object} util.APIResponse "Allergy already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /allergy [post]
func CreateAllergy(c *gin.Context) {
	var req createAllergyRequest
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

	var existing model.Allergy
	err := db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&existing).Error
	if err == nil {
		util.CallUserConflict(c, util.APIErrorParams{
			Msg: "Allergy with this name already exists",
			Err: fmt.Errorf("allergy already exists"),
		})
		return
	}
	if err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to check existing allergies",
			Err: err,
		})
		return
	}

	allergy := model.Allergy{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := db.Create(&allergy).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create allergy",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Allergy created",
		Data: allergy,
	})
}

// ListCountries godoc
// @Summary      List countries
// @Tags         Reference
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=[]model.Country} "Countries retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /country [get]
func ListCountries(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var countries []model.Country
	if err := db.Order("name ASC").Find(&countries).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve countries",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Countries retrieved",
		Data: countries,
	})
}

// ListCities godoc
// @Summary      List cities of a country
// @Tags         Reference
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Country ID"
// @Success      200 {object} util.APIResponse{data=[]model.City} "Cities retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /country/{id}/city [get]
func ListCities(c *gin.Context) {
	uid, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var cities []model.City
	if err := db.Where("country_id = ?", uid).Order("name ASC").Find(&cities).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve cities",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Cities retrieved",
		Data: cities,
	})
}

type upsertAddressRequest struct {
	CityID uint   `json:"city_id" binding:"required" example:"12"`
	Line1  string `json:"line1" binding:"required" example:"Calle 10 #43-12"`
	Line2  string `json:"line2" example:"Apto 502"`
	Zip    string `json:"zip" example:"050021"`
}

// UpsertAddress godoc
// @Summary      Set the current user's address
// @Description  Create or replace the authenticated user's postal address
// @Tags         Reference
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body upsertAddressRequest true "Address"
// @Success      200 {object} util.APIResponse{data=model.Address} "Address saved"
// @Failure      400 {object} util.APIResponse "Invalid request body"
// @Failure      404 {object} util.APIResponse "City not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /address [put]
func UpsertAddress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session does not carry a user"})
		return
	}

	var req upsertAddressRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var address model.Address
	err := db.Transaction(func(tx *gorm.DB) error {
		var city model.City
		if err := tx.First(&city, req.CityID).Error; err != nil {
			return err
		}

		err := tx.Where("user_id = ?", userID).First(&address).Error
		if err == gorm.ErrRecordNotFound {
			address = model.Address{UserID: userID}
		} else if err != nil {
			return err
		}

		address.CityID = req.CityID
		address.Line1 = req.Line1
		address.Line2 = req.Line2
		address.Zip = req.Zip
		return tx.Save(&address).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "City not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to save address", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Address saved",
		Data: address,
	})
}

// GetAddress godoc
// @Summary      Get the current user's address
// @Tags         Reference
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=model.Address} "Address retrieved"
// @Failure      404 {object} util.APIResponse "Address not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /address [get]
func GetAddress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Session does not carry a user"})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var address model.Address
	err := db.Where("user_id = ?", userID).First(&address).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Address not found", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve address", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Address retrieved",
		Data: address,
	})
}

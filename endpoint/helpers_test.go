package endpoint_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/endpoint"
	"github.com/citasalud/hospital-api/middleware"
	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/util"
)

type apiResp struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// setupTestServer opens a fresh in-memory database, migrates the full schema
// and wires the same route tree main sets up in production.
func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:endpointdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Doctor{},
		&model.DoctorSpecialty{},
		&model.Patient{},
		&model.PatientCode{},
		&model.PatientAllergy{},
		&model.Allergy{},
		&model.Specialty{},
		&model.DoctorSchedule{},
		&model.DoctorScheduleDate{},
		&model.Appointment{},
		&model.MedicalRecord{},
		&model.MedicalRecordItem{},
		&model.ClinicalSession{},
		&model.Diagnosis{},
		&model.Treatment{},
		&model.Prescription{},
		&model.Notification{},
		&model.UserNotification{},
		&model.Country{},
		&model.City{},
		&model.Address{},
	)
	if err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := model.SeedSpecialties(db); err != nil {
		t.Fatalf("seeding specialties failed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.DatabaseMiddleware(db))

	r.POST("/signup", endpoint.Signup)
	r.POST("/login", endpoint.Login)
	r.GET("/token/validate", endpoint.ValidateToken)

	auth := r.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.DELETE("/logout", endpoint.Logout)
		auth.POST("/verify-password", endpoint.VerifyPassword)
		auth.PATCH("/user", endpoint.UpdateUser)

		auth.GET("/notification", endpoint.ListNotifications)
		auth.PUT("/notification/:id/read", endpoint.MarkNotificationRead)
		auth.DELETE("/notification/:id", endpoint.DeleteNotification)

		auth.GET("/address", endpoint.GetAddress)
		auth.PUT("/address", endpoint.UpsertAddress)
		auth.GET("/country", endpoint.ListCountries)
		auth.GET("/country/:id/city", endpoint.ListCities)
		auth.GET("/allergy", endpoint.ListAllergies)

		auth.GET("/doctor", endpoint.ListDoctors)
		auth.GET("/doctor/:id", endpoint.GetDoctorInfo)
		auth.GET("/specialty", endpoint.ListSpecialties)
		auth.GET("/specialty/:id", endpoint.GetSpecialtyInfo)

		auth.GET("/schedule", endpoint.ListSchedules)
		auth.GET("/schedule/dates", endpoint.ListScheduleDates)
		auth.GET("/schedule/availability", endpoint.GetDoctorAvailability)

		auth.POST("/appointment", endpoint.BookAppointment)
		auth.GET("/appointment", endpoint.ListAppointments)
		auth.GET("/appointment/patient/:id", endpoint.ListPatientAppointments)

		doctorOnly := auth.Group("/")
		doctorOnly.Use(middleware.RequireRole(model.UserTypeDoctor, model.UserTypeAdmin))
		{
			doctorOnly.POST("/schedule", endpoint.CreateSchedule)
			doctorOnly.PUT("/schedule/:id", endpoint.UpdateSchedule)
			doctorOnly.DELETE("/schedule/:id", endpoint.DeleteSchedule)
			doctorOnly.POST("/schedule/:id/date", endpoint.MaterializeScheduleDate)

			doctorOnly.PUT("/appointment/:id/confirm", endpoint.ConfirmAppointment)
			doctorOnly.PUT("/appointment/:id/cancel", endpoint.CancelAppointment)
			doctorOnly.PUT("/appointment/:id/no-show", endpoint.MarkAppointmentNoShow)
			doctorOnly.PUT("/appointment/:id/complete", endpoint.CompleteAppointment)

			doctorOnly.GET("/medical-record/patient/:id", endpoint.GetMedicalRecord)
			doctorOnly.POST("/medical-record/item/:id/diagnosis", endpoint.AddDiagnosis)
			doctorOnly.POST("/medical-record/item/:id/treatment", endpoint.AddTreatment)
			doctorOnly.POST("/medical-record/item/:id/prescription", endpoint.AddPrescription)
		}

		staffOnly := auth.Group("/")
		staffOnly.Use(middleware.RequireRole(model.UserTypeAdmin, model.UserTypeStaff))
		{
			staffOnly.POST("/doctor", endpoint.CreateDoctor)
			staffOnly.DELETE("/doctor/:id", endpoint.DeleteDoctor)
			staffOnly.POST("/patient", endpoint.CreatePatient)
			staffOnly.GET("/patient", endpoint.ListPatients)
			staffOnly.GET("/patient/:id", endpoint.GetPatientInfo)
			staffOnly.POST("/patient/:id/allergy", endpoint.AddPatientAllergy)
			staffOnly.DELETE("/patient/:id/allergy/:allergyID", endpoint.RemovePatientAllergy)

			staffOnly.POST("/allergy", endpoint.CreateAllergy)
			staffOnly.POST("/specialty", endpoint.CreateSpecialty)
			staffOnly.PATCH("/specialty/:id", endpoint.UpdateSpecialty)
			staffOnly.DELETE("/specialty/:id", endpoint.DeleteSpecialty)

			staffOnly.GET("/appointment/stats", endpoint.AppointmentStats)
		}

		adminOnly := auth.Group("/user")
		adminOnly.Use(middleware.RequireRole(model.UserTypeAdmin))
		{
			adminOnly.GET("", endpoint.ListUsers)
			adminOnly.GET(":id", endpoint.GetUserInfo)
			adminOnly.PATCH(":id", endpoint.UpdateUserByID)
			adminOnly.DELETE(":id", endpoint.DeleteUser)
		}
	}

	return r, db
}

func doRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	switch v := body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
	default:
		b, _ := json.Marshal(v)
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func authHeader(token string) map[string]string {
	return map[string]string{"session-token": token}
}

func parseAPIResp(t *testing.T, rr *httptest.ResponseRecorder) apiResp {
	t.Helper()
	var resp apiResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

func parseDataToMap(t *testing.T, raw json.RawMessage) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parse data failed: %v", err)
	}
	return data
}

// createUser inserts a user row with a hashed password, bypassing the signup
// route so tests can mint accounts of any type.
func createUser(t *testing.T, db *gorm.DB, email, password, userType string) *model.User {
	t.Helper()
	salt, err := util.GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt failed: %v", err)
	}
	hashed, err := util.HashPasswordArgon2(password, salt)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := model.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Password:     hashed,
		PasswordSalt: salt,
		UserType:     userType,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func login(t *testing.T, r http.Handler, email, password string) (string, uint) {
	t.Helper()
	rr := doRequest(r, "POST", "/login", map[string]string{"email": email, "password": password}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s returned %d: %s", email, rr.Code, rr.Body.String())
	}
	resp := parseAPIResp(t, rr)
	var data struct {
		Token  string `json:"token"`
		UserID uint   `json:"user_id"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("parse login data failed: %v", err)
	}
	return data.Token, data.UserID
}

// loginAs mints a user of the given type and returns a live session token.
func loginAs(t *testing.T, r http.Handler, db *gorm.DB, email, userType string) (string, *model.User) {
	t.Helper()
	user := createUser(t, db, email, "testpass1234", userType)
	token, _ := login(t, r, email, "testpass1234")
	return token, user
}

// seedDoctorWithSchedule creates a doctor with one weekly template and a
// materialized active date, the minimum fixture for booking flows.
type bookingSeed struct {
	Doctor     *model.Doctor
	Patient    *model.Patient
	Specialty  *model.Specialty
	Schedule   *model.DoctorSchedule
	Date       string
	DoctorUser *model.User
}

func seedBookingFixture(t *testing.T, db *gorm.DB, maxAppointments int) bookingSeed {
	t.Helper()

	doctorUser := createUser(t, db, fmt.Sprintf("doc-%d@example.com", time.Now().UnixNano()), "testpass1234", model.UserTypeDoctor)
	doctor := model.Doctor{UserID: doctorUser.ID, LicenseNumber: fmt.Sprintf("MED-%d", time.Now().UnixNano())}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("create doctor failed: %v", err)
	}

	patientUser := createUser(t, db, fmt.Sprintf("pat-%d@example.com", time.Now().UnixNano()), "testpass1234", model.UserTypePatient)
	patient := model.Patient{UserID: patientUser.ID, PatientCode: fmt.Sprintf("T%04d", time.Now().UnixNano()%10000)}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("create patient failed: %v", err)
	}
	if err := db.Create(&model.MedicalRecord{PatientID: patient.ID}).Error; err != nil {
		t.Fatalf("create medical record failed: %v", err)
	}

	specialty := model.Specialty{Name: fmt.Sprintf("Specialty-%d", time.Now().UnixNano())}
	if err := db.Create(&specialty).Error; err != nil {
		t.Fatalf("create specialty failed: %v", err)
	}

	schedule := model.DoctorSchedule{
		DoctorID:        doctor.ID,
		WorkDay:         "MONDAY",
		StartTime:       "08:00",
		EndTime:         "17:00",
		MaxAppointments: maxAppointments,
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("create schedule failed: %v", err)
	}

	date := "2026-09-14"
	if err := db.Create(&model.DoctorScheduleDate{ScheduleID: schedule.ID, Date: date, Status: "ACTIVE"}).Error; err != nil {
		t.Fatalf("materialize date failed: %v", err)
	}

	return bookingSeed{
		Doctor:     &doctor,
		Patient:    &patient,
		Specialty:  &specialty,
		Schedule:   &schedule,
		Date:       date,
		DoctorUser: doctorUser,
	}
}

// main.go
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/config"
	"github.com/citasalud/hospital-api/endpoint"
	"github.com/citasalud/hospital-api/middleware"
	"github.com/citasalud/hospital-api/model"
	"github.com/citasalud/hospital-api/util"
)

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.SecurityLog{},
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
}

func main() {
	cfg := config.LoadConfig()

	// Package init runs before godotenv loads .env, so refresh the secret here.
	if secret := os.Getenv("JWTSECRET"); secret != "" {
		util.SetJWTSecret(secret)
	}

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := migrate(db); err != nil {
		log.Fatalf("Error running migrations: %v", err)
	}
	if err := model.SeedSpecialties(db); err != nil {
		log.Fatalf("Error seeding specialties: %v", err)
	}

	// Redis is optional; session middleware falls back to the database.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
	}

	// Security logging sinks and caches.
	util.SetSecurityLoggerDB(db)
	util.InitUserEmailCacheFromEnv()
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		if err := util.InitGeoIP(path); err != nil {
			log.Printf("GeoIP database not loaded: %v", err)
		}
		defer util.CloseGeoIP()
	}

	gin.SetMode(cfg.GinMode)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	router.POST("/signup", endpoint.Signup)
	router.POST("/login", middleware.RateLimiter(middleware.RateLimitConfig{}), endpoint.Login)
	router.GET("/token/validate", endpoint.ValidateToken)

	auth := router.Group("/")
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

	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

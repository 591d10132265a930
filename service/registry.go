package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
)

// RegistryService registers doctors and patients. Registration is atomic:
// the user row, the role-specific row and any linked rows are created in one
// transaction, so a failure leaves nothing behind.
type RegistryService struct {
	db *gorm.DB
}

func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{db: db}
}

// RegisterDoctorRequest carries the fields to create a doctor account.
// Password and PasswordSalt are already hashed by the caller.
type RegisterDoctorRequest struct {
	CC            string
	FirstName     string
	LastName      string
	Phone         string
	Email         string
	Password      string
	PasswordSalt  string
	LicenseNumber string
	SpecialtyIDs  []uint
	Experience    string
}

// RegisterDoctor creates the user, the doctor profile and its specialty
// links atomically.
func (s *RegistryService) RegisterDoctor(ctx context.Context, req RegisterDoctorRequest) (*model.Doctor, error) {
	var doctor model.Doctor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailAvailable(tx, req.Email); err != nil {
			return err
		}

		var existing model.Doctor
		err := tx.Where("license_number = ?", req.LicenseNumber).First(&existing).Error
		if err == nil {
			return ErrDuplicateLicense
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		user := model.User{
			CC:           req.CC,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Email:        req.Email,
			Password:     req.Password,
			PasswordSalt: req.PasswordSalt,
			UserType:     model.UserTypeDoctor,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		doctor = model.Doctor{
			UserID:        user.ID,
			LicenseNumber: req.LicenseNumber,
		}
		if err := tx.Create(&doctor).Error; err != nil {
			return err
		}

		experience := req.Experience
		if experience == "" {
			experience = model.ExperienceResident
		}
		for _, specialtyID := range req.SpecialtyIDs {
			var specialty model.Specialty
			if err := tx.First(&specialty, specialtyID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return ErrSpecialtyNotFound
				}
				return err
			}
			link := model.DoctorSpecialty{
				DoctorID:        doctor.ID,
				SpecialtyID:     specialtyID,
				ExperienceLevel: experience,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

// RegisterPatientRequest carries the fields to create a patient account.
type RegisterPatientRequest struct {
	CC           string
	FirstName    string
	LastName     string
	Phone        string
	Email        string
	Password     string
	PasswordSalt string
	BirthDate    *time.Time
	Gender       string
	BloodType    string
	PatientCode  string
}

// RegisterPatient creates the user, the patient profile with its code and an
// empty medical record atomically. When no code is requested one is allocated
// from the patient code table.
func (s *RegistryService) RegisterPatient(ctx context.Context, req RegisterPatientRequest) (*model.Patient, error) {
	var patient model.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailAvailable(tx, req.Email); err != nil {
			return err
		}

		patientCode, err := buildPatientCode(tx, req.LastName, req.PatientCode)
		if err != nil {
			return err
		}
		if err := ensurePatientCodeAvailable(tx, patientCode); err != nil {
			return err
		}

		user := model.User{
			CC:           req.CC,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Email:        req.Email,
			Password:     req.Password,
			PasswordSalt: req.PasswordSalt,
			UserType:     model.UserTypePatient,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		patient = model.Patient{
			UserID:      user.ID,
			PatientCode: patientCode,
			BirthDate:   req.BirthDate,
			Gender:      req.Gender,
			BloodType:   req.BloodType,
		}
		if err := tx.Create(&patient).Error; err != nil {
			return err
		}

		record := model.MedicalRecord{PatientID: patient.ID}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// FindDoctorByLicense returns the doctor with the given license number.
func (s *RegistryService) FindDoctorByLicense(ctx context.Context, licenseNumber string) (*model.Doctor, error) {
	var doctor model.Doctor
	err := s.db.WithContext(ctx).Where("license_number = ?", licenseNumber).First(&doctor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &doctor, nil
}

// FindPatientByIdentifier looks a patient up by patient code, then by the
// linked user's document number, then by email.
func (s *RegistryService) FindPatientByIdentifier(ctx context.Context, identifier string) (*model.Patient, error) {
	db := s.db.WithContext(ctx)

	var patient model.Patient
	err := db.Where("patient_code = ?", identifier).First(&patient).Error
	if err == nil {
		return &patient, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	err = db.Joins("JOIN users ON users.id = patients.user_id").
		Where("users.cc = ? OR users.email = ?", identifier, identifier).
		First(&patient).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &patient, nil
}

// ListDoctorsBySpecialty returns the doctors linked to a specialty.
func (s *RegistryService) ListDoctorsBySpecialty(ctx context.Context, specialtyID uint) ([]model.Doctor, error) {
	var specialty model.Specialty
	if err := s.db.WithContext(ctx).First(&specialty, specialtyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSpecialtyNotFound
		}
		return nil, err
	}

	var doctors []model.Doctor
	err := s.db.WithContext(ctx).
		Joins("JOIN doctor_specialties ON doctor_specialties.doctor_id = doctors.id").
		Where("doctor_specialties.specialty_id = ?", specialtyID).
		Find(&doctors).Error
	return doctors, err
}

func ensureEmailAvailable(tx *gorm.DB, email string) error {
	var existing model.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return ErrDuplicateEmail
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

func ensurePatientCodeAvailable(tx *gorm.DB, patientCode string) error {
	var existing model.Patient
	err := tx.Where("patient_code = ?", patientCode).First(&existing).Error
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicatePatientCode, patientCode)
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// buildPatientCode allocates the next code for the last name's initial, e.g.
// "L0001" for Lopez. Explicitly requested codes are used as-is.
func buildPatientCode(tx *gorm.DB, lastName, requestedCode string) (string, error) {
	if requestedCode != "" {
		return requestedCode, nil
	}

	initial := "X"
	if trimmed := strings.TrimSpace(lastName); trimmed != "" {
		initial = strings.ToUpper(trimmed[:1])
	}

	var counter model.PatientCode
	err := tx.Where("alphabet = ?", initial).First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		counter = model.PatientCode{Alphabet: initial}
	} else if err != nil {
		return "", err
	}

	counter.Number++
	counter.Code = fmt.Sprintf("%s%04d", initial, counter.Number)
	if err := tx.Save(&counter).Error; err != nil {
		return "", err
	}
	return counter.Code, nil
}

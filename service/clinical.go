package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/citasalud/hospital-api/model"
)

// ClinicalService maintains the per-patient medical record: the append-only
// history of completed appointments plus prescriptions, diagnoses and
// treatments attached to individual entries.
type ClinicalService struct {
	db *gorm.DB
}

func NewClinicalService(db *gorm.DB) *ClinicalService {
	return &ClinicalService{db: db}
}

// AppendFromCompletion records a completed appointment in the patient's
// medical record: one clinical session plus one record item, created
// together.
func (s *ClinicalService) AppendFromCompletion(ctx context.Context, ev CompletionEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.MedicalRecord
		if err := tx.Where("patient_id = ?", ev.PatientID).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrRecordNotFound
			}
			return err
		}

		session := model.ClinicalSession{
			AppointmentID: ev.AppointmentID,
			SessionDate:   ev.Timestamp,
			Effectiveness: ev.Effectiveness,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		item := model.MedicalRecordItem{
			MedicalRecordID: record.ID,
			SessionID:       session.ID,
			EntryDate:       ev.Timestamp,
		}
		return tx.Create(&item).Error
	})
}

// PatientRecord bundles a medical record with its entries for read access.
type PatientRecord struct {
	Record model.MedicalRecord       `json:"record"`
	Items  []model.MedicalRecordItem `json:"items"`
}

// GetRecord returns a patient's medical record and its entries, oldest first.
func (s *ClinicalService) GetRecord(ctx context.Context, patientID uint) (*PatientRecord, error) {
	db := s.db.WithContext(ctx)

	var record model.MedicalRecord
	if err := db.Where("patient_id = ?", patientID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var items []model.MedicalRecordItem
	if err := db.Where("medical_record_id = ?", record.ID).
		Order("entry_date ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &PatientRecord{Record: record, Items: items}, nil
}

// AddPrescription attaches a prescription to a record item.
func (s *ClinicalService) AddPrescription(ctx context.Context, itemID uint, prescription model.Prescription) (*model.Prescription, error) {
	if err := s.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	prescription.MedicalRecordItemID = itemID
	if err := s.db.WithContext(ctx).Create(&prescription).Error; err != nil {
		return nil, err
	}
	return &prescription, nil
}

// AddDiagnosis attaches a diagnosis to a record item.
func (s *ClinicalService) AddDiagnosis(ctx context.Context, itemID uint, diagnosis model.Diagnosis) (*model.Diagnosis, error) {
	if err := s.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	diagnosis.MedicalRecordItemID = itemID
	if err := s.db.WithContext(ctx).Create(&diagnosis).Error; err != nil {
		return nil, err
	}
	return &diagnosis, nil
}

// AddTreatment attaches a treatment to a record item.
func (s *ClinicalService) AddTreatment(ctx context.Context, itemID uint, treatment model.Treatment) (*model.Treatment, error) {
	if err := s.ensureItem(ctx, itemID); err != nil {
		return nil, err
	}
	treatment.MedicalRecordItemID = itemID
	if err := s.db.WithContext(ctx).Create(&treatment).Error; err != nil {
		return nil, err
	}
	return &treatment, nil
}

func (s *ClinicalService) ensureItem(ctx context.Context, itemID uint) error {
	var item model.MedicalRecordItem
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrRecordItemNotFound
		}
		return err
	}
	return nil
}

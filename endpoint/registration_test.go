package endpoint_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/citasalud/hospital-api/model"
)

func TestCreateDoctor(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	var cardiology model.Specialty
	if err := db.First(&cardiology, "name = ?", "Cardiology").Error; err != nil {
		t.Fatalf("seeded specialty missing: %v", err)
	}

	body := map[string]interface{}{
		"cc":             "10203040",
		"first_name":     "Sofia",
		"last_name":      "Rios",
		"email":          "sofia.rios@example.com",
		"password":       "password123",
		"license_number": "MED-12345",
		"specialty_ids":  []uint{cardiology.ID},
	}
	rr := doRequest(r, "POST", "/doctor", body, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("create doctor returned %d: %s", rr.Code, rr.Body.String())
	}

	var doctor model.Doctor
	if err := db.First(&doctor, "license_number = ?", "MED-12345").Error; err != nil {
		t.Fatalf("doctor not persisted: %v", err)
	}
	var links int64
	db.Model(&model.DoctorSpecialty{}).Where("doctor_id = ?", doctor.ID).Count(&links)
	if links != 1 {
		t.Errorf("expected 1 specialty link, got %d", links)
	}
}

func TestCreateDoctor_DuplicateLicense(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	body := map[string]interface{}{
		"cc":             "10203040",
		"first_name":     "Sofia",
		"last_name":      "Rios",
		"email":          "sofia.rios@example.com",
		"password":       "password123",
		"license_number": "MED-12345",
	}
	if rr := doRequest(r, "POST", "/doctor", body, authHeader(staffToken)); rr.Code != http.StatusOK {
		t.Fatalf("first create returned %d", rr.Code)
	}

	body["email"] = "someone.else@example.com"
	rr := doRequest(r, "POST", "/doctor", body, authHeader(staffToken))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate license, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteDoctor_ThenRecreate(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	var cardiology model.Specialty
	if err := db.First(&cardiology, "name = ?", "Cardiology").Error; err != nil {
		t.Fatalf("seeded specialty missing: %v", err)
	}

	body := map[string]interface{}{
		"cc":             "50607080",
		"first_name":     "Mateo",
		"last_name":      "Gil",
		"email":          "mateo.gil@example.com",
		"password":       "password123",
		"license_number": "MED-55555",
		"specialty_ids":  []uint{cardiology.ID},
	}
	if rr := doRequest(r, "POST", "/doctor", body, authHeader(staffToken)); rr.Code != http.StatusOK {
		t.Fatalf("create doctor returned %d: %s", rr.Code, rr.Body.String())
	}
	var doctor model.Doctor
	if err := db.First(&doctor, "license_number = ?", "MED-55555").Error; err != nil {
		t.Fatalf("doctor not persisted: %v", err)
	}

	rr := doRequest(r, "DELETE", fmt.Sprintf("/doctor/%d", doctor.ID), nil, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete doctor returned %d: %s", rr.Code, rr.Body.String())
	}
	var links int64
	db.Model(&model.DoctorSpecialty{}).Where("doctor_id = ?", doctor.ID).Count(&links)
	if links != 0 {
		t.Errorf("expected specialty links removed with the doctor, got %d", links)
	}

	// The same license registers again; the deleted row must not keep
	// occupying the unique license index.
	body["email"] = "mateo.gil.jr@example.com"
	body["cc"] = "50607081"
	rr = doRequest(r, "POST", "/doctor", body, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("re-create after delete returned %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateDoctor_RequiresStaffRole(t *testing.T) {
	r, db := setupTestServer(t)
	patientToken, _ := loginAs(t, r, db, "patient@example.com", model.UserTypePatient)

	body := map[string]interface{}{
		"cc":             "10203040",
		"first_name":     "Sofia",
		"last_name":      "Rios",
		"email":          "sofia.rios@example.com",
		"password":       "password123",
		"license_number": "MED-12345",
	}
	rr := doRequest(r, "POST", "/doctor", body, authHeader(patientToken))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for patient role, got %d", rr.Code)
	}
}

func TestCreatePatient_AllocatesCode(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	body := map[string]interface{}{
		"cc":         "20304050",
		"first_name": "Laura",
		"last_name":  "Gomez",
		"email":      "laura.gomez@example.com",
		"password":   "password123",
		"birth_date": "1994-06-21",
		"gender":     "F",
		"blood_type": "O+",
	}
	rr := doRequest(r, "POST", "/patient", body, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("create patient returned %d: %s", rr.Code, rr.Body.String())
	}

	var patient model.Patient
	if err := db.Joins("JOIN users ON users.id = patients.user_id").
		Where("users.email = ?", "laura.gomez@example.com").
		First(&patient).Error; err != nil {
		t.Fatalf("patient not persisted: %v", err)
	}
	if patient.PatientCode != "G0001" {
		t.Errorf("expected allocated code G0001, got %s", patient.PatientCode)
	}

	var record model.MedicalRecord
	if err := db.First(&record, "patient_id = ?", patient.ID).Error; err != nil {
		t.Errorf("expected an empty medical record at registration: %v", err)
	}
}

func TestCreatePatient_InvalidBirthDate(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	body := map[string]interface{}{
		"first_name": "Laura",
		"last_name":  "Gomez",
		"email":      "laura.gomez@example.com",
		"password":   "password123",
		"birth_date": "21/06/1994",
	}
	rr := doRequest(r, "POST", "/patient", body, authHeader(staffToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed birth date, got %d", rr.Code)
	}
}

func TestGetPatientInfo_ByCode(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)
	seed := seedBookingFixture(t, db, 5)

	rr := doRequest(r, "GET", "/patient/"+seed.Patient.PatientCode, nil, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("lookup by code returned %d: %s", rr.Code, rr.Body.String())
	}
	resp := parseAPIResp(t, rr)
	data := parseDataToMap(t, resp.Data)
	patient := data["patient"].(map[string]interface{})
	if got := patient["patient_code"].(string); got != seed.Patient.PatientCode {
		t.Errorf("expected code %s, got %s", seed.Patient.PatientCode, got)
	}
}

func TestPatientAllergies(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)
	seed := seedBookingFixture(t, db, 5)

	allergyBody := map[string]string{"name": "Penicillin", "description": "Beta-lactam antibiotic allergy"}
	rr := doRequest(r, "POST", "/allergy", allergyBody, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("create allergy returned %d: %s", rr.Code, rr.Body.String())
	}
	var allergy model.Allergy
	if err := db.First(&allergy, "name = ?", "Penicillin").Error; err != nil {
		t.Fatalf("allergy not persisted: %v", err)
	}

	patientPath := patientIDPath(seed.Patient.ID)
	linkBody := map[string]interface{}{"allergy_id": allergy.ID, "severity": "SEVERE"}
	rr = doRequest(r, "POST", patientPath+"/allergy", linkBody, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("link allergy returned %d: %s", rr.Code, rr.Body.String())
	}

	// Linking twice conflicts.
	rr = doRequest(r, "POST", patientPath+"/allergy", linkBody, authHeader(staffToken))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate allergy link, got %d", rr.Code)
	}

	// The allergy shows up on the patient profile.
	rr = doRequest(r, "GET", patientPath, nil, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get patient returned %d", rr.Code)
	}
	data := parseDataToMap(t, parseAPIResp(t, rr).Data)
	allergies := data["allergies"].([]interface{})
	if len(allergies) != 1 {
		t.Fatalf("expected 1 allergy, got %d", len(allergies))
	}

	// Unlink and verify removal.
	rr = doRequest(r, "DELETE", fmt.Sprintf("%s/allergy/%d", patientPath, allergy.ID), nil, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("unlink allergy returned %d: %s", rr.Code, rr.Body.String())
	}
	rr = doRequest(r, "DELETE", fmt.Sprintf("%s/allergy/%d", patientPath, allergy.ID), nil, authHeader(staffToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing allergy link, got %d", rr.Code)
	}

	// Recording the same allergy again after removal must succeed; the
	// removed link must not keep occupying the (patient, allergy) index.
	rr = doRequest(r, "POST", patientPath+"/allergy", linkBody, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("re-link allergy returned %d: %s", rr.Code, rr.Body.String())
	}
}

func patientIDPath(id uint) string {
	return fmt.Sprintf("/patient/%d", id)
}

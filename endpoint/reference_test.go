package endpoint_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/citasalud/hospital-api/model"
)

func TestAllergyReferenceData(t *testing.T) {
	r, db := setupTestServer(t)
	staffToken, _ := loginAs(t, r, db, "staff@example.com", model.UserTypeStaff)

	body := map[string]string{"name": "Penicillin"}
	rr := doRequest(r, "POST", "/allergy", body, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("create allergy returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(r, "POST", "/allergy", map[string]string{"name": "penicillin"}, authHeader(staffToken))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for case-insensitive duplicate, got %d", rr.Code)
	}

	rr = doRequest(r, "GET", "/allergy", nil, authHeader(staffToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("list returned %d", rr.Code)
	}
	var allergies []model.Allergy
	if err := json.Unmarshal(parseAPIResp(t, rr).Data, &allergies); err != nil {
		t.Fatalf("parse allergies failed: %v", err)
	}
	if len(allergies) != 1 {
		t.Errorf("expected 1 allergy, got %d", len(allergies))
	}
}

func TestCountriesAndCities(t *testing.T) {
	r, db := setupTestServer(t)
	token, _ := loginAs(t, r, db, "laura@example.com", model.UserTypePatient)

	country := model.Country{Name: "Colombia", Code: "CO"}
	if err := db.Create(&country).Error; err != nil {
		t.Fatalf("seed country failed: %v", err)
	}
	cities := []model.City{
		{CountryID: country.ID, Name: "Medellín"},
		{CountryID: country.ID, Name: "Bogotá"},
	}
	for i := range cities {
		if err := db.Create(&cities[i]).Error; err != nil {
			t.Fatalf("seed city failed: %v", err)
		}
	}

	rr := doRequest(r, "GET", "/country", nil, authHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("list countries returned %d", rr.Code)
	}

	rr = doRequest(r, "GET", fmt.Sprintf("/country/%d/city", country.ID), nil, authHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("list cities returned %d", rr.Code)
	}
	var got []model.City
	if err := json.Unmarshal(parseAPIResp(t, rr).Data, &got); err != nil {
		t.Fatalf("parse cities failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 cities, got %d", len(got))
	}
}

func TestAddressUpsert(t *testing.T) {
	r, db := setupTestServer(t)
	token, user := loginAs(t, r, db, "laura@example.com", model.UserTypePatient)

	country := model.Country{Name: "Colombia", Code: "CO"}
	if err := db.Create(&country).Error; err != nil {
		t.Fatalf("seed country failed: %v", err)
	}
	city := model.City{CountryID: country.ID, Name: "Medellín"}
	if err := db.Create(&city).Error; err != nil {
		t.Fatalf("seed city failed: %v", err)
	}

	// No address yet.
	rr := doRequest(r, "GET", "/address", nil, authHeader(token))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before upsert, got %d", rr.Code)
	}

	body := map[string]interface{}{"city_id": city.ID, "line1": "Calle 10 #43-12", "zip": "050021"}
	rr = doRequest(r, "PUT", "/address", body, authHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert returned %d: %s", rr.Code, rr.Body.String())
	}

	// Second upsert replaces, not duplicates.
	body["line1"] = "Carrera 70 #1-20"
	rr = doRequest(r, "PUT", "/address", body, authHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("second upsert returned %d: %s", rr.Code, rr.Body.String())
	}

	var count int64
	db.Model(&model.Address{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected a single address row, got %d", count)
	}

	rr = doRequest(r, "GET", "/address", nil, authHeader(token))
	if rr.Code != http.StatusOK {
		t.Fatalf("get address returned %d", rr.Code)
	}
	var got model.Address
	if err := json.Unmarshal(parseAPIResp(t, rr).Data, &got); err != nil {
		t.Fatalf("parse address failed: %v", err)
	}
	if got.Line1 != "Carrera 70 #1-20" {
		t.Errorf("expected replaced line1, got %q", got.Line1)
	}
}

func TestAddressUpsert_UnknownCity(t *testing.T) {
	r, db := setupTestServer(t)
	token, _ := loginAs(t, r, db, "laura@example.com", model.UserTypePatient)

	body := map[string]interface{}{"city_id": 999, "line1": "Calle 10 #43-12"}
	rr := doRequest(r, "PUT", "/address", body, authHeader(token))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown city, got %d", rr.Code)
	}
}

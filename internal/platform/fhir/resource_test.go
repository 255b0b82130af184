package fhir

import (
	"encoding/json"
	"testing"
)

func TestCodeableConcept_NilSafety(t *testing.T) {
	var cc *CodeableConcept
	if cc.PrimaryDisplay() != "" {
		t.Error("expected empty display for nil concept")
	}
	if cc.PrimaryCode() != "" {
		t.Error("expected empty code for nil concept")
	}
	if (&CodeableConcept{}).PrimaryDisplay() != "" {
		t.Error("expected empty display for empty coding list")
	}
}

func TestCodeableConcept_Primary(t *testing.T) {
	cc := &CodeableConcept{Coding: []Coding{{Code: "active", Display: "Active"}, {Code: "x"}}}
	if cc.PrimaryCode() != "active" {
		t.Errorf("expected active, got %s", cc.PrimaryCode())
	}
	if cc.PrimaryDisplay() != "Active" {
		t.Errorf("expected Active, got %s", cc.PrimaryDisplay())
	}
}

func TestObs_ConceptDisplay(t *testing.T) {
	var obs Obs
	if obs.ConceptDisplay() != "" {
		t.Error("expected empty display for missing concept")
	}
	obs.Concept = &CodeableConceptRef{Display: "Heart Rate"}
	if obs.ConceptDisplay() != "Heart Rate" {
		t.Errorf("expected Heart Rate, got %s", obs.ConceptDisplay())
	}
}

func TestDiagnosticReport_RetainsRaw(t *testing.T) {
	body := `{"code": {"coding": [{"display": "Blood Panel"}]}, "issued": "2023-01-01"}`
	var r DiagnosticReport
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Code.PrimaryDisplay() != "Blood Panel" {
		t.Errorf("unexpected display: %s", r.Code.PrimaryDisplay())
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(r.Raw, &raw); err != nil {
		t.Fatalf("raw copy not valid JSON: %v", err)
	}
	if raw["issued"] != "2023-01-01" {
		t.Error("expected raw copy to keep fields the struct does not model")
	}
}

func TestCarePlan_RetainsRaw(t *testing.T) {
	body := `{"status": "active", "title": "Diabetes management"}`
	var p CarePlan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != "active" {
		t.Errorf("unexpected status: %s", p.Status)
	}
	if string(p.Raw) != body {
		t.Errorf("expected verbatim raw copy, got %s", p.Raw)
	}
}

func TestCondition_MissingNestedFields(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"clinicalStatus": {}}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ClinicalStatus.PrimaryCode() != "" {
		t.Error("expected empty code for missing coding")
	}
	if c.Code.PrimaryDisplay() != "" {
		t.Error("expected empty display for missing code")
	}
}

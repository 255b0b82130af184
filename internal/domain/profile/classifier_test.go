package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ehr/recordquery/internal/platform/fhir"
)

func concept(display string) *fhir.CodeableConcept {
	return &fhir.CodeableConcept{Coding: []fhir.Coding{{Display: display}}}
}

func coded(code string) *fhir.CodeableConcept {
	return &fhir.CodeableConcept{Coding: []fhir.Coding{{Code: code}}}
}

func TestAgeAt_Boundary(t *testing.T) {
	cases := []struct {
		now  string
		want int
	}{
		{"2022-12-31", 32},
		{"2023-01-01", 33},
		{"2023-06-15", 33},
	}
	for _, tc := range cases {
		now, _ := time.Parse("2006-01-02", tc.now)
		age, ok := ageAt("1990-01-01", now)
		if !ok {
			t.Fatalf("expected ok for now=%s", tc.now)
		}
		if age != tc.want {
			t.Errorf("age at %s: expected %d, got %d", tc.now, tc.want, age)
		}
	}
}

func TestAgeAt_MidYearBirthday(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2023-06-14")
	if age, _ := ageAt("1990-06-15", now); age != 32 {
		t.Errorf("expected 32 the day before the birthday, got %d", age)
	}
	now, _ = time.Parse("2006-01-02", "2023-06-15")
	if age, _ := ageAt("1990-06-15", now); age != 33 {
		t.Errorf("expected 33 on the birthday, got %d", age)
	}
}

func TestAgeAt_Unparseable(t *testing.T) {
	if _, ok := ageAt("not-a-date", time.Now()); ok {
		t.Error("expected failure for unparseable birthdate")
	}
}

func TestBuildDemographics_Defaults(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2023-06-15")
	p := &fhir.Patient{Person: fhir.Person{BirthDate: "1990-01-01", Gender: "M"}}
	d := buildDemographics(p, now)
	if d.Age == nil || *d.Age != 33 {
		t.Errorf("expected age 33, got %v", d.Age)
	}
	if d.Ethnicity != "Unknown" {
		t.Errorf("expected ethnicity default Unknown, got %s", d.Ethnicity)
	}
	if d.MedicalHistory != nil || d.FamilyMedicalHistory != nil {
		t.Error("expected history fields to start null until their fetches attach them")
	}
}

// A patient without a parseable birthdate must serialize age as null, not
// as a plausible zero.
func TestBuildDemographics_MissingBirthdate(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2023-06-15")
	for _, birthdate := range []string{"", "01/01/1990"} {
		p := &fhir.Patient{Person: fhir.Person{BirthDate: birthdate, Gender: "F"}}
		d := buildDemographics(p, now)
		if d.Age != nil {
			t.Errorf("birthdate %q: expected null age, got %d", birthdate, *d.Age)
		}
		b, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(m["age"]) != "null" {
			t.Errorf("birthdate %q: expected \"age\": null, got %s", birthdate, m["age"])
		}
	}
}

// Only a missing ethnicity key falls back to Unknown; an explicitly empty
// value is preserved as sent.
func TestBuildDemographics_EmptyEthnicityPreserved(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2023-06-15")
	empty := ""
	p := &fhir.Patient{Person: fhir.Person{BirthDate: "1990-01-01", Ethnicity: &empty}}
	d := buildDemographics(p, now)
	if d.Ethnicity != "" {
		t.Errorf("expected explicit empty ethnicity to be kept, got %q", d.Ethnicity)
	}
}

func TestBuildVitals_RoutesByConcept(t *testing.T) {
	obs := []fhir.Obs{
		{Concept: &fhir.CodeableConceptRef{Display: "Blood Pressure"}, Value: json.RawMessage(`"120/80"`)},
		{Concept: &fhir.CodeableConceptRef{Display: "Heart Rate"}, Value: json.RawMessage(`72`)},
		{Concept: &fhir.CodeableConceptRef{Display: "Heart Rate"}, Value: json.RawMessage(`75`)},
		{Concept: &fhir.CodeableConceptRef{Display: "Shoe Size"}, Value: json.RawMessage(`42`)},
	}
	v := buildVitals(obs)
	if len(v.BloodPressure) != 1 || string(v.BloodPressure[0]) != `"120/80"` {
		t.Errorf("unexpected blood pressure: %v", v.BloodPressure)
	}
	if len(v.HeartRate) != 2 || string(v.HeartRate[0]) != "72" || string(v.HeartRate[1]) != "75" {
		t.Errorf("expected heart rates in API order, got %v", v.HeartRate)
	}
	if len(v.Temperature) != 0 {
		t.Errorf("expected empty temperature, got %v", v.Temperature)
	}
}

func TestBuildDiagnoses_Buckets(t *testing.T) {
	conditions := []fhir.Condition{
		{Code: concept("Hypertension"), ClinicalStatus: coded("active"), VerificationStatus: coded("confirmed")},
		{Code: concept("Influenza"), ClinicalStatus: coded("resolved")},
		{Code: concept("Migraine"), ClinicalStatus: coded("inactive")},
	}
	d := buildDiagnoses(conditions)
	if len(d.Current) != 1 || d.Current[0] != "Hypertension" {
		t.Errorf("unexpected current: %v", d.Current)
	}
	if len(d.Past) != 1 || d.Past[0] != "Influenza" {
		t.Errorf("unexpected past: %v", d.Past)
	}
	// confirmed + active lands in both current and chronic
	if len(d.Chronic) != 1 || d.Chronic[0] != "Hypertension" {
		t.Errorf("unexpected chronic: %v", d.Chronic)
	}
}

func TestBuildDiagnoses_MissingStatus(t *testing.T) {
	d := buildDiagnoses([]fhir.Condition{{Code: concept("Asthma")}})
	if len(d.Current) != 0 || len(d.Past) != 0 || len(d.Chronic) != 0 {
		t.Errorf("expected condition without statuses in no bucket, got %+v", d)
	}
}

func TestBuildMedications_StatusBuckets(t *testing.T) {
	meds := []fhir.MedicationRequest{
		{Status: "active", MedicationCodeableConcept: concept("Lisinopril")},
		{Status: "stopped", MedicationCodeableConcept: concept("Amoxicillin")},
		{MedicationCodeableConcept: concept("Metformin")}, // missing status -> history
	}
	allergies := []fhir.AllergyIntolerance{{Code: concept("Penicillin")}}
	m := buildMedications(meds, allergies)
	if len(m.Current) != 1 || m.Current[0] != "Lisinopril" {
		t.Errorf("unexpected current: %v", m.Current)
	}
	if len(m.History) != 2 {
		t.Errorf("expected 2 history entries, got %v", m.History)
	}
	if len(m.Allergies) != 1 || m.Allergies[0] != "Penicillin" {
		t.Errorf("unexpected allergies: %v", m.Allergies)
	}
}

func labReport(display string) fhir.DiagnosticReport {
	body, _ := json.Marshal(map[string]interface{}{
		"code": map[string]interface{}{"coding": []map[string]string{{"display": display}}},
	})
	var r fhir.DiagnosticReport
	json.Unmarshal(body, &r)
	return r
}

func TestBuildLabResults_Precedence(t *testing.T) {
	reports := []fhir.DiagnosticReport{
		labReport("Complete Blood Count"),
		labReport("Urine Culture"),
		labReport("Chest X-Ray"),
		labReport("Blood X-Ray Contrast"), // contains both keywords: blood wins
		labReport("Thyroid Panel"),        // no keyword: dropped
	}
	l := buildLabResults(reports)
	if len(l.BloodTests) != 2 {
		t.Errorf("expected 2 blood tests, got %d", len(l.BloodTests))
	}
	if len(l.UrineTests) != 1 {
		t.Errorf("expected 1 urine test, got %d", len(l.UrineTests))
	}
	if len(l.ImagingResults) != 1 {
		t.Errorf("expected 1 imaging result, got %d", len(l.ImagingResults))
	}
}

func TestMatchKeyword_CaseInsensitive(t *testing.T) {
	if bucket, ok := matchKeyword("MRI Scan of Knee", labRules); !ok || bucket != "imaging" {
		t.Errorf("expected imaging, got %q (ok=%v)", bucket, ok)
	}
	if _, ok := matchKeyword("Lipid Panel", labRules); ok {
		t.Error("expected no match")
	}
}

func TestBuildProcedures_SurgicalSplit(t *testing.T) {
	mk := func(display string) fhir.Procedure {
		body, _ := json.Marshal(map[string]interface{}{
			"code": map[string]interface{}{"coding": []map[string]string{{"display": display}}},
		})
		var p fhir.Procedure
		json.Unmarshal(body, &p)
		return p
	}
	p := buildProcedures([]fhir.Procedure{mk("Knee Surgery"), mk("Physical Therapy")})
	if len(p.Surgical) != 1 {
		t.Errorf("expected 1 surgical, got %d", len(p.Surgical))
	}
	if len(p.Other) != 1 {
		t.Errorf("expected 1 other, got %d", len(p.Other))
	}
}

func TestBuildSymptoms_NullableFields(t *testing.T) {
	sev := 7.0
	obs := []fhir.Observation{
		{Code: concept("Headache"), ValueQuantity: &fhir.Quantity{Value: &sev}, EffectivePeriod: &fhir.Period{Start: "2023-01-01"}},
		{Code: concept("Nausea")},
	}
	symptoms := buildSymptoms(obs)
	if len(symptoms) != 2 {
		t.Fatalf("expected 2 symptoms, got %d", len(symptoms))
	}
	if symptoms[0].Severity == nil || *symptoms[0].Severity != 7.0 {
		t.Errorf("unexpected severity: %v", symptoms[0].Severity)
	}
	if symptoms[0].Duration == nil || *symptoms[0].Duration != "2023-01-01" {
		t.Errorf("unexpected duration: %v", symptoms[0].Duration)
	}
	if symptoms[1].Severity != nil || symptoms[1].Duration != nil {
		t.Error("expected nil severity and duration when values are absent")
	}
}

func socialObs(display, value string) fhir.Observation {
	return fhir.Observation{
		Code:                 concept(display),
		ValueCodeableConcept: concept(value),
	}
}

func TestBuildLifestyle(t *testing.T) {
	obs := []fhir.Observation{
		socialObs("Smoking Status", "Never smoker"),
		socialObs("Alcohol Consumption", "Occasional"),
		socialObs("Occupation History", "Electrician"), // social determinant, not lifestyle
	}
	l := buildLifestyle(obs)
	if l.SmokingStatus == nil || *l.SmokingStatus != "Never smoker" {
		t.Errorf("unexpected smoking status: %v", l.SmokingStatus)
	}
	if l.AlcoholConsumption == nil || *l.AlcoholConsumption != "Occasional" {
		t.Errorf("unexpected alcohol consumption: %v", l.AlcoholConsumption)
	}
	if l.ExerciseHabits != nil || l.DietInformation != nil {
		t.Error("expected unmatched lifestyle fields to stay null")
	}
}

func TestBuildSocialDeterminants_SameObservations(t *testing.T) {
	// The same social-history list feeds both structures independently.
	obs := []fhir.Observation{
		socialObs("Smoking Status", "Never smoker"),
		socialObs("Occupation History", "Electrician"),
		socialObs("Living Conditions", "Stable housing"),
	}
	s := buildSocialDeterminants(obs)
	if s.Occupation == nil || *s.Occupation != "Electrician" {
		t.Errorf("unexpected occupation: %v", s.Occupation)
	}
	if s.LivingConditions == nil || *s.LivingConditions != "Stable housing" {
		t.Errorf("unexpected living conditions: %v", s.LivingConditions)
	}
	if s.SocioeconomicStatus != nil {
		t.Error("expected socioeconomic status to stay null")
	}
	l := buildLifestyle(obs)
	if l.SmokingStatus == nil {
		t.Error("expected lifestyle to classify the same list independently")
	}
}

func TestBuildVisitHistory(t *testing.T) {
	encounters := []fhir.Encounter{
		{
			Period: &fhir.Period{Start: "2023-03-01"},
			Type:   []fhir.CodeableConcept{{Coding: []fhir.Coding{{Display: "Follow-up"}}}},
		},
		{}, // all fields missing
	}
	visits := buildVisitHistory(encounters)
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits, got %d", len(visits))
	}
	if visits[0].Date != "2023-03-01" || visits[0].Reason != "Follow-up" {
		t.Errorf("unexpected visit: %+v", visits[0])
	}
	if visits[1].Date != "" || visits[1].Reason != "" {
		t.Errorf("expected zero values for missing fields, got %+v", visits[1])
	}
}

func TestBuildImmunizations(t *testing.T) {
	imms := []fhir.Immunization{
		{VaccineCode: concept("Influenza vaccine"), OccurrenceDateTime: "2022-10-01"},
	}
	records := buildImmunizations(imms)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Vaccine != "Influenza vaccine" || records[0].Date != "2022-10-01" {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestBuildFamilyHistory(t *testing.T) {
	histories := []fhir.FamilyMemberHistory{
		{
			Relationship: concept("Mother"),
			Condition:    []fhir.FamilyHistoryCondition{{Code: concept("Diabetes")}},
		},
		{Relationship: concept("Father")}, // no conditions recorded
	}
	records := buildFamilyHistory(histories)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Relationship != "Mother" || records[0].Condition != "Diabetes" {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if records[1].Condition != "" {
		t.Errorf("expected empty condition, got %q", records[1].Condition)
	}
}

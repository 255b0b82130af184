// Package profile builds a patient's aggregated clinical profile from the
// upstream EHR API: one fetch per clinical category, one classifier per
// category, merged into a single PatientProfile document.
package profile

import "encoding/json"

// PatientProfile is the aggregate root handed to the answer-generation
// step. Every top-level field is independently nullable: a category whose
// backend query failed is null, a category that succeeded with no data is
// empty. The shape is stable — all keys are always serialized.
type PatientProfile struct {
	Demographics       *Demographics       `json:"demographics"`
	Vitals             *Vitals             `json:"vitals"`
	Diagnoses          *Diagnoses          `json:"diagnoses"`
	Medications        *Medications        `json:"medications"`
	LabResults         *LabResults         `json:"lab_results"`
	TreatmentPlans     *TreatmentPlans     `json:"treatment_plans"`
	Symptoms           []Symptom           `json:"symptoms"`
	Procedures         *Procedures         `json:"procedures"`
	Immunizations      []Immunization      `json:"immunizations"`
	Lifestyle          *Lifestyle          `json:"lifestyle"`
	SocialDeterminants *SocialDeterminants `json:"social_determinants"`
	VisitHistory       []Visit             `json:"visit_history"`
}

// Demographics carries the patient's basic record. Age is null when the
// birthdate is missing or unparseable. MedicalHistory and
// FamilyMedicalHistory come from their own backend queries and are null
// when those queries fail.
type Demographics struct {
	Age                  *int           `json:"age"`
	Gender               string         `json:"gender"`
	Ethnicity            string         `json:"ethnicity"`
	MedicalHistory       []string       `json:"medical_history"`
	FamilyMedicalHistory []FamilyRecord `json:"family_medical_history"`
}

// FamilyRecord is one family-history entry.
type FamilyRecord struct {
	Relationship string `json:"relationship"`
	Condition    string `json:"condition"`
}

// Vitals groups raw observed values by vital-sign kind, in API return
// order. Values keep their original JSON representation ("120/80", 72, ...).
type Vitals struct {
	BloodPressure    []json.RawMessage `json:"blood_pressure"`
	HeartRate        []json.RawMessage `json:"heart_rate"`
	Temperature      []json.RawMessage `json:"temperature"`
	RespiratoryRate  []json.RawMessage `json:"respiratory_rate"`
	OxygenSaturation []json.RawMessage `json:"oxygen_saturation"`
}

// Diagnoses buckets condition display names by clinical status. Buckets
// are not mutually exclusive: a confirmed active condition appears in both
// current and chronic.
type Diagnoses struct {
	Current []string `json:"current"`
	Past    []string `json:"past"`
	Chronic []string `json:"chronic"`
}

// Medications buckets medication display names by order status, plus the
// patient's allergy list from its dependent fetch.
type Medications struct {
	Current   []string `json:"current"`
	History   []string `json:"history"`
	Allergies []string `json:"allergies"`
}

// LabResults buckets raw diagnostic reports by keyword classification of
// their display label. Unclassifiable reports are dropped.
type LabResults struct {
	BloodTests     []json.RawMessage `json:"blood_tests"`
	UrineTests     []json.RawMessage `json:"urine_tests"`
	ImagingResults []json.RawMessage `json:"imaging_results"`
}

// TreatmentPlans splits raw care plans by active status.
type TreatmentPlans struct {
	Current []json.RawMessage `json:"current"`
	Past    []json.RawMessage `json:"past"`
}

// Symptom is one symptom observation; severity and duration are nullable.
type Symptom struct {
	Symptom  string   `json:"symptom"`
	Severity *float64 `json:"severity"`
	Duration *string  `json:"duration"`
}

// Procedures splits raw procedure records into surgical and other.
type Procedures struct {
	Surgical []json.RawMessage `json:"surgical"`
	Other    []json.RawMessage `json:"other"`
}

// Immunization is one vaccination record.
type Immunization struct {
	Vaccine string `json:"vaccine"`
	Date    string `json:"date"`
}

// Lifestyle holds social-history factors; each field stays null until an
// observation label matches its keyword.
type Lifestyle struct {
	SmokingStatus      *string `json:"smoking_status"`
	AlcoholConsumption *string `json:"alcohol_consumption"`
	ExerciseHabits     *string `json:"exercise_habits"`
	DietInformation    *string `json:"diet_information"`
}

// SocialDeterminants holds social determinants of health, classified from
// the same social-history observations as Lifestyle.
type SocialDeterminants struct {
	SocioeconomicStatus *string `json:"socioeconomic_status"`
	LivingConditions    *string `json:"living_conditions"`
	Occupation          *string `json:"occupation"`
}

// Visit is one encounter in the visit history.
type Visit struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// Package fhir holds the FHIR-ish resource shapes returned by the upstream
// EHR API. The structs only model the fields the aggregation engine reads;
// everything else in a response is ignored by encoding/json. Accessors are
// nil-safe so that a missing coding array or value yields a zero value
// instead of a panic.
package fhir

import "encoding/json"

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// PrimaryDisplay returns coding[0].display, or "" when the concept or its
// coding list is absent.
func (cc *CodeableConcept) PrimaryDisplay() string {
	if cc == nil || len(cc.Coding) == 0 {
		return ""
	}
	return cc.Coding[0].Display
}

// PrimaryCode returns coding[0].code, or "" when absent.
func (cc *CodeableConcept) PrimaryCode() string {
	if cc == nil || len(cc.Coding) == 0 {
		return ""
	}
	return cc.Coding[0].Code
}

type Quantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Person is the nested person record inside a patient resource. Ethnicity
// is a pointer so that a backend sending an explicit empty value stays
// distinguishable from one omitting the key.
type Person struct {
	BirthDate string  `json:"birthdate"`
	Gender    string  `json:"gender"`
	Ethnicity *string `json:"ethnicity"`
}

// Patient is the single-resource body of patient/{uuid}.
type Patient struct {
	UUID   string `json:"uuid,omitempty"`
	Person Person `json:"person"`
}

// Obs is the legacy observation shape returned by the obs collection
// (concept display plus an untyped value).
type Obs struct {
	Concept *CodeableConceptRef `json:"concept"`
	Value   json.RawMessage     `json:"value"`
}

// CodeableConceptRef is the flat {display: ...} concept reference used by
// the obs collection, as opposed to the coded CodeableConcept elsewhere.
type CodeableConceptRef struct {
	Display string `json:"display"`
}

// ConceptDisplay returns the obs concept display, or "" when absent.
func (o *Obs) ConceptDisplay() string {
	if o.Concept == nil {
		return ""
	}
	return o.Concept.Display
}

// Observation is the FHIR-style observation returned by the observation
// collection (symptom and social-history categories).
type Observation struct {
	Code                 *CodeableConcept `json:"code"`
	ValueQuantity        *Quantity        `json:"valueQuantity"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept"`
	EffectivePeriod      *Period          `json:"effectivePeriod"`
}

type Condition struct {
	Code               *CodeableConcept `json:"code"`
	ClinicalStatus     *CodeableConcept `json:"clinicalStatus"`
	VerificationStatus *CodeableConcept `json:"verificationStatus"`
}

type MedicationRequest struct {
	Status                    string           `json:"status"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept"`
}

type AllergyIntolerance struct {
	Code *CodeableConcept `json:"code"`
}

type Immunization struct {
	VaccineCode        *CodeableConcept `json:"vaccineCode"`
	OccurrenceDateTime string           `json:"occurrenceDateTime"`
}

type Encounter struct {
	Period *Period           `json:"period"`
	Type   []CodeableConcept `json:"type"`
}

type FamilyMemberHistory struct {
	Relationship *CodeableConcept         `json:"relationship"`
	Condition    []FamilyHistoryCondition `json:"condition"`
}

type FamilyHistoryCondition struct {
	Code *CodeableConcept `json:"code"`
}

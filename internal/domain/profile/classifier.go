package profile

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ehr/recordquery/internal/platform/fhir"
)

// statusActive is the clinical/order status that selects the "current"
// bucket wherever records are split by status; every other value, including
// missing, falls through to the past/history bucket.
const statusActive = "active"

// keywordRule maps a bucket key to the substrings that select it. Rules
// are tested in order against the lower-cased display label; the first
// match wins.
type keywordRule struct {
	bucket   string
	keywords []string
}

var labRules = []keywordRule{
	{bucket: "blood", keywords: []string{"blood"}},
	{bucket: "urine", keywords: []string{"urine"}},
	{bucket: "imaging", keywords: []string{"x-ray", "mri", "ct"}},
}

var lifestyleRules = []keywordRule{
	{bucket: "smoking", keywords: []string{"smoking"}},
	{bucket: "alcohol", keywords: []string{"alcohol"}},
	{bucket: "exercise", keywords: []string{"exercise"}},
	{bucket: "diet", keywords: []string{"diet"}},
}

var socialRules = []keywordRule{
	{bucket: "socioeconomic", keywords: []string{"socioeconomic"}},
	{bucket: "living", keywords: []string{"living"}},
	{bucket: "occupation", keywords: []string{"occupation"}},
}

// matchKeyword classifies a display label against a rule table. It returns
// the bucket of the first rule containing a matching substring, or false
// when no rule matches.
func matchKeyword(display string, rules []keywordRule) (string, bool) {
	lower := strings.ToLower(display)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.bucket, true
			}
		}
	}
	return "", false
}

// ageAt computes whole elapsed years between an ISO birthdate and now,
// subtracting one when now's (month, day) precedes the birth (month, day).
func ageAt(birthdate string, now time.Time) (int, bool) {
	born, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, true
}

// buildDemographics shapes the patient resource's person record. The
// medical-history and family-history fields come from separate fetches and
// are attached by the assembler.
func buildDemographics(p *fhir.Patient, now time.Time) *Demographics {
	d := &Demographics{
		Gender:    p.Person.Gender,
		Ethnicity: "Unknown",
	}
	// Only a missing ethnicity key defaults; an explicit empty value is
	// kept as sent.
	if p.Person.Ethnicity != nil {
		d.Ethnicity = *p.Person.Ethnicity
	}
	if age, ok := ageAt(p.Person.BirthDate, now); ok {
		d.Age = &age
	}
	return d
}

// conditionNames lists every condition display name, used for the
// demographics medical-history field.
func conditionNames(conditions []fhir.Condition) []string {
	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, c.Code.PrimaryDisplay())
	}
	return names
}

func buildFamilyHistory(histories []fhir.FamilyMemberHistory) []FamilyRecord {
	records := make([]FamilyRecord, 0, len(histories))
	for _, h := range histories {
		rec := FamilyRecord{Relationship: h.Relationship.PrimaryDisplay()}
		if len(h.Condition) > 0 {
			rec.Condition = h.Condition[0].Code.PrimaryDisplay()
		}
		records = append(records, rec)
	}
	return records
}

func buildVitals(observations []fhir.Obs) *Vitals {
	v := &Vitals{
		BloodPressure:    []json.RawMessage{},
		HeartRate:        []json.RawMessage{},
		Temperature:      []json.RawMessage{},
		RespiratoryRate:  []json.RawMessage{},
		OxygenSaturation: []json.RawMessage{},
	}
	for _, obs := range observations {
		switch obs.ConceptDisplay() {
		case "Blood Pressure":
			v.BloodPressure = append(v.BloodPressure, obs.Value)
		case "Heart Rate":
			v.HeartRate = append(v.HeartRate, obs.Value)
		case "Temperature":
			v.Temperature = append(v.Temperature, obs.Value)
		case "Respiratory Rate":
			v.RespiratoryRate = append(v.RespiratoryRate, obs.Value)
		case "Oxygen Saturation":
			v.OxygenSaturation = append(v.OxygenSaturation, obs.Value)
		}
	}
	return v
}

// buildDiagnoses buckets conditions by clinical status. The chronic bucket
// is filled independently from the verification status, so a condition can
// be both current and chronic.
func buildDiagnoses(conditions []fhir.Condition) *Diagnoses {
	d := &Diagnoses{Current: []string{}, Past: []string{}, Chronic: []string{}}
	for _, c := range conditions {
		name := c.Code.PrimaryDisplay()
		switch c.ClinicalStatus.PrimaryCode() {
		case statusActive:
			d.Current = append(d.Current, name)
		case "resolved":
			d.Past = append(d.Past, name)
		}
		if c.VerificationStatus.PrimaryCode() == "confirmed" {
			d.Chronic = append(d.Chronic, name)
		}
	}
	return d
}

// buildMedications buckets medication orders by status. allergies comes
// from the dependent allergy fetch; when that fetch failed the list stays
// empty rather than failing the whole category.
func buildMedications(meds []fhir.MedicationRequest, allergies []fhir.AllergyIntolerance) *Medications {
	m := &Medications{Current: []string{}, History: []string{}, Allergies: []string{}}
	for _, med := range meds {
		name := med.MedicationCodeableConcept.PrimaryDisplay()
		if med.Status == statusActive {
			m.Current = append(m.Current, name)
		} else {
			m.History = append(m.History, name)
		}
	}
	for _, a := range allergies {
		m.Allergies = append(m.Allergies, a.Code.PrimaryDisplay())
	}
	return m
}

func buildLabResults(reports []fhir.DiagnosticReport) *LabResults {
	l := &LabResults{
		BloodTests:     []json.RawMessage{},
		UrineTests:     []json.RawMessage{},
		ImagingResults: []json.RawMessage{},
	}
	for _, r := range reports {
		bucket, ok := matchKeyword(r.Code.PrimaryDisplay(), labRules)
		if !ok {
			continue
		}
		switch bucket {
		case "blood":
			l.BloodTests = append(l.BloodTests, r.Raw)
		case "urine":
			l.UrineTests = append(l.UrineTests, r.Raw)
		case "imaging":
			l.ImagingResults = append(l.ImagingResults, r.Raw)
		}
	}
	return l
}

func buildTreatmentPlans(plans []fhir.CarePlan) *TreatmentPlans {
	t := &TreatmentPlans{Current: []json.RawMessage{}, Past: []json.RawMessage{}}
	for _, p := range plans {
		if p.Status == statusActive {
			t.Current = append(t.Current, p.Raw)
		} else {
			t.Past = append(t.Past, p.Raw)
		}
	}
	return t
}

func buildSymptoms(observations []fhir.Observation) []Symptom {
	symptoms := make([]Symptom, 0, len(observations))
	for _, obs := range observations {
		s := Symptom{Symptom: obs.Code.PrimaryDisplay()}
		if obs.ValueQuantity != nil {
			s.Severity = obs.ValueQuantity.Value
		}
		if obs.EffectivePeriod != nil && obs.EffectivePeriod.Start != "" {
			start := obs.EffectivePeriod.Start
			s.Duration = &start
		}
		symptoms = append(symptoms, s)
	}
	return symptoms
}

var surgicalKeywords = []keywordRule{{bucket: "surgical", keywords: []string{"surgery"}}}

func buildProcedures(procedures []fhir.Procedure) *Procedures {
	p := &Procedures{Surgical: []json.RawMessage{}, Other: []json.RawMessage{}}
	for _, proc := range procedures {
		if _, ok := matchKeyword(proc.Code.PrimaryDisplay(), surgicalKeywords); ok {
			p.Surgical = append(p.Surgical, proc.Raw)
		} else {
			p.Other = append(p.Other, proc.Raw)
		}
	}
	return p
}

func buildImmunizations(immunizations []fhir.Immunization) []Immunization {
	records := make([]Immunization, 0, len(immunizations))
	for _, imm := range immunizations {
		records = append(records, Immunization{
			Vaccine: imm.VaccineCode.PrimaryDisplay(),
			Date:    imm.OccurrenceDateTime,
		})
	}
	return records
}

// buildLifestyle classifies social-history observations into lifestyle
// factors. A later matching observation overwrites an earlier one.
func buildLifestyle(observations []fhir.Observation) *Lifestyle {
	l := &Lifestyle{}
	for _, obs := range observations {
		bucket, ok := matchKeyword(obs.Code.PrimaryDisplay(), lifestyleRules)
		if !ok {
			continue
		}
		value := obs.ValueCodeableConcept.PrimaryDisplay()
		if value == "" {
			continue
		}
		v := value
		switch bucket {
		case "smoking":
			l.SmokingStatus = &v
		case "alcohol":
			l.AlcoholConsumption = &v
		case "exercise":
			l.ExerciseHabits = &v
		case "diet":
			l.DietInformation = &v
		}
	}
	return l
}

// buildSocialDeterminants reads the same social-history observations as
// buildLifestyle, classified independently against its own rule table.
func buildSocialDeterminants(observations []fhir.Observation) *SocialDeterminants {
	s := &SocialDeterminants{}
	for _, obs := range observations {
		bucket, ok := matchKeyword(obs.Code.PrimaryDisplay(), socialRules)
		if !ok {
			continue
		}
		value := obs.ValueCodeableConcept.PrimaryDisplay()
		if value == "" {
			continue
		}
		v := value
		switch bucket {
		case "socioeconomic":
			s.SocioeconomicStatus = &v
		case "living":
			s.LivingConditions = &v
		case "occupation":
			s.Occupation = &v
		}
	}
	return s
}

func buildVisitHistory(encounters []fhir.Encounter) []Visit {
	visits := make([]Visit, 0, len(encounters))
	for _, enc := range encounters {
		v := Visit{}
		if enc.Period != nil {
			v.Date = enc.Period.Start
		}
		if len(enc.Type) > 0 {
			v.Reason = enc.Type[0].PrimaryDisplay()
		}
		visits = append(visits, v)
	}
	return visits
}

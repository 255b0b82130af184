package profile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/recordquery/internal/platform/fhir"
)

// vitalSignsConcept is the obs concept filter for the vitals query.
const vitalSignsConcept = "Vital Signs"

// Observation category filters on the observation collection.
const (
	categorySymptom       = "symptom"
	categorySocialHistory = "social-history"
)

// Fetcher is the slice of the EHR client the assembler needs. Every method
// reports ok=false when its backend query failed; the assembler turns that
// into an absent profile category.
type Fetcher interface {
	Patient(ctx context.Context, patientUUID string) (*fhir.Patient, bool)
	Obs(ctx context.Context, patientUUID, concept string) ([]fhir.Obs, bool)
	Observations(ctx context.Context, patientUUID, category string) ([]fhir.Observation, bool)
	Conditions(ctx context.Context, patientUUID string) ([]fhir.Condition, bool)
	MedicationRequests(ctx context.Context, patientUUID string) ([]fhir.MedicationRequest, bool)
	AllergyIntolerances(ctx context.Context, patientUUID string) ([]fhir.AllergyIntolerance, bool)
	DiagnosticReports(ctx context.Context, patientUUID string) ([]fhir.DiagnosticReport, bool)
	CarePlans(ctx context.Context, patientUUID string) ([]fhir.CarePlan, bool)
	Procedures(ctx context.Context, patientUUID string) ([]fhir.Procedure, bool)
	Immunizations(ctx context.Context, patientUUID string) ([]fhir.Immunization, bool)
	Encounters(ctx context.Context, patientUUID string) ([]fhir.Encounter, bool)
	FamilyHistories(ctx context.Context, patientUUID string) ([]fhir.FamilyMemberHistory, bool)
}

// Service assembles patient profiles.
type Service struct {
	ehr         Fetcher
	logger      zerolog.Logger
	concurrency int
	now         func() time.Time
}

// DefaultConcurrency bounds the category fan-out against the backend.
const DefaultConcurrency = 4

func NewService(ehr Fetcher, logger zerolog.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		ehr:         ehr,
		logger:      logger.With().Str("component", "profile_service").Logger(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Aggregate fetches and classifies all clinical categories for one patient
// and merges them into a single profile. Category fetches run concurrently,
// each task writing exactly one disjoint field. A failed fetch leaves its
// field null and never aborts assembly; the only returned error is the
// caller's own cancellation, in which case the partial profile is
// discarded.
func (s *Service) Aggregate(ctx context.Context, patientUUID string) (*PatientProfile, error) {
	start := s.now()
	p := &PatientProfile{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	g.Go(func() error {
		p.Demographics = s.demographics(gctx, patientUUID)
		return nil
	})
	g.Go(func() error {
		if obs, ok := s.ehr.Obs(gctx, patientUUID, vitalSignsConcept); ok {
			p.Vitals = buildVitals(obs)
		}
		return nil
	})
	g.Go(func() error {
		if conditions, ok := s.ehr.Conditions(gctx, patientUUID); ok {
			p.Diagnoses = buildDiagnoses(conditions)
		}
		return nil
	})
	g.Go(func() error {
		p.Medications = s.medications(gctx, patientUUID)
		return nil
	})
	g.Go(func() error {
		if reports, ok := s.ehr.DiagnosticReports(gctx, patientUUID); ok {
			p.LabResults = buildLabResults(reports)
		}
		return nil
	})
	g.Go(func() error {
		if plans, ok := s.ehr.CarePlans(gctx, patientUUID); ok {
			p.TreatmentPlans = buildTreatmentPlans(plans)
		}
		return nil
	})
	g.Go(func() error {
		if obs, ok := s.ehr.Observations(gctx, patientUUID, categorySymptom); ok {
			p.Symptoms = buildSymptoms(obs)
		}
		return nil
	})
	g.Go(func() error {
		if procedures, ok := s.ehr.Procedures(gctx, patientUUID); ok {
			p.Procedures = buildProcedures(procedures)
		}
		return nil
	})
	g.Go(func() error {
		if immunizations, ok := s.ehr.Immunizations(gctx, patientUUID); ok {
			p.Immunizations = buildImmunizations(immunizations)
		}
		return nil
	})
	g.Go(func() error {
		if obs, ok := s.ehr.Observations(gctx, patientUUID, categorySocialHistory); ok {
			p.Lifestyle = buildLifestyle(obs)
		}
		return nil
	})
	g.Go(func() error {
		// Same social-history query as lifestyle, classified independently
		// against the social-determinants rule table.
		if obs, ok := s.ehr.Observations(gctx, patientUUID, categorySocialHistory); ok {
			p.SocialDeterminants = buildSocialDeterminants(obs)
		}
		return nil
	})
	g.Go(func() error {
		if encounters, ok := s.ehr.Encounters(gctx, patientUUID); ok {
			p.VisitHistory = buildVisitHistory(encounters)
		}
		return nil
	})

	// Tasks never return errors, so Wait only synchronizes the join.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("patient_uuid", patientUUID).
		Dur("elapsed", s.now().Sub(start)).
		Msg("profile assembled")
	return p, nil
}

// demographics combines the patient resource with its two dependent
// lookups. Either lookup failing leaves its field null without discarding
// the demographics already fetched.
func (s *Service) demographics(ctx context.Context, patientUUID string) *Demographics {
	patient, ok := s.ehr.Patient(ctx, patientUUID)
	if !ok {
		return nil
	}
	d := buildDemographics(patient, s.now())
	if conditions, ok := s.ehr.Conditions(ctx, patientUUID); ok {
		d.MedicalHistory = conditionNames(conditions)
	}
	if histories, ok := s.ehr.FamilyHistories(ctx, patientUUID); ok {
		d.FamilyMedicalHistory = buildFamilyHistory(histories)
	}
	return d
}

// medications performs the primary medication fetch and, only on success,
// the dependent allergy fetch. A failed allergy fetch leaves the allergy
// list empty rather than dropping the whole category.
func (s *Service) medications(ctx context.Context, patientUUID string) *Medications {
	meds, ok := s.ehr.MedicationRequests(ctx, patientUUID)
	if !ok {
		return nil
	}
	allergies, ok := s.ehr.AllergyIntolerances(ctx, patientUUID)
	if !ok {
		allergies = nil
	}
	return buildMedications(meds, allergies)
}

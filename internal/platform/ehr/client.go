// Package ehr implements the outbound client for the upstream EHR REST API.
// Every fetch returns its decoded result plus an ok flag: transport errors,
// non-200 responses and undecodable bodies all report ok=false so that a
// single missing resource collection degrades to an absent profile category
// instead of failing the whole aggregation.
package ehr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/recordquery/internal/platform/fhir"
)

// Config holds the connection settings for one EHR backend.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is a reusable, concurrency-safe EHR API client authenticated with
// basic credentials.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a Client from explicit configuration. No retries are
// attempted; the transport timeout is the only robustness measure.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "ehr_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the search response wrapper common to all collections.
type envelope struct {
	Results json.RawMessage `json:"results"`
}

// get issues one authenticated GET and decodes the body into out. It
// reports false on any transport failure, non-200 status or decode error.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) bool {
	u := c.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("build request")
		return false
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("ehr request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("ehr non-200 response")
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("decode ehr response")
		return false
	}
	return true
}

// search fetches a results envelope and unmarshals the results array into
// out (a pointer to a slice). An envelope without a results key yields an
// empty slice, not a failure.
func (c *Client) search(ctx context.Context, path string, params url.Values, out interface{}) bool {
	var env envelope
	if !c.get(ctx, path, params, &env) {
		return false
	}
	if len(env.Results) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Results, out); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("decode ehr results")
		return false
	}
	return true
}

func patientParams(patientUUID string) url.Values {
	return url.Values{"patient": []string{patientUUID}}
}

// Patient fetches the demographics resource for one patient.
func (c *Client) Patient(ctx context.Context, patientUUID string) (*fhir.Patient, bool) {
	var p fhir.Patient
	if !c.get(ctx, fmt.Sprintf("patient/%s", url.PathEscape(patientUUID)), nil, &p) {
		return nil, false
	}
	return &p, true
}

// Obs searches the legacy obs collection filtered by concept display.
func (c *Client) Obs(ctx context.Context, patientUUID, concept string) ([]fhir.Obs, bool) {
	params := patientParams(patientUUID)
	params.Set("concept", concept)
	var out []fhir.Obs
	if !c.search(ctx, "obs", params, &out) {
		return nil, false
	}
	return out, true
}

// Observations searches the observation collection filtered by category.
func (c *Client) Observations(ctx context.Context, patientUUID, category string) ([]fhir.Observation, bool) {
	params := patientParams(patientUUID)
	params.Set("category", category)
	var out []fhir.Observation
	if !c.search(ctx, "observation", params, &out) {
		return nil, false
	}
	return out, true
}

// Conditions fetches all condition resources for a patient.
func (c *Client) Conditions(ctx context.Context, patientUUID string) ([]fhir.Condition, bool) {
	var out []fhir.Condition
	if !c.search(ctx, "condition", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// MedicationRequests fetches the medication orders for a patient.
func (c *Client) MedicationRequests(ctx context.Context, patientUUID string) ([]fhir.MedicationRequest, bool) {
	var out []fhir.MedicationRequest
	if !c.search(ctx, "medicationrequest", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// AllergyIntolerances fetches the allergy list for a patient.
func (c *Client) AllergyIntolerances(ctx context.Context, patientUUID string) ([]fhir.AllergyIntolerance, bool) {
	var out []fhir.AllergyIntolerance
	if !c.search(ctx, "allergyintolerance", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// DiagnosticReports fetches lab and imaging reports for a patient.
func (c *Client) DiagnosticReports(ctx context.Context, patientUUID string) ([]fhir.DiagnosticReport, bool) {
	var out []fhir.DiagnosticReport
	if !c.search(ctx, "diagnosticreport", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// CarePlans fetches the care plans for a patient.
func (c *Client) CarePlans(ctx context.Context, patientUUID string) ([]fhir.CarePlan, bool) {
	var out []fhir.CarePlan
	if !c.search(ctx, "careplan", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// Procedures fetches procedure records for a patient.
func (c *Client) Procedures(ctx context.Context, patientUUID string) ([]fhir.Procedure, bool) {
	var out []fhir.Procedure
	if !c.search(ctx, "procedure", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// Immunizations fetches immunization records for a patient.
func (c *Client) Immunizations(ctx context.Context, patientUUID string) ([]fhir.Immunization, bool) {
	var out []fhir.Immunization
	if !c.search(ctx, "immunization", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// Encounters fetches the visit history for a patient.
func (c *Client) Encounters(ctx context.Context, patientUUID string) ([]fhir.Encounter, bool) {
	var out []fhir.Encounter
	if !c.search(ctx, "encounter", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

// FamilyHistories fetches family member history records for a patient.
func (c *Client) FamilyHistories(ctx context.Context, patientUUID string) ([]fhir.FamilyMemberHistory, bool) {
	var out []fhir.FamilyMemberHistory
	if !c.search(ctx, "familymemberhistory", patientParams(patientUUID), &out) {
		return nil, false
	}
	return out, true
}

package fhir

import "encoding/json"

// DiagnosticReport, CarePlan and Procedure are surfaced downstream as the
// raw objects the backend returned, so each keeps a verbatim copy of its
// JSON alongside the few fields the classifiers inspect.

type DiagnosticReport struct {
	Code *CodeableConcept `json:"code"`
	Raw  json.RawMessage  `json:"-"`
}

func (r *DiagnosticReport) UnmarshalJSON(b []byte) error {
	type alias DiagnosticReport
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*r = DiagnosticReport(a)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type CarePlan struct {
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

func (p *CarePlan) UnmarshalJSON(b []byte) error {
	type alias CarePlan
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = CarePlan(a)
	p.Raw = append(json.RawMessage(nil), b...)
	return nil
}

type Procedure struct {
	Code *CodeableConcept `json:"code"`
	Raw  json.RawMessage  `json:"-"`
}

func (p *Procedure) UnmarshalJSON(b []byte) error {
	type alias Procedure
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = Procedure(a)
	p.Raw = append(json.RawMessage(nil), b...)
	return nil
}

package fhir

import "strings"

// Resource is the base FHIR resource representation.
type Resource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
	Meta         *Meta  `json:"meta,omitempty"`
}

// Meta keeps lastUpdated as the server sent it.
type Meta struct {
	VersionID   string `json:"versionId,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// Period bounds are FHIR dateTime strings, which may be partial ("2023",
// "2023-09") so they are not decoded into time.Time.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Patient is the subset of the FHIR R4 Patient resource the patient list reads.
type Patient struct {
	Resource
	Active    *bool       `json:"active,omitempty"`
	Name      []HumanName `json:"name,omitempty"`
	Gender    string      `json:"gender,omitempty"`
	BirthDate string      `json:"birthDate,omitempty"`
}

// OfficialName returns the first "official" name, falling back to the first
// name listed. The zero HumanName is returned when the patient has no names.
func (p *Patient) OfficialName() HumanName {
	for _, n := range p.Name {
		if n.Use == "official" {
			return n
		}
	}
	if len(p.Name) > 0 {
		return p.Name[0]
	}
	return HumanName{}
}

// Encounter is the subset of the FHIR R4 Encounter resource used to find a
// patient's last visit.
type Encounter struct {
	Resource
	Status  string            `json:"status,omitempty"`
	Class   *Coding           `json:"class,omitempty"`
	Type    []CodeableConcept `json:"type,omitempty"`
	Subject *Reference        `json:"subject,omitempty"`
	Period  *Period           `json:"period,omitempty"`
}

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"`
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

// Message joins the diagnostics (or details text) of every issue.
func (o *OperationOutcome) Message() string {
	var parts []string
	for _, iss := range o.Issue {
		switch {
		case iss.Diagnostics != "":
			parts = append(parts, iss.Diagnostics)
		case iss.Details != nil && iss.Details.Text != "":
			parts = append(parts, iss.Details.Text)
		}
	}
	return strings.Join(parts, "; ")
}

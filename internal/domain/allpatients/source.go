package allpatients

import (
	"context"

	"github.com/CDC-HIS/ohri-patientlist/internal/platform/fhir"
)

// PatientSource pages through the registered patients.
type PatientSource interface {
	SearchPatients(ctx context.Context, offset, count int) ([]Patient, int, error)
}

// VisitSource looks up the start of a patient's most recent visit. found is
// false when the patient has never had one.
type VisitSource interface {
	LastVisit(ctx context.Context, patientID string) (start string, found bool, err error)
}

// FHIRSource serves both lookups from a FHIR R4 server.
type FHIRSource struct {
	client *fhir.Client
}

func NewFHIRSource(client *fhir.Client) *FHIRSource {
	return &FHIRSource{client: client}
}

func (s *FHIRSource) SearchPatients(ctx context.Context, offset, count int) ([]Patient, int, error) {
	resources, total, err := s.client.SearchPatients(ctx, offset, count)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Patient, 0, len(resources))
	for i := range resources {
		out = append(out, patientFromFHIR(&resources[i]))
	}
	return out, total, nil
}

func (s *FHIRSource) LastVisit(ctx context.Context, patientID string) (string, bool, error) {
	enc, err := s.client.LastEncounter(ctx, patientID)
	if err != nil {
		return "", false, err
	}
	if enc == nil || enc.Period == nil || enc.Period.Start == "" {
		return "", false, nil
	}
	if enc.Subject != nil && enc.Subject.Reference != "" {
		if typ, id, ok := fhir.ParseReference(enc.Subject.Reference); ok && (typ != "Patient" || id != patientID) {
			return "", false, nil
		}
	}
	return enc.Period.Start, true, nil
}

func patientFromFHIR(p *fhir.Patient) Patient {
	name := p.OfficialName()
	return Patient{
		ID:        p.ID,
		Given:     name.Given,
		Family:    name.Family,
		Gender:    p.Gender,
		BirthDate: p.BirthDate,
	}
}

package cohort

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("cohort not found")
	ErrAlreadyMember = errors.New("patient is already in the cohort")
	ErrDuplicateName = errors.New("a cohort with this name already exists")
	ErrInactive      = errors.New("cohort is not active")
	ErrInvalid       = errors.New("invalid cohort request")
)

// Cohort is a named patient list that rows of the patient list can be added to.
type Cohort struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member records a patient's place in a cohort. PatientUUID is the OpenMRS
// (and FHIR) patient identifier.
type Member struct {
	ID          uuid.UUID  `json:"id"`
	CohortID    uuid.UUID  `json:"cohort_id"`
	PatientUUID string     `json:"patient_uuid"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

package cohort

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Cohort) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cohort, error)
	List(ctx context.Context, limit, offset int) ([]*Cohort, int, error)
	// ListActiveWithoutPatient returns active cohorts patientUUID holds no
	// current membership in, ordered by name. A membership is current while
	// its end date is unset; AddMember only conflicts with a current one.
	ListActiveWithoutPatient(ctx context.Context, patientUUID string) ([]*Cohort, error)

	AddMember(ctx context.Context, m *Member) error
	ListMembers(ctx context.Context, cohortID uuid.UUID, limit, offset int) ([]*Member, int, error)
	RemoveMember(ctx context.Context, cohortID, memberID uuid.UUID) error
}

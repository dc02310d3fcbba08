package cohort

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CDC-HIS/ohri-patientlist/internal/platform/auth"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/db"
)

const maxNameLength = 255

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) CreateCohort(ctx context.Context, c *Cohort) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(c.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, maxNameLength)
	}
	c.Active = true
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.event(ctx).Str("cohort_id", c.ID.String()).Str("name", c.Name).Msg("cohort created")
	return nil
}

func (s *Service) GetCohort(ctx context.Context, id uuid.UUID) (*Cohort, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListCohorts(ctx context.Context, limit, offset int) ([]*Cohort, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// AvailableForPatient lists the active cohorts patientUUID can still be added
// to, leaving out any in exclude.
func (s *Service) AvailableForPatient(ctx context.Context, patientUUID string, exclude []uuid.UUID) ([]*Cohort, error) {
	if patientUUID == "" {
		return nil, fmt.Errorf("%w: patient uuid is required", ErrInvalid)
	}
	all, err := s.repo.ListActiveWithoutPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	if len(exclude) == 0 {
		return all, nil
	}

	skip := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]*Cohort, 0, len(all))
	for _, c := range all {
		if _, ok := skip[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// AddPatient enrols patientUUID in an active cohort starting now.
func (s *Service) AddPatient(ctx context.Context, cohortID uuid.UUID, patientUUID string) (*Member, error) {
	if patientUUID == "" {
		return nil, fmt.Errorf("%w: patient uuid is required", ErrInvalid)
	}
	c, err := s.repo.GetByID(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, ErrInactive
	}

	m := &Member{
		CohortID:    cohortID,
		PatientUUID: patientUUID,
		StartDate:   s.now().UTC(),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}
	s.event(ctx).
		Str("cohort_id", cohortID.String()).
		Str("patient_uuid", patientUUID).
		Msg("patient added to cohort")
	return m, nil
}

func (s *Service) Members(ctx context.Context, cohortID uuid.UUID, limit, offset int) ([]*Member, int, error) {
	if _, err := s.repo.GetByID(ctx, cohortID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListMembers(ctx, cohortID, limit, offset)
}

func (s *Service) RemoveMember(ctx context.Context, cohortID, memberID uuid.UUID) error {
	if err := s.repo.RemoveMember(ctx, cohortID, memberID); err != nil {
		return err
	}
	s.event(ctx).
		Str("cohort_id", cohortID.String()).
		Str("member_id", memberID.String()).
		Msg("cohort member removed")
	return nil
}

// event starts an info line tagged with the acting user and tenant.
func (s *Service) event(ctx context.Context) *zerolog.Event {
	return s.logger.Info().
		Str("tenant_id", db.TenantFromContext(ctx)).
		Str("user_id", auth.UserIDFromContext(ctx))
}

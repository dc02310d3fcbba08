package cohort

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CDC-HIS/ohri-patientlist/internal/platform/db"
)

const pgUniqueViolation = "23505"

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const cohortCols = `id, name, description, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Cohort) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cohort (id, name, description, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Description, c.Active,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("insert cohort: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Cohort, error) {
	c, err := scanCohort(r.conn(ctx).QueryRow(ctx, `SELECT `+cohortCols+` FROM cohort WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cohort %s: %w", id, err)
	}
	return c, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Cohort, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cohort`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cohorts: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cohortCols+` FROM cohort ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	items, err := collectCohorts(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListActiveWithoutPatient(ctx context.Context, patientUUID string) ([]*Cohort, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cohortCols+` FROM cohort c
		WHERE c.active
		  AND NOT EXISTS (
		      SELECT 1 FROM cohort_member m
		      WHERE m.cohort_id = c.id AND m.patient_uuid = $1
		        AND m.end_date IS NULL
		  )
		ORDER BY c.name`, patientUUID)
	if err != nil {
		return nil, fmt.Errorf("list cohorts available to %s: %w", patientUUID, err)
	}
	defer rows.Close()
	return collectCohorts(rows)
}

func (r *repoPG) AddMember(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cohort_member (id, cohort_id, patient_uuid, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.CohortID, m.PatientUUID, m.StartDate, m.EndDate,
	).Scan(&m.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("insert cohort member: %w", err)
	}
	return nil
}

func (r *repoPG) ListMembers(ctx context.Context, cohortID uuid.UUID, limit, offset int) ([]*Member, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM cohort_member WHERE cohort_id = $1`, cohortID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cohort members: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, cohort_id, patient_uuid, start_date, end_date, created_at
		FROM cohort_member WHERE cohort_id = $1
		ORDER BY start_date DESC, id
		LIMIT $2 OFFSET $3`, cohortID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cohort members: %w", err)
	}
	defer rows.Close()

	var items []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.CohortID, &m.PatientUUID, &m.StartDate, &m.EndDate, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan cohort member: %w", err)
		}
		items = append(items, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate cohort members: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) RemoveMember(ctx context.Context, cohortID, memberID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM cohort_member WHERE cohort_id = $1 AND id = $2`, cohortID, memberID)
	if err != nil {
		return fmt.Errorf("delete cohort member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCohort(row pgx.Row) (*Cohort, error) {
	var c Cohort
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCohorts(rows pgx.Rows) ([]*Cohort, error) {
	var items []*Cohort
	for rows.Next() {
		c, err := scanCohort(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cohorts: %w", err)
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

package allpatients

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/CDC-HIS/ohri-patientlist/pkg/ethiopic"
	"github.com/CDC-HIS/ohri-patientlist/pkg/pagination"
)

const defaultConcurrency = 8

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithConcurrency caps the number of last-visit lookups in flight.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSPABase sets the SPA root used for chart and registration links.
func WithSPABase(base string) ServiceOption {
	return func(s *Service) { s.spaBase = strings.TrimRight(base, "/") }
}

// WithLogger sets the logger that receives failed last-visit lookups.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time used for ages.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// Service assembles patient list pages.
type Service struct {
	patients    PatientSource
	visits      VisitSource
	concurrency int
	spaBase     string
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(patients PatientSource, visits VisitSource, opts ...ServiceOption) *Service {
	s := &Service{
		patients:    patients,
		visits:      visits,
		concurrency: defaultConcurrency,
		spaBase:     "/openmrs/spa",
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListPage fetches one page of patients, looks up each patient's last visit
// concurrently and returns the rendered rows in the order the server sent
// the patients, unless q asks for a sort.
func (s *Service) ListPage(ctx context.Context, q Query) (*Page, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	pg := pagination.Page{Number: q.Page, Size: q.PageSize}

	patients, total, err := s.patients.SearchPatients(ctx, pg.Offset(), pg.Size)
	if err != nil {
		return nil, fmt.Errorf("fetch patients: %w", err)
	}

	visits, err := s.lastVisits(ctx, patients)
	if err != nil {
		return nil, fmt.Errorf("fetch last visits: %w", err)
	}

	now := s.now()
	rows := make([]Row, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, s.buildRow(p, visits[p.ID], now))
	}
	if q.Sort != "" {
		SortRows(rows, strings.TrimPrefix(q.Sort, "-"), strings.HasPrefix(q.Sort, "-"))
	}

	return &Page{
		Title:           "Patient List",
		TitleKey:        "patientList",
		Headers:         Headers,
		Rows:            rows,
		Page:            pg.Number,
		PageSize:        pg.Size,
		PageSizes:       pagination.PageSizes,
		Total:           total,
		Offset:          pg.Offset(),
		HasMore:         pg.HasNext(total),
		Empty:           len(rows) == 0,
		RegistrationURL: s.spaBase + "/patient-registration",
	}, nil
}

// lastVisits returns patient ID to last visit start for every patient that
// has one. A failed lookup is logged and leaves that patient out; only
// cancellation of ctx fails the whole gather.
func (s *Service) lastVisits(ctx context.Context, patients []Patient) (map[string]string, error) {
	var mu sync.Mutex
	out := make(map[string]string, len(patients))
	seen := make(map[string]bool, len(patients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, p := range patients {
		id := p.ID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		g.Go(func() error {
			start, found, err := s.visits.LastVisit(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn().Err(err).Str("patient_id", id).Msg("last visit lookup failed")
				return nil
			}
			if !found {
				return nil
			}
			mu.Lock()
			out[id] = start
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) buildRow(p Patient, lastVisit string, now time.Time) Row {
	row := Row{
		ID:                 p.ID,
		Name:               FullName(p.Given, p.Family),
		Gender:             capitalize(p.Gender),
		Age:                Age(p.BirthDate, now),
		LastVisit:          LastVisitPlaceholder,
		LastVisitGregorian: lastVisit,
		ChartURL:           fmt.Sprintf("%s/patient/%s/chart", s.spaBase, p.ID),
	}
	if eth, ok := ethiopic.Convert(lastVisit); ok {
		row.LastVisit = eth
	}
	return row
}

// FullName joins the given names and the family name with single spaces.
func FullName(given []string, family string) string {
	return strings.TrimSpace(strings.Join(given, " ") + " " + family)
}

// capitalize upper-cases the first letter and lower-cases the rest, so
// "other gender" becomes "Other gender".
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

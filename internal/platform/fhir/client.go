package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/CDC-HIS/ohri-patientlist/pkg/fhirmodels"
)

const mimeFHIRJSON = "application/fhir+json"

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// StatusError is returned when the FHIR server answers with a non-2xx status.
type StatusError struct {
	StatusCode  int
	URL         string
	Diagnostics string
}

func (e *StatusError) Error() string {
	if e.Diagnostics != "" {
		return fmt.Sprintf("fhir server returned %d for %s: %s", e.StatusCode, e.URL, e.Diagnostics)
	}
	return fmt.Sprintf("fhir server returned %d for %s", e.StatusCode, e.URL)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBasicAuth sends HTTP basic credentials, as OpenMRS expects.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client is a minimal FHIR R4 REST client for the searches the patient list
// performs. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	username   string
	password   string
	logger     zerolog.Logger
}

// NewClient creates a client rooted at baseURL, e.g.
// "http://host/openmrs/ws/fhir2/R4".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchPatients returns count patients starting at offset, and the total
// number of patients the server reports.
func (c *Client) SearchPatients(ctx context.Context, offset, count int) ([]Patient, int, error) {
	q := url.Values{}
	q.Set(fhirmodels.ParamPagesOffset, strconv.Itoa(offset))
	q.Set(fhirmodels.ParamCount, strconv.Itoa(count))
	q.Set(fhirmodels.ParamSummary, fhirmodels.SummaryData)

	b, err := c.Search(ctx, "Patient", q)
	if err != nil {
		return nil, 0, err
	}
	patients, err := DecodeEntries[Patient](b, "Patient")
	if err != nil {
		return nil, 0, err
	}
	return patients, b.TotalOr(offset + len(patients)), nil
}

// LastEncounter returns the patient's most recent encounter, or nil when the
// patient has none.
func (c *Client) LastEncounter(ctx context.Context, patientID string) (*Encounter, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient id is required")
	}
	q := url.Values{}
	q.Set(fhirmodels.ParamPatient, patientID)
	q.Set(fhirmodels.ParamSort, "-"+fhirmodels.ParamDate)
	q.Set(fhirmodels.ParamCount, "1")

	b, err := c.Search(ctx, "Encounter", q)
	if err != nil {
		return nil, err
	}
	encs, err := DecodeEntries[Encounter](b, "Encounter")
	if err != nil {
		return nil, err
	}
	if len(encs) == 0 {
		return nil, nil
	}
	return &encs[0], nil
}

// Search runs a type-level search and returns the resulting Bundle.
func (c *Client) Search(ctx context.Context, resourceType string, q url.Values) (*Bundle, error) {
	u := c.baseURL + "/" + resourceType
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s search: %w", resourceType, err)
	}
	req.Header.Set("Accept", mimeFHIRJSON)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", resourceType, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("fhir search")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp, u)
	}

	var b Bundle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode %s bundle: %w", resourceType, err)
	}
	if b.ResourceType != "Bundle" {
		return nil, fmt.Errorf("%s search returned %q, expected Bundle", resourceType, b.ResourceType)
	}
	return &b, nil
}

func statusError(resp *http.Response, u string) error {
	se := &StatusError{StatusCode: resp.StatusCode, URL: u}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	var oo OperationOutcome
	if json.Unmarshal(body, &oo) == nil && oo.ResourceType == "OperationOutcome" {
		se.Diagnostics = oo.Message()
	}
	return se
}

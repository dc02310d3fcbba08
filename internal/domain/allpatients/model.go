package allpatients

import (
	"errors"
	"fmt"
	"slices"

	"github.com/CDC-HIS/ohri-patientlist/pkg/pagination"
)

// LastVisitPlaceholder is shown when a patient has no recorded visit or the
// visit date could not be converted.
const LastVisitPlaceholder = "__"

// ErrInvalidQuery is returned for page, page size or sort values the pager
// never sends.
var ErrInvalidQuery = errors.New("invalid patient list query")

// Patient is the demographic subset of a FHIR Patient shown in the list.
type Patient struct {
	ID        string
	Given     []string
	Family    string
	Gender    string
	BirthDate string
}

// Row is one rendered line of the patient list.
type Row struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Gender             string `json:"gender"`
	Age                string `json:"age"`
	LastVisit          string `json:"last_visit"`
	LastVisitGregorian string `json:"last_visit_gregorian,omitempty"`
	ChartURL           string `json:"chart_url"`
}

// Header describes a table column. Header is the English default for
// TranslationKey.
type Header struct {
	Key            string `json:"key"`
	Header         string `json:"header"`
	TranslationKey string `json:"translation_key,omitempty"`
	Sortable       bool   `json:"sortable"`
}

// Headers lists the patient list columns in display order.
var Headers = []Header{
	{Key: "name", Header: "Name", TranslationKey: "name", Sortable: true},
	{Key: "gender", Header: "Gender", TranslationKey: "gender"},
	{Key: "age", Header: "Age", TranslationKey: "age"},
	{Key: "last_visit", Header: "Last Visit", TranslationKey: "lastVisit"},
	{Key: "link", Header: "Bio", TranslationKey: "link"},
	{Key: "actions", Header: ""},
}

// Page is one page of the patient list with everything the table needs.
type Page struct {
	Title           string   `json:"title"`
	TitleKey        string   `json:"title_translation_key"`
	Headers         []Header `json:"headers"`
	Rows            []Row    `json:"rows"`
	Page            int      `json:"page"`
	PageSize        int      `json:"page_size"`
	PageSizes       []int    `json:"page_sizes"`
	Total           int      `json:"total"`
	Offset          int      `json:"offset"`
	HasMore         bool     `json:"has_more"`
	Empty           bool     `json:"empty"`
	RegistrationURL string   `json:"registration_url"`
}

// Query selects a page of the list. Sort is "", "name" or "-name".
type Query struct {
	Page     int
	PageSize int
	Sort     string
}

func (q Query) validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	if !slices.Contains(pagination.PageSizes, q.PageSize) {
		return fmt.Errorf("%w: page size %d is not one of %v", ErrInvalidQuery, q.PageSize, pagination.PageSizes)
	}
	switch q.Sort {
	case "", "name", "-name":
	default:
		return fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, q.Sort)
	}
	return nil
}

package pagination

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	DefaultPageSize = 10
)

// PageSizes are the page sizes offered by the patient list pager.
var PageSizes = []int{10, 20, 30, 40, 50}

// Params holds limit/offset pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// Page holds 1-based page/pageSize parameters as sent by the table pager.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of records preceding the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext returns true if records exist beyond this page.
func (p Page) HasNext(total int) bool {
	return p.Offset()+p.Size < total
}

// PageFromContext extracts page and pageSize query parameters. Missing values
// default to the first page of DefaultPageSize records; values that are
// present but invalid are rejected.
func PageFromContext(c echo.Context) (Page, error) {
	p := Page{Number: 1, Size: DefaultPageSize}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("invalid page %q", raw)
		}
		p.Number = n
	}

	if raw := c.QueryParam("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !slices.Contains(PageSizes, n) {
			return Page{}, fmt.Errorf("invalid pageSize %q, must be one of %v", raw, PageSizes)
		}
		p.Size = n
	}

	return p, nil
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

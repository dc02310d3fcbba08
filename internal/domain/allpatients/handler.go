package allpatients

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CDC-HIS/ohri-patientlist/internal/platform/auth"
	"github.com/CDC-HIS/ohri-patientlist/internal/platform/fhir"
	"github.com/CDC-HIS/ohri-patientlist/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.PatientListRoles...))
	read.GET("/patient-list", h.ListPage)
}

// ListPage serves GET /patient-list?page=&pageSize=&sort=.
func (h *Handler) ListPage(c echo.Context) error {
	pg, err := pagination.PageFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.svc.ListPage(c.Request().Context(), Query{
		Page:     pg.Number,
		PageSize: pg.Size,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func toHTTPError(err error) error {
	var se *fhir.StatusError
	switch {
	case errors.Is(err, ErrInvalidQuery):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "patient list timed out")
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusBadGateway, "FHIR server error").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadGateway, "patient list unavailable").SetInternal(err)
	}
}

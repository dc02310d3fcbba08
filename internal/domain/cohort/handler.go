package cohort

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/CDC-HIS/ohri-patientlist/internal/platform/auth"
	"github.com/CDC-HIS/ohri-patientlist/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Anyone who can see the patient list can add a row to a cohort.
	g := api.Group("", auth.RequireRole(auth.PatientListRoles...))
	g.GET("/cohorts", h.ListCohorts)
	g.GET("/cohorts/:id", h.GetCohort)
	g.GET("/cohorts/:id/members", h.ListMembers)
	g.POST("/cohorts/:id/members", h.AddMember)
	g.GET("/patients/:uuid/available-cohorts", h.AvailableCohorts)

	// Creating and pruning cohorts is left to clinicians.
	w := api.Group("", auth.RequireRole(auth.RoleClinician))
	w.POST("/cohorts", h.CreateCohort)
	w.DELETE("/cohorts/:id/members/:memberId", h.RemoveMember)
}

type createCohortRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) CreateCohort(c echo.Context) error {
	var req createCohortRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cohort := &Cohort{Name: req.Name, Description: req.Description}
	if err := h.svc.CreateCohort(c.Request().Context(), cohort); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, cohort)
}

func (h *Handler) GetCohort(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cohort, err := h.svc.GetCohort(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, cohort)
}

func (h *Handler) ListCohorts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListCohorts(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orEmpty(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) AvailableCohorts(c echo.Context) error {
	patient, err := parsePatientUUID(c.Param("uuid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient uuid")
	}

	var exclude []uuid.UUID
	if raw := c.QueryParam("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid cohort id in exclude: "+part)
			}
			exclude = append(exclude, id)
		}
	}

	items, err := h.svc.AvailableForPatient(c.Request().Context(), patient, exclude)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

type addMemberRequest struct {
	PatientUUID string `json:"patient_uuid"`
}

func (h *Handler) AddMember(c echo.Context) error {
	cohortID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	patient, err := parsePatientUUID(req.PatientUUID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient uuid")
	}

	m, err := h.svc.AddPatient(c.Request().Context(), cohortID, patient)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMembers(c echo.Context) error {
	cohortID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Members(c.Request().Context(), cohortID, pg.Limit, pg.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orEmpty(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) RemoveMember(c echo.Context) error {
	cohortID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid member id")
	}
	if err := h.svc.RemoveMember(c.Request().Context(), cohortID, memberID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// parsePatientUUID normalises an OpenMRS patient uuid to its canonical form.
func parsePatientUUID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrDuplicateName):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInactive):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "cohort storage error").SetInternal(err)
	}
}

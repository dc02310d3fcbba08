package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		allowed bool
	}{
		{"nurse", []string{RoleNurse}, true},
		{"registrar", []string{"viewer", RoleRegistrar}, true},
		{"admin overrides", []string{RoleAdmin}, true},
		{"unrelated role", []string{"billing"}, false},
		{"no roles", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, tt.roles))
			c := e.NewContext(req, httptest.NewRecorder())

			err := RequireRole(PatientListRoles...)(func(c echo.Context) error { return nil })(c)
			if tt.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allowed {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok || httpErr.Code != http.StatusForbidden {
					t.Errorf("expected 403, got %v", err)
				}
			}
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	if HasAnyRole([]string{RoleClinician}, RoleNurse) {
		t.Error("clinician should not satisfy nurse")
	}
	if !HasAnyRole([]string{RoleClinician}, RoleNurse, RoleClinician) {
		t.Error("clinician should satisfy nurse or clinician")
	}
}

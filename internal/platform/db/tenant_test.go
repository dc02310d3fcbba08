package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractTenantID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		header string
		jwt    interface{}
		want   string
	}{
		{name: "default", url: "/", want: "default"},
		{name: "query", url: "/?tenant_id=clinic_xyz", want: "clinic_xyz"},
		{name: "header", url: "/", header: "hospital_abc", want: "hospital_abc"},
		{name: "jwt", url: "/", jwt: "jwt_tenant", want: "jwt_tenant"},
		{name: "header over query", url: "/?tenant_id=query", header: "header", want: "header"},
		{name: "jwt over header and query", url: "/?tenant_id=query", header: "header", jwt: "jwt", want: "jwt"},
		{name: "empty jwt falls through", url: "/", header: "header", jwt: "", want: "header"},
		{name: "non-string jwt ignored", url: "/", jwt: 42, want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set(TenantHeader, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			if tt.jwt != nil {
				c.Set("jwt_tenant_id", tt.jwt)
			}

			if got := extractTenantID(c, "default"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTenantIDPattern(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"abc", true},
		{"ABC", true},
		{"hospital_1", true},
		{"A1B2C3", true},
		{"a-b", false},
		{"a.b", false},
		{"a b", false},
		{"a/b", false},
		{"", false},
		{"'; DROP TABLE", false},
		{"tenant@1", false},
	}

	for _, tt := range tests {
		if got := tenantIDPattern.MatchString(tt.input); got != tt.valid {
			t.Errorf("tenantIDPattern.MatchString(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestSchemaName(t *testing.T) {
	if got := SchemaName("addis_clinic"); got != "tenant_addis_clinic" {
		t.Errorf("unexpected schema %s", got)
	}
}

func TestTenantMiddleware_RejectsInvalidTenant(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TenantHeader, "bad-tenant")
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	h := TenantMiddleware(nil, "default")(func(c echo.Context) error {
		called = true
		return nil
	})

	err := h(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	if called {
		t.Error("next handler must not run for an invalid tenant")
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn from empty context")
	}
	if TenantFromContext(ctx) != "" {
		t.Error("expected empty tenant from empty context")
	}

	ctx = context.WithValue(ctx, TenantIDKey, "test_tenant")
	if tid := TenantFromContext(ctx); tid != "test_tenant" {
		t.Errorf("expected test_tenant, got %s", tid)
	}
}

func TestContextAccessors_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	ctx = context.WithValue(ctx, TenantIDKey, 12345)

	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn for wrong type")
	}
	if tid := TenantFromContext(ctx); tid != "" {
		t.Errorf("expected empty tenant for wrong type, got %q", tid)
	}
}

func TestCreateTenantSchema_InvalidIDs(t *testing.T) {
	for _, id := range []string{"invalid-id!", "tenant.with.dot", "ten ant", "drop;table", ""} {
		if err := CreateTenantSchema(context.Background(), nil, id, nil); err == nil {
			t.Errorf("expected error for invalid tenant ID %q", id)
		}
	}
}

package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const patientBundle = `{
  "resourceType": "Bundle",
  "type": "searchset",
  "total": 42,
  "entry": [
    {"resource": {"resourceType": "Patient", "id": "p1", "gender": "female", "birthDate": "1990-05-01",
      "name": [{"use": "official", "family": "Bekele", "given": ["Almaz", "T"]}]}},
    {"resource": {"resourceType": "OperationOutcome", "issue": []}},
    {"resource": {"resourceType": "Patient", "id": "p2", "gender": "male",
      "name": [{"family": "Tadesse", "given": ["Abebe"]}]}}
  ]
}`

func TestClient_SearchPatients(t *testing.T) {
	var gotQuery, gotAuthUser, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/R4/Patient" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotAuthUser, _, _ = r.BasicAuth()
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", mimeFHIRJSON)
		w.Write([]byte(patientBundle))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/R4/", WithBasicAuth("admin", "Admin123"))
	patients, total, err := c.SearchPatients(context.Background(), 20, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if total != 42 {
		t.Errorf("expected total 42, got %d", total)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients (non-patient entries skipped), got %d", len(patients))
	}
	if patients[0].ID != "p1" || patients[1].ID != "p2" {
		t.Errorf("unexpected patient order: %s, %s", patients[0].ID, patients[1].ID)
	}
	if name := patients[0].OfficialName(); name.Family != "Bekele" || len(name.Given) != 2 {
		t.Errorf("unexpected name: %+v", name)
	}
	for _, want := range []string{"_getpagesoffset=20", "_count=10", "_summary=data"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("expected query to contain %q, got %q", want, gotQuery)
		}
	}
	if gotAuthUser != "admin" {
		t.Errorf("expected basic auth user admin, got %q", gotAuthUser)
	}
	if gotAccept != mimeFHIRJSON {
		t.Errorf("expected Accept %s, got %s", mimeFHIRJSON, gotAccept)
	}
}

func TestClient_SearchPatients_MissingTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Bundle","type":"searchset","entry":[{"resource":{"resourceType":"Patient","id":"p1"}}]}`))
	}))
	defer srv.Close()

	_, total, err := NewClient(srv.URL).SearchPatients(context.Background(), 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 11 {
		t.Errorf("expected total to fall back to offset+len = 11, got %d", total)
	}
}

func TestClient_LastEncounter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"resourceType":"Bundle","type":"searchset","total":3,"entry":[
			{"resource":{"resourceType":"Encounter","id":"e9","status":"finished",
			 "subject":{"reference":"Patient/p1"},"period":{"start":"2023-09-12T08:00:00+03:00"}}}]}`))
	}))
	defer srv.Close()

	enc, err := NewClient(srv.URL).LastEncounter(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc == nil || enc.Period == nil {
		t.Fatal("expected an encounter with a period")
	}
	if enc.Period.Start != "2023-09-12T08:00:00+03:00" {
		t.Errorf("expected raw period start to be preserved, got %q", enc.Period.Start)
	}
	for _, want := range []string{"patient=p1", "_sort=-date", "_count=1"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("expected query to contain %q, got %q", want, gotQuery)
		}
	}
}

func TestClient_LastEncounter_None(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Bundle","type":"searchset","total":0}`))
	}))
	defer srv.Close()

	enc, err := NewClient(srv.URL).LastEncounter(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != nil {
		t.Errorf("expected nil encounter, got %+v", enc)
	}
}

func TestClient_LastEncounter_RequiresPatient(t *testing.T) {
	if _, err := NewClient("http://unused").LastEncounter(context.Background(), ""); err == nil {
		t.Error("expected error for empty patient id")
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(NewOperationOutcome("error", "login", "session expired"))
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).SearchPatients(context.Background(), 0, 10)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", se.StatusCode)
	}
	if se.Diagnostics != "session expired" {
		t.Errorf("expected diagnostics from OperationOutcome, got %q", se.Diagnostics)
	}
}

func TestClient_NotABundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	}))
	defer srv.Close()

	if _, _, err := NewClient(srv.URL).SearchPatients(context.Background(), 0, 10); err == nil {
		t.Error("expected error for non-Bundle response")
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewClient(srv.URL).LastEncounter(ctx, "p1"); err == nil {
		t.Error("expected error when context is cancelled")
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref      string
		wantType string
		wantID   string
		wantOK   bool
	}{
		{"Patient/abc", "Patient", "abc", true},
		{"http://host/fhir/Patient/abc", "Patient", "abc", true},
		{"Patient/abc/_history/3", "Patient", "abc", true},
		{"abc", "", "", false},
		{"Patient/", "", "", false},
	}
	for _, tt := range tests {
		typ, id, ok := ParseReference(tt.ref)
		if typ != tt.wantType || id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseReference(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.ref, typ, id, ok, tt.wantType, tt.wantID, tt.wantOK)
		}
	}
}

func TestOperationOutcome_Message(t *testing.T) {
	oo := &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{Severity: "error", Code: "invalid", Diagnostics: "bad param"},
			{Severity: "error", Code: "invalid", Details: &CodeableConcept{Text: "unknown sort"}},
			{Severity: "warning", Code: "informational"},
		},
	}
	if got := oo.Message(); got != "bad param; unknown sort" {
		t.Errorf("unexpected message %q", got)
	}
}

package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractClinicID_FromHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Clinic-ID", "clinica_abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cid := extractClinicID(c, "default")
	if cid != "clinica_abc" {
		t.Errorf("expected clinica_abc, got %s", cid)
	}
}

func TestExtractClinicID_FromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?clinic_id=clinica_xyz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cid := extractClinicID(c, "default")
	if cid != "clinica_xyz" {
		t.Errorf("expected clinica_xyz, got %s", cid)
	}
}

func TestExtractClinicID_FromJWT(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_clinic_id", "jwt_clinic")

	cid := extractClinicID(c, "default")
	if cid != "jwt_clinic" {
		t.Errorf("expected jwt_clinic, got %s", cid)
	}
}

func TestExtractClinicID_Default(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	cid := extractClinicID(c, "default")
	if cid != "default" {
		t.Errorf("expected default, got %s", cid)
	}
}

func TestExtractClinicID_Priority(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?clinic_id=query", nil)
	req.Header.Set("X-Clinic-ID", "header")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("jwt_clinic_id", "jwt")

	// JWT takes highest priority
	cid := extractClinicID(c, "default")
	if cid != "jwt" {
		t.Errorf("expected jwt (highest priority), got %s", cid)
	}
}

func TestClinicIDPattern(t *testing.T) {
	valid := []string{"abc", "clinica_1", "clinic_abc_123", "A1B2"}
	for _, v := range valid {
		if !clinicIDPattern.MatchString(v) {
			t.Errorf("expected %s to be valid", v)
		}
	}

	invalid := []string{"a-b", "a.b", "a b", "'; DROP TABLE", "a/b", ""}
	for _, v := range invalid {
		if clinicIDPattern.MatchString(v) {
			t.Errorf("expected %s to be invalid", v)
		}
	}
}

func TestConnFromContext_Nil(t *testing.T) {
	conn := ConnFromContext(context.Background())
	if conn != nil {
		t.Error("expected nil conn from empty context")
	}
}

func TestClinicFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ClinicIDKey, "test_clinic")
	cid := ClinicFromContext(ctx)
	if cid != "test_clinic" {
		t.Errorf("expected test_clinic, got %s", cid)
	}

	empty := ClinicFromContext(context.Background())
	if empty != "" {
		t.Errorf("expected empty string, got %s", empty)
	}
}

func TestCreateClinicSchema_InvalidID(t *testing.T) {
	invalidIDs := []string{"clinic-with-dash", "clinic.with.dot", "cli nic", "drop;table", ""}
	for _, id := range invalidIDs {
		err := CreateClinicSchema(context.Background(), nil, id, "")
		if err == nil {
			t.Errorf("expected error for invalid clinic ID %q", id)
		}
	}
}

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestWithTx_NoConnection(t *testing.T) {
	ctx := context.Background()
	_, _, err := WithTx(ctx)
	if err == nil {
		t.Error("expected error when no connection in context")
	}
	if err.Error() != "no database connection in context" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestConnFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	conn := ConnFromContext(ctx)
	if conn != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

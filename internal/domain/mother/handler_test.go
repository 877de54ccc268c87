package mother

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func withPrincipal(req *http.Request, role string) (*http.Request, uuid.UUID) {
	id := uuid.New()
	return req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: id, Role: role})), id
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/mothers", strings.NewReader(`{"full_name":"Amina Bello","age":27,"next_appointment":"2024-04-10"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req, actor := withPrincipal(req, auth.RoleCHW)
	rec := httptest.NewRecorder()

	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var m Mother
	json.Unmarshal(rec.Body.Bytes(), &m)
	if m.RegisteredBy == nil || *m.RegisteredBy != actor {
		t.Error("expected registered_by to be the caller")
	}
}

func TestHandler_Create_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/mothers", strings.NewReader(`{"age":27}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req, _ = withPrincipal(req, auth.RoleCHW)

	err := h.Create(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_List_Paginated(t *testing.T) {
	h, e := newTestHandler()
	for i := 0; i < 3; i++ {
		h.svc.Register(context.Background(), &Mother{FullName: "M"}, uuid.New())
	}
	req := httptest.NewRequest(http.MethodGet, "/api/mothers?limit=2", nil)
	req, _ = withPrincipal(req, auth.RoleStaff)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data    []Mother `json:"data"`
		Total   int      `json:"total"`
		HasMore bool     `json:"has_more"`
		Next    string   `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Total != 3 || !body.HasMore {
		t.Errorf("unexpected page %+v", body)
	}
	if !strings.Contains(body.Next, "offset=2") {
		t.Errorf("expected next link, got %q", body.Next)
	}
}

func TestHandler_Get(t *testing.T) {
	h, e := newTestHandler()
	m := &Mother{FullName: "Amina"}
	h.svc.Register(context.Background(), m, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req, _ = withPrincipal(req, auth.RoleStaff)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Get_Errors(t *testing.T) {
	h, e := newTestHandler()
	m := &Mother{FullName: "Amina"}
	h.svc.Register(context.Background(), m, uuid.New())

	for _, tc := range []struct {
		name string
		id   string
		role string
		code int
	}{
		{"bad id", "abc", auth.RoleStaff, http.StatusBadRequest},
		{"missing", uuid.New().String(), auth.RoleStaff, http.StatusNotFound},
		{"other mother", m.ID.String(), auth.RoleMother, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req, _ = withPrincipal(req, tc.role)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tc.id)

			err := h.Get(c)
			if he, ok := err.(*echo.HTTPError); !ok || he.Code != tc.code {
				t.Errorf("expected %d, got %v", tc.code, err)
			}
		})
	}
}

func TestHandler_Update(t *testing.T) {
	h, e := newTestHandler()
	m := &Mother{FullName: "Amina"}
	h.svc.Register(context.Background(), m, uuid.New())

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"address":"12 Marina Road"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Export(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Register(context.Background(), &Mother{FullName: "Amina"}, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/mothers/export", nil)
	rec := httptest.NewRecorder()
	if err := h.Export(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "attachment;") {
		t.Error("expected attachment disposition")
	}
	// XLSX files are zip archives.
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("expected a zip payload")
	}
}

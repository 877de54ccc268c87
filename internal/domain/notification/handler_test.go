package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func TestHandler_List(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Raise(context.Background(), &Notification{Type: TypeVitalAlert, Title: "High Fever", Priority: PriorityHigh})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: uuid.New(), Role: auth.RoleStaff}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var items []Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "High Fever" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestHandler_List_EmptyIsArray(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: uuid.New(), Role: auth.RoleMother}))
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("expected empty array, got %q", got)
	}
}

func TestHandler_List_Unauthenticated(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	err := h.List(e.NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_MarkRead(t *testing.T) {
	h, e := newTestHandler()
	n := &Notification{Type: TypeVitalAlert, Title: "x"}
	h.svc.Raise(context.Background(), n)

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())

	if err := h.MarkRead(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_MarkRead_Errors(t *testing.T) {
	h, e := newTestHandler()
	for _, tc := range []struct {
		id   string
		code int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{uuid.New().String(), http.StatusNotFound},
	} {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tc.id)

		err := h.MarkRead(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != tc.code {
			t.Errorf("id %s: expected %d, got %v", tc.id, tc.code, err)
		}
	}
}

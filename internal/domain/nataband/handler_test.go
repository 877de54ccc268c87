package nataband

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestHandler_RecordVitals(t *testing.T) {
	svc, _, _ := newTestService(t)
	h, e := NewHandler(svc), echo.New()

	body := `{"mother_id":"` + uuid.NewString() + `","bp_systolic":145,"bp_diastolic":92}`
	req := httptest.NewRequest(http.MethodPost, "/api/nataband/vitals", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.RecordVitals(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Priority != "high" {
		t.Errorf("expected one high alert, got %+v", res.Alerts)
	}
}

func TestHandler_RecordVitals_BadRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	h, e := NewHandler(svc), echo.New()
	for _, body := range []string{`[]`, `{"heart_rate":80}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := h.RecordVitals(e.NewContext(req, httptest.NewRecorder()))
		if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", body, err)
		}
	}
}

func TestHandler_ListReadings(t *testing.T) {
	svc, _, _ := newTestService(t)
	h, e := NewHandler(svc), echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("mother_id")
	c.SetParamValues("7")
	if he, ok := h.ListReadings(c).(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Error("expected 400 for bad id")
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("mother_id")
	c.SetParamValues(uuid.NewString())
	if err := h.ListReadings(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

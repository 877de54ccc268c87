package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer(testSigningKey, 7*24*time.Hour)
	userID := uuid.New()

	token, exp, err := iss.Issue(userID, RoleMother)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Until(exp); d < 167*time.Hour || d > 169*time.Hour {
		t.Errorf("expected ~7 day expiry, got %s", d)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	var got Principal
	handler := func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		return nil
	}
	if err := JWTMiddleware(iss.JWTConfig(nil))(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != userID || got.Role != RoleMother {
		t.Errorf("unexpected principal %+v", got)
	}
}

func TestIssuer_Expired(t *testing.T) {
	iss := NewIssuer(testSigningKey, time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := iss.Issue(uuid.New(), RoleCHW)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())
	err = JWTMiddleware(iss.JWTConfig(nil))(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestIssuer_Validation(t *testing.T) {
	iss := NewIssuer(testSigningKey, time.Hour)
	if _, _, err := iss.Issue(uuid.Nil, RoleCHW); err == nil {
		t.Error("expected error for nil user id")
	}
	if _, _, err := iss.Issue(uuid.New(), "root"); err == nil {
		t.Error("expected error for invalid role")
	}
}

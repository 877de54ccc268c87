package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(userID uuid.UUID, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
			expectHTTPError(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	token := createTestToken(t, validClaims(userID, RoleCHW), testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Principal
	handler := func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	}

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: DefaultIssuer})(handler)(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, got.UserID)
	}
	if got.Role != RoleCHW {
		t.Errorf("expected role chw, got %s", got.Role)
	}
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	userID := uuid.New()

	expired := validClaims(userID, RoleCHW)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := validClaims(userID, RoleCHW)
	wrongIssuer.Issuer = "someone-else"

	badSubject := validClaims(userID, RoleCHW)
	badSubject.Subject = "not-a-uuid"

	badRole := validClaims(userID, "superuser")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", createTestToken(t, expired, testSigningKey)},
		{"wrong key", createTestToken(t, validClaims(userID, RoleCHW), []byte("another-key"))},
		{"wrong issuer", createTestToken(t, wrongIssuer, testSigningKey)},
		{"bad subject", createTestToken(t, badSubject, testSigningKey)},
		{"unknown role", createTestToken(t, badRole, testSigningKey)},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: DefaultIssuer})(okHandler)(c)
			expectHTTPError(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_WebSocketQueryToken(t *testing.T) {
	userID := uuid.New()
	token := createTestToken(t, validClaims(userID, RoleStaff), testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil)
	req.Header.Set(echo.HeaderUpgrade, "websocket")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The query parameter is ignored for ordinary requests.
	req = httptest.NewRequest(http.MethodGet, "/api/mothers?access_token="+token, nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectHTTPError(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/health")

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: AuthSkipper})(okHandler)(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := PrincipalFromContext(req.Context()); ok {
		t.Error("expected no principal")
	}
	if UserIDFromContext(req.Context()) != uuid.Nil {
		t.Error("expected nil user id")
	}
	if RoleFromContext(req.Context()) != "" {
		t.Error("expected empty role")
	}
}

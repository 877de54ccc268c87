package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Invalid("full_name is required"), http.StatusBadRequest},
		{NotFound("mother"), http.StatusNotFound},
		{Conflict("user already exists"), http.StatusConflict},
		{Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{Forbidden("access denied"), http.StatusForbidden},
		{fmt.Errorf("create: %w", NotFound("mother")), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("alert"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("expected errors.Is not to match ErrConflict")
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil, "mother") != nil {
		t.Error("expected nil for nil error")
	}

	err := FromDB(pgx.ErrNoRows, "mother")
	if !errors.Is(err, ErrNotFound) || err.Error() != "mother not found" {
		t.Errorf("unexpected no-rows mapping: %v", err)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Error("expected cause to be preserved")
	}

	err = FromDB(&pgconn.PgError{Code: "23505"}, "user")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	err = FromDB(&pgconn.PgError{Code: "23503"}, "triage record")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected invalid, got %v", err)
	}

	plain := errors.New("timeout")
	if FromDB(plain, "mother") != plain {
		t.Error("expected unrelated errors to pass through")
	}
}

func TestHTTP(t *testing.T) {
	he := HTTP(Invalid("urgency must be one of routine, urgent, emergency"))
	if he.Code != http.StatusBadRequest || he.Message != "urgency must be one of routine, urgent, emergency" {
		t.Errorf("unexpected http error %v", he)
	}

	cause := errors.New("pq: relation does not exist")
	he = HTTP(cause)
	if he.Code != http.StatusInternalServerError || he.Message != "internal server error" {
		t.Errorf("expected generic 500, got %v", he)
	}
	if he.Internal != cause {
		t.Error("expected cause to be kept as internal")
	}
}

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin  = "phc_admin"
	RoleStaff  = "phc_staff"
	RoleCHW    = "chw"
	RoleMother = "mother"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleCHW, RoleMother:
		return true
	}
	return false
}

// HasRole reports whether role satisfies one of allowed. RoleAdmin satisfies
// every check.
func HasRole(role string, allowed ...string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// RequireRole returns middleware that checks if the caller has one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if HasRole(p.Role, roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

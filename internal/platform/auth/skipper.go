package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass authentication: infrastructure probes, account entry
// points and the education library, which is readable before sign-up.
var publicPaths = map[string]bool{
	"/health":                   true,
	"/health/db":                true,
	"/metrics":                  true,
	"/api/auth/login":           true,
	"/api/auth/register":        true,
	"/api/education/modules":    true,
	"/api/education/categories": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}

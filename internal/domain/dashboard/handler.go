package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/dashboard", auth.RequireRole(auth.RoleStaff, auth.RoleCHW))
	g.GET("/stats", h.Stats)
	g.GET("/high-risk", h.HighRisk)
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) HighRisk(c echo.Context) error {
	items, err := h.svc.HighRisk(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*HighRiskMother{}
	}
	return c.JSON(http.StatusOK, items)
}

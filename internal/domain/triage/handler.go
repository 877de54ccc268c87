package triage

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/triage", h.Create, auth.RequireRole(auth.RoleStaff, auth.RoleCHW))
	api.GET("/triage/history/:mother_id", h.History)
}

func (h *Handler) Create(c echo.Context) error {
	var raw map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil || raw == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object")
	}
	in, err := ParseInput(raw)
	if err != nil {
		return apperr.HTTP(err)
	}
	res, err := h.svc.Assess(c.Request().Context(), in, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) History(c echo.Context) error {
	motherID, err := uuid.Parse(c.Param("mother_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mother_id")
	}
	items, err := h.svc.History(c.Request().Context(), motherID)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, items)
}

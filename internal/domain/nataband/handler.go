package nataband

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/nataband/vitals", h.RecordVitals)
	api.GET("/nataband/readings/:mother_id", h.ListReadings)
}

func (h *Handler) RecordVitals(c echo.Context) error {
	var raw map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil || raw == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object")
	}
	res, err := h.svc.Record(c.Request().Context(), ParseInput(raw))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListReadings(c echo.Context) error {
	motherID, err := uuid.Parse(c.Param("mother_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mother_id")
	}
	items, err := h.svc.Readings(c.Request().Context(), motherID)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Reading{}
	}
	return c.JSON(http.StatusOK, items)
}

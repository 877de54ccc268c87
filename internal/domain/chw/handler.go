package chw

import (
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
	api.GET("/chw/assignments", h.ListAssignments, auth.RequireRole(auth.RoleCHW, auth.RoleStaff))
	api.POST("/chw/visits", h.CreateVisit, auth.RequireRole(auth.RoleCHW))
	api.GET("/chw/visits/:mother_id", h.ListVisits)
}

func (h *Handler) ListAssignments(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	items, err := h.svc.Assignments(c.Request().Context(), p)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	chwID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RecordVisit(c.Request().Context(), &v, chwID); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	motherID, err := uuid.Parse(c.Param("mother_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mother_id")
	}
	items, err := h.svc.Visits(c.Request().Context(), motherID)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Visit{}
	}
	return c.JSON(http.StatusOK, items)
}

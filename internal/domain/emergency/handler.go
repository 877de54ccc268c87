package emergency

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
	api.GET("/transport-contacts", h.ListTransportContacts)
	api.POST("/emergency/alert", h.CreateAlert)

	responders := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleCHW))
	responders.GET("/emergency/alerts", h.ListAlerts)
	responders.PUT("/emergency/alerts/:id", h.UpdateAlert)
	responders.POST("/referral", h.CreateReferral)
	responders.GET("/referrals", h.ListReferrals)
}

// -- Alert Handlers --

func (h *Handler) CreateAlert(c echo.Context) error {
	var a Alert
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.RaiseAlert(ctx, &a, auth.UserIDFromContext(ctx)); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Emergency alert created",
		"id":      a.ID,
	})
}

func (h *Handler) ListAlerts(c echo.Context) error {
	items, err := h.svc.ListAlerts(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Alert{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateAlert(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var u AlertUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.UpdateAlert(ctx, id, u, auth.UserIDFromContext(ctx)); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Alert updated successfully"})
}

// -- Referral Handlers --

func (h *Handler) CreateReferral(c echo.Context) error {
	var r Referral
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.CreateReferral(ctx, &r, auth.UserIDFromContext(ctx)); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Referral created",
		"id":      r.ID,
	})
}

func (h *Handler) ListReferrals(c echo.Context) error {
	items, err := h.svc.ListReferrals(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Referral{}
	}
	return c.JSON(http.StatusOK, items)
}

// -- Transport Handlers --

func (h *Handler) ListTransportContacts(c echo.Context) error {
	items, err := h.svc.TransportContacts(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*TransportContact{}
	}
	return c.JSON(http.StatusOK, items)
}

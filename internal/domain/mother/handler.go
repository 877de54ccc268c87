package mother

import (
	"bytes"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/mothers", h.List)
	api.GET("/mothers/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleCHW))
	writeGroup.POST("/mothers", h.Create)
	writeGroup.PUT("/mothers/:id", h.Update)

	api.GET("/mothers/export", h.Export, auth.RequireRole(auth.RoleStaff))
}

func (h *Handler) Create(c echo.Context) error {
	var m Mother
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Register(c.Request().Context(), &m, actor); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) List(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Mother{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	m, err := h.svc.Get(c.Request().Context(), id, p)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request().Context(), &buf); err != nil {
		return apperr.HTTP(err)
	}
	name := "mothers-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

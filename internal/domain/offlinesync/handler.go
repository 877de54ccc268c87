package offlinesync

import (
	"net/http"
	"strings"
	"time"

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
	api.POST("/sync/push", h.Push)
	api.GET("/sync/pull", h.Pull)
}

func (h *Handler) Push(c echo.Context) error {
	var req PushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	resp, err := h.svc.Push(ctx, req.Items, auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Pull(c echo.Context) error {
	var since time.Time
	if s := strings.TrimSpace(c.QueryParam("last_sync")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "last_sync must be an RFC3339 timestamp")
		}
		since = t
	}
	resp, err := h.svc.Pull(c.Request().Context(), since)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, resp)
}

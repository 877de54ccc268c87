package education

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/natabridge/natabridge/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the library. Both routes are public.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/education/modules", h.ListModules)
	api.GET("/education/categories", h.ListCategories)
}

func (h *Handler) ListModules(c echo.Context) error {
	items, err := h.svc.Modules(c.Request().Context(), c.QueryParam("language"), c.QueryParam("category"))
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*Module{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, Categories())
}

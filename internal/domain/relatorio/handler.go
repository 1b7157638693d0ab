package relatorio

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/platform/auth"
)

// Handler exposes the report endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a report handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the report routes under /relatorios.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/relatorios")
	g.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
	g.GET("/faturamento", h.Faturamento)
	g.GET("/glosas", h.Glosas)
}

func (h *Handler) Faturamento(c echo.Context) error {
	de, ate, err := parsePeriodo(c)
	if err != nil {
		return err
	}
	r, err := h.svc.ResumoFaturamento(c.Request().Context(), de, ate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Glosas(c echo.Context) error {
	de, ate, err := parsePeriodo(c)
	if err != nil {
		return err
	}
	a, err := h.svc.AnaliseGlosas(c.Request().Context(), de, ate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func parsePeriodo(c echo.Context) (time.Time, time.Time, error) {
	de, err := time.Parse("2006-01-02", c.QueryParam("de"))
	if err != nil {
		return time.Time{}, time.Time{},
			echo.NewHTTPError(http.StatusBadRequest, "de must be YYYY-MM-DD")
	}
	ate, err := time.Parse("2006-01-02", c.QueryParam("ate"))
	if err != nil {
		return time.Time{}, time.Time{},
			echo.NewHTTPError(http.StatusBadRequest, "ate must be YYYY-MM-DD")
	}
	return de, ate, nil
}

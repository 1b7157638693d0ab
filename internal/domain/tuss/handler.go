package tuss

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/platform/auth"
)

// Handler provides REST endpoints for the TUSS catalog.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers catalog routes on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/tuss", auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleMedico, auth.RoleGestor))
	g.GET("", h.Search)
	g.GET("/:codigo", h.GetByCode)
}

func getLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// Search handles GET /api/v1/tuss?q=...
func (h *Handler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	includeInactive := c.QueryParam("incluir_inativos") == "true"
	results, err := h.svc.Search(c.Request().Context(), query, getLimit(c), includeInactive)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}

// GetByCode handles GET /api/v1/tuss/:codigo. An optional ?em=YYYY-MM-DD
// parameter restricts the lookup to codes usable at that date.
func (h *Handler) GetByCode(c echo.Context) error {
	codigo := c.Param("codigo")
	var (
		result *CodigoTUSS
		err    error
	)
	if em := c.QueryParam("em"); em != "" {
		data, perr := time.Parse("2006-01-02", em)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "parametro 'em' deve estar no formato YYYY-MM-DD")
		}
		result, err = h.svc.GetByCodeAt(c.Request().Context(), codigo, data)
	} else {
		result, err = h.svc.GetByCode(c.Request().Context(), codigo)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if result == nil {
		return echo.NewHTTPError(http.StatusNotFound, "codigo TUSS not found")
	}
	return c.JSON(http.StatusOK, result)
}

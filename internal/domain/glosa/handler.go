package glosa

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/platform/auth"
)

// Handler exposes denial and appeal endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a denial handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the denial routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/glosas")
	g.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
	g.POST("", h.Importar, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	g.GET("/:id", h.Get)
	g.GET("/:id/recursos", h.ListRecursos)
	g.POST("/:id/recursos", h.CriarRecurso, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))

	api.GET("/guias/:id/glosas", h.ListByGuia,
		auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
	api.POST("/recursos/:id/analise", h.IniciarAnalise,
		auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	api.POST("/recursos/:id/resolver", h.ResolverRecurso,
		auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
}

func (h *Handler) Importar(c echo.Context) error {
	var in GlosaInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g, err := h.svc.ImportarGlosa(c.Request().Context(), in)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid glosa id")
	}
	g, err := h.svc.GetGlosa(c.Request().Context(), id)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ListByGuia(c echo.Context) error {
	guiaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guia id")
	}
	glosas, err := h.svc.ListByGuia(c.Request().Context(), guiaID)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusOK, glosas)
}

func (h *Handler) CriarRecurso(c echo.Context) error {
	glosaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid glosa id")
	}
	var in RecursoInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.CriarRecurso(c.Request().Context(), glosaID, in)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListRecursos(c echo.Context) error {
	glosaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid glosa id")
	}
	recursos, err := h.svc.ListRecursos(c.Request().Context(), glosaID)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusOK, recursos)
}

func (h *Handler) IniciarAnalise(c echo.Context) error {
	recursoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recurso id")
	}
	rec, err := h.svc.IniciarAnalise(c.Request().Context(), recursoID)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ResolverRecurso(c echo.Context) error {
	recursoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid recurso id")
	}
	var in ResolucaoInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.ResolverRecurso(c.Request().Context(), recursoID, in)
	if err != nil {
		return glosaError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// glosaError maps domain errors onto HTTP status codes.
func glosaError(err error) error {
	var transition *guia.StatusTransitionError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRecursoNotFound),
		errors.Is(err, guia.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &transition),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrGlosaNaoPendente),
		errors.Is(err, ErrRecursoJaDecidido),
		errors.Is(err, ErrAppealWindowExpired):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSemItens),
		errors.Is(err, ErrValorGlosadoExcede),
		errors.Is(err, ErrValorContestadoInvalido),
		errors.Is(err, ErrItemContestadoInvalido),
		errors.Is(err, ErrValorRecuperadoInvalido),
		errors.Is(err, guia.ErrClaimNotSubmitted):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

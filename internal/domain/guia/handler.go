package guia

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/platform/auth"
	"github.com/vidaplus/tiss/pkg/pagination"
)

// Handler exposes claim endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a claim handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the claim routes under /guias.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/guias")
	g.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleMedico, auth.RoleGestor))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/consulta", h.CreateConsulta, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleMedico))
	g.POST("/sadt", h.CreateSADT, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleMedico))
	g.PUT("/:id", h.UpdateRascunho, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleMedico))
	g.PATCH("/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
}

func (h *Handler) CreateConsulta(c echo.Context) error {
	var in ConsultaInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.CriarGuiaConsulta(c.Request().Context(), in)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CreateSADT(c echo.Context) error {
	var in SADTInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.CriarGuiaSADT(c.Request().Context(), in)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guia id")
	}
	rec, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		st := StatusGuia(v)
		if !ValidStatus(st) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		f.Status = &st
	}
	if v := c.QueryParam("tipo"); v != "" {
		t := TipoGuia(v)
		f.Tipo = &t
	}
	f.RegistroANS = c.QueryParam("registro_ans")
	if v := c.QueryParam("sem_lote"); v != "" {
		f.SemLote, _ = strconv.ParseBool(v)
	}

	p := pagination.FromContext(c)
	recs, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, p.Limit, p.Offset))
}

func (h *Handler) UpdateRascunho(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guia id")
	}
	var payload Guia
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.AtualizarRascunho(c.Request().Context(), id, payload)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guia id")
	}
	var body struct {
		Status StatusGuia `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.AtualizarStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return guiaError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// guiaError maps domain errors onto HTTP status codes.
func guiaError(err error) error {
	var transition *StatusTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &transition),
		errors.Is(err, ErrClaimLocked),
		errors.Is(err, ErrClaimAlreadyBatched),
		errors.Is(err, ErrConcurrentModification):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidProcedureCode),
		errors.Is(err, ErrEmptyProcedureList),
		errors.Is(err, ErrClaimNotSubmitted):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

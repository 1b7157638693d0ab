package lote

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/platform/auth"
	"github.com/vidaplus/tiss/pkg/pagination"
)

// Handler exposes batch endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a batch handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the batch routes under /lotes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/lotes")
	g.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/guias", h.Membros)
	g.GET("/:id/xml", h.XML)
	g.POST("", h.Montar, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	g.DELETE("/:id", h.Desmontar, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	g.POST("/:id/validar", h.Validar, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	g.POST("/:id/enviar", h.Transmitir, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
	g.POST("/:id/processar", h.RegistrarProcessamento, auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista))
}

func (h *Handler) Montar(c echo.Context) error {
	var body struct {
		GuiaIDs []uuid.UUID `json:"guia_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.Montar(c.Request().Context(), body.GuiaIDs)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	if v := c.QueryParam("status"); v != "" {
		st := StatusLote(v)
		f.Status = &st
	}
	f.RegistroANS = c.QueryParam("registro_ans")

	p := pagination.FromContext(c)
	recs, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, p.Limit, p.Offset))
}

func (h *Handler) Membros(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	membros, err := h.svc.Membros(c.Request().Context(), id)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusOK, membros)
}

func (h *Handler) XML(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return loteError(err)
	}
	if rec.XMLGerado == nil {
		return echo.NewHTTPError(http.StatusConflict, ErrSemXML.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(*rec.XMLGerado))
}

func (h *Handler) Desmontar(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Desmontar(c.Request().Context(), id); err != nil {
		return loteError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Validar(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, res, err := h.svc.Validar(c.Request().Context(), id)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"lote":      rec,
		"resultado": res,
	})
}

func (h *Handler) Transmitir(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Transmitir(c.Request().Context(), id)
	if err != nil {
		if rec != nil {
			// transmission failed but the batch state moved to erro
			return c.JSON(http.StatusBadGateway, rec)
		}
		return loteError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) RegistrarProcessamento(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.RegistrarProcessamento(c.Request().Context(), id)
	if err != nil {
		return loteError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid lote id")
	}
	return id, nil
}

// loteError maps domain errors onto HTTP status codes.
func loteError(err error) error {
	var transition *StatusTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &transition),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrSemXML),
		errors.Is(err, guia.ErrClaimAlreadyBatched):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrLoteVazio),
		errors.Is(err, ErrOperadorasMistas),
		errors.Is(err, ErrGuiaNaoEncontrada),
		errors.Is(err, ErrGuiaForaDeRascunho):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

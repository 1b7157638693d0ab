package tissxml

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vidaplus/tiss/internal/domain/guia"
	"github.com/vidaplus/tiss/internal/platform/auth"
)

// Handler renders claims as TISS XML and validates submitted documents.
type Handler struct {
	guias guia.Repository
}

// NewHandler creates a TISS XML handler.
func NewHandler(guias guia.Repository) *Handler {
	return &Handler{guias: guias}
}

// RegisterRoutes mounts the XML routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/guias/:id/xml", h.GuiaXML,
		auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
	api.POST("/tiss/validar", h.Validate,
		auth.RequireRole(auth.RoleAdmin, auth.RoleFaturista, auth.RoleGestor))
}

// GuiaXML renders a claim as a TISS message and stores the rendering on the
// claim record.
func (h *Handler) GuiaXML(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guia id")
	}
	rec, err := h.guias.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, guia.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	pretty, _ := strconv.ParseBool(c.QueryParam("pretty"))
	opts := Options{PrettyPrint: pretty}

	var doc string
	switch rec.Tipo {
	case guia.TipoConsulta:
		doc, err = GerarXMLConsulta(rec, opts)
	case guia.TipoSADT:
		doc, err = GerarXMLSADT(rec, opts)
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "guia has unknown tipo")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	rec.XMLGerado = &doc
	if err := h.guias.Update(c.Request().Context(), rec); err != nil {
		if errors.Is(err, guia.ErrConcurrentModification) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(doc))
}

// Validate runs the TISS validator over a document posted as the raw body.
func (h *Handler) Validate(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty document")
	}
	return c.JSON(http.StatusOK, ValidateXML(body))
}

func readBody(c echo.Context) ([]byte, error) {
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}

package recurso

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saudetech/tiss/internal/platform/auth"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "faturamento"))
	g.GET("/glosas", h.ListGlosas)
	g.GET("/glosas/:id", h.GetGlosa)
	g.POST("/glosas", h.RegistrarGlosa)
	g.POST("/glosas/:id/recursos", h.CreateRecurso)
	g.GET("/recursos", h.ListRecursos)
	g.GET("/recursos/:id", h.GetRecurso)
	g.GET("/recursos/:id/status", h.GetRecursoStatus)
	g.POST("/recursos/:id/enviar", h.Enviar)
	g.POST("/recursos/:id/resultado", h.RegistrarResultado)
}

func respondErr(c echo.Context, err error) error {
	if f, ok := fault.As(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, fault.Resultado{Error: f.Message})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) RegistrarGlosa(c echo.Context) error {
	var g Glosa
	if err := c.Bind(&g); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegistrarGlosa(c.Request().Context(), &g); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) GetGlosa(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	g, err := h.svc.GetGlosa(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "glosa não encontrada")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ListGlosas(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := GlosaStatus(c.QueryParam("status"))
	items, total, err := h.svc.ListGlosas(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type createRecursoRequest struct {
	Itens              []ItemContestado `json:"itens"`
	JustificativaGeral string           `json:"justificativa_geral"`
}

func (h *Handler) CreateRecurso(c echo.Context) error {
	glosaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	var req createRecursoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.CreateRecurso(c.Request().Context(), glosaID, req.Itens, req.JustificativaGeral)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecurso(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	rec, err := h.svc.GetRecurso(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "recurso não encontrado")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecursos(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := RecursoStatus(c.QueryParam("status"))
	items, total, err := h.svc.ListRecursos(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetRecursoStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	proj, err := h.svc.GetRecursoStatus(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, proj)
}

// Enviar answers 200 with a result envelope; send failures are data
// and are persisted on the recurso.
func (h *Handler) Enviar(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	protocolo, err := h.svc.SendRecurso(c.Request().Context(), id)
	if err != nil {
		if f, ok := fault.As(err); ok {
			return c.JSON(http.StatusOK, fault.Resultado{Error: f.Message})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, fault.Resultado{Success: true, Protocolo: protocolo})
}

type resultadoRequest struct {
	Resultado   RecursoStatus `json:"resultado"`
	ValorAceito float64       `json:"valor_aceito"`
}

func (h *Handler) RegistrarResultado(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	var req resultadoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegistrarResultado(c.Request().Context(), id, req.Resultado, req.ValorAceito); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

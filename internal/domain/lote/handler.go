package lote

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saudetech/tiss/internal/platform/auth"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/pkg/pagination"
)

type Handler struct {
	svc    *Service
	sender *Sender
}

func NewHandler(svc *Service, sender *Sender) *Handler {
	return &Handler{svc: svc, sender: sender}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/lotes", auth.RequireRole("admin", "faturamento"))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/gerar-xml", h.GerarXML)
	g.POST("/:id/enviar", h.Enviar)
	g.POST("/:id/reenviar", h.Reenviar)
}

func respondErr(c echo.Context, err error) error {
	if f, ok := fault.As(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, fault.Resultado{Error: f.Message})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

type createRequest struct {
	RegistroANS string      `json:"registro_ans"`
	GuiaIDs     []uuid.UUID `json:"guia_ids"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.CreateLote(c.Request().Context(), req.RegistroANS, req.GuiaIDs)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lote não encontrado")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := Status(c.QueryParam("status"))
	items, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	if err := h.svc.DeleteLote(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type statusRequest struct {
	Status      Status  `json:"status"`
	Protocolo   *string `json:"protocolo,omitempty"`
	XMLResposta *string `json:"xml_resposta,omitempty"`
	Erro        *string `json:"erro,omitempty"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	upd := StatusUpdate{
		Status:      req.Status,
		Protocolo:   req.Protocolo,
		XMLResposta: req.XMLResposta,
		Erro:        req.Erro,
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, upd); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GerarXML(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	l, err := h.svc.GerarXML(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Enviar always answers 200 with a result envelope: send failures are
// data, not HTTP errors, and are already persisted on the lote.
func (h *Handler) Enviar(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	protocolo, err := h.sender.SendLote(c.Request().Context(), id)
	if err != nil {
		if f, ok := fault.As(err); ok {
			return c.JSON(http.StatusOK, fault.Resultado{Error: f.Message})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, fault.Resultado{Success: true, Protocolo: protocolo})
}

func (h *Handler) Reenviar(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	protocolo, err := h.sender.RetrySendLote(c.Request().Context(), id)
	if err != nil {
		if f, ok := fault.As(err); ok {
			return c.JSON(http.StatusOK, fault.Resultado{Error: f.Message})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, fault.Resultado{Success: true, Protocolo: protocolo})
}

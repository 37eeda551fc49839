package certstore

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/saudetech/tiss/internal/platform/auth"
	"github.com/saudetech/tiss/internal/platform/fault"
)

// Handler exposes certificate upload and inspection. The PFX travels
// base64-encoded in JSON; the password is accepted once and never
// echoed back.
type Handler struct {
	provider *Provider
}

func NewHandler(provider *Provider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/certificado", auth.RequireRole("admin"))
	g.PUT("", h.Upload)
	g.GET("", h.Metadata)
}

type uploadRequest struct {
	PFXBase64 string `json:"pfx_base64"`
	Senha     string `json:"senha"`
}

func (h *Handler) Upload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PFXBase64 == "" || req.Senha == "" {
		return c.JSON(http.StatusUnprocessableEntity,
			fault.Resultado{Error: "Arquivo PFX e senha são obrigatórios"})
	}
	pfx, err := base64.StdEncoding.DecodeString(req.PFXBase64)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			fault.Resultado{Error: "Arquivo PFX deve estar em base64 válido"})
	}

	cert, err := h.provider.Upload(c.Request().Context(), pfx, req.Senha)
	if err != nil {
		if f, ok := fault.As(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, fault.Resultado{Error: f.Message})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cert)
}

func (h *Handler) Metadata(c echo.Context) error {
	cert, err := h.provider.Metadata(c.Request().Context())
	if err != nil {
		if f, ok := fault.As(err); ok {
			return c.JSON(http.StatusNotFound, fault.Resultado{Error: f.Message})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cert)
}

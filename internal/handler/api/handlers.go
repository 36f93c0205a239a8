package api

import (
	"net/http"

	models "DivPulse/internal/domain/models"
	"DivPulse/internal/usecase"
	xhttp "DivPulse/pkg/http"
	xlogger "DivPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler implements Echo-based HTTP handlers following Clean Architecture.
type Handler struct {
	logger    *xlogger.Logger
	data      *usecase.DataUsecase
	normalize *usecase.NormalizeUsecase
	composite *usecase.CompositeUsecase
	regime    *usecase.RegimeUsecase
	status    *usecase.StatusUsecase
}

func NewHandler(
	logger *xlogger.Logger,
	data *usecase.DataUsecase,
	normalize *usecase.NormalizeUsecase,
	composite *usecase.CompositeUsecase,
	regime *usecase.RegimeUsecase,
	status *usecase.StatusUsecase,
) *Handler {
	return &Handler{
		logger:    logger,
		data:      data,
		normalize: normalize,
		composite: composite,
		regime:    regime,
		status:    status,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/data", h.Data)
	g.GET("/normalized", h.Normalized)
	g.GET("/composite", h.Composite)
	g.GET("/regime", h.Regime)
	g.GET("/datasets", h.Datasets)
	g.GET("/status", h.Status)
	g.DELETE("/cache", h.DeleteCache)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Data(c echo.Context) error {
	req := &models.DataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.data.GetData(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("data usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Normalized(c echo.Context) error {
	req := &models.NormalizedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.normalize.GetNormalized(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("normalized usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Composite(c echo.Context) error {
	req := &models.CompositeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.composite.GetComposite(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("composite usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Regime(c echo.Context) error {
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.regime.GetRegime(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("regime usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Datasets(c echo.Context) error {
	res, err := h.status.ListDatasets(c.Request().Context())
	if err != nil {
		h.logger.Error("datasets usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.status.Status(c.Request().Context()))
}

func (h *Handler) DeleteCache(c echo.Context) error {
	req := &models.CacheDeleteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.data.InvalidateCache(c.Request().Context(), req.Dataset); err != nil {
		h.logger.Error("cache invalidate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	models "catalytics/internal/domain/models"
	"catalytics/internal/usecase"
	xhttp "catalytics/pkg/http"
	xlogger "catalytics/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// MarketEchoHandler serves price history, asset metadata and health.
type MarketEchoHandler struct {
	logger *xlogger.Logger
	market *usecase.MarketUseCase
	health HealthChecker
}

func NewMarketEchoHandler(logger *xlogger.Logger, market *usecase.MarketUseCase, health HealthChecker) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, market: market, health: health}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/prices/:asset", h.PriceChart)
	g.GET("/assets/:category", h.Assets)
}

func (h *MarketEchoHandler) PriceChart(c echo.Context) error {
	req := &models.PriceChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(fmt.Errorf("%w: %v", models.ErrMalformedDate, err)))
	}

	s, err := h.market.PriceChart(c.Request().Context(), req.Asset, from, to)
	if err != nil {
		h.logger.Error("price chart usecase error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, seriesMap(s))
}

func (h *MarketEchoHandler) Assets(c echo.Context) error {
	req := &models.AssetsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	assets, err := h.market.Assets(c.Request().Context(), models.Category(req.Category))
	if err != nil {
		h.logger.Error("assets usecase error", xlogger.String("category", req.Category), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, assets)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	if h.health == nil {
		return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Health(ctx); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

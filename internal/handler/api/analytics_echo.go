package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	models "catalytics/internal/domain/models"
	svcmetrics "catalytics/internal/service/metrics"
	"catalytics/internal/services/index"
	"catalytics/internal/usecase"
	xhttp "catalytics/pkg/http"
	xlogger "catalytics/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AnalyticsEchoHandler serves the index, RSPS and correlation endpoints.
type AnalyticsEchoHandler struct {
	logger *xlogger.Logger
	index  *usecase.IndexUseCase
	rsps   *usecase.RSPSUseCase
	corr   *usecase.CorrelationUseCase
}

func NewAnalyticsEchoHandler(
	logger *xlogger.Logger,
	idx *usecase.IndexUseCase,
	rsps *usecase.RSPSUseCase,
	corr *usecase.CorrelationUseCase,
) *AnalyticsEchoHandler {
	return &AnalyticsEchoHandler{logger: logger, index: idx, rsps: rsps, corr: corr}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/index/:category", h.Index)
	g.GET("/rsps", h.RSPS)
	g.POST("/correlation", h.Correlation)
}

func (h *AnalyticsEchoHandler) Index(c echo.Context) error {
	start := time.Now()
	req := &models.IndexRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("index", start, "ERR_BAD_REQUEST")
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		svcmetrics.Observe("index", start, "ERR_BAD_REQUEST")
		return xhttp.AppErrorResponse(c, toAppError(fmt.Errorf("%w: %v", models.ErrMalformedDate, err)))
	}
	rankStart, err := parseRank("index_start", req.IndexStart, 0)
	if err != nil {
		svcmetrics.Observe("index", start, "ERR_BAD_REQUEST")
		return xhttp.AppErrorResponse(c, err)
	}
	rankEnd, err := parseRank("index_end", req.IndexEnd, 9)
	if err != nil {
		svcmetrics.Observe("index", start, "ERR_BAD_REQUEST")
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.index.BuildIndex(c.Request().Context(), usecase.IndexParams{
		Category: models.Category(req.Category),
		Start:    from,
		End:      to,
		Window:   index.Window{Start: rankStart, End: rankEnd},
		Excluded:   xhttp.SplitList(req.ExcludeIDs),
		Benchmarks: xhttp.SplitList(req.CorrelationCoinIDs),
	})
	if err != nil {
		h.logger.Error("index usecase error", xlogger.String("category", req.Category), xlogger.Error(err))
		appErr := toAppError(err)
		svcmetrics.Observe("index", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("index", start, "")
	return xhttp.SuccessResponse(c, newIndexResponse(res, h.index.Windows()))
}

func (h *AnalyticsEchoHandler) RSPS(c echo.Context) error {
	start := time.Now()
	req := &models.RSPSRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("rsps", start, "ERR_BAD_REQUEST")
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := xhttp.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		svcmetrics.Observe("rsps", start, "ERR_BAD_REQUEST")
		return xhttp.AppErrorResponse(c, toAppError(fmt.Errorf("%w: %v", models.ErrMalformedDate, err)))
	}
	minCap, err := decimal.NewFromString(req.MinMarketCap)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("min_market_cap must be a number").WithError(err))
	}
	maxCap, err := decimal.NewFromString(req.MaxMarketCap)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("max_market_cap must be a number").WithError(err))
	}

	ranked, err := h.rsps.Compute(c.Request().Context(), usecase.RSPSParams{
		Category: models.Category(req.Category),
		Start:    from,
		End:      to,
		MinCap:   minCap,
		MaxCap:   maxCap,
		TopN:     req.Results,
		Excluded: xhttp.SplitList(req.Excluded),
	})
	if err != nil {
		h.logger.Error("rsps usecase error", xlogger.Error(err))
		appErr := toAppError(err)
		svcmetrics.Observe("rsps", start, appErr.Code)
		return xhttp.AppErrorResponse(c, appErr)
	}
	svcmetrics.Observe("rsps", start, "")
	return xhttp.SuccessResponse(c, newRSPSRows(ranked))
}

func (h *AnalyticsEchoHandler) Correlation(c echo.Context) error {
	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	corr, err := h.corr.ComputeKeyed(req.SeriesA, req.SeriesB, req.Window)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, CorrelationResponse{Correlation: correlationValue(corr)})
}

// parseRank reads a zero-based rank bound; empty means def.
func parseRank(field, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		appErr := xhttp.NewAppError("ERR_BAD_REQUEST", field, field+" must be a non-negative integer", http.StatusBadRequest)
		if err != nil {
			appErr = appErr.WithError(err)
		}
		return 0, appErr
	}
	return v, nil
}

// toAppError maps domain errors onto transport errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, models.ErrMissingParameter),
		errors.Is(err, models.ErrMalformedDate),
		errors.Is(err, models.ErrUnknownCategory):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrZeroReferenceVolatility):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

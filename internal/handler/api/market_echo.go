package api

import (
	"errors"
	"net/http"

	models "StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/ensemble"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler exposes the aggregator and prediction usecases over HTTP.
type MarketEchoHandler struct {
	logger     *xlogger.Logger
	market     *usecase.MarketData
	prediction *usecase.Prediction
}

func NewMarketEchoHandler(logger *xlogger.Logger, market *usecase.MarketData, prediction *usecase.Prediction) *MarketEchoHandler {
	return &MarketEchoHandler{logger: logger, market: market, prediction: prediction}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/quote", h.Quote)
	g.GET("/history", h.History)
	g.GET("/indicators", h.Indicators)
	g.GET("/snapshot", h.Snapshot)
	g.GET("/search", h.Search)
	g.GET("/predict", h.Predict)
	g.POST("/predict/invalidate", h.InvalidateModel)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *MarketEchoHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q := h.market.GetQuote(c.Request().Context(), req.Symbol)
	if q == nil {
		return xhttp.NotFoundResponse(c, "symbol not found")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r := domrepo.NormalizeRange(req.Range)

	bars := h.market.GetHistory(c.Request().Context(), req.Symbol, r)
	if bars == nil {
		bars = []models.Bar{}
	}
	return xhttp.SuccessResponse(c, bars)
}

func (h *MarketEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r := domrepo.NormalizeRange(req.Range)

	ctx := c.Request().Context()
	bars := h.market.GetHistory(ctx, req.Symbol, r)
	set := h.market.ComputeIndicators(req.Symbol, bars)
	if set == nil {
		return xhttp.NotFoundResponse(c, "insufficient history for indicators")
	}
	return xhttp.SuccessResponse(c, set)
}

func (h *MarketEchoHandler) Snapshot(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r := domrepo.NormalizeRange(req.Range)

	snap := h.market.GetSnapshot(c.Request().Context(), req.Symbol, r)
	if snap.Quote == nil && len(snap.Bars) == 0 {
		return xhttp.NotFoundResponse(c, "symbol not found")
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *MarketEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	matches := h.market.SearchSymbols(c.Request().Context(), req.Query, req.Limit)
	if matches == nil {
		matches = []models.SymbolMatch{}
	}
	return xhttp.SuccessResponse(c, matches)
}

func (h *MarketEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.prediction.Predict(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, ensemble.ErrModelUnavailable) || errors.Is(err, ensemble.ErrInsufficientHistory) {
			return xhttp.DataResponse(c, http.StatusUnprocessableEntity, err.Error())
		}
		h.logger.Error("predict usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) InvalidateModel(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.prediction.InvalidateModel(req.Symbol)
	return xhttp.NoContentResponse(c)
}

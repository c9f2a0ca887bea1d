package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_rates_service/internal/core/ports/services"
	"github.com/SscSPs/exchange_rates_service/internal/dto"
	"github.com/SscSPs/exchange_rates_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// exchangeRateHandler handles HTTP requests related to exchange rates.
type exchangeRateHandler struct {
	rates         portssvc.RateOrchestratorSvc
	canonicalBase string
	now           func() time.Time
}

// newExchangeRateHandler creates a new exchangeRateHandler.
func newExchangeRateHandler(rates portssvc.RateOrchestratorSvc, canonicalBase string, now func() time.Time) *exchangeRateHandler {
	if now == nil {
		now = time.Now
	}
	return &exchangeRateHandler{
		rates:         rates,
		canonicalBase: canonicalBase,
		now:           now,
	}
}

// RegisterExchangeRateRoutes registers routes related to exchange rates.
// A nil clock means time.Now.
func RegisterExchangeRateRoutes(rg *gin.RouterGroup, rates portssvc.RateOrchestratorSvc, canonicalBase string, now func() time.Time) {
	h := newExchangeRateHandler(rates, canonicalBase, now)

	exchangeRates := rg.Group("/rates")
	{
		exchangeRates.GET("/:day", h.getRates)
	}
}

// getRates godoc
// @Summary Get exchange rates for a day
// @Description Returns all rates relative to the base currency on the given day. Today is served live, past days from the snapshot cache.
// @Tags exchange rates
// @Produce  json
// @Param   day  path  string true  "Date in YYYY-MM-DD format" example(2024-12-24)
// @Param   base query string false "Base currency (3 uppercase letters), defaults to the canonical base" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.ExchangeRatesResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid date, future date, invalid base or rejected by the provider"
// @Failure 404 {object} dto.ErrorResponse "Base currency not present in the rate table"
// @Failure 429 {object} dto.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve exchange rates"
// @Failure 502 {object} dto.ErrorResponse "Rate provider failure"
// @Failure 503 {object} dto.ErrorResponse "Rate provider unavailable"
// @Failure 504 {object} dto.ErrorResponse "Rate provider timed out"
// @Router /rates/{day} [get]
func (h *exchangeRateHandler) getRates(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.GetRatesRequest
	if err := c.ShouldBindUri(&req); err != nil {
		logger.Warn("Failed to bind URI for GetRates", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind query for GetRates", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Base currency must be a 3-letter uppercase currency code"})
		return
	}

	date, err := domain.ParseDate(req.Day)
	if err != nil {
		logger.Warn("Invalid date requested", slog.String("day", req.Day))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid date format. Please provide a valid date in YYYY-MM-DD format."})
		return
	}

	base := req.Base
	if base == "" {
		base = h.canonicalBase
	}

	logger = logger.With(slog.String("day", req.Day), slog.String("base", base))
	logger.Info("Received request to get exchange rates")

	today := domain.NormalizeDate(h.now().UTC())
	var table *domain.RateTable
	switch {
	case date.After(today):
		logger.Warn("Future date requested")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Cannot request rates for future dates"})
		return
	case date.Equal(today):
		table, err = h.rates.GetLatest(c.Request.Context(), base)
	default:
		table, err = h.rates.GetForDate(c.Request.Context(), base, date)
	}
	if err != nil {
		status, msg := statusForRatesError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("Failed to get exchange rates", slog.Int("status", status), slog.String("error", err.Error()))
		} else {
			logger.Warn("Exchange rates request rejected", slog.Int("status", status), slog.String("error", err.Error()))
		}
		c.JSON(status, dto.ErrorResponse{Error: msg})
		return
	}

	logger.Info("Exchange rates retrieved successfully", slog.Int("rates", len(table.Rates)))
	c.JSON(http.StatusOK, dto.ToExchangeRatesResponse(table))
}

// statusForRatesError maps a rate lookup failure to a status code and a client-facing message.
func statusForRatesError(err error) (int, string) {
	var upstream *apperrors.UpstreamError
	var notFound *apperrors.TargetCurrencyNotFoundError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, "No exchange rate available for currency " + notFound.Currency
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &upstream) && upstream.Class == apperrors.UpstreamClientClass:
		if upstream.Kind == apperrors.KindRateLimitExceeded {
			return http.StatusTooManyRequests, "Rate provider quota exceeded"
		}
		return http.StatusBadRequest, "Rate provider rejected the request: " + upstream.Reason
	case errors.As(err, &upstream) && upstream.Class == apperrors.UpstreamServerClass:
		switch upstream.Kind {
		case apperrors.KindServiceUnavailable:
			return http.StatusServiceUnavailable, "Rate provider is unavailable"
		case apperrors.KindGatewayTimeout:
			return http.StatusGatewayTimeout, "Rate provider timed out"
		}
		return http.StatusBadGateway, "Rate provider failed"
	default:
		return http.StatusInternalServerError, "Failed to retrieve exchange rates"
	}
}

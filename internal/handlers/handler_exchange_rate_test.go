package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_rates_service/internal/core/ports/services"
	"github.com/SscSPs/exchange_rates_service/internal/handlers"
	"github.com/SscSPs/exchange_rates_service/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RateOrchestrator ---
type MockRateOrchestrator struct {
	mock.Mock
}

func (m *MockRateOrchestrator) GetLatest(ctx context.Context, requestedBase string) (*domain.RateTable, error) {
	args := m.Called(ctx, requestedBase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateTable), args.Error(1)
}

func (m *MockRateOrchestrator) GetForDate(ctx context.Context, requestedBase string, date time.Time) (*domain.RateTable, error) {
	args := m.Called(ctx, requestedBase, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateTable), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.RateOrchestratorSvc = (*MockRateOrchestrator)(nil)

type ratesBody struct {
	Base  string            `json:"base"`
	Date  string            `json:"date"`
	Rates map[string]string `json:"rates"`
	Error string            `json:"error"`
}

// --- Test Suite ---
type ExchangeRateHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockRates *MockRateOrchestrator
	today     time.Time
	logs      bytes.Buffer
}

func (suite *ExchangeRateHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.logs.Reset()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewJSONHandler(&suite.logs, nil))))

	suite.mockRates = new(MockRateOrchestrator)
	suite.today = time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return suite.today.Add(10 * time.Hour) }

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterExchangeRateRoutes(v1, suite.mockRates, "USD", clock)
}

func (suite *ExchangeRateHandlerTestSuite) TearDownTest() {
	suite.mockRates.AssertExpectations(suite.T())
}

func (suite *ExchangeRateHandlerTestSuite) get(url string) (*httptest.ResponseRecorder, ratesBody) {
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var body ratesBody
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func usdTable(date time.Time) *domain.RateTable {
	return &domain.RateTable{
		BaseCurrency: "USD",
		Date:         date,
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.961402"),
		},
	}
}

// --- Test Cases ---

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_PastDateDefaultsToCanonicalBase() {
	day := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	suite.mockRates.On("GetForDate", mock.Anything, "USD", day).Return(usdTable(day), nil).Once()

	w, body := suite.get("/api/v1/rates/2024-12-24")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("USD", body.Base)
	suite.Equal("2024-12-24", body.Date)
	suite.Equal("0.961402", body.Rates["EUR"])
	suite.Equal("1", body.Rates["USD"])
}

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_LogsWithRequestScopedLogger() {
	day := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	suite.mockRates.On("GetForDate", mock.Anything, "USD", day).Return(usdTable(day), nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/2024-12-24", nil)
	req.Header.Set("X-Request-ID", "rates-req-1")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var found bool
	for _, line := range bytes.Split(suite.logs.Bytes(), []byte("\n")) {
		var entry map[string]any
		if json.Unmarshal(line, &entry) != nil || entry["msg"] != "Exchange rates retrieved successfully" {
			continue
		}
		found = true
		suite.Equal("rates-req-1", entry["request_id"])
		suite.Equal("2024-12-24", entry["day"])
	}
	suite.True(found, suite.logs.String())
}

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_RequestedBase() {
	day := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	table := &domain.RateTable{
		BaseCurrency: "EUR",
		Date:         day,
		Rates:        map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1), "USD": decimal.RequireFromString("1.085")},
	}
	suite.mockRates.On("GetForDate", mock.Anything, "EUR", day).Return(table, nil).Once()

	w, body := suite.get("/api/v1/rates/2024-12-24?base=EUR")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("EUR", body.Base)
	suite.Equal("1.085", body.Rates["USD"])
}

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_TodayIsServedLive() {
	suite.mockRates.On("GetLatest", mock.Anything, "GBP").Return(usdTable(suite.today), nil).Once()

	w, _ := suite.get("/api/v1/rates/2024-12-26?base=GBP")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockRates.AssertNotCalled(suite.T(), "GetForDate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_RejectsBadInput() {
	tests := []struct {
		name string
		url  string
	}{
		{name: "future date", url: "/api/v1/rates/2024-12-27"},
		{name: "malformed date", url: "/api/v1/rates/24-12-2024"},
		{name: "impossible date", url: "/api/v1/rates/2024-02-30"},
		{name: "lowercase base", url: "/api/v1/rates/2024-12-24?base=eur"},
		{name: "long base", url: "/api/v1/rates/2024-12-24?base=EURO"},
		{name: "numeric base", url: "/api/v1/rates/2024-12-24?base=123"},
	}

	for _, tt := range tests {
		w, body := suite.get(tt.url)
		suite.Equal(http.StatusBadRequest, w.Code, tt.name)
		suite.NotEmpty(body.Error, tt.name)
	}
	suite.mockRates.AssertNotCalled(suite.T(), "GetForDate", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRates.AssertNotCalled(suite.T(), "GetLatest", mock.Anything, mock.Anything)
}

func (suite *ExchangeRateHandlerTestSuite) TestGetRates_ErrorStatusMapping() {
	day := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "target missing", err: &apperrors.TargetCurrencyNotFoundError{Currency: "XAU"}, status: http.StatusNotFound},
		{name: "validation", err: apperrors.NewValidationError("bad table"), status: http.StatusBadRequest},
		{name: "upstream client", err: apperrors.NewUpstreamClientError(apperrors.KindInvalidParameters, "invalid base", nil), status: http.StatusBadRequest},
		{name: "upstream quota", err: apperrors.NewUpstreamClientError(apperrors.KindRateLimitExceeded, "quota", nil), status: http.StatusTooManyRequests},
		{name: "upstream unavailable", err: apperrors.NewUpstreamServerError(apperrors.KindServiceUnavailable, "down", nil), status: http.StatusServiceUnavailable},
		{name: "upstream timeout", err: apperrors.NewUpstreamServerError(apperrors.KindGatewayTimeout, "slow", nil), status: http.StatusGatewayTimeout},
		{name: "upstream internal", err: apperrors.NewUpstreamServerError(apperrors.KindInternalServerError, "garbage", nil), status: http.StatusBadGateway},
		{name: "cache store", err: apperrors.NewCacheStoreError("write failed", errors.New("disk full")), status: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		suite.mockRates.On("GetForDate", mock.Anything, "XAU", day).Return(nil, tt.err).Once()

		w, body := suite.get("/api/v1/rates/2024-12-24?base=XAU")

		suite.Equal(tt.status, w.Code, tt.name)
		suite.NotEmpty(body.Error, tt.name)
	}
}

func TestExchangeRateHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateHandlerTestSuite))
}

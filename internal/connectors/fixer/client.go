package fixer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portssvc "github.com/SscSPs/exchange_rates_service/internal/core/ports/services"
	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"
)

const (
	latestPath     = "latest"
	accessKeyParam = "access_key"
	baseParam      = "base"

	maxRetryDelay = 2 * time.Second
)

// Config holds the Fixer endpoint, credentials and retry behaviour.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

// Client is a RateSource backed by the Fixer API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// ClientOption is a functional option for configuring the client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the clock used when a latest response carries no date
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Fixer client.
func NewClient(cfg Config, logger *slog.Logger, options ...ClientOption) *Client {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type ratesResponse struct {
	Success    bool                       `json:"success"`
	Historical bool                       `json:"historical"`
	Timestamp  int64                      `json:"timestamp"`
	Base       string                     `json:"base"`
	Date       string                     `json:"date"`
	Rates      map[string]decimal.Decimal `json:"rates"`
	Error      *errorBody                 `json:"error,omitempty"`
}

type errorBody struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// FetchLatest retrieves today's rates relative to baseCurrency.
func (c *Client) FetchLatest(ctx context.Context, baseCurrency string) (*domain.RateTable, error) {
	return c.fetch(ctx, latestPath, baseCurrency, c.now())
}

// FetchForDate retrieves the rates relative to baseCurrency on date.
func (c *Client) FetchForDate(ctx context.Context, baseCurrency string, date time.Time) (*domain.RateTable, error) {
	return c.fetch(ctx, domain.NormalizeDate(date).Format(domain.DateLayout), baseCurrency, date)
}

func (c *Client) fetch(ctx context.Context, path, baseCurrency string, fallbackDate time.Time) (*domain.RateTable, error) {
	if !domain.IsCurrencyCode(baseCurrency) {
		return nil, apperrors.NewUpstreamClientError(apperrors.KindInvalidParameters,
			fmt.Sprintf("invalid base currency %q", baseCurrency), nil)
	}

	var body ratesResponse
	err := retry.Do(
		func() error {
			var err error
			body, err = c.call(ctx, path, baseCurrency)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, apperrors.ErrUpstreamServer)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "Retrying Fixer request",
				slog.String("path", path),
				slog.Uint64("attempt", uint64(n+1)),
				slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		var upstream *apperrors.UpstreamError
		if !errors.As(err, &upstream) {
			err = apperrors.NewUpstreamServerError(apperrors.KindGatewayTimeout, "request to Fixer abandoned", err)
		}
		c.logger.ErrorContext(ctx, "Fixer request failed",
			slog.String("path", path),
			slog.String("base", baseCurrency),
			slog.String("error", err.Error()))
		return nil, err
	}

	return c.toRateTable(ctx, body, baseCurrency, fallbackDate)
}

func (c *Client) call(ctx context.Context, path, baseCurrency string) (ratesResponse, error) {
	query := url.Values{}
	query.Set(accessKeyParam, c.cfg.APIKey)
	query.Set(baseParam, baseCurrency)
	endpoint := c.cfg.BaseURL + "/" + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ratesResponse{}, apperrors.NewUpstreamClientError(apperrors.KindInvalidRequest, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "Calling Fixer", slog.String("path", path), slog.String("base", baseCurrency))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ratesResponse{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return ratesResponse{}, classifyStatus(resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ratesResponse{}, apperrors.NewUpstreamServerError(apperrors.KindInternalServerError, "failed to decode Fixer response", err)
	}
	if !body.Success {
		return ratesResponse{}, classifyErrorBody(body.Error)
	}
	return body, nil
}

func (c *Client) toRateTable(ctx context.Context, body ratesResponse, requestedBase string, fallbackDate time.Time) (*domain.RateTable, error) {
	base := strings.ToUpper(strings.TrimSpace(body.Base))
	if base == "" {
		base = requestedBase
	}
	if base != requestedBase {
		return nil, apperrors.NewUpstreamServerError(apperrors.KindInternalServerError,
			fmt.Sprintf("Fixer answered for base %s instead of %s", base, requestedBase), nil)
	}

	date := domain.NormalizeDate(fallbackDate)
	if body.Date != "" {
		parsed, err := domain.ParseDate(body.Date)
		if err != nil {
			return nil, apperrors.NewUpstreamServerError(apperrors.KindInternalServerError, "Fixer returned a malformed date", err)
		}
		date = parsed
	}

	rates := make(map[string]decimal.Decimal, len(body.Rates))
	for code, rate := range body.Rates {
		code = strings.ToUpper(code)
		if !domain.IsCurrencyCode(code) || !rate.IsPositive() {
			c.logger.WarnContext(ctx, "Skipping unusable rate from Fixer",
				slog.String("currency", code),
				slog.String("rate", rate.String()))
			continue
		}
		rates[code] = rate
	}

	table := domain.RateTable{BaseCurrency: base, Date: date, Rates: rates}
	if err := table.Validate(); err != nil {
		return nil, apperrors.NewUpstreamServerError(apperrors.KindInternalServerError, "Fixer returned an unusable rate table", err)
	}
	return &table, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewUpstreamServerError(apperrors.KindGatewayTimeout, "Fixer request timed out", err)
	}
	return apperrors.NewUpstreamServerError(apperrors.KindServiceUnavailable, "Fixer is unreachable", err)
}

func classifyStatus(status int) error {
	reason := fmt.Sprintf("Fixer responded with status %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return apperrors.NewUpstreamClientError(apperrors.KindRateLimitExceeded, reason, nil)
	case status == http.StatusGatewayTimeout:
		return apperrors.NewUpstreamServerError(apperrors.KindGatewayTimeout, reason, nil)
	case status >= http.StatusInternalServerError:
		return apperrors.NewUpstreamServerError(apperrors.KindServiceUnavailable, reason, nil)
	default:
		return apperrors.NewUpstreamClientError(apperrors.KindInvalidRequest, reason, nil)
	}
}

// Fixer error codes, see https://fixer.io/documentation#errors
func classifyErrorBody(body *errorBody) error {
	if body == nil {
		return apperrors.NewUpstreamServerError(apperrors.KindInternalServerError, "Fixer reported failure without details", nil)
	}

	reason := fmt.Sprintf("Fixer error %d (%s)", body.Code, body.Type)
	if body.Info != "" {
		reason += ": " + body.Info
	}

	switch body.Code {
	case 104:
		return apperrors.NewUpstreamClientError(apperrors.KindRateLimitExceeded, reason, nil)
	case 106, 201, 202, 301, 302:
		return apperrors.NewUpstreamClientError(apperrors.KindInvalidParameters, reason, nil)
	default:
		// 101, 102, 103, 105, 404 and anything unlisted: the request itself was refused
		return apperrors.NewUpstreamClientError(apperrors.KindInvalidRequest, reason, nil)
	}
}

var _ portssvc.RateSource = (*Client)(nil)

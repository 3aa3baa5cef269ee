package currency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// RemoteConfig configures a RemoteRates converter.
type RemoteConfig struct {
	BaseURL       string
	Reporting     string
	Timeout       time.Duration
	RatePerSecond float64
}

// RemoteRates converts with rates fetched from a "latest rates" HTTP service:
//
//	GET {base}/latest?base=EUR&symbols=USD  ->  {"base":"EUR","rates":{"USD":1.1}}
//
// Each currency's rate is fetched at most once per converter and concurrent
// requests for the same currency share one call. Outbound calls are throttled.
type RemoteRates struct {
	client    *resty.Client
	reporting string
	limiter   *rate.Limiter
	group     singleflight.Group
	logger    *slog.Logger

	mu    sync.RWMutex
	rates map[string]float64
}

// NewRemoteRates creates a RemoteRates converter. A nil logger discards output.
func NewRemoteRates(cfg RemoteConfig, logger *slog.Logger) *RemoteRates {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &RemoteRates{
		client:    c,
		reporting: strings.ToUpper(cfg.Reporting),
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		rates:     make(map[string]float64),
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Convert returns amount expressed in the reporting currency.
func (r *RemoteRates) Convert(ctx context.Context, amount float64, code string) (float64, error) {
	code = strings.ToUpper(code)
	if code == r.reporting {
		return amount, nil
	}
	rt, err := r.Rate(ctx, code)
	if err != nil {
		return 0, err
	}
	return amount * rt, nil
}

// Rate returns the value of one unit of code in the reporting currency.
func (r *RemoteRates) Rate(ctx context.Context, code string) (float64, error) {
	code = strings.ToUpper(code)
	if rt, ok := r.cached(code); ok {
		return rt, nil
	}

	v, err, _ := r.group.Do(code, func() (any, error) {
		// Another caller may have stored the rate between the check above and here.
		if rt, ok := r.cached(code); ok {
			return rt, nil
		}
		rt, err := r.fetch(ctx, code)
		if err != nil {
			return 0.0, err
		}
		r.mu.Lock()
		r.rates[code] = rt
		r.mu.Unlock()
		return rt, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (r *RemoteRates) cached(code string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.rates[code]
	return rt, ok
}

func (r *RemoteRates) fetch(ctx context.Context, code string) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("currency.RemoteRates.fetch: %w", err)
	}

	var body latestResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"base": code, "symbols": r.reporting}).
		SetResult(&body).
		Get("/latest")
	if err != nil {
		return 0, fmt.Errorf("currency.RemoteRates.fetch %s: %w", code, err)
	}
	if resp.StatusCode() != http.StatusOK {
		r.logger.Warn("rates service returned non-200", "currency", code, "status", resp.StatusCode())
		if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnprocessableEntity {
			return 0, fmt.Errorf("currency.RemoteRates.fetch %s: %w", code, ErrUnknownCurrency)
		}
		return 0, fmt.Errorf("currency.RemoteRates.fetch %s: status %d", code, resp.StatusCode())
	}

	rt, ok := body.Rates[r.reporting]
	if !ok || rt <= 0 {
		return 0, fmt.Errorf("currency.RemoteRates.fetch %s: no %s rate: %w", code, r.reporting, ErrUnknownCurrency)
	}
	r.logger.Debug("fetched exchange rate", "currency", code, "reporting", r.reporting, "rate", rt)
	return rt, nil
}

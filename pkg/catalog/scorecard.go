package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/config"
	"github.com/collegematch/collegematch-engine/pkg/logging"
	"github.com/collegematch/collegematch-engine/pkg/metrics"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/retry"
)

const maxResponseBytes = 8 << 20

// Filters are the catalog-side search criteria derived from a profile.
type Filters struct {
	Budget float64
	States []string
	Major  string
}

// FetchResult is the outcome of a successful fetch. An empty Candidates
// slice is a valid result, not an error.
type FetchResult struct {
	Candidates      []models.Candidate
	Total           int     // matches reported upstream, may exceed len(Candidates)
	Dropped         int     // records discarded during normalization
	EffectiveBudget float64 // budget actually sent upstream
	BudgetClamped   bool
	FromCache       bool
}

// Fetcher retrieves candidate institutions for a set of filters.
type Fetcher interface {
	Fetch(ctx context.Context, filters Filters) (*FetchResult, error)
}

// ScorecardClient fetches candidates from the College Scorecard API.
type ScorecardClient struct {
	cfg        config.CatalogConfig
	httpClient *http.Client
	cache      Cache
	logger     *zap.Logger
}

var _ Fetcher = (*ScorecardClient)(nil)

// NewScorecardClient creates a Scorecard client. cache may be nil.
func NewScorecardClient(cfg config.CatalogConfig, cache Cache, logger *zap.Logger) *ScorecardClient {
	return &ScorecardClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		logger:     logger.Named("scorecard"),
	}
}

// Fetch queries the Scorecard for schools within budget in the preferred states.
// Transport failures and 5xx responses are retried with linear backoff;
// 4xx responses fail immediately. Failures are classified as upstream_unavailable
// unless ctx ended first, in which case the context error is returned.
func (c *ScorecardClient) Fetch(ctx context.Context, filters Filters) (*FetchResult, error) {
	effective := math.Min(filters.Budget, float64(c.cfg.MaxBudget))
	clamped := filters.Budget > float64(c.cfg.MaxBudget)
	if clamped {
		metrics.BudgetClamped.Inc()
		c.logger.Info("Budget capped for catalog query",
			zap.Float64("original_budget", filters.Budget),
			zap.Float64("effective_budget", effective))
	}

	query := buildQuery(int(effective), filters.States, c.cfg.PerPage, c.cfg.SortKey)
	key := cacheKey(query)

	result := &FetchResult{EffectiveBudget: effective, BudgetClamped: clamped}

	if page := c.lookup(ctx, key); page != nil {
		result.Candidates = page.Candidates
		result.Total = page.Total
		result.Dropped = page.Dropped
		result.FromCache = true
		return result, nil
	}

	query.Set("api_key", c.cfg.APIKey)
	requestURL := c.cfg.BaseURL + "?" + query.Encode()

	c.logger.Debug("Calling College Scorecard",
		zap.String("url", logging.SanitizeURL(requestURL)),
		zap.Strings("states", filters.States))

	start := time.Now()
	resp, err := retry.DoWithResultIfRetryable(ctx, c.retryPolicy(), func() (*scorecardResponse, error) {
		return c.do(ctx, requestURL)
	})
	metrics.SearchDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch colleges: %w", ctxErr)
		}
		c.logger.Error("College Scorecard request failed", zap.String("error", logging.SanitizeError(err)))
		return nil, apperrors.New(apperrors.KindUpstreamUnavailable, err)
	}

	candidates, dropped := normalize(resp.Results)
	result.Candidates = candidates
	result.Total = resp.Metadata.Total
	result.Dropped = dropped

	c.logger.Info("College Scorecard returned schools",
		zap.Int("total", resp.Metadata.Total),
		zap.Int("returned", len(resp.Results)),
		zap.Int("kept", len(candidates)),
		zap.Int("dropped", dropped))

	c.store(ctx, key, &CachedPage{Candidates: candidates, Total: resp.Metadata.Total, Dropped: dropped})
	return result, nil
}

// retryPolicy waits RetryDelay, 2×RetryDelay, ... between attempts and logs
// each scheduled wait.
func (c *ScorecardClient) retryPolicy() *retry.Config {
	policy := retry.LinearConfig(c.cfg.MaxAttempts, c.cfg.RetryDelay)
	policy.OnRetry = func(n int, delay time.Duration, err error) {
		c.logger.Warn("Retrying College Scorecard request",
			zap.Int("attempt", n+1),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}
	return policy
}

// do performs a single attempt.
func (c *ScorecardClient) do(ctx context.Context, requestURL string) (*scorecardResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build scorecard request: %s", logging.SanitizeError(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.CatalogRequests.WithLabelValues("transport").Inc()
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.CatalogRequests.WithLabelValues("transport").Inc()
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       logging.TruncateString(logging.SanitizeString(string(body)), logging.MaxBodyLogLength),
		}
		if statusErr.IsRetryable() {
			metrics.CatalogRequests.WithLabelValues("retryable").Inc()
		} else {
			metrics.CatalogRequests.WithLabelValues("client_error").Inc()
		}
		c.logger.Warn("College Scorecard returned an error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", statusErr.Body))
		return nil, statusErr
	}

	var parsed scorecardResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.CatalogRequests.WithLabelValues("decode_error").Inc()
		return nil, &DecodeError{Err: err}
	}
	metrics.CatalogRequests.WithLabelValues("ok").Inc()
	return &parsed, nil
}

// lookup returns a cached page or nil. Cache failures only cost a live request.
func (c *ScorecardClient) lookup(ctx context.Context, key string) *CachedPage {
	if c.cache == nil {
		return nil
	}
	page, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Catalog cache lookup failed", zap.Error(err))
		return nil
	case page == nil:
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		c.logger.Debug("Catalog cache hit",
			zap.Int("total", page.Total),
			zap.Int("kept", len(page.Candidates)),
			zap.Int("dropped", page.Dropped))
		return page
	}
}

func (c *ScorecardClient) store(ctx context.Context, key string, page *CachedPage) {
	if c.cache == nil || c.cfg.CacheTTL <= 0 || len(page.Candidates) == 0 {
		return
	}
	if err := c.cache.Set(ctx, key, page, c.cfg.CacheTTL); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("Catalog cache store failed", zap.Error(err))
	}
}

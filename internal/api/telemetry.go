package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"moba-mmr/internal/config"
	"moba-mmr/internal/constants"
	"moba-mmr/internal/domain"

	"github.com/valyala/fasthttp"
)

// TelemetryClient fetches parsed match reports from the telemetry collector.
type TelemetryClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telemetry API error: %d from %s", e.StatusCode, e.URL)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == fasthttp.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

func NewTelemetryClient(cfg *config.Config) *TelemetryClient {
	return &TelemetryClient{
		baseURL: strings.TrimRight(cfg.TelemetryURL, "/"),
		apiKey:  cfg.TelemetryAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.TelemetryMaxConnsPerHost,
			ReadTimeout:         constants.TelemetryAPITimeout,
			WriteTimeout:        constants.TelemetryAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     constants.TelemetryRateLimit,
			Remaining: constants.TelemetryRateLimit,
			Reset:     constants.TelemetryRateReset,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *TelemetryClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *TelemetryClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-Ratelimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetMatch fetches and validates one match report.
func (c *TelemetryClient) GetMatch(ctx context.Context, matchID string) (*domain.MatchReport, error) {
	if matchID == "" {
		return nil, &domain.ValidationError{Field: "match_id", Reason: "is required"}
	}
	u := fmt.Sprintf("%s/v1/matches/%s", c.baseURL, url.PathEscape(matchID))
	report, err := doRequest[domain.MatchReport](ctx, c, u)
	if err != nil {
		return nil, err
	}
	if report.MatchID == "" {
		report.MatchID = matchID
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("telemetry returned an invalid report for %s: %w", matchID, err)
	}
	return report, nil
}

func doRequest[T any](ctx context.Context, client *TelemetryClient, uri string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if client.apiKey != "" {
		req.Header.Set("Authorization", client.apiKey)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.TelemetryAPITimeout)
	}
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("telemetry request failed: %w", err)
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), URL: uri}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry response: %w", err)
	}
	return &result, nil
}

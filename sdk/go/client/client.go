// Package client provides a typed Go client for the verdict verification
// API. It depends only on the standard library and the shared contracts
// package, so importing it never drags server dependencies into a caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/verityhq/verdict/pkg/contracts"
)

// APIError is returned when the API responds with a non-2xx status. Fields
// mirror the RFC 7807 problem document the server emits.
type APIError struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("verdict api %d: %s: %s", e.Status, e.Title, e.Detail)
}

// VerifyResponse is a verification result plus the receipt the server
// issued for it. Receipt is empty when the server runs without an issuer.
type VerifyResponse struct {
	contracts.VerificationResult
	Receipt string `json:"receipt,omitempty"`
}

// CancelResponse reports the outcome of a cancel call.
type CancelResponse struct {
	VerificationID string `json:"verification_id"`
	Cancelled      bool   `json:"cancelled"`
}

// ModulesResponse lists the registered domain modules and the number of
// verifications currently in flight.
type ModulesResponse struct {
	Modules             []string `json:"modules"`
	ActiveVerifications int      `json:"active_verifications"`
}

// MetricsSnapshot mirrors the processor's running aggregates.
type MetricsSnapshot struct {
	TotalProcessed        int64                         `json:"total_processed"`
	AverageConfidence     float64                       `json:"average_confidence"`
	AverageProcessingTime time.Duration                 `json:"average_processing_time"`
	RiskDistribution      map[contracts.RiskLevel]int64 `json:"risk_distribution"`
	IssueTypeDistribution map[contracts.IssueType]int64 `json:"issue_type_distribution"`
}

// CacheStats mirrors the result cache counters.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

type recentEnvelope struct {
	Results []*contracts.VerificationResult `json:"results"`
	Count   int                             `json:"count"`
}

// Client is a typed client for the verdict API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Status != 0 {
			return &apiErr
		}
		return &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Verify calls POST /api/v1/verify.
func (c *Client) Verify(ctx context.Context, req contracts.VerificationRequest) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/verify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResult calls GET /api/v1/verifications/{id}.
func (c *Client) GetResult(ctx context.Context, verificationID string) (*contracts.VerificationResult, error) {
	var out contracts.VerificationResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/verifications/"+url.PathEscape(verificationID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus calls GET /api/v1/verifications/{id}/status.
func (c *Client) GetStatus(ctx context.Context, verificationID string) (*contracts.VerificationStatus, error) {
	var out contracts.VerificationStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/verifications/"+url.PathEscape(verificationID)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel calls POST /api/v1/verifications/{id}/cancel.
func (c *Client) Cancel(ctx context.Context, verificationID string) (*CancelResponse, error) {
	var out CancelResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/verifications/"+url.PathEscape(verificationID)+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecent calls GET /api/v1/verifications. A non-positive limit lets the
// server default apply.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]*contracts.VerificationResult, error) {
	path := "/api/v1/verifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out recentEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Modules calls GET /api/v1/modules.
func (c *Client) Modules(ctx context.Context) (*ModulesResponse, error) {
	var out ModulesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/modules", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Metrics calls GET /api/v1/metrics.
func (c *Client) Metrics(ctx context.Context) (*MetricsSnapshot, error) {
	var out MetricsSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/metrics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCacheStats calls GET /api/v1/cache/stats.
func (c *Client) GetCacheStats(ctx context.Context) (*CacheStats, error) {
	var out CacheStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/cache/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurgeCache calls DELETE /api/v1/cache. An empty key clears the whole
// cache; a fingerprint key evicts one entry.
func (c *Client) PurgeCache(ctx context.Context, key string) error {
	path := "/api/v1/cache"
	if key != "" {
		path += "?key=" + url.QueryEscape(key)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Health calls GET /healthz.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

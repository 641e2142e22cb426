// Package airtable provides a client for the Airtable records API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/yobot/leadflow/internal/resilience"
)

// Client defines the records-store operations used by the pipeline.
type Client interface {
	// CreateRecord inserts a row into the named table and returns it with
	// the store-assigned identifier.
	CreateRecord(ctx context.Context, table string, fields map[string]any) (*Record, error)
	// UpdateRecord patches the given fields on an existing row. Fields not
	// present in the map are left untouched.
	UpdateRecord(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error)
	// ListRecords queries a table with an optional filter formula, capped
	// to maxRecords rows (0 means the API default).
	ListRecords(ctx context.Context, table string, opts ...ListOption) ([]Record, error)
}

// Record is a single row as returned by the records API.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime"`
}

// StringField returns a field value as a string, or "" when absent or not
// a string.
func (r Record) StringField(name string) string {
	if v, ok := r.Fields[name].(string); ok {
		return v
	}
	return ""
}

// BoolField returns a field value as a bool, or false when absent.
func (r Record) BoolField(name string) bool {
	if v, ok := r.Fields[name].(bool); ok {
		return v
	}
	return false
}

// ListOption configures a ListRecords call.
type ListOption func(*listOpts)

type listOpts struct {
	filterFormula string
	maxRecords    int
}

// WithFilterFormula restricts results to rows matching an Airtable
// filterByFormula expression.
func WithFilterFormula(formula string) ListOption {
	return func(o *listOpts) {
		o.filterFormula = formula
	}
}

// WithMaxRecords caps the number of returned rows.
func WithMaxRecords(n int) ListOption {
	return func(o *listOpts) {
		o.maxRecords = n
	}
}

// Option configures the Airtable client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseID  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a new Airtable client scoped to one base.
func NewClient(apiKey, baseID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseID:  baseID,
		baseURL: "https://api.airtable.com/v0",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes a request, retrying transient failures with backoff. Airtable
// throttles at 5 rps per base and answers 429 (sometimes with a Retry-After
// hint) until the client backs off, so every call path goes through here.
func (c *httpClient) do(ctx context.Context, method, reqURL string, payload any, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "airtable: marshal payload")
		}
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("airtable", method)
	}

	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "airtable: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "airtable: request failed")
		}

		var respBody bytes.Buffer
		_, readErr := respBody.ReadFrom(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return eris.Wrap(readErr, "airtable: read response body")
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := eris.Errorf("airtable: status %d: %s", resp.StatusCode, respBody.String())
			return resilience.TransientFromResponse(statusErr, resp)
		}

		if out != nil {
			if err := json.Unmarshal(respBody.Bytes(), out); err != nil {
				return eris.Wrap(err, "airtable: unmarshal response")
			}
		}
		return nil
	})
}

func (c *httpClient) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
}

func (c *httpClient) CreateRecord(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	var rec Record
	payload := map[string]any{"fields": fields}
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), payload, &rec); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("airtable: create in %s", table))
	}
	return &rec, nil
}

func (c *httpClient) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error) {
	var rec Record
	payload := map[string]any{"fields": fields}
	reqURL := c.tableURL(table) + "/" + url.PathEscape(recordID)
	if err := c.do(ctx, http.MethodPatch, reqURL, payload, &rec); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("airtable: update %s in %s", recordID, table))
	}
	return &rec, nil
}

func (c *httpClient) ListRecords(ctx context.Context, table string, opts ...ListOption) ([]Record, error) {
	lo := &listOpts{}
	for _, opt := range opts {
		opt(lo)
	}

	q := url.Values{}
	if lo.filterFormula != "" {
		q.Set("filterByFormula", lo.filterFormula)
	}
	if lo.maxRecords > 0 {
		q.Set("maxRecords", fmt.Sprintf("%d", lo.maxRecords))
	}

	reqURL := c.tableURL(table)
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var result struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, reqURL, nil, &result); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("airtable: list %s", table))
	}
	return result.Records, nil
}

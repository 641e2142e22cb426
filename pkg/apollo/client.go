// Package apollo provides a client for the Apollo people-search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/yobot/leadflow/internal/resilience"
)

// Client defines the people-search operations used by enrichment.
type Client interface {
	// MatchPerson looks up contact details for a person at a company domain.
	// A nil result with a nil error means the service had no match.
	MatchPerson(ctx context.Context, req MatchRequest) (*Person, error)
}

// MatchRequest identifies the person to search for. Domain must be a bare
// hostname without scheme; name parts may be empty.
type MatchRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Domain    string `json:"organization_domain"`
}

// Person is a single match from the people-search service.
type Person struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Title       string `json:"title"`
	LinkedInURL string `json:"linkedin_url"`
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
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
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a new Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.apollo.io",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
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

type matchResponse struct {
	Person *struct {
		Email              string `json:"email"`
		Title              string `json:"title"`
		LinkedInURL        string `json:"linkedin_url"`
		SanitizedPhone     string `json:"sanitized_phone"`
		OrganizationPhones []struct {
			Number string `json:"raw_number"`
		} `json:"phone_numbers"`
	} `json:"person"`
}

func (c *httpClient) MatchPerson(ctx context.Context, req MatchRequest) (*Person, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("apollo", "match_person")
	}

	result, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*matchResponse, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/people/match", bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "apollo: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "apollo: request failed")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "apollo: read response body")
		}

		// 404 means the service has no record for this person.
		if resp.StatusCode == http.StatusNotFound {
			return &matchResponse{}, nil
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("apollo: unexpected status %d: %s", resp.StatusCode, string(body))
			return nil, resilience.TransientFromResponse(statusErr, resp)
		}

		var mr matchResponse
		if err := json.Unmarshal(body, &mr); err != nil {
			return nil, eris.Wrap(err, "apollo: unmarshal response")
		}
		return &mr, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Person == nil {
		return nil, nil
	}

	p := &Person{
		Email:       result.Person.Email,
		Phone:       result.Person.SanitizedPhone,
		Title:       result.Person.Title,
		LinkedInURL: result.Person.LinkedInURL,
	}
	if p.Phone == "" && len(result.Person.OrganizationPhones) > 0 {
		p.Phone = result.Person.OrganizationPhones[0].Number
	}
	return p, nil
}

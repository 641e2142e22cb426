// Package hubspot forwards leads to a HubSpot intake webhook.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the CRM forwarding operations used by the pipeline.
type Client interface {
	// SubmitLead posts a flattened lead payload to the intake webhook.
	SubmitLead(ctx context.Context, lead LeadPayload) error
}

// LeadPayload is the wire shape the CRM intake endpoint accepts.
type LeadPayload struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
	Source    string `json:"lead_source,omitempty"`
	JobTitle  string `json:"jobtitle,omitempty"`
}

// Option configures the HubSpot client.
type Option func(*webhookClient)

// WithRateLimit sets a per-second rate limit for webhook calls. A burst
// equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *webhookClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *webhookClient) {
		c.http = hc
	}
}

type webhookClient struct {
	webhookURL string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a CRM forwarder posting to the given webhook URL.
func NewClient(webhookURL string, opts ...Option) Client {
	c := &webhookClient{
		webhookURL: webhookURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *webhookClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *webhookClient) SubmitLead(ctx context.Context, lead LeadPayload) error {
	if c.webhookURL == "" {
		return eris.New("hubspot: webhook URL not configured")
	}
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "hubspot: rate limit")
	}

	payload, err := json.Marshal(lead)
	if err != nil {
		return eris.Wrap(err, "hubspot: marshal lead")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "hubspot: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "hubspot: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return eris.Errorf("hubspot: webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Package slack posts messages to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/yobot/leadflow/internal/resilience"
)

// Client defines the chat notification operations used by the notifier.
type Client interface {
	// PostMessage sends a plain-text message to the channel behind the webhook.
	PostMessage(ctx context.Context, text string) error
}

// Option configures the Slack client.
type Option func(*webhookClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *webhookClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *webhookClient) {
		c.retry = cfg
	}
}

type webhookClient struct {
	webhookURL string
	http       *http.Client
	retry      resilience.RetryConfig
}

// NewClient creates a Slack webhook client.
func NewClient(webhookURL string, opts ...Option) Client {
	c := &webhookClient{
		webhookURL: webhookURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *webhookClient) PostMessage(ctx context.Context, text string) error {
	if c.webhookURL == "" {
		return eris.New("slack: webhook URL not configured")
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return eris.Wrap(err, "slack: marshal message")
	}

	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("slack", "post_message")
	}

	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return eris.Wrap(err, "slack: create request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "slack: request failed")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode >= 400 {
			statusErr := eris.Errorf("slack: webhook returned status %d", resp.StatusCode)
			return resilience.TransientFromResponse(statusErr, resp)
		}
		return nil
	})
}

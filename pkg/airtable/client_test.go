package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yobot/leadflow/internal/resilience"
)

func TestCreateRecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/appBase123/Scraped Leads (Universal)", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "jane@acme.com", payload.Fields["Email"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "recABC123",
			"fields": payload.Fields,
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL))

	rec, err := c.CreateRecord(context.Background(), "Scraped Leads (Universal)", map[string]any{
		"Email":     "jane@acme.com",
		"Full Name": "Jane Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "recABC123", rec.ID)
	assert.Equal(t, "jane@acme.com", rec.StringField("Email"))
}

func TestUpdateRecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appBase123/Leads/rec42", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "rec42",
			"fields": map[string]any{"Synced to CRM": true},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL))

	rec, err := c.UpdateRecord(context.Background(), "Leads", "rec42", map[string]any{
		"Synced to CRM": true,
	})
	require.NoError(t, err)
	assert.True(t, rec.BoolField("Synced to CRM"))
}

func TestListRecordsWithFilter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, `{Email} = "jane@acme.com"`, r.URL.Query().Get("filterByFormula"))
		assert.Equal(t, "1", r.URL.Query().Get("maxRecords"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"id": "rec1", "fields": map[string]any{"Email": "jane@acme.com"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL))

	recs, err := c.ListRecords(context.Background(), "Leads",
		WithFilterFormula(`{Email} = "jane@acme.com"`),
		WithMaxRecords(1),
	)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec1", recs[0].ID)
}

// fastRetry keeps the tests quick: millisecond backoff, no jitter.
func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		JitterFraction: -1,
	}
}

func TestRetryOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"records": []map[string]any{}})
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

	_, err := c.ListRecords(context.Background(), "Leads")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"records": []map[string]any{}})
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

	start := time.Now()
	_, err := c.ListRecords(context.Background(), "Leads")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), time.Second,
		"provider Retry-After hint should stretch the backoff")
}

func TestRetryExhaustionKeepsTransientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

	_, err := c.ListRecords(context.Background(), "Leads")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "status 503")
	assert.True(t, resilience.IsTransient(err))
}

func TestNonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"type":"INVALID_REQUEST_UNKNOWN"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "appBase123", WithBaseURL(srv.URL))

	_, err := c.CreateRecord(context.Background(), "Leads", map[string]any{"Email": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRecordFieldHelpers(t *testing.T) {
	t.Parallel()

	rec := Record{Fields: map[string]any{
		"Email":         "a@b.com",
		"Synced to CRM": true,
		"Count":         float64(3),
	}}

	assert.Equal(t, "a@b.com", rec.StringField("Email"))
	assert.Equal(t, "", rec.StringField("Missing"))
	assert.Equal(t, "", rec.StringField("Count"))
	assert.True(t, rec.BoolField("Synced to CRM"))
	assert.False(t, rec.BoolField("Email"))
}

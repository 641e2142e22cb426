package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/notify"
	"github.com/yobot/leadflow/internal/pipeline"
	"github.com/yobot/leadflow/internal/records"
	"github.com/yobot/leadflow/internal/store"
	"github.com/yobot/leadflow/pkg/airtable"
	"github.com/yobot/leadflow/pkg/apollo"
	"github.com/yobot/leadflow/pkg/hubspot"
	"github.com/yobot/leadflow/pkg/slack"
)

// pipelineEnv holds the initialized clients, stores, and the pipeline
// needed by the intake/batch/serve/reconcile commands.
type pipelineEnv struct {
	Store    store.Store
	Records  *records.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured local run-history store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the stores and API clients and builds the Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	airtableClient := airtable.NewClient(cfg.Airtable.Key, cfg.Airtable.BaseID,
		airtable.WithBaseURL(cfg.Airtable.BaseURL))

	mapping := records.DefaultMapping()
	if cfg.Airtable.MappingPath != "" {
		mapping, err = records.LoadMapping(cfg.Airtable.MappingPath)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load field mapping")
		}
	}

	recs := records.NewStore(airtableClient, cfg.Airtable.LeadsTable, cfg.Airtable.EventsTable,
		records.WithMapping(mapping))

	// Enrichment is optional: without a key the pipeline simply skips it.
	var apolloClient apollo.Client
	if cfg.Apollo.Key != "" {
		apolloClient = apollo.NewClient(cfg.Apollo.Key,
			apollo.WithBaseURL(cfg.Apollo.BaseURL),
			apollo.WithTimeout(time.Duration(cfg.Apollo.TimeoutSecs)*time.Second),
		)
	} else {
		zap.L().Warn("LEADFLOW_APOLLO_KEY not set, enrichment disabled")
	}

	crmClient := hubspot.NewClient(cfg.HubSpot.WebhookURL,
		hubspot.WithRateLimit(cfg.HubSpot.RateRPS))

	var chatClient slack.Client
	if cfg.Slack.WebhookURL != "" {
		chatClient = slack.NewClient(cfg.Slack.WebhookURL)
	} else {
		zap.L().Debug("slack webhook not configured, chat notifications disabled")
	}

	notifier := notify.New(recs, chatClient)
	p := pipeline.New(recs, st, apolloClient, crmClient, notifier)

	return &pipelineEnv{
		Store:    st,
		Records:  recs,
		Pipeline: p,
	}, nil
}

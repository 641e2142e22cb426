// Package pipeline orchestrates lead intake: enrich, dedup-check, write,
// CRM sync, audit log, notify.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/internal/records"
	"github.com/yobot/leadflow/pkg/apollo"
	"github.com/yobot/leadflow/pkg/hubspot"
)

// RecordStore is the records-store surface the pipeline writes leads through.
type RecordStore interface {
	FindDuplicate(ctx context.Context, lead model.Lead) records.Dedup
	Insert(ctx context.Context, lead model.Lead, enr model.Enrichment) (string, error)
	MarkDuplicate(ctx context.Context, recordID string) error
	UpdateExisting(ctx context.Context, recordID string, enr model.Enrichment) error
	SetSynced(ctx context.Context, recordID string, synced bool) error
}

// RunStore is the local run-history surface the pipeline records telemetry to.
type RunStore interface {
	CreateRun(ctx context.Context, lead model.Lead) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.IntakeResult) error
	ParkSyncRetry(ctx context.Context, entry model.SyncRetry) error
	ListSyncRetries(ctx context.Context, limit int) ([]model.SyncRetry, error)
	ResolveSyncRetry(ctx context.Context, id string) error
	BumpSyncRetry(ctx context.Context, id string, lastError string) error
}

// Notifier delivers event summaries to the audit log and chat.
type Notifier interface {
	Notify(ctx context.Context, ev model.Event)
}

// Pipeline sequences the intake steps for one lead at a time.
type Pipeline struct {
	recs     RecordStore
	runs     RunStore
	apollo   apollo.Client // nil when enrichment is unconfigured
	crm      hubspot.Client
	notifier Notifier
}

// New creates a Pipeline. apolloClient may be nil, which skips enrichment;
// notifier may be nil, which skips event delivery.
func New(recs RecordStore, runs RunStore, apolloClient apollo.Client, crm hubspot.Client, notifier Notifier) *Pipeline {
	return &Pipeline{
		recs:     recs,
		runs:     runs,
		apollo:   apolloClient,
		crm:      crm,
		notifier: notifier,
	}
}

// Run processes a single lead through the full sequence. The returned
// result is never nil; err is reserved for the fatal write-failure path.
// Enrichment, dedup-lookup, sync, and notify failures degrade gracefully
// and are reflected in the result and the final event instead.
func (p *Pipeline) Run(ctx context.Context, lead model.Lead) (*model.IntakeResult, error) {
	log := zap.L().With(
		zap.String("subject", lead.Subject()),
		zap.String("source", lead.Source),
	)
	log.Info("pipeline: processing lead")

	runID := p.createRun(ctx, lead)
	setStatus := func(status model.RunStatus) {
		if runID == "" {
			return
		}
		if err := p.runs.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: failed to update run status", zap.Error(err))
		}
	}

	result := &model.IntakeResult{}

	// Enrich: best-effort, never blocks the pipeline.
	setStatus(model.RunStatusEnriching)
	enr := p.enrich(ctx, &lead)
	result.Enriched = !enr.Empty()

	// Dedup check: fail-open. An unavailable lookup proceeds as new and is
	// called out in the event detail.
	setStatus(model.RunStatusDeduping)
	dedup := p.recs.FindDuplicate(ctx, lead)

	// Write: the only fatal step.
	setStatus(model.RunStatusWriting)
	var writeErr error
	if dedup.Status == records.DedupFound {
		result.Duplicate = true
		result.RecordID = dedup.RecordID
		if err := p.recs.MarkDuplicate(ctx, dedup.RecordID); err != nil {
			writeErr = err
		} else if err := p.recs.UpdateExisting(ctx, dedup.RecordID, enr); err != nil {
			writeErr = err
		}
	} else {
		id, err := p.recs.Insert(ctx, lead, enr)
		if err != nil {
			writeErr = err
		} else {
			result.RecordID = id
		}
	}

	if writeErr != nil {
		log.Error("pipeline: write failed", zap.Error(writeErr))
		result.Success = false
		result.Message = "Failed to save lead record"
		result.Error = writeErr.Error()
		p.finishRun(ctx, runID, result)
		p.notify(ctx, lead, model.EventLeadError, model.EventStatusError,
			fmt.Sprintf("write failed: %s", writeErr))
		return result, writeErr
	}

	// CRM sync: skipped without an email, non-fatal when it fails.
	setStatus(model.RunStatusSyncing)
	syncErr := p.sync(ctx, lead, result)

	// Final event and notification.
	result.Success = true
	evType := model.EventLeadProcessed
	if result.Duplicate {
		evType = model.EventLeadDuplicate
	}
	status := model.EventStatusSuccess
	detail := p.describe(result, dedup, syncErr)
	result.Message = detail
	if syncErr != nil {
		status = model.EventStatusPartial
	}

	p.finishRun(ctx, runID, result)
	p.notify(ctx, lead, evType, status, detail)

	log.Info("pipeline: lead processed",
		zap.String("record_id", result.RecordID),
		zap.Bool("duplicate", result.Duplicate),
		zap.Bool("enriched", result.Enriched),
		zap.Bool("synced", result.Synced),
	)
	return result, nil
}

// describe renders the human-readable outcome for the result message and
// event detail.
func (p *Pipeline) describe(result *model.IntakeResult, dedup records.Dedup, syncErr error) string {
	msg := "New lead saved"
	if result.Duplicate {
		msg = "Duplicate lead merged into existing record"
	}
	if result.Enriched {
		msg += ", enriched"
	}
	switch {
	case result.Synced:
		msg += ", synced to CRM"
	case syncErr != nil:
		msg += ". CRM sync Failed: " + syncErr.Error()
	default:
		msg += ". CRM sync skipped (no email)"
	}
	if dedup.Status == records.DedupUnavailable {
		msg += ". Duplicate check was unavailable; record may be a duplicate"
	}
	return msg
}

func (p *Pipeline) createRun(ctx context.Context, lead model.Lead) string {
	if p.runs == nil {
		return ""
	}
	run, err := p.runs.CreateRun(ctx, lead)
	if err != nil {
		// Run history is telemetry; intake proceeds without it.
		zap.L().Warn("pipeline: failed to create run record", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) finishRun(ctx context.Context, runID string, result *model.IntakeResult) {
	if runID == "" {
		return
	}
	if err := p.runs.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Warn("pipeline: failed to save run result", zap.Error(err))
	}
}

func (p *Pipeline) notify(ctx context.Context, lead model.Lead, evType model.EventType, status model.EventStatus, detail string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(ctx, model.Event{
		Type:    evType,
		Source:  lead.Source,
		Subject: lead.Subject(),
		Status:  status,
		Detail:  detail,
	})
}

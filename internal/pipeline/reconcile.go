package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/pkg/hubspot"
)

// ReconcileResult summarizes one reconcile pass over parked sync retries.
type ReconcileResult struct {
	Attempted int `json:"attempted"`
	Recovered int `json:"recovered"`
	Remaining int `json:"remaining"`
}

// Reconcile re-attempts the CRM forward for leads whose record was written
// but whose sync failed. Recovered entries get their sync flag patched and
// are removed from the retry table; the rest stay parked with a bumped
// attempt count.
func (p *Pipeline) Reconcile(ctx context.Context, limit int) (*ReconcileResult, error) {
	entries, err := p.runs.ListSyncRetries(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{}
	for _, entry := range entries {
		result.Attempted++
		log := zap.L().With(
			zap.String("record_id", entry.RecordID),
			zap.String("subject", entry.Lead.Subject()),
		)

		err := p.crm.SubmitLead(ctx, hubspot.LeadPayload{
			FirstName: entry.Lead.FirstName,
			LastName:  entry.Lead.LastName,
			Email:     entry.Lead.Email,
			Phone:     entry.Lead.Phone,
			Company:   entry.Lead.Company,
			Website:   entry.Lead.Domain,
			Source:    entry.Lead.Source,
		})
		if err != nil {
			result.Remaining++
			log.Warn("reconcile: CRM forward still failing", zap.Error(err))
			if bumpErr := p.runs.BumpSyncRetry(ctx, entry.ID, err.Error()); bumpErr != nil {
				log.Warn("reconcile: failed to bump retry", zap.Error(bumpErr))
			}
			continue
		}

		result.Recovered++
		if err := p.recs.SetSynced(ctx, entry.RecordID, true); err != nil {
			log.Warn("reconcile: failed to patch sync flag", zap.Error(err))
		}
		if err := p.runs.ResolveSyncRetry(ctx, entry.ID); err != nil {
			log.Warn("reconcile: failed to resolve retry", zap.Error(err))
		}
		p.notify(ctx, entry.Lead, model.EventSyncRecovered, model.EventStatusSuccess,
			"CRM sync recovered after earlier failure")
		log.Info("reconcile: sync recovered")
	}

	return result, nil
}

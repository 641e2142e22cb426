package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/pkg/hubspot"
)

// sync forwards the lead to the CRM intake webhook and patches the stored
// record's sync flag with the outcome. Skipped entirely when the lead has
// no email. A forward failure is non-fatal: the flag is set false, the
// lead is parked for reconciliation, and the error is returned so the
// caller can report partial success.
func (p *Pipeline) sync(ctx context.Context, lead model.Lead, result *model.IntakeResult) error {
	if lead.Email == "" {
		zap.L().Debug("pipeline: no email, skipping CRM sync",
			zap.String("subject", lead.Subject()),
		)
		return nil
	}

	err := p.crm.SubmitLead(ctx, hubspot.LeadPayload{
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		Website:   lead.Domain,
		Source:    lead.Source,
	})

	result.Synced = err == nil
	if flagErr := p.recs.SetSynced(ctx, result.RecordID, result.Synced); flagErr != nil {
		zap.L().Warn("pipeline: failed to patch sync flag",
			zap.String("record_id", result.RecordID),
			zap.Error(flagErr),
		)
	}

	if err != nil {
		zap.L().Warn("pipeline: CRM sync failed",
			zap.String("subject", lead.Subject()),
			zap.Error(err),
		)
		p.parkForReconcile(ctx, lead, result.RecordID, err)
		return err
	}
	return nil
}

// parkForReconcile records a written-but-unsynced lead so the reconcile
// command can retry the CRM forward later.
func (p *Pipeline) parkForReconcile(ctx context.Context, lead model.Lead, recordID string, syncErr error) {
	if p.runs == nil || recordID == "" {
		return
	}
	entry := model.SyncRetry{
		RecordID:  recordID,
		Lead:      lead,
		LastError: syncErr.Error(),
	}
	if err := p.runs.ParkSyncRetry(ctx, entry); err != nil {
		zap.L().Warn("pipeline: failed to park sync retry",
			zap.String("record_id", recordID),
			zap.Error(err),
		)
	}
}

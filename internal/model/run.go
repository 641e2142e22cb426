package model

import "time"

// RunStatus represents the current state of an intake run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusEnriching RunStatus = "enriching"
	RunStatusDeduping  RunStatus = "deduping"
	RunStatusWriting   RunStatus = "writing"
	RunStatusSyncing   RunStatus = "syncing"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the locally persisted history row for one pipeline invocation.
// The external records store remains the source of truth for leads; runs
// exist for operational visibility only.
type Run struct {
	ID        string        `json:"id"`
	Lead      Lead          `json:"lead"`
	Status    RunStatus     `json:"status"`
	Result    *IntakeResult `json:"result,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IntakeResult is the outcome of processing a single lead.
type IntakeResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RecordID  string `json:"record_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
	Enriched  bool   `json:"enriched"`
	Synced    bool   `json:"synced"`
	Error     string `json:"error,omitempty"`
}

// BatchResult aggregates per-lead outcomes for a batch run.
type BatchResult struct {
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	Results   []IntakeResult `json:"results"`
}

// SyncRetry is a parked lead whose record was written but whose CRM
// forward failed, awaiting the reconcile command.
type SyncRetry struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	Lead      Lead      `json:"lead"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
}

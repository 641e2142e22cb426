package model

import "time"

// EventStatus is the coarse outcome recorded on an audit event.
type EventStatus string

const (
	EventStatusSuccess EventStatus = "SUCCESS"
	EventStatusPartial EventStatus = "PARTIAL"
	EventStatusError   EventStatus = "ERROR"
)

// EventType identifies what kind of pipeline activity an event describes.
type EventType string

const (
	EventLeadProcessed EventType = "lead_processed"
	EventLeadDuplicate EventType = "lead_duplicate"
	EventLeadError     EventType = "lead_error"
	EventBatchComplete EventType = "batch_complete"
	EventSyncRecovered EventType = "sync_recovered"
)

// Event is one append-only audit record describing the outcome of
// processing a lead.
type Event struct {
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Subject   string      `json:"subject"`
	Status    EventStatus `json:"status"`
	Detail    string      `json:"detail"`
	Timestamp time.Time   `json:"timestamp"`
}

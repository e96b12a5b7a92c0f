package model

// EventKind names a committed lifecycle operation.
type EventKind string

const (
	EventStateCreated EventKind = "state_created"
	EventPoolCreated  EventKind = "pool_created"
	EventDeposited    EventKind = "deposited"
	EventWithdrawn    EventKind = "withdrawn"
)

// Event is the audit record emitted after an operation commits. Amounts are
// decimal strings in base units so consumers never lose precision.
type Event struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	Slug        string    `json:"slug,omitempty"`
	Pool        string    `json:"pool,omitempty"`
	Participant string    `json:"participant"`
	Asset       string    `json:"asset,omitempty"`
	Decimals    uint8     `json:"decimals,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Fee         string    `json:"fee,omitempty"`
	Net         string    `json:"net,omitempty"`
	FeeRate     uint16    `json:"fee_rate,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	Timestamp   uint64    `json:"timestamp"`
	RecordedAt  string    `json:"recorded_at"`
}

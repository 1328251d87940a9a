// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// RequestEventsQueue carries the lifecycle of funding and mentorship
// requests.
const RequestEventsQueue = "requests.events"

// Event types carried in RequestEvent.Type.
const (
	EventSubmitted = "request.submitted"
	EventDecided   = "request.decided"
)

// RequestEvent is published when a founder submits a request and when a
// supporter decides it. It holds enough for downstream consumers to log,
// notify or aggregate without querying the primary database.
type RequestEvent struct {
	Type          string `json:"type"`
	ApplicationID uint64 `json:"application_id"`
	Kind          string `json:"kind"`
	FounderID     uint64 `json:"founder_id"`
	FounderName   string `json:"founder_name"`
	SupporterID   uint64 `json:"supporter_id"`
	Stage         string `json:"stage"`
	Status        string `json:"status"`
	AmountCents   uint64 `json:"amount_cents,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

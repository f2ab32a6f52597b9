// Package jobs implements the asynchronous advisory pipeline: submission,
// one-shot dispatch, idempotent status polling, and the worker that drives a
// job from PROCESSING to a terminal state.
package jobs

// Kind identifies the work a payload asks for.
type Kind string

const (
	KindOutfit Kind = "outfit"
	KindTryOn  Kind = "try_on"
)

// Payload is the message handed to the asynchronous execution context. It
// carries the job key plus the parameters not re-derivable from the store.
type Payload struct {
	Kind         Kind   `json:"kind"`
	OwnerID      string `json:"ownerId"`
	JobKey       string `json:"jobKey"`
	TargetDate   string `json:"targetDate,omitempty"`
	AnchorItemID string `json:"anchorItemId,omitempty"`
}

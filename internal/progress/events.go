// Package progress defines the step-progress event stream emitted by the
// generation trigger and consumed by the sequencer. The contract is
// deliberately narrow: start a run, receive events, report nothing back.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paperforge/paperforge/internal/agent"
)

// EventType classifies a progress notification.
type EventType string

const (
	EventStepStarted   EventType = "step-started"
	EventStepCompleted EventType = "step-completed"
	EventStepFailed    EventType = "step-failed"
	EventDraftUpdated  EventType = "draft-updated"
)

// Event is a single progress notification for one agent. Sequence numbers are
// stamped by the router in publish order; consumers receiving events from
// overlapping sources must serialize by sequence, the stream itself does not
// reorder.
type Event struct {
	ID       string          `json:"event_id"`
	Sequence int64           `json:"sequence"`
	Agent    agent.Kind      `json:"agent"`
	Type     EventType       `json:"type"`
	Step     int             `json:"step"`
	Epoch    uint64          `json:"epoch"`
	Error    string          `json:"error,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Time     time.Time       `json:"time"`
}

// Normalize applies canonical formatting before validation.
func (e *Event) Normalize() {
	if e == nil {
		return
	}
	e.ID = strings.TrimSpace(e.ID)
	e.Error = strings.TrimSpace(e.Error)
}

// Validate enforces baseline requirements for published events.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("progress: event id is required")
	}
	if e.Agent == "" {
		return fmt.Errorf("progress: agent kind is required")
	}
	switch e.Type {
	case EventStepStarted, EventStepCompleted, EventStepFailed, EventDraftUpdated:
	default:
		return fmt.Errorf("progress: unknown event type %q", e.Type)
	}
	if e.Type != EventDraftUpdated && e.Step < 0 {
		return fmt.Errorf("progress: step index must be >= 0, got %d", e.Step)
	}
	return nil
}

// Request carries the seed metadata a generation run needs. Epochs snapshot
// each machine's reset generation at start time; the trigger stamps them onto
// every event so consumers can drop deliveries that outlived a reset.
type Request struct {
	ProjectID string                `json:"project_id"`
	Subject   string                `json:"subject"`
	Grade     string                `json:"grade"`
	Board     string                `json:"board"`
	Epochs    map[agent.Kind]uint64 `json:"epochs,omitempty"`
}

// Trigger starts a generation run and streams its progress. The channel is
// closed when the run finishes, successfully or not; failures surface as
// step-failed events, not as a closed-with-error channel.
type Trigger interface {
	Start(ctx context.Context, req Request) (<-chan Event, error)
}

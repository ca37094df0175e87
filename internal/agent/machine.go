// Package agent implements the per-stage state machines of the
// paper-generation pipeline. Each machine owns one step ledger plus
// agent-specific draft data and exposes the transition operations the
// sequencer drives. The four pipeline agents differ only in draft shape and
// step labels, so a single generic machine covers all of them.
package agent

import (
	"encoding/json"

	"github.com/paperforge/paperforge/internal/steps"
)

// RunStatus is the coarse-grained summary of one agent, derived from its
// ledger and never stored independently.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is an end state for an agent run.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DeriveRunStatus computes the run status from ledger contents: failed if any
// step failed, completed iff the final step completed, running if any step is
// in flight, otherwise idle.
func DeriveRunStatus(list []steps.Step) RunStatus {
	if len(list) == 0 {
		return StatusIdle
	}
	for _, step := range list {
		if step.Status == steps.StatusFailed {
			return StatusFailed
		}
	}
	if list[len(list)-1].Status == steps.StatusCompleted {
		return StatusCompleted
	}
	for _, step := range list {
		if step.Status == steps.StatusRunning {
			return StatusRunning
		}
	}
	return StatusIdle
}

// Agent is the draft-agnostic surface of a machine. The sequencer coordinates
// agents through this interface and never touches ledger internals directly.
type Agent interface {
	Kind() Kind
	Start()
	UpdateStep(index int, status steps.Status)
	SetError(message string)
	SetDraftJSON(payload json.RawMessage) error
	Reset()
	RunStatus() RunStatus
	Steps() []steps.Step
	CurrentIndex() int
	LastError() string
	Epoch() uint64
	StaleUpdates() int
}

// Machine is the state machine for one agent. It is owned by a single
// subscriber scope and mutated only on one logical thread; operations are
// synchronous and perform no I/O themselves.
type Machine[D any] struct {
	kind    Kind
	ledger  *steps.Ledger
	draft   D
	lastErr string
	epoch   uint64
	stale   int
	observe func()
}

// New constructs a machine in the idle state with every step pending.
func New[D any](kind Kind) *Machine[D] {
	return &Machine[D]{
		kind:   kind,
		ledger: steps.NewLedger(StepLabels(kind)),
	}
}

// Kind returns the agent's pipeline stage.
func (m *Machine[D]) Kind() Kind { return m.kind }

// SetObserver registers a callback fired synchronously after every mutation.
// At most one observer is supported; the owning scope wires it.
func (m *Machine[D]) SetObserver(fn func()) { m.observe = fn }

// Start clears any recorded error and marks step 0 running. Callers must
// guard against starting a non-idle machine; Start does not detect re-entry.
func (m *Machine[D]) Start() {
	m.lastErr = ""
	m.ledger.UpdateStep(0, steps.StatusRunning)
	m.notify()
}

// UpdateStep advances the ledger. Out-of-range indices are dropped silently
// and counted; they can legitimately arrive from callbacks delayed past a
// reset.
func (m *Machine[D]) UpdateStep(index int, status steps.Status) {
	if !m.ledger.UpdateStep(index, status) {
		m.stale++
		return
	}
	m.notify()
}

// SetError records the most recent failure message. It does not change the
// run status by itself; callers pair it with UpdateStep(i, StatusFailed).
func (m *Machine[D]) SetError(message string) {
	m.lastErr = message
	m.notify()
}

// SetDraft replaces the agent's working data.
func (m *Machine[D]) SetDraft(draft D) {
	m.draft = draft
	m.notify()
}

// SetDraftJSON decodes a draft payload delivered over the progress stream.
func (m *Machine[D]) SetDraftJSON(payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}
	var draft D
	if err := json.Unmarshal(payload, &draft); err != nil {
		return err
	}
	m.SetDraft(draft)
	return nil
}

// Draft returns the current working data.
func (m *Machine[D]) Draft() D { return m.draft }

// Reset returns the machine to its pristine idle snapshot. Safe in any state,
// including mid-running: it is the unconditional cleanup used when the owning
// view tears down. The epoch bump invalidates updates from in-flight work
// started before the reset.
func (m *Machine[D]) Reset() {
	var zero D
	m.ledger.Reset()
	m.draft = zero
	m.lastErr = ""
	m.epoch++
	m.notify()
}

// RunStatus derives the coarse status from the ledger.
func (m *Machine[D]) RunStatus() RunStatus {
	return DeriveRunStatus(m.ledger.Steps())
}

// Steps returns a snapshot of the ledger.
func (m *Machine[D]) Steps() []steps.Step { return m.ledger.Steps() }

// CurrentIndex returns the position of the last-touched step.
func (m *Machine[D]) CurrentIndex() int { return m.ledger.CurrentIndex() }

// LastError returns the most recent failure message, empty when none.
func (m *Machine[D]) LastError() string { return m.lastErr }

// Epoch returns the reset generation. Event producers stamp the epoch they
// observed at start; consumers drop events carrying an older value.
func (m *Machine[D]) Epoch() uint64 { return m.epoch }

// StaleUpdates returns how many out-of-range updates were dropped.
func (m *Machine[D]) StaleUpdates() int { return m.stale }

func (m *Machine[D]) notify() {
	if m.observe != nil {
		m.observe()
	}
}

// Package steps tracks progress through an agent's sub-pipeline as an
// ordered, fixed-length list of named steps.
package steps

// Status enumerates the lifecycle of a single pipeline step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// AllStatuses returns every valid status value. Consumers that key behavior
// off the status (display mappings, metrics) use this to verify coverage.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}
}

// Terminal reports whether the status is an end state for a step.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Step is one named unit of an agent's sub-pipeline. ID equals the step's
// position in its ledger and never changes.
type Step struct {
	ID     int    `json:"id"`
	Label  string `json:"label"`
	Status Status `json:"status"`
}

// Ledger is an ordered sequence of steps, fixed in length and labels for the
// lifetime of one agent. Only statuses and the current index mutate. Every
// mutation replaces the step value, so snapshots taken before an update stay
// untouched.
type Ledger struct {
	steps   []Step
	current int
}

// NewLedger builds a ledger with one pending step per label.
func NewLedger(labels []string) *Ledger {
	l := &Ledger{
		steps:   make([]Step, len(labels)),
		current: -1,
	}
	for i, label := range labels {
		l.steps[i] = Step{ID: i, Label: label, Status: StatusPending}
	}
	return l
}

// Len returns the number of steps in the ledger.
func (l *Ledger) Len() int {
	return len(l.steps)
}

// Steps returns a defensive copy of the current step values.
func (l *Ledger) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Step returns the step at index i, reporting false when i is out of range.
func (l *Ledger) Step(i int) (Step, bool) {
	if i < 0 || i >= len(l.steps) {
		return Step{}, false
	}
	return l.steps[i], true
}

// CurrentIndex returns the position of the last-touched step, or -1 when no
// step has been touched since construction or the last reset.
func (l *Ledger) CurrentIndex() int {
	return l.current
}

// UpdateStep sets the status of step i and records it as the current step.
// An out-of-range index is a silent no-op, not an error: stale indices can
// arrive from delayed callbacks after a reset. The return value lets callers
// count dropped updates for observability.
func (l *Ledger) UpdateStep(i int, status Status) bool {
	if i < 0 || i >= len(l.steps) {
		return false
	}
	step := l.steps[i]
	step.Status = status
	l.steps[i] = step
	l.current = i
	return true
}

// Reset returns every step to pending and clears the current index. The
// resulting ledger is indistinguishable from a freshly constructed one.
func (l *Ledger) Reset() {
	for i := range l.steps {
		step := l.steps[i]
		step.Status = StatusPending
		l.steps[i] = step
	}
	l.current = -1
}

// Labels returns the step labels in order.
func (l *Ledger) Labels() []string {
	out := make([]string, len(l.steps))
	for i, step := range l.steps {
		out[i] = step.Label
	}
	return out
}

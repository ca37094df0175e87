package agent

// Pipeline bundles the four agent machines in execution order. The page or
// orchestrator that constructs it is the owner; everything else receives
// non-owning references.
type Pipeline struct {
	Syllabus   *Machine[SyllabusDraft]
	PYQ        *Machine[PYQDraft]
	Pattern    *Machine[PatternDraft]
	Generation *Machine[GenerationDraft]
}

// NewPipeline constructs all four machines in their pristine idle state.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Syllabus:   New[SyllabusDraft](KindSyllabus),
		PYQ:        New[PYQDraft](KindPYQ),
		Pattern:    New[PatternDraft](KindPattern),
		Generation: New[GenerationDraft](KindGeneration),
	}
}

// ByKind returns the agent for a pipeline stage, nil for unknown kinds.
func (p *Pipeline) ByKind(kind Kind) Agent {
	switch kind {
	case KindSyllabus:
		return p.Syllabus
	case KindPYQ:
		return p.PYQ
	case KindPattern:
		return p.Pattern
	case KindGeneration:
		return p.Generation
	default:
		return nil
	}
}

// Agents returns the four agents in pipeline order.
func (p *Pipeline) Agents() []Agent {
	out := make([]Agent, 0, len(Kinds()))
	for _, kind := range Kinds() {
		out = append(out, p.ByKind(kind))
	}
	return out
}

// Reset restores every machine to its pristine idle snapshot.
func (p *Pipeline) Reset() {
	for _, a := range p.Agents() {
		a.Reset()
	}
}

// Status derives the pipeline-wide status the same way an agent's run status
// is derived from its ledger: failed if any agent failed, completed iff the
// final agent completed, running if any agent is in flight, otherwise idle.
func (p *Pipeline) Status() RunStatus {
	agents := p.Agents()
	for _, a := range agents {
		if a.RunStatus() == StatusFailed {
			return StatusFailed
		}
	}
	if agents[len(agents)-1].RunStatus() == StatusCompleted {
		return StatusCompleted
	}
	for _, a := range agents {
		if a.RunStatus() == StatusRunning {
			return StatusRunning
		}
	}
	return StatusIdle
}

// FailedAgent returns the most recently failing agent, nil when none failed.
// Later pipeline stages win so the surfaced error reflects the newest failure.
func (p *Pipeline) FailedAgent() Agent {
	var failed Agent
	for _, a := range p.Agents() {
		if a.RunStatus() == StatusFailed {
			failed = a
		}
	}
	return failed
}

package culler

import (
	"fmt"
	"io"

	"imageculler/logging"
)

// Stage identifies a pipeline stage. Stages run linearly; there is no
// branching back.
type Stage string

const (
	StageScoring           Stage = "scoring"
	StageGrouping          Stage = "grouping"
	StageSurvivorSelection Stage = "survivor-selection"
	StageQualityGate       Stage = "quality-gate"
	StageTrimming          Stage = "trimming"
	StageDone              Stage = "done"
)

// Event is one structured audit record of the decision engine: which image
// was removed at which stage and why, plus running counts. Events are side
// artifacts; they never feed back into the pipeline.
type Event struct {
	RunID     string
	Stage     Stage
	Image     string
	Reason    string
	Index     int // 1-based position within the stage, 0 when not applicable
	Total     int // total removals the stage will make, 0 when not applicable
	Remaining int // images still in play after this event
}

// EventSink receives audit events as they happen. Sinks must not block;
// the pipeline calls them inline.
type EventSink func(Event)

// NewReporter returns a sink that renders events as progress lines on w
// and mirrors each decision into the debug log.
func NewReporter(w io.Writer) EventSink {
	return func(e Event) {
		if e.Image != "" {
			logging.LogCullDecision(string(e.Stage), e.Image, e.Reason)
		}

		switch e.Stage {
		case StageSurvivorSelection:
			fmt.Fprintf(w, "    Removing %s from scored images (%d/%d)\n", e.Image, e.Index, e.Total)
		case StageQualityGate:
			fmt.Fprintf(w, "Removing %s with low %s score.\n", e.Image, e.Reason)
		case StageTrimming:
			fmt.Fprintf(w, "    Culling %s with low weighted score.\n", e.Image)
		}
	}
}

// emit forwards an event to the sink when one is configured.
func (p *Pipeline) emit(e Event) {
	if p.sink != nil {
		e.RunID = p.runID
		p.sink(e)
	}
}

package domain

// Stage is the position of an application in the hiring pipeline.
type Stage string

const (
	StageApplied   Stage = "Applied"
	StageScreening Stage = "Screening"
	StageInterview Stage = "Interview"
	StageOffer     Stage = "Offer"
	StageHired     Stage = "Hired"
	StageRejected  Stage = "Rejected"
)

// Stages lists every known stage in pipeline order.
var Stages = []Stage{
	StageApplied,
	StageScreening,
	StageInterview,
	StageOffer,
	StageHired,
	StageRejected,
}

// ParseStage accepts only the canonical stage names.
func ParseStage(value string) (Stage, bool) {
	for _, stage := range Stages {
		if string(stage) == value {
			return stage, true
		}
	}
	return "", false
}

func (s Stage) String() string {
	return string(s)
}

// StageGraph is the fixed set of allowed stage transitions. It has no
// mutators; build it once with NewStageGraph and share the pointer.
type StageGraph struct {
	edges map[Stage][]Stage
}

// NewStageGraph returns the hiring pipeline graph.
func NewStageGraph() *StageGraph {
	return &StageGraph{
		edges: map[Stage][]Stage{
			StageApplied:   {StageScreening, StageRejected},
			StageScreening: {StageInterview, StageRejected},
			StageInterview: {StageOffer, StageRejected},
			StageOffer:     {StageHired, StageRejected},
			StageHired:     {},
			StageRejected:  {},
		},
	}
}

// CanTransition reports whether next is directly reachable from current.
// Unknown stages on either side yield false.
func (g *StageGraph) CanTransition(current, next Stage) bool {
	for _, candidate := range g.edges[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Next returns a copy of the stages reachable from stage.
func (g *StageGraph) Next(stage Stage) []Stage {
	reachable := g.edges[stage]
	out := make([]Stage, len(reachable))
	copy(out, reachable)
	return out
}

// IsTerminal reports whether stage is a known stage without outgoing edges.
func (g *StageGraph) IsTerminal(stage Stage) bool {
	next, ok := g.edges[stage]
	return ok && len(next) == 0
}

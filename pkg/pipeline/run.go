package pipeline

// Stage names the three ordered pipeline phases.
type Stage string

const (
	StageSceneAnalysis      Stage = "SceneAnalysis"
	StageStrategyResolution Stage = "StrategyResolution"
	StageRegionExtraction   Stage = "RegionExtraction"
)

// State is the pipeline position within one run.
type State string

const (
	StateIdle   State = "Idle"
	StateDone   State = "Done"
	StateFailed State = "Failed"
)

// Run is the transient state of one process call. It is owned exclusively
// by that call, never persisted, and never shared across requests.
type Run struct {
	State     State
	Completed []string
	Errors    []string
}

func newRun() *Run {
	return &Run{State: StateIdle}
}

// enter advances the run into a stage.
func (r *Run) enter(stage Stage) {
	r.State = State(stage)
}

// complete records a stage as finished.
func (r *Run) complete(stage Stage) {
	r.Completed = append(r.Completed, string(stage))
}

// fail records the failing stage with its cause and moves the run to the
// absorbing Failed state.
func (r *Run) fail(stage Stage, err error) {
	r.Errors = append(r.Errors, string(stage)+": "+err.Error())
	r.State = StateFailed
}

package runtimereq

// RuntimeModuleStage orders materialized runtime modules in the rendered
// output (spec.md §4.6 "Runtime modules declare a stage ... which orders
// them in the output"), mirroring the teacher's init-fragment /
// pipeline-stage ordering idiom: lower stages are emitted first and later
// stages may assume earlier ones already ran.
type RuntimeModuleStage int

const (
	// StageBasic holds foundational runtime modules with no dependency on
	// any other runtime module (the module cache, the exports helpers).
	StageBasic RuntimeModuleStage = iota
	// StageNormal holds runtime modules that consume basic-stage state
	// (require, ensure-chunk).
	StageNormal
	// StageAttach holds runtime modules that wire themselves onto
	// already-constructed objects (HMR accept handlers).
	StageAttach
	// StageTrigger holds runtime modules that kick off execution once
	// everything else is in place (entry invocation).
	StageTrigger
)

func (s RuntimeModuleStage) String() string {
	switch s {
	case StageBasic:
		return "basic"
	case StageNormal:
		return "normal"
	case StageAttach:
		return "attach"
	case StageTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// RuntimeModule is a materialized chunk of bootstrap code a Requirements
// capability expands to (spec.md §4.6 "each capability implies a runtime
// module").
type RuntimeModule interface {
	// Name identifies the runtime module, used for dedup and as a
	// deterministic tiebreaker when two modules share a stage.
	Name() string
	Stage() RuntimeModuleStage
	// Requires returns further capabilities this runtime module itself
	// needs once materialized (spec.md §4.6 step 3 "and itself may add
	// further requirements. Iterate to fixed point.").
	Requires() Requirements
	// Generate renders this runtime module's source text.
	Generate() string
}

package domain

// RunState is the overall state of a homework assistance run.
type RunState string

const (
	RunStatePending   RunState = "PENDING"
	RunStateStarted   RunState = "STARTED"
	RunStateSucceeded RunState = "SUCCEEDED"
	RunStateFailed    RunState = "FAILED"
)

// StepState is the state of a single step within a run.
//
// PENDING -> STARTED -> {SUCCEEDED | FAILED}. SUCCEEDED and FAILED are
// terminal. A step may go straight from PENDING to a terminal state when its
// logic never marks STARTED explicitly.
type StepState string

const (
	StepStatePending   StepState = "PENDING"
	StepStateStarted   StepState = "STARTED"
	StepStateSucceeded StepState = "SUCCEEDED"
	StepStateFailed    StepState = "FAILED"
)

// StepName identifies which logic governs a step.
type StepName string

const (
	StepNameLabeling     StepName = "LABELING"
	StepNameExtractTasks StepName = "EXTRACT_TASKS"
	// StepNameExplanation has logic defined but is not in the default
	// registry; runs are not created with it.
	StepNameExplanation StepName = "EXPLANATION"
)

// MediaUploadState tracks the blob-store upload outcome for a Media row.
type MediaUploadState string

const (
	MediaUploadPending MediaUploadState = "PENDING"
	MediaUploadSuccess MediaUploadState = "SUCCESS"
	MediaUploadFailed  MediaUploadState = "FAILED"
)

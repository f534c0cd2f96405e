package model

// Stage is a step of a resize task's lifecycle.
type Stage int

const (
	StagePending Stage = iota
	StageDecoding
	StageResampling
	StageEncoding
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageDecoding:
		return "decoding"
	case StageResampling:
		return "resampling"
	case StageEncoding:
		return "encoding"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can follow s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// OutcomeStatus tags an Outcome as a success or a failure.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// Outcome is the single terminal result of a resize task.
type Outcome struct {
	Status     OutcomeStatus `json:"status"`
	OutputPath string        `json:"output_path,omitempty"` // set on success
	Message    string        `json:"message,omitempty"`     // set on failure
}

// Success builds a successful outcome for the written output path.
func Success(outputPath string) Outcome {
	return Outcome{Status: OutcomeSuccess, OutputPath: outputPath}
}

// Failure builds a failed outcome carrying a human-readable message.
func Failure(message string) Outcome {
	return Outcome{Status: OutcomeFailure, Message: message}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == OutcomeSuccess
}

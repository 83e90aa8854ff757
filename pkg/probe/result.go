package probe

import "time"

// Step identifies one scripted exchange in the smoke conversation.
type Step string

const (
	StepInitialize Step = "initialize"
	StepListTools  Step = "tools/list"
)

// Status classifies the outcome of a single step.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoResponse    Status = "no_response"    // stream closed before a full line arrived
	StatusTimeout       Status = "timeout"        // read deadline expired
	StatusMalformed     Status = "malformed"      // line received but not valid JSON
	StatusShapeMismatch Status = "shape_mismatch" // valid JSON missing expected fields
)

// StepResult records what happened during one step.
type StepResult struct {
	Step   Step
	Status Status
	Detail string
}

// Report is the ordered outcome of a full smoke run.
type Report struct {
	RunID   string
	Command []string
	Started time.Time
	Steps   []StepResult
}

// Passed reports whether every step completed with StatusOK.
func (r Report) Passed() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.Status != StatusOK {
			return false
		}
	}
	return true
}

package intent

// Snapshot is a captured frame of the device screen offered to the oracle.
type Snapshot struct {
	MIMEType string
	Data     []byte
}

// Empty reports whether the snapshot carries no image.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Data) == 0
}

// Reasons reported in Result.Reason.
const (
	ReasonUserCancelled   = "user_cancelled"
	ReasonRoutineNotFound = "routine_not_found"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Step    Step   `json:"step"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of executing an intent or a routine. Steps holds
// every step attempted, so a failed run carries its partial results.
type Result struct {
	Success bool         `json:"success"`
	Reason  string       `json:"reason,omitempty"`
	Steps   []StepResult `json:"steps,omitempty"`
}

// Cancelled returns the result for a declined confirmation.
func Cancelled() *Result {
	return &Result{Success: false, Reason: ReasonUserCancelled}
}

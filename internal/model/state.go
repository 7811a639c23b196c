package model

// State is the lifecycle position of one URL in the pipeline.
type State string

const (
	StatePending    State = "PENDING"
	StateFetched    State = "FETCHED"
	StateSegmented  State = "SEGMENTED"
	StateExtracted  State = "EXTRACTED"
	StateTranslated State = "TRANSLATED"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

var transitions = map[State][]State{
	StatePending:    {StateFetched, StateFailed},
	StateFetched:    {StateSegmented, StateFailed},
	StateSegmented:  {StateExtracted},
	StateExtracted:  {StateTranslated},
	StateTranslated: {StateDone},
}

// CanTransition reports whether next may follow s. FAILED is only reachable
// before segmentation; once a page is in hand the record is always produced.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Outcome is the per-URL result of a pipeline run. Record is nil unless
// State is DONE; Err is set only when State is FAILED.
type Outcome struct {
	URL      string
	State    State
	Record   *JobRecord
	Warnings []string
	Err      error
}

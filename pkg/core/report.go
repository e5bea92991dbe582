package core

import "time"

// State is a step of the run state machine
type State string

const (
	StateInit          State = "init"
	StateAuthenticated State = "authenticated"
	StateCleared       State = "cleared"
	StatePaginating    State = "paginating"
	StateEnriching     State = "enriching"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// SkipReason explains why an offer produced no row
type SkipReason string

const (
	SkipOfferUnavailable   SkipReason = "offer_unavailable"
	SkipProductIDMissing   SkipReason = "product_id_missing"
	SkipProductUnavailable SkipReason = "product_unavailable"
	SkipInsertFailed       SkipReason = "insert_failed"
)

// Report is the outcome of one run
type Report struct {
	RunID       string
	State       State
	Reason      string
	Found       int
	Filtered    int
	Processed   int
	Inserted    int
	Skipped     int
	SkipReasons map[SkipReason]int
	Deleted     int64
	Duration    time.Duration
}

// Failed reports whether the run ended in StateFailed
func (r *Report) Failed() bool {
	return r.State == StateFailed
}

func (r *Report) fail(reason string) {
	r.State = StateFailed
	r.Reason = reason
}

func (r *Report) skip(reason SkipReason) {
	r.Skipped++
	r.SkipReasons[reason]++
}

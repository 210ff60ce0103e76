package domain

// PushStatus is the outcome of submitting a single record.
type PushStatus string

// Per-item push outcomes.
const (
	PushCreated PushStatus = "created"
	PushUpdated PushStatus = "updated"
	PushSkipped PushStatus = "skipped"
	PushFailed  PushStatus = "failed"
)

// SkipReasonDuplicate marks a record skipped because an earlier record in
// the same push shared its idempotency key.
const SkipReasonDuplicate = "duplicate"

// PushResult describes what happened to one submitted record. A batch push
// returns results in input order, one per input record; callers correlate
// by position.
type PushResult struct {
	// Status is the tagged outcome variant.
	Status PushStatus

	// ID is the remote identifier, set for Created and Updated results.
	ID string

	// SkipReason explains a Skipped result.
	SkipReason string

	// Err is the failure cause for a Failed result.
	Err error

	// Truncation records fields that were cut before submission.
	// Truncation alone never fails a record.
	Truncation TruncationInfo
}

// Succeeded reports whether the record reached the remote.
func (r PushResult) Succeeded() bool {
	return r.Status == PushCreated || r.Status == PushUpdated
}

// Outcome classifies a whole reconciliation pass.
type Outcome string

// Pass outcomes. A pass never reports a bare success/failure boolean:
// Partial means some results were produced before a failure or some
// individual records failed.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// Stage is a phase of a reconciliation pass.
type Stage string

// Pass stages, in execution order.
const (
	StageIdle      Stage = "idle"
	StagePulling   Stage = "pulling"
	StageDiffing   Stage = "diffing"
	StagePushing   Stage = "pushing"
	StageCompleted Stage = "completed"
)

// Report is the structured result of one reconciliation pass.
type Report struct {
	// Kind is the record kind the pass reconciled.
	Kind Kind

	// Outcome classifies the pass as a whole.
	Outcome Outcome

	// Stage is the stage the pass reached. StageCompleted on success,
	// otherwise the stage that failed.
	Stage Stage

	// Results holds one PushResult per queued record, in queue order.
	// Populated even when the pass failed after pushing started.
	Results []PushResult

	// RemoteAdditions are records present remotely but absent from the
	// caller's snapshot. The engine does not apply them to local storage;
	// that strategy belongs to the caller.
	RemoteAdditions []Record

	// Cursor is the cursor to persist: advanced past the pull on a clean
	// pull, the previous cursor unchanged on a pull failure.
	Cursor Cursor

	// Pulled is the number of remote records observed during the pull.
	Pulled int

	// Err is the failure cause when Outcome is not OutcomeSucceeded
	// because a stage failed.
	Err error
}

// Created returns how many results were Created.
func (r Report) Created() int { return r.countStatus(PushCreated) }

// Updated returns how many results were Updated.
func (r Report) Updated() int { return r.countStatus(PushUpdated) }

// Skipped returns how many results were Skipped.
func (r Report) Skipped() int { return r.countStatus(PushSkipped) }

// Failed returns how many results were Failed.
func (r Report) Failed() int { return r.countStatus(PushFailed) }

func (r Report) countStatus(status PushStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

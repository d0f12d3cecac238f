// -----------------------------------------------------------------------
// Scrape Task - Lifecycle record for one asynchronous provider request
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a scrape task.
// Transitions are monotonic:
//
//	pending -> submitted -> processing -> retrieved -> processed
//	              |              |
//	              +----> failed <+
//
// Terminal states (processed, failed) never transition again.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"    // Created locally, not yet submitted to provider
	TaskStatusSubmitted  TaskStatus = "submitted"  // Provider acknowledged, request id assigned
	TaskStatusProcessing TaskStatus = "processing" // Results received, pipeline running
	TaskStatusRetrieved  TaskStatus = "retrieved"  // Raw results persisted
	TaskStatusProcessed  TaskStatus = "processed"  // Pipeline finished, counters stored
	TaskStatusFailed     TaskStatus = "failed"     // Provider error or timeout
)

// statusRank orders statuses for monotonic transition checks.
// Failed is reachable from any non-terminal state.
var statusRank = map[TaskStatus]int{
	TaskStatusPending:    0,
	TaskStatusSubmitted:  1,
	TaskStatusProcessing: 2,
	TaskStatusRetrieved:  3,
	TaskStatusProcessed:  4,
	TaskStatusFailed:     4,
}

// SearchParams describes what to ask the scraping provider for
type SearchParams struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// ScrapeTask tracks one scrape request through its provider lifecycle.
// RequestID is immutable once assigned; the provider-echoed id in webhook
// payloads is only used for lookup, never trusted to overwrite it.
type ScrapeTask struct {
	ID        string     `json:"id" badgerhold:"key"`
	RequestID string     `json:"request_id"` // Provider-assigned id, set exactly once on submission ack
	Owner     string     `json:"owner"`      // Who to notify about lifecycle events
	Kind      string     `json:"kind"`       // Task kind, e.g. "job_search"
	Status    TaskStatus `json:"status"`

	Params SearchParams `json:"params"`

	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ResultCount  int    `json:"result_count"`  // Raw postings returned by the provider
	QualityCount int    `json:"quality_count"` // Postings classified good after the pipeline
	Error        string `json:"error,omitempty"`
}

// NewScrapeTask creates a pending task for an owner and search
func NewScrapeTask(id, owner, kind string, params SearchParams) *ScrapeTask {
	return &ScrapeTask{
		ID:        id,
		Owner:     owner,
		Kind:      kind,
		Status:    TaskStatusPending,
		Params:    params,
		CreatedAt: time.Now(),
	}
}

// IsTerminal returns true if the task can never change state again
func (t *ScrapeTask) IsTerminal() bool {
	return t.Status == TaskStatusProcessed || t.Status == TaskStatusFailed
}

// CanTransitionTo reports whether moving to the target status respects
// the monotonic lifecycle. Terminal tasks accept no transitions.
func (t *ScrapeTask) CanTransitionTo(target TaskStatus) bool {
	if t.IsTerminal() {
		return false
	}
	from, ok := statusRank[t.Status]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// TransitionTo advances the task status, rejecting backwards moves
func (t *ScrapeTask) TransitionTo(target TaskStatus) error {
	if !t.CanTransitionTo(target) {
		return fmt.Errorf("invalid task transition %s -> %s for task %s", t.Status, target, t.ID)
	}
	t.Status = target
	return nil
}

// MarkSubmitted records the provider acknowledgement.
// The request id is set exactly once.
func (t *ScrapeTask) MarkSubmitted(requestID string) error {
	if t.RequestID != "" {
		return fmt.Errorf("task %s already has request id %s", t.ID, t.RequestID)
	}
	if err := t.TransitionTo(TaskStatusSubmitted); err != nil {
		return err
	}
	t.RequestID = requestID
	now := time.Now()
	t.SubmittedAt = &now
	return nil
}

// MarkFailed marks the task failed with an error message
func (t *ScrapeTask) MarkFailed(errorMsg string) {
	if t.IsTerminal() {
		return
	}
	t.Status = TaskStatusFailed
	t.Error = errorMsg
	now := time.Now()
	t.CompletedAt = &now
}

// MarkProcessed marks the task complete with final counters
func (t *ScrapeTask) MarkProcessed(resultCount, qualityCount int) {
	t.Status = TaskStatusProcessed
	t.ResultCount = resultCount
	t.QualityCount = qualityCount
	now := time.Now()
	t.CompletedAt = &now
}

// Age returns how long ago the task was submitted to the provider.
// Tasks never submitted return zero.
func (t *ScrapeTask) Age(now time.Time) time.Duration {
	if t.SubmittedAt == nil {
		return 0
	}
	return now.Sub(*t.SubmittedAt)
}

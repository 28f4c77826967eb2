package upload

import (
	"math"
	"time"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RowError is one rejected spreadsheet row.
type RowError struct {
	Row   int
	Error string
	Data  map[string]string
}

// BatchResult is the outcome of one batch, merged into a task in a single
// update.
type BatchResult struct {
	Processed    int
	SuccessCount int
	FailedCount  int
	Errors       []RowError
}

func (b BatchResult) Empty() bool {
	return b.Processed == 0
}

// Summary is the final tally of a run.
type Summary struct {
	Processed    int
	SuccessCount int
	FailedCount  int
	Errors       []RowError
}

func (s *Summary) Add(batch BatchResult) {
	s.Processed += batch.Processed
	s.SuccessCount += batch.SuccessCount
	s.FailedCount += batch.FailedCount
	s.Errors = append(s.Errors, batch.Errors...)
}

type Task struct {
	ID           string
	Entity       crm.Kind
	Status       Status
	Total        int
	Processed    int
	SuccessCount int
	FailedCount  int
	Errors       []RowError
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

func NewTask(id string, entity crm.Kind, total int, now time.Time) Task {
	return Task{
		ID:        id,
		Entity:    entity,
		Status:    StatusQueued,
		Total:     total,
		Errors:    []RowError{},
		CreatedAt: now,
	}
}

func (t *Task) Start(now time.Time) error {
	if t.Status.Terminal() {
		return ErrTaskFinalized
	}
	if t.Status == StatusProcessing {
		return nil
	}
	t.Status = StatusProcessing
	t.StartedAt = &now
	return nil
}

// Apply merges one batch into the counters. The batch must be internally
// consistent and must not push processed past total.
func (t *Task) Apply(batch BatchResult) error {
	if t.Status.Terminal() {
		return ErrTaskFinalized
	}
	if t.Status != StatusProcessing {
		return ErrTaskNotStarted
	}
	if batch.Processed < 0 ||
		batch.SuccessCount+batch.FailedCount != batch.Processed ||
		len(batch.Errors) != batch.FailedCount ||
		t.Processed+batch.Processed > t.Total {
		return ErrInvalidBatch
	}

	t.Processed += batch.Processed
	t.SuccessCount += batch.SuccessCount
	t.FailedCount += batch.FailedCount
	t.Errors = append(t.Errors, batch.Errors...)
	return nil
}

func (t *Task) Complete(now time.Time) error {
	if t.Status.Terminal() {
		return ErrTaskFinalized
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	return nil
}

func (t *Task) Fail(now time.Time, reason string) error {
	if t.Status.Terminal() {
		return ErrTaskFinalized
	}
	if reason == "" {
		reason = "upload failed"
	}
	t.Status = StatusFailed
	t.ErrorMessage = reason
	t.CompletedAt = &now
	return nil
}

// Percentage is processed/total as a percentage rounded to two decimals.
func (t Task) Percentage() float64 {
	if t.Total <= 0 {
		return 0
	}
	return math.Round(float64(t.Processed)/float64(t.Total)*100*100) / 100
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	out := t
	out.Errors = make([]RowError, len(t.Errors))
	for i, rowErr := range t.Errors {
		out.Errors[i] = rowErr
		if rowErr.Data != nil {
			data := make(map[string]string, len(rowErr.Data))
			for k, v := range rowErr.Data {
				data[k] = v
			}
			out.Errors[i].Data = data
		}
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		out.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

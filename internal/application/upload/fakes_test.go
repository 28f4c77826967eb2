package upload_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
)

// recordingSink keeps one task and every batch applied to it, checking the
// task invariants after each update.
type recordingSink struct {
	mu         sync.Mutex
	task       domain.Task
	batches    []domain.BatchResult
	violations []string
}

func newRecordingSink(total int) *recordingSink {
	return &recordingSink{task: domain.NewTask("task-1", crm.KindContacts, total, time.Now())}
}

func (s *recordingSink) Start(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.Start(time.Now())
}

func (s *recordingSink) ApplyBatch(ctx context.Context, taskID string, batch domain.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.task.Processed
	if err := s.task.Apply(batch); err != nil {
		return err
	}
	s.batches = append(s.batches, batch)

	if s.task.Processed < before {
		s.violations = append(s.violations, "processed decreased")
	}
	if s.task.SuccessCount+s.task.FailedCount != s.task.Processed {
		s.violations = append(s.violations, "counts do not partition processed")
	}
	if len(s.task.Errors) != s.task.FailedCount {
		s.violations = append(s.violations, "errors do not match failed_count")
	}
	return nil
}

func (s *recordingSink) Complete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.Complete(time.Now())
}

func (s *recordingSink) Fail(ctx context.Context, taskID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.Fail(time.Now(), reason)
}

func (s *recordingSink) snapshot() (domain.Task, []domain.BatchResult, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task.Clone(), append([]domain.BatchResult(nil), s.batches...), append([]string(nil), s.violations...)
}

// scriptedImporter decides each row's outcome from its "outcome" cell:
// "invalid" rejects the row, "error" returns a storage fault and "panic"
// panics. Anything else succeeds.
type scriptedImporter struct {
	mu       sync.Mutex
	prepared int
	imported int
	onImport func(row crm.Row)
}

func (i *scriptedImporter) Begin(schema crm.Schema) app.ImportSession {
	return &scriptedSession{importer: i}
}

type scriptedSession struct {
	importer *scriptedImporter
}

func (s *scriptedSession) Prepare(ctx context.Context, rows []crm.Row) error {
	s.importer.mu.Lock()
	defer s.importer.mu.Unlock()
	s.importer.prepared++
	return nil
}

func (s *scriptedSession) Import(ctx context.Context, row crm.Row) (int64, error) {
	s.importer.mu.Lock()
	s.importer.imported++
	hook := s.importer.onImport
	s.importer.mu.Unlock()

	if hook != nil {
		hook(row)
	}

	switch row.Cells["outcome"] {
	case "invalid":
		return 0, &crm.ValidationError{Row: row.Number, Reason: "'email' is required but empty", Data: row.Cells}
	case "error":
		return 0, errors.New("connection reset by peer")
	case "panic":
		panic("nil map write")
	default:
		return int64(row.Number), nil
	}
}

func makeRows(n int, outcome func(i int) string) []crm.Row {
	rows := make([]crm.Row, n)
	for i := range rows {
		cells := map[string]string{
			"name":  fmt.Sprintf("Contact %d", i),
			"email": fmt.Sprintf("contact%d@example.com", i),
		}
		if outcome != nil {
			if o := outcome(i); o != "" {
				cells["outcome"] = o
			}
		}
		rows[i] = crm.Row{Number: i + 2, Cells: cells}
	}
	return rows
}

type fakeWriter struct {
	mu      sync.Mutex
	records []crm.Record
	errs    map[string]error
}

func (w *fakeWriter) Insert(ctx context.Context, record crm.Record) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err, ok := w.errs[record.String("email")]; ok {
		return 0, err
	}
	w.records = append(w.records, record)
	return int64(len(w.records)), nil
}

type fakeLookup struct {
	existing map[string]struct{}
	calls    [][]string
	err      error
}

func (l *fakeLookup) ExistingKeys(ctx context.Context, kind crm.Kind, keys []string) (map[string]struct{}, error) {
	l.calls = append(l.calls, append([]string(nil), keys...))
	if l.err != nil {
		return nil, l.err
	}
	out := make(map[string]struct{})
	for _, key := range keys {
		if _, ok := l.existing[key]; ok {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

package upload_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
)

func TestBatchRunnerSmallUploadIsOneUpdate(t *testing.T) {
	t.Parallel()

	rows := makeRows(10, nil)
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 1000}, zaptest.NewLogger(t))

	summary, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.NoError(t, err)

	task, batches, violations := sink.snapshot()
	assert.Empty(t, violations)
	assert.Len(t, batches, 1)
	assert.Equal(t, 10, task.Processed)
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assert.Equal(t, 10, summary.SuccessCount)
}

func TestBatchRunnerLargeUploadWithInvalidRows(t *testing.T) {
	t.Parallel()

	rows := makeRows(12000, func(i int) string {
		if i%240 == 0 {
			return "invalid"
		}
		return ""
	})
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 1000}, nil)

	summary, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.NoError(t, err)

	task, batches, violations := sink.snapshot()
	assert.Empty(t, violations)
	require.Len(t, batches, 12)
	for _, batch := range batches {
		assert.LessOrEqual(t, batch.Processed, 1000)
	}
	assert.Equal(t, 12000, task.Processed)
	assert.Equal(t, 11950, task.SuccessCount)
	assert.Equal(t, 50, task.FailedCount)
	assert.Len(t, task.Errors, 50)
	assert.Equal(t, 2, task.Errors[0].Row)
	assert.Equal(t, summary.FailedCount, task.FailedCount)
}

func TestBatchRunnerUnexpectedErrorFailsAfterFlushingPartialBatch(t *testing.T) {
	t.Parallel()

	// Eight batches of 100; the 6th batch faults on its 31st row.
	rows := makeRows(800, func(i int) string {
		switch {
		case i == 530:
			return "error"
		case i == 510:
			return "invalid"
		default:
			return ""
		}
	})
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 100}, zaptest.NewLogger(t))

	_, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.Error(t, err)
	assert.True(t, errors.Is(err, app.ErrRunFailed))

	task, batches, violations := sink.snapshot()
	assert.Empty(t, violations)
	assert.Len(t, batches, 6)
	assert.Equal(t, domain.StatusFailed, task.Status)
	assert.Equal(t, 530, task.Processed)
	assert.Equal(t, 1, task.FailedCount)
	assert.Contains(t, task.ErrorMessage, "connection reset by peer")
	assert.Contains(t, task.ErrorMessage, "row 532")
}

func TestBatchRunnerRecoversPanic(t *testing.T) {
	t.Parallel()

	rows := makeRows(5, func(i int) string {
		if i == 2 {
			return "panic"
		}
		return ""
	})
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 1000}, nil)

	_, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.ErrorIs(t, err, app.ErrRunFailed)

	task, batches, _ := sink.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, 2, task.Processed)
	assert.Equal(t, domain.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorMessage, "panic")
}

func TestBatchRunnerFaultOnFirstRowOfBatchSkipsEmptyUpdate(t *testing.T) {
	t.Parallel()

	rows := makeRows(4, func(i int) string {
		if i == 2 {
			return "error"
		}
		return ""
	})
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 2}, nil)

	_, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.Error(t, err)

	task, batches, _ := sink.snapshot()
	assert.Len(t, batches, 1)
	assert.Equal(t, 2, task.Processed)
	assert.Equal(t, domain.StatusFailed, task.Status)
}

func TestBatchRunnerStopsBetweenBatchesOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rows := makeRows(30, nil)
	importer := &scriptedImporter{onImport: func(row crm.Row) {
		if row.Number == 11 {
			cancel()
		}
	}}
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(importer, app.BatchRunnerConfig{BatchSize: 10}, nil)

	_, err := runner.Run(ctx, "task-1", crm.KindContacts, rows, sink)
	require.ErrorIs(t, err, app.ErrRunFailed)

	task, batches, _ := sink.snapshot()
	assert.Len(t, batches, 1)
	assert.Equal(t, 10, task.Processed)
	assert.Equal(t, domain.StatusFailed, task.Status)
	assert.Contains(t, task.ErrorMessage, "interrupted")
}

func TestBatchRunnerUnknownEntityFailsTask(t *testing.T) {
	t.Parallel()

	sink := newRecordingSink(1)
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{}, nil)

	_, err := runner.Run(context.Background(), "task-1", crm.Kind("invoices"), makeRows(1, nil), sink)
	require.ErrorIs(t, err, app.ErrRunFailed)

	task, _, _ := sink.snapshot()
	assert.Equal(t, domain.StatusFailed, task.Status)
	assert.Equal(t, 1000, runner.BatchSize())
}

func TestBatchRunnerTerminalTaskIsFrozen(t *testing.T) {
	t.Parallel()

	rows := makeRows(3, nil)
	sink := newRecordingSink(len(rows))
	runner := app.NewBatchRunner(&scriptedImporter{}, app.BatchRunnerConfig{BatchSize: 2}, nil)

	_, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, sink)
	require.NoError(t, err)

	first, _, _ := sink.snapshot()
	assert.ErrorIs(t, sink.ApplyBatch(context.Background(), "task-1", domain.BatchResult{Processed: 0}), domain.ErrTaskFinalized)
	assert.ErrorIs(t, sink.Fail(context.Background(), "task-1", "late"), domain.ErrTaskFinalized)

	second, _, _ := sink.snapshot()
	assert.Equal(t, first, second)
}

// panickingSink panics on the first ApplyBatch and records everything else.
type panickingSink struct {
	*recordingSink
}

func (s panickingSink) ApplyBatch(ctx context.Context, taskID string, batch domain.BatchResult) error {
	panic("progress map corrupted")
}

type panickingImporter struct{}

func (panickingImporter) Begin(schema crm.Schema) app.ImportSession {
	panic("no session for schema")
}

func TestBatchRunnerPanicOutsideBatchFailsTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		importer app.RowImporter
		wrap     func(*recordingSink) app.ProgressSink
	}{
		{
			name:     "sink panics applying a batch",
			importer: &scriptedImporter{},
			wrap:     func(s *recordingSink) app.ProgressSink { return panickingSink{s} },
		},
		{
			name:     "importer panics opening a session",
			importer: panickingImporter{},
			wrap:     func(s *recordingSink) app.ProgressSink { return s },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := makeRows(3, nil)
			sink := newRecordingSink(len(rows))
			runner := app.NewBatchRunner(tt.importer, app.BatchRunnerConfig{BatchSize: 2}, zaptest.NewLogger(t))

			require.NotPanics(t, func() {
				_, err := runner.Run(context.Background(), "task-1", crm.KindContacts, rows, tt.wrap(sink))
				require.ErrorIs(t, err, app.ErrRunFailed)
				assert.Contains(t, err.Error(), "panic during upload")
			})

			task, batches, _ := sink.snapshot()
			assert.Empty(t, batches)
			assert.Equal(t, domain.StatusFailed, task.Status)
			assert.Contains(t, task.ErrorMessage, "panic during upload")
		})
	}
}

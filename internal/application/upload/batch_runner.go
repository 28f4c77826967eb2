package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
	"go.uber.org/zap"
)

const defaultBatchSize = 1000

// ProgressSink receives the lifecycle of one run. ApplyBatch is called
// exactly once per batch.
type ProgressSink interface {
	Start(ctx context.Context, taskID string) error
	ApplyBatch(ctx context.Context, taskID string, batch domain.BatchResult) error
	Complete(ctx context.Context, taskID string) error
	Fail(ctx context.Context, taskID string, reason string) error
}

type BatchRunnerConfig struct {
	BatchSize int
}

type BatchRunner struct {
	importer  RowImporter
	batchSize int
	logger    *zap.Logger
}

func NewBatchRunner(importer RowImporter, cfg BatchRunnerConfig, logger *zap.Logger) *BatchRunner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchRunner{
		importer:  importer,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

func (r *BatchRunner) BatchSize() int {
	return r.batchSize
}

// Run imports rows in input order, one batch at a time. Row validation
// failures are recorded and never stop the run; any other error, or a panic
// anywhere in the run, fails the task after flushing the rows of the current
// batch that were already evaluated. Committed rows are never rolled back.
func (r *BatchRunner) Run(ctx context.Context, taskID string, kind crm.Kind, rows []crm.Row, sink ProgressSink) (summary domain.Summary, err error) {
	log := r.logger.With(zap.String("task_id", taskID), zap.String("entity", string(kind)), zap.Int("total", len(rows)))
	summary = domain.Summary{Errors: []domain.RowError{}}

	defer func() {
		if recovered := recover(); recovered != nil {
			err = r.fail(ctx, log, sink, taskID, summary, fmt.Errorf("panic during upload: %v", recovered))
		}
	}()

	err = r.run(ctx, log, taskID, kind, rows, sink, &summary)
	return summary, err
}

func (r *BatchRunner) run(ctx context.Context, log *zap.Logger, taskID string, kind crm.Kind, rows []crm.Row, sink ProgressSink, summary *domain.Summary) error {
	schema, err := crm.SchemaFor(kind)
	if err != nil {
		return r.fail(ctx, log, sink, taskID, *summary, err)
	}

	if err := sink.Start(ctx, taskID); err != nil {
		return fmt.Errorf("start task: %w", err)
	}

	started := time.Now()
	log.Info("bulk upload started", zap.Int("batch_size", r.batchSize))
	session := r.importer.Begin(schema)

	for start := 0; start < len(rows); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, log, sink, taskID, *summary, fmt.Errorf("upload interrupted: %w", err))
		}

		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		result, batchErr := r.runBatch(ctx, session, rows[start:end])
		if batchErr != nil && result.Empty() {
			return r.fail(ctx, log, sink, taskID, *summary, batchErr)
		}

		if err := sink.ApplyBatch(detached(ctx), taskID, result); err != nil {
			return r.fail(ctx, log, sink, taskID, *summary, fmt.Errorf("record batch progress: %w", err))
		}
		summary.Add(result)

		if batchErr != nil {
			return r.fail(ctx, log, sink, taskID, *summary, batchErr)
		}
	}

	if err := sink.Complete(detached(ctx), taskID); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}

	log.Info("bulk upload completed",
		zap.Int("success_count", summary.SuccessCount),
		zap.Int("failed_count", summary.FailedCount),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// runBatch returns the tally of every row evaluated before an unexpected
// error, including one raised by a panic.
func (r *BatchRunner) runBatch(ctx context.Context, session ImportSession, rows []crm.Row) (result domain.BatchResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic during import: %v", recovered)
		}
	}()

	if err := session.Prepare(ctx, rows); err != nil {
		return result, err
	}

	for _, row := range rows {
		_, importErr := session.Import(ctx, row)
		if importErr == nil {
			result.Processed++
			result.SuccessCount++
			continue
		}

		var validationErr *crm.ValidationError
		if errors.As(importErr, &validationErr) {
			result.Processed++
			result.FailedCount++
			result.Errors = append(result.Errors, domain.RowError{
				Row:   validationErr.Row,
				Error: validationErr.Reason,
				Data:  validationErr.Data,
			})
			continue
		}

		return result, fmt.Errorf("import row %d: %w", row.Number, importErr)
	}

	return result, nil
}

func (r *BatchRunner) fail(ctx context.Context, log *zap.Logger, sink ProgressSink, taskID string, summary domain.Summary, cause error) error {
	reason := truncateReason(cause.Error())
	log.Error("bulk upload failed",
		zap.Error(cause),
		zap.Int("processed", summary.Processed),
		zap.Int("success_count", summary.SuccessCount),
		zap.Int("failed_count", summary.FailedCount),
	)

	if failErr := sink.Fail(detached(ctx), taskID, reason); failErr != nil {
		return fmt.Errorf("%w: %v; fail update failed: %v", ErrRunFailed, cause, failErr)
	}
	return fmt.Errorf("%w: %v", ErrRunFailed, cause)
}

// detached keeps progress writes working after the run context is cancelled
// so a shutdown still leaves the task in a terminal state.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}

// discardSink drops progress for inline runs that report their summary
// directly.
type discardSink struct{}

func (discardSink) Start(context.Context, string) error                          { return nil }
func (discardSink) ApplyBatch(context.Context, string, domain.BatchResult) error { return nil }
func (discardSink) Complete(context.Context, string) error                       { return nil }
func (discardSink) Fail(context.Context, string, string) error                   { return nil }

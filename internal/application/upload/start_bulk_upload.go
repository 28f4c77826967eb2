package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
	"go.uber.org/zap"
)

const (
	defaultMaxFileBytes       = 50 << 20
	defaultAsyncRowThreshold  = 5000
	defaultAsyncSizeThreshold = 2 << 20
)

var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xls":  {},
}

type StartBulkUploadInput struct {
	Entity         string
	FileName       string
	Size           int64
	Content        io.Reader
	AsyncRequested bool
}

type FailedRecord struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

type SyncResult struct {
	SuccessCount  int            `json:"success_count"`
	FailedCount   int            `json:"failed_count"`
	FailedRecords []FailedRecord `json:"failed_records"`
}

// StartBulkUploadOutput carries either the finished Result of an inline run
// or the TaskID of a detached one.
type StartBulkUploadOutput struct {
	Entity string
	Total  int
	Async  bool
	TaskID string
	Result *SyncResult
}

type StartBulkUpload interface {
	Execute(ctx context.Context, in StartBulkUploadInput) (StartBulkUploadOutput, error)
}

type sheetReader interface {
	Read(src io.Reader) (crm.Sheet, error)
}

type taskRegistry interface {
	ProgressSink
	Create(ctx context.Context, entity crm.Kind, total int) (domain.Task, error)
}

type uploadRunner interface {
	Run(ctx context.Context, taskID string, kind crm.Kind, rows []crm.Row, sink ProgressSink) (domain.Summary, error)
}

type jobLauncher interface {
	Submit(taskID string, job func(ctx context.Context))
}

type StartBulkUploadConfig struct {
	MaxFileBytes       int64
	AsyncRowThreshold  int
	AsyncSizeThreshold int64
}

type startBulkUpload struct {
	reader   sheetReader
	registry taskRegistry
	runner   uploadRunner
	launcher jobLauncher
	cfg      StartBulkUploadConfig
	logger   *zap.Logger
}

func NewStartBulkUpload(reader sheetReader, registry taskRegistry, runner uploadRunner, launcher jobLauncher, cfg StartBulkUploadConfig, logger *zap.Logger) StartBulkUpload {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.AsyncRowThreshold <= 0 {
		cfg.AsyncRowThreshold = defaultAsyncRowThreshold
	}
	if cfg.AsyncSizeThreshold <= 0 {
		cfg.AsyncSizeThreshold = defaultAsyncSizeThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &startBulkUpload{
		reader:   reader,
		registry: registry,
		runner:   runner,
		launcher: launcher,
		cfg:      cfg,
		logger:   logger,
	}
}

func (uc *startBulkUpload) Execute(ctx context.Context, in StartBulkUploadInput) (StartBulkUploadOutput, error) {
	kind, err := crm.ParseKind(in.Entity)
	if err != nil {
		return StartBulkUploadOutput{}, ErrUnknownEntity
	}
	schema, err := crm.SchemaFor(kind)
	if err != nil {
		return StartBulkUploadOutput{}, ErrUnknownEntity
	}

	fileName := strings.TrimSpace(in.FileName)
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]; !ok || in.Content == nil {
		return StartBulkUploadOutput{}, ErrInvalidUploadFile
	}
	if in.Size > uc.cfg.MaxFileBytes {
		return StartBulkUploadOutput{}, ErrFileTooLarge
	}

	// The declared size is advisory; the limit is enforced on what is read.
	data, err := io.ReadAll(io.LimitReader(in.Content, uc.cfg.MaxFileBytes+1))
	if err != nil {
		return StartBulkUploadOutput{}, fmt.Errorf("%w: %v", ErrInvalidUploadFile, err)
	}
	if int64(len(data)) > uc.cfg.MaxFileBytes {
		return StartBulkUploadOutput{}, ErrFileTooLarge
	}

	sheet, err := uc.reader.Read(bytes.NewReader(data))
	if err != nil {
		return StartBulkUploadOutput{}, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	if missing := schema.MissingColumns(sheet.Headers); len(missing) > 0 {
		return StartBulkUploadOutput{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(sheet.Rows) == 0 {
		return StartBulkUploadOutput{}, ErrEmptyUpload
	}

	out := StartBulkUploadOutput{Entity: string(kind), Total: len(sheet.Rows)}
	async := in.AsyncRequested ||
		len(sheet.Rows) > uc.cfg.AsyncRowThreshold ||
		int64(len(data)) > uc.cfg.AsyncSizeThreshold

	if !async {
		summary, runErr := uc.runner.Run(ctx, "", kind, sheet.Rows, discardSink{})
		out.Result = toSyncResult(summary)
		return out, runErr
	}

	task, err := uc.registry.Create(ctx, kind, len(sheet.Rows))
	if err != nil {
		return StartBulkUploadOutput{}, fmt.Errorf("%w: %v", ErrCreateTask, err)
	}

	rows := sheet.Rows
	uc.launcher.Submit(task.ID, func(runCtx context.Context) {
		// The outcome is already in the registry; the log covers the case
		// where the registry itself could not be updated.
		if _, err := uc.runner.Run(runCtx, task.ID, kind, rows, uc.registry); err != nil {
			uc.logger.Warn("background bulk upload ended with error",
				zap.String("task_id", task.ID),
				zap.String("entity", string(kind)),
				zap.Error(err),
			)
		}
	})

	uc.logger.Info("bulk upload queued",
		zap.String("task_id", task.ID),
		zap.String("entity", string(kind)),
		zap.Int("total", len(rows)),
		zap.Int("bytes", len(data)),
	)

	out.Async = true
	out.TaskID = task.ID
	return out, nil
}

func toSyncResult(summary domain.Summary) *SyncResult {
	return &SyncResult{
		SuccessCount:  summary.SuccessCount,
		FailedCount:   summary.FailedCount,
		FailedRecords: toFailedRecords(summary.Errors),
	}
}

func toFailedRecords(errs []domain.RowError) []FailedRecord {
	records := make([]FailedRecord, 0, len(errs))
	for _, rowErr := range errs {
		records = append(records, FailedRecord{Row: rowErr.Row, Error: rowErr.Error, Data: rowErr.Data})
	}
	return records
}

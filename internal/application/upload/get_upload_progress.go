package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
)

type GetUploadProgressInput struct {
	Entity string
	TaskID string
}

type GetUploadProgressOutput struct {
	TaskID             string         `json:"task_id"`
	Entity             string         `json:"entity"`
	Status             string         `json:"status"`
	Total              int            `json:"total"`
	Processed          int            `json:"processed"`
	ProgressPercentage float64        `json:"progress_percentage"`
	SuccessCount       int            `json:"success_count"`
	FailedCount        int            `json:"failed_count"`
	Errors             []FailedRecord `json:"errors"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	StartedAt          *time.Time     `json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
}

type GetUploadProgress interface {
	Execute(ctx context.Context, in GetUploadProgressInput) (GetUploadProgressOutput, error)
}

type taskReader interface {
	Get(ctx context.Context, taskID string) (domain.Task, error)
}

type getUploadProgress struct {
	tasks taskReader
}

func NewGetUploadProgress(tasks taskReader) GetUploadProgress {
	return &getUploadProgress{tasks: tasks}
}

func (uc *getUploadProgress) Execute(ctx context.Context, in GetUploadProgressInput) (GetUploadProgressOutput, error) {
	kind, err := crm.ParseKind(in.Entity)
	if err != nil {
		return GetUploadProgressOutput{}, ErrUnknownEntity
	}

	taskID := strings.TrimSpace(in.TaskID)
	if taskID == "" {
		return GetUploadProgressOutput{}, ErrTaskNotFound
	}

	task, err := uc.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return GetUploadProgressOutput{}, ErrTaskNotFound
		}
		return GetUploadProgressOutput{}, fmt.Errorf("%w: %v", ErrGetUploadProgress, err)
	}

	// A task is only visible under the entity it was uploaded for.
	if task.Entity != kind {
		return GetUploadProgressOutput{}, ErrTaskNotFound
	}

	return GetUploadProgressOutput{
		TaskID:             task.ID,
		Entity:             string(task.Entity),
		Status:             string(task.Status),
		Total:              task.Total,
		Processed:          task.Processed,
		ProgressPercentage: task.Percentage(),
		SuccessCount:       task.SuccessCount,
		FailedCount:        task.FailedCount,
		Errors:             toFailedRecords(task.Errors),
		ErrorMessage:       task.ErrorMessage,
		CreatedAt:          task.CreatedAt,
		StartedAt:          task.StartedAt,
		CompletedAt:        task.CompletedAt,
	}, nil
}

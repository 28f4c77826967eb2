package upload

import (
	"errors"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
)

var (
	ErrUnknownEntity      = crm.ErrUnknownEntity
	ErrTaskNotFound       = domain.ErrTaskNotFound
	ErrInvalidUploadFile  = errors.New("invalid upload file")
	ErrFileTooLarge       = errors.New("upload file too large")
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
	ErrMissingColumns     = errors.New("missing required columns")
	ErrEmptyUpload        = errors.New("upload contains no data rows")
	ErrCreateTask         = errors.New("failed to create upload task")
	ErrRunFailed          = errors.New("upload run failed")
	ErrGetUploadProgress  = errors.New("failed to get upload progress")
	ErrRenderTemplate     = errors.New("failed to render template")
)

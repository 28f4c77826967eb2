package echo

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	app "github.com/yash-jain-1224/crm-dashboard/internal/application/upload"
)

const taskNotFoundMessage = "Task not found. It may have expired (tasks are kept for 1 hour after completion)."

type UploadHandler struct {
	startUpload app.StartBulkUpload
	progress    app.GetUploadProgress
	template    app.GetTemplate
}

type syncUploadResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	SuccessCount  int                `json:"success_count"`
	FailedCount   int                `json:"failed_count"`
	FailedRecords []app.FailedRecord `json:"failed_records"`
}

type asyncUploadResponse struct {
	Success bool   `json:"success"`
	Async   bool   `json:"async"`
	TaskID  string `json:"task_id"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

func NewUploadHandler(startUpload app.StartBulkUpload, progress app.GetUploadProgress, template app.GetTemplate) *UploadHandler {
	return &UploadHandler{
		startUpload: startUpload,
		progress:    progress,
		template:    template,
	}
}

func (h *UploadHandler) BulkUpload(c echo.Context) error {
	entity := c.Param("entity")

	asyncRequested := false
	if raw := strings.TrimSpace(c.QueryParam("async_mode")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "bad_request", "async_mode must be a boolean")
		}
		asyncRequested = parsed
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, http.StatusBadRequest, "missing_file", "multipart field \"file\" is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_file", "uploaded file could not be opened")
	}
	defer file.Close()

	out, err := h.startUpload.Execute(c.Request().Context(), app.StartBulkUploadInput{
		Entity:         entity,
		FileName:       fileHeader.Filename,
		Size:           fileHeader.Size,
		Content:        file,
		AsyncRequested: asyncRequested,
	})
	if err != nil {
		return uploadError(c, out, err)
	}

	if out.Async {
		return c.JSON(http.StatusAccepted, asyncUploadResponse{
			Success: true,
			Async:   true,
			TaskID:  out.TaskID,
			Total:   out.Total,
			Message: fmt.Sprintf(
				"Processing %d records in background. Use /api/v1/%s/upload-progress/%s to check status.",
				out.Total, out.Entity, out.TaskID,
			),
		})
	}

	result := out.Result
	if result == nil {
		result = &app.SyncResult{FailedRecords: []app.FailedRecord{}}
	}
	return c.JSON(http.StatusOK, syncUploadResponse{
		Success:       true,
		Message:       fmt.Sprintf("Processed %d records", out.Total),
		SuccessCount:  result.SuccessCount,
		FailedCount:   result.FailedCount,
		FailedRecords: result.FailedRecords,
	})
}

func uploadError(c echo.Context, out app.StartBulkUploadOutput, err error) error {
	switch {
	case errors.Is(err, app.ErrUnknownEntity):
		return writeError(c, http.StatusNotFound, "unknown_entity", "unknown entity type")
	case errors.Is(err, app.ErrInvalidUploadFile):
		return writeError(c, http.StatusBadRequest, "invalid_file", "file must be an Excel workbook (.xlsx, .xls or .xlsm)")
	case errors.Is(err, app.ErrFileTooLarge):
		return writeError(c, http.StatusRequestEntityTooLarge, "file_too_large", "file size must not exceed 50MB")
	case errors.Is(err, app.ErrUnreadableWorkbook):
		return writeError(c, http.StatusBadRequest, "unreadable_file", "file could not be read as an Excel workbook")
	case errors.Is(err, app.ErrMissingColumns):
		return writeError(c, http.StatusBadRequest, "missing_columns", err.Error())
	case errors.Is(err, app.ErrEmptyUpload):
		return writeError(c, http.StatusBadRequest, "empty_upload", "file contains no data rows")
	case errors.Is(err, app.ErrRunFailed):
		body := &errorBody{Code: "upload_failed", Message: "Upload failed: " + err.Error()}
		if out.Result != nil {
			body.Details = out.Result
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: body})
	default:
		return writeError(c, http.StatusInternalServerError, "internal_error", "failed to process upload")
	}
}

func (h *UploadHandler) UploadProgress(c echo.Context) error {
	out, err := h.progress.Execute(c.Request().Context(), app.GetUploadProgressInput{
		Entity: c.Param("entity"),
		TaskID: c.Param("task_id"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownEntity):
			return writeError(c, http.StatusNotFound, "unknown_entity", "unknown entity type")
		case errors.Is(err, app.ErrTaskNotFound):
			return writeError(c, http.StatusNotFound, "task_not_found", taskNotFoundMessage)
		default:
			return writeError(c, http.StatusInternalServerError, "internal_error", "failed to get upload progress")
		}
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) Template(c echo.Context) error {
	out, err := h.template.Execute(c.Request().Context(), app.GetTemplateInput{Entity: c.Param("entity")})
	if err != nil {
		if errors.Is(err, app.ErrUnknownEntity) {
			return writeError(c, http.StatusNotFound, "unknown_entity", "unknown entity type")
		}
		return writeError(c, http.StatusInternalServerError, "internal_error", "failed to render template")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", out.FileName))
	return c.Blob(http.StatusOK, out.ContentType, out.Content)
}

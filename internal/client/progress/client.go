package progress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RowFailure is one rejected row as reported by the server.
type RowFailure struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// UploadResult covers both the synchronous and the asynchronous upload
// responses; Async tells which fields are meaningful.
type UploadResult struct {
	Success       bool         `json:"success"`
	Async         bool         `json:"async"`
	TaskID        string       `json:"task_id"`
	Total         int          `json:"total"`
	Message       string       `json:"message"`
	SuccessCount  int          `json:"success_count"`
	FailedCount   int          `json:"failed_count"`
	FailedRecords []RowFailure `json:"failed_records"`
}

type Snapshot struct {
	TaskID             string       `json:"task_id"`
	Entity             string       `json:"entity"`
	Status             TaskStatus   `json:"status"`
	Total              int          `json:"total"`
	Processed          int          `json:"processed"`
	ProgressPercentage float64      `json:"progress_percentage"`
	SuccessCount       int          `json:"success_count"`
	FailedCount        int          `json:"failed_count"`
	Errors             []RowFailure `json:"errors"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	StartedAt          *time.Time   `json:"started_at"`
	CompletedAt        *time.Time   `json:"completed_at"`
}

type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

type UploadRequest struct {
	Entity   string
	FileName string
	Size     int64
	Content  io.Reader
	Async    bool
}

// HTTPError is a non-2xx answer carrying the server's error envelope.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

const taskNotFoundCode = "task_not_found"

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ uploadAPI = (*Client)(nil)

// Client talks to the bulk upload endpoints of the CRM API.
type Client struct {
	baseURL string
	http    *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: resty.New().
			SetHeader("Accept", "application/json").
			SetTimeout(timeout),
	}
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	var out UploadResult
	var apiErr errorEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("async_mode", strconv.FormatBool(req.Async)).
		SetFileReader("file", req.FileName, req.Content).
		SetResult(&out).
		SetError(&apiErr).
		Post(c.endpoint(req.Entity, "bulk-upload"))
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", req.FileName, err)
	}
	if resp.IsError() {
		return UploadResult{}, toHTTPError(resp, apiErr)
	}
	return out, nil
}

// Progress fetches one snapshot. Only a 404 carrying the task_not_found code
// is reported as ErrTaskNotFound; any other 404 is an *HTTPError.
func (c *Client) Progress(ctx context.Context, entity, taskID string) (Snapshot, error) {
	var out Snapshot
	var apiErr errorEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get(c.endpoint(entity, "upload-progress", taskID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("get progress: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound && apiErr.Error.Code == taskNotFoundCode {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if resp.IsError() {
		return Snapshot{}, toHTTPError(resp, apiErr)
	}
	return out, nil
}

func (c *Client) Template(ctx context.Context, entity string) ([]byte, error) {
	var apiErr errorEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&apiErr).
		Get(c.endpoint(entity, "template"))
	if err != nil {
		return nil, fmt.Errorf("download template: %w", err)
	}
	if resp.IsError() {
		return nil, toHTTPError(resp, apiErr)
	}
	return resp.Body(), nil
}

func (c *Client) endpoint(entity string, parts ...string) string {
	segments := []string{c.baseURL, "api/v1", url.PathEscape(entity)}
	for _, part := range parts {
		segments = append(segments, url.PathEscape(part))
	}
	return strings.Join(segments, "/")
}

func toHTTPError(resp *resty.Response, envelope errorEnvelope) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode(),
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
	}
}

package progress

import "errors"

var (
	ErrInvalidFile  = errors.New("invalid upload file")
	ErrFileTooLarge = errors.New("upload file too large")
	ErrTaskNotFound = errors.New("upload task not found")
	ErrConnectivity = errors.New("lost connection to upload server")
	ErrCancelled    = errors.New("upload cancelled")
	ErrBusy         = errors.New("an upload is already in progress")
	ErrInvalidState = errors.New("operation not allowed in current state")
)

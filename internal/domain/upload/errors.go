package upload

import "errors"

var (
	ErrTaskNotFound   = errors.New("upload task not found")
	ErrTaskFinalized  = errors.New("upload task already finished")
	ErrTaskNotStarted = errors.New("upload task not started")
	ErrInvalidBatch   = errors.New("invalid batch result")
)

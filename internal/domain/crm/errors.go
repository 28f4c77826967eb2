package crm

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrDuplicateKey  = errors.New("duplicate natural key")
)

// ValidationError describes why a single spreadsheet row was rejected. It
// never aborts the surrounding import.
type ValidationError struct {
	Row    int
	Reason string
	Data   map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

package assets

import (
	"fmt"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

// ValidationError is returned when a file does not match its slot's contract
type ValidationError struct {
	Kind   models.SlotKind
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Name)
}

// ProcessingError is returned when an accepted image cannot be decoded or re-encoded
type ProcessingError struct {
	Name string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed for %s: %v", e.Name, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

package calc

import (
	"errors"
	"strings"
)

// Sentinel errors for the calculation data model.
var (
	ErrEmptyCalculatorID = errors.New("calc: calculator id is required")
	ErrInvalidDescriptor = errors.New("calc: descriptor is invalid")
)

// ValidationError reports every constraint violated by an input map. It
// always carries the complete issue list, never just the first failure.
type ValidationError struct {
	CalculatorID string
	Issues       []Issue
}

func (e *ValidationError) Error() string {
	return "calc: validation failed for " + e.CalculatorID + ": " + strings.Join(e.Messages(), "; ")
}

// Messages returns the violation messages in declaration order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return msgs
}

// CheckDescriptor verifies a descriptor is well-formed before registration:
// non-empty ID, unique non-empty input IDs, and coherent min/max bounds.
func CheckDescriptor(desc Descriptor) error {
	if strings.TrimSpace(desc.ID) == "" {
		return ErrEmptyCalculatorID
	}

	seen := make(map[string]bool, len(desc.Inputs))
	for _, spec := range desc.Inputs {
		if strings.TrimSpace(spec.ID) == "" {
			return errors.Join(ErrInvalidDescriptor, errors.New("calc: input spec has empty id"))
		}
		if seen[spec.ID] {
			return errors.Join(ErrInvalidDescriptor, errors.New("calc: duplicate input id "+spec.ID))
		}
		seen[spec.ID] = true

		if spec.Min != nil && spec.Max != nil && *spec.Min > *spec.Max {
			return errors.Join(ErrInvalidDescriptor, errors.New("calc: input "+spec.ID+" has min greater than max"))
		}
	}
	return nil
}

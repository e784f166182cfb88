package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	BatchID ID
	TaskID  ID
)

// String conversions for domain IDs
func (id BatchID) String() string { return ID(id).String() }
func (id TaskID) String() string  { return ID(id).String() }

// ParseBatchID parses a string into BatchID
func ParseBatchID(s string) (BatchID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("batch ID cannot be empty")
	}
	return BatchID(s), nil
}

// ParseTaskID parses a string into TaskID
func ParseTaskID(s string) (TaskID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("task ID cannot be empty")
	}
	return TaskID(s), nil
}

package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDString tests ID string conversion
func TestIDString(t *testing.T) {
	id := ID("test-123")
	if id.String() != "test-123" {
		t.Errorf("Expected String() to return 'test-123', got '%s'", id.String())
	}
}

// TestParseTaskID tests task ID parsing rejects blanks
func TestParseTaskID(t *testing.T) {
	if _, err := ParseTaskID("  "); err == nil {
		t.Error("Expected error for blank task ID")
	}
	id, err := ParseTaskID("task-7")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id.String() != "task-7" {
		t.Errorf("Expected 'task-7', got '%s'", id)
	}
}

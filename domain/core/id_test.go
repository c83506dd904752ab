package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	// Generate many IDs
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

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestHashStringsBoundaries tests that part boundaries are collision-safe
func TestHashStringsBoundaries(t *testing.T) {
	a := HashStrings("ab", "c")
	b := HashStrings("a", "bc")
	if a.Equals(b) {
		t.Error("Expected different hashes for different part boundaries")
	}

	if !HashStrings("x", "y").Equals(HashStrings("x", "y")) {
		t.Error("Expected identical hashes for identical parts")
	}
}

// TestContractViolationPredicates tests the error taxonomy helpers
func TestContractViolationPredicates(t *testing.T) {
	if !IsContractViolation(NewKindMismatchError("state_frequency", "rare_outcome")) {
		t.Error("Expected kind mismatch to be a contract violation")
	}
	if !IsContractViolation(NewUnknownKindError("bogus")) {
		t.Error("Expected unknown kind to be a contract violation")
	}
	if !IsContractViolation(ErrNoBinding) {
		t.Error("Expected missing binding to be a contract violation")
	}
	if IsContractViolation(ErrSnapshotNotFound) {
		t.Error("Did not expect not-found to be a contract violation")
	}
	if !IsNotFoundError(NewNotFoundError("snapshot", "abc")) {
		t.Error("Expected constructed not-found error to match ErrNotFound")
	}
	if !IsCorruptSnapshot(NewCorruptSnapshotError("bad envelope", nil)) {
		t.Error("Expected corrupt snapshot error to match ErrCorruptSnapshot")
	}
}

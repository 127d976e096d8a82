package id

import (
	"encoding/hex"
	"testing"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	// Check format
	if len(id) != SuffixBytes*2 {
		t.Errorf("expected %d hex characters, got %d (%s)", SuffixBytes*2, len(id), id)
	}
	if _, err := hex.DecodeString(id); err != nil {
		t.Errorf("expected hex suffix, got %s", id)
	}

	// Check uniqueness
	id2 := Generate()
	if id == id2 {
		t.Error("expected different IDs for consecutive calls")
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

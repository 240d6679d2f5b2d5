package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/tictactoe-rooms/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Queued values are returned first; once a queue is drained it falls back to
// a deterministic sequence so room ids stay unique without queueing.
type MockRandom struct {
	mu sync.Mutex

	stringResults []string
	stringIndex   int
	stringSeq     int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result, or "ID<n>" padded to length
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex < len(r.stringResults) {
		result := r.stringResults[r.stringIndex]
		r.stringIndex++
		return result
	}
	r.stringSeq++
	return fmt.Sprintf("ID%0*d", max(length-2, 1), r.stringSeq)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}

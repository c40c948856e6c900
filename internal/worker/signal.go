package worker

import (
	"sync"
)

// cancelSignal is the per-job stop request. The execution loop polls it
// at the top of each iteration; setting it never interrupts a file
// mid-index. The caller that sets it owns the resulting status
// transition, the loop only stops.
type cancelSignal struct {
	mu  sync.Mutex
	set bool
}

func newCancelSignal() *cancelSignal {
	return &cancelSignal{}
}

func (s *cancelSignal) Set() {
	s.mu.Lock()
	s.set = true
	s.mu.Unlock()
}

// Clear rearms the signal for the next run.
func (s *cancelSignal) Clear() {
	s.mu.Lock()
	s.set = false
	s.mu.Unlock()
}

func (s *cancelSignal) Signalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

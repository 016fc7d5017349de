package launch

import "sync"

// Slot hands the validated launch file to the editor exactly once.
type Slot struct {
	mu      sync.Mutex
	pending *PendingLaunchFile
}

// NewSlot creates a slot holding pending, which may be nil.
func NewSlot(pending *PendingLaunchFile) *Slot {
	return &Slot{pending: pending}
}

// Take returns the pending launch file and empties the slot. Every later
// call returns nil.
func (s *Slot) Take() *PendingLaunchFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

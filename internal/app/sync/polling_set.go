package sync

import (
	"sync"

	"github.com/samber/lo"
)

// PollingSet is the set of job ids whose external status is being watched.
// Membership is explicit: ids enter on submission or restart recovery and
// leave only when a terminal status lands or the failure budget runs out.
type PollingSet struct {
	mu       sync.Mutex
	members  map[string]struct{}
	failures map[string]int
}

// NewPollingSet creates an empty polling set.
func NewPollingSet() *PollingSet {
	return &PollingSet{
		members:  make(map[string]struct{}),
		failures: make(map[string]int),
	}
}

// Add inserts a job id. Idempotent.
func (s *PollingSet) Add(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[jobID] = struct{}{}
}

// Remove drops a job id and its failure counter.
func (s *PollingSet) Remove(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, jobID)
	delete(s.failures, jobID)
}

// Contains reports membership.
func (s *PollingSet) Contains(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[jobID]
	return ok
}

// Len returns the current member count.
func (s *PollingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Snapshot returns the member ids at this instant. The slice is detached so
// the poll loop can iterate without holding the lock.
func (s *PollingSet) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Keys(s.members)
}

// RecordFailure bumps the consecutive failure counter and returns its new
// value.
func (s *PollingSet) RecordFailure(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[jobID]++
	return s.failures[jobID]
}

// ClearFailures resets the counter after a successful poll.
func (s *PollingSet) ClearFailures(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, jobID)
}

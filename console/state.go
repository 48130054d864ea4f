package console

import (
	"slices"
	"sync"
)

// snapshots holds the current value of a workflow state and hands every new
// value to the subscribers, outside the lock.
type snapshots[S any] struct {
	mu        sync.Mutex
	state     S
	listeners []func(S)
}

func (s *snapshots[S]) get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *snapshots[S]) update(fn func(S) S) S {
	s.mu.Lock()
	s.state = fn(s.state)
	st := s.state
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return st
}

func (s *snapshots[S]) subscribe(fn func(S)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

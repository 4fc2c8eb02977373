package background

import "sync"

type backgroundServerStatus struct {
	mu         sync.RWMutex
	isStarting bool
	isStarted  bool
	isStopping bool
}

func (s *backgroundServerStatus) getIsStarting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStarting
}

func (s *backgroundServerStatus) getIsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStarted
}

func (s *backgroundServerStatus) getIsStopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStopping
}

func (s *backgroundServerStatus) set(isStarting, isStarted, isStopping bool) {
	s.mu.Lock()
	s.isStarting = isStarting
	s.isStarted = isStarted
	s.isStopping = isStopping
	s.mu.Unlock()
}

package queue

import "sync"

// roomLocks serializes validate→persist→broadcast per room so a broadcast
// can never reflect a state older than the mutation that triggered it.
// Distinct rooms proceed fully in parallel.
type roomLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for roomID and returns its release func.
func (l *roomLocks) lock(roomID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package repository

import (
	"sync"
	"sync/atomic"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
)

// SnapshotStore keeps only the latest snapshot per window. Stored
// snapshots are shared with readers and must not be modified.
type SnapshotStore struct {
	mu      sync.RWMutex
	latest  map[string]*atomic.Pointer[models.Snapshot]
	updated atomic.Int64 // unix nanos of the last Put
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{latest: make(map[string]*atomic.Pointer[models.Snapshot])}
}

func (s *SnapshotStore) Put(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	s.slot(snap.Window.Label).Store(snap)
	s.updated.Store(time.Now().UnixNano())
}

func (s *SnapshotStore) Latest(window string) (*models.Snapshot, bool) {
	s.mu.RLock()
	p, ok := s.latest[window]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	snap := p.Load()
	return snap, snap != nil
}

// LastUpdated is the time of the most recent Put, zero if none.
func (s *SnapshotStore) LastUpdated() time.Time {
	n := s.updated.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *SnapshotStore) slot(window string) *atomic.Pointer[models.Snapshot] {
	s.mu.RLock()
	p, ok := s.latest[window]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok = s.latest[window]; ok {
		return p
	}
	p = &atomic.Pointer[models.Snapshot]{}
	s.latest[window] = p
	return p
}

var _ drepo.SnapshotStore = (*SnapshotStore)(nil)

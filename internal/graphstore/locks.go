package graphstore

import (
	"hash/fnv"
	"sync"
)

// stripedLocks gives per-logical-id mutual exclusion without allocating one
// mutex per id: a fixed set of shards, each guarding every logical id that
// hashes into it.
type stripedLocks struct {
	shards []sync.Mutex
}

func newStripedLocks(n int) *stripedLocks {
	return &stripedLocks{shards: make([]sync.Mutex, n)}
}

func (s *stripedLocks) shard(logicalID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(logicalID))
	return &s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Lock acquires the stripe for logicalID and returns an unlock func.
func (s *stripedLocks) Lock(logicalID string) func() {
	m := s.shard(logicalID)
	m.Lock()
	return m.Unlock
}

// Package keymutex provides striped per-key mutual exclusion so that
// read-modify-write cycles on the same entity key are serialized without a
// single global lock blocking unrelated keys.
package keymutex

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 256

// KeyMutex maps string keys onto a fixed set of mutex shards. Two different
// keys may occasionally share a shard; a key always maps to the same shard.
type KeyMutex struct {
	shards []sync.Mutex
}

// New returns a KeyMutex with the given shard count (a default is applied for
// non-positive values).
func New(shards int) *KeyMutex {
	if shards <= 0 {
		shards = defaultShards
	}
	return &KeyMutex{shards: make([]sync.Mutex, shards)}
}

// Lock acquires the shard owning key and returns the matching unlock func.
func (m *KeyMutex) Lock(key string) func() {
	shard := &m.shards[m.index(key)]
	shard.Lock()
	return shard.Unlock
}

func (m *KeyMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.shards))
}

package internal

import (
	"hash/fnv"
	"sync"
)

const keyLockShards = 64

// KeyedMutex serializes work per key. Keys hash onto independent shards, and
// each key gets its own mutex for as long as someone holds or waits on it,
// so unrelated keys never wait on each other. The zero value is ready to use.
type KeyedMutex struct {
	shards [keyLockShards]keyLockShard
}

type keyLockShard struct {
	mu    sync.Mutex
	locks map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until key is free and returns the matching unlock function.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	shard := &k.shards[shardIndex(key)]

	shard.mu.Lock()
	if shard.locks == nil {
		shard.locks = make(map[string]*keyLockEntry)
	}
	entry, ok := shard.locks[key]
	if !ok {
		entry = &keyLockEntry{}
		shard.locks[key] = entry
	}
	entry.refs++
	shard.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			shard.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(shard.locks, key)
			}
			shard.mu.Unlock()
		})
	}
}

// Len reports how many keys currently have a live entry.
func (k *KeyedMutex) Len() int {
	n := 0
	for i := range k.shards {
		k.shards[i].mu.Lock()
		n += len(k.shards[i].locks)
		k.shards[i].mu.Unlock()
	}
	return n
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % keyLockShards
}

package client

import (
	"bytes"

	"github.com/cespare/xxhash"
)

// hashTable is a byte-keyed table: 64-bit xxhash buckets with
// chained entries compared by exact key. Keys are copied on insert,
// so callers may pass slices into transient buffers.
type hashTable[V any] struct {
	buckets map[uint64][]*tableEntry[V]
	n       int
}

type tableEntry[V any] struct {
	key []byte
	val V
}

func newHashTable[V any]() *hashTable[V] {
	return &hashTable[V]{buckets: make(map[uint64][]*tableEntry[V])}
}

func (t *hashTable[V]) lookup(key []byte) *tableEntry[V] {
	for _, e := range t.buckets[xxhash.Sum64(key)] {
		if bytes.Equal(e.key, key) {
			return e
		}
	}
	return nil
}

// seek finds or inserts the entry for key.
func (t *hashTable[V]) seek(key []byte) (e *tableEntry[V], isNew bool) {
	if e := t.lookup(key); e != nil {
		return e, false
	}
	h := xxhash.Sum64(key)
	e = &tableEntry[V]{key: append([]byte{}, key...)}
	t.buckets[h] = append(t.buckets[h], e)
	t.n++
	return e, true
}

func (t *hashTable[V]) remove(key []byte) {
	h := xxhash.Sum64(key)
	chain := t.buckets[h]
	for i, e := range chain {
		if bytes.Equal(e.key, key) {
			t.buckets[h] = append(chain[:i], chain[i+1:]...)
			if len(t.buckets[h]) == 0 {
				delete(t.buckets, h)
			}
			t.n--
			return
		}
	}
}

// entries snapshots the table for iteration; removals during the
// walk are safe.
func (t *hashTable[V]) entries() []*tableEntry[V] {
	out := make([]*tableEntry[V], 0, t.n)
	for _, chain := range t.buckets {
		out = append(out, chain...)
	}
	return out
}

func (t *hashTable[V]) size() int {
	return t.n
}

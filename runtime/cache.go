package runtime

import (
	"context"
	"fmt"
)

// Cache maps small integer identifiers to owned references so that a value
// can cross the engine's exclusive-access boundary: the id is safe to pass
// anywhere, and is redeemed back into a Ref only on the owner goroutine.
//
// Entries are never collected automatically. Every Insert must be balanced
// by exactly one Remove or the value lives as long as the engine instance.
type Cache struct {
	entries map[int32]*Ref
	free    []int32
	nextID  int32
}

func newCache() *Cache {
	return &Cache{entries: make(map[int32]*Ref)}
}

// Insert stores ref and returns its identifier. Ownership of the reference
// moves into the cache. Ids are assigned monotonically and reused only after
// explicit removal; a live id is never handed out twice.
func (c *Cache) Insert(ref *Ref) int32 {
	var id int32
	if n := len(c.free); n > 0 {
		id = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.nextID++
		id = c.nextID
	}
	c.entries[id] = ref
	return id
}

// Remove deletes the entry and transfers the reference (and its release
// obligation) back to the caller. Removing an unknown id is a bridge
// bookkeeping bug, not user error, and panics.
func (c *Cache) Remove(id int32) *Ref {
	ref, ok := c.entries[id]
	if !ok {
		panic(fmt.Sprintf("runtime: no cached value under id %d", id))
	}
	delete(c.entries, id)
	c.free = append(c.free, id)
	return ref
}

// With lends the cached reference to fn for the duration of the call; the
// entry stays owned by the cache. Panics on an unknown id.
func (c *Cache) With(id int32, fn func(*Ref) error) error {
	ref, ok := c.entries[id]
	if !ok {
		panic(fmt.Sprintf("runtime: no cached value under id %d", id))
	}
	return fn(ref)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// drain releases every remaining entry; called on instance teardown.
func (c *Cache) drain(ctx context.Context) {
	for id, ref := range c.entries {
		ref.Free(ctx)
		delete(c.entries, id)
	}
}
